package shellfiles

import (
	"io/fs"
	"path/filepath"
)

// Directories that hold generated or third-party files. cdk.out can contain
// staged asset trees with their own scripts.
var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	"cdk.out":      {},
	"dist":         {},
	"__pycache__":  {},
}

// FindByExtension returns every file under root carrying one of the
// extensions, skipping generated and dependency directories.
func FindByExtension(root string, extensions ...string) ([]string, error) {
	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		extSet[ext] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if _, skip := skipDirs[entry.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := extSet[filepath.Ext(path)]; ok {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func FindShellScripts(root string) ([]string, error) {
	return FindByExtension(root, ".sh")
}
