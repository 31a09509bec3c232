package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Setup materializes the given files (relative path to content) in a fresh
// temp directory and returns its path.
func Setup(tb testing.TB, files map[string]string) string {
	tb.Helper()

	root := tb.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("creating directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			tb.Fatalf("writing %s: %v", rel, err)
		}
	}
	return root
}

// RequireBinary skips the test when the named binary is not installed.
func RequireBinary(tb testing.TB, name string) {
	tb.Helper()

	if _, err := exec.LookPath(name); err != nil {
		tb.Skipf("skipping: %s not installed", name)
	}
}
