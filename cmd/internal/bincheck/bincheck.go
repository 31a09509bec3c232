package bincheck

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Result reports whether a binary is installed and where it resolved to.
type Result struct {
	InPath bool
	Path   string
}

// Checker caches binary lookups so repeated checks of the same name stay
// cheap.
type Checker struct {
	cache sync.Map
}

func NewChecker() *Checker {
	return &Checker{}
}

func (c *Checker) Check(name string) Result {
	if v, ok := c.cache.Load(name); ok {
		r, _ := v.(Result)
		return r
	}

	var r Result
	if path, err := exec.LookPath(name); err == nil {
		r = Result{InPath: true, Path: path}
	}

	actual, _ := c.cache.LoadOrStore(name, r)
	stored, _ := actual.(Result)
	return stored
}

// Version runs the binary with the given arguments and returns the first
// line of its output, trimmed. Most version flags print a single line;
// multi-line output keeps only the part worth showing.
func Version(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", errors.Wrapf(err, "running %s %s", name, strings.Join(args, " "))
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}
