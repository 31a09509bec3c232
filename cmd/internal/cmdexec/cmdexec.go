package cmdexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Error is returned when a command exits non-zero. Callers can inspect the
// exit code and captured stderr.
type Error struct {
	Cmd      string
	Args     []string
	Dir      string
	ExitCode int
	Stderr   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s (in %s): exit %d",
		e.Cmd, strings.Join(e.Args, " "), e.Dir, e.ExitCode)
	if e.Stderr == "" {
		return msg
	}
	return msg + "\n" + strings.TrimSpace(e.Stderr)
}

// Output runs the command in dir and returns its stdout. Dir must be
// absolute so commands never depend on where the CLI was invoked.
func Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	if !filepath.IsAbs(dir) {
		return "", errors.Newf("cmdexec: dir must be absolute, got %q", dir)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", newError(dir, name, args, err, stderr.String())
	}
	return string(out), nil
}

// Run runs the command in dir wired to the CLI's stdin, stdout and stderr.
// Stderr is also captured for the returned Error.
func Run(ctx context.Context, dir, name string, args ...string) error {
	if !filepath.IsAbs(dir) {
		return errors.Newf("cmdexec: dir must be absolute, got %q", dir)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)

	if err := cmd.Run(); err != nil {
		return newError(dir, name, args, err, stderr.String())
	}
	return nil
}

func newError(dir, name string, args []string, err error, stderr string) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// Not an exit status: the binary is missing, or the context was
		// canceled. Keep the cause.
		return errors.Wrapf(err, "running %s in %s", name, dir)
	}
	if stderr == "" {
		stderr = string(exitErr.Stderr)
	}
	return &Error{
		Cmd:      name,
		Args:     args,
		Dir:      dir,
		ExitCode: exitErr.ExitCode(),
		Stderr:   stderr,
	}
}
