package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes an external command in the given working directory and
// returns an error when it exits non-zero.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// CommandError reports a failed external command together with its exit code.
type CommandError struct {
	// Name is the executable that was invoked.
	Name string
	// Args are the arguments it was invoked with.
	Args []string
	// Dir is the working directory of the invocation.
	Dir string
	// ExitCode is the command's exit code, or -1 when it never ran.
	ExitCode int
	// Err is the underlying error from os/exec.
	Err error
}

// Error renders the failing command line, directory and exit code.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q in %s failed with exit code %d: %v",
		strings.Join(append([]string{e.Name}, e.Args...), " "), e.Dir, e.ExitCode, e.Err)
}

// Unwrap exposes the underlying os/exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec, inheriting the operator's terminal.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args in dir and blocks until the command exits.
// Stdout and stderr are inherited so the operator sees the tools' own output.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		return &CommandError{
			Name:     name,
			Args:     args,
			Dir:      dir,
			ExitCode: exitCode,
			Err:      err,
		}
	}

	return nil
}
