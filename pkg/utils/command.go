package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a single external CLI invocation
const DefaultCommandTimeout = 2 * time.Minute

// CommandRunner runs an external command and returns its standard output.
// Provider clients depend on this interface so tests can replace the CLIs.
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec, bounding each call by Timeout
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner creates a runner with the given per-call timeout (DefaultCommandTimeout when zero)
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

// Output executes the command and returns stdout. A non-zero exit is returned
// as an error carrying the trimmed stderr of the command.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("command timed out after %s: %s", timeout, CommandLine(name, args...))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, fmt.Errorf("command failed (%d): %s: %s",
			exitErr.ExitCode(), CommandLine(name, args...), strings.TrimSpace(stderr.String()))
	}
	return nil, fmt.Errorf("failed to run %s: %w", CommandLine(name, args...), err)
}

// CommandLine renders a command and its arguments for log and error messages
func CommandLine(name string, args ...string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
