// Package executor runs external programs for the release pipeline.
// This package implements the domain.CommandRunner interface using os/exec.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// Logger defines the logging interface for the runner.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Runner executes commands sequentially, echoing each invocation and
// forwarding the child's output live to the configured writers.
type Runner struct {
	stdout io.Writer
	stderr io.Writer
	env    map[string]string
	logger Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets the writers that receive the invocation echo and child output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithEnv adds environment variables on top of the current process environment.
func WithEnv(env map[string]string) Option {
	return func(r *Runner) {
		if r.env == nil {
			r.env = make(map[string]string, len(env))
		}
		for k, v := range env {
			r.env[k] = v
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log Logger) Option {
	return func(r *Runner) {
		r.logger = log
	}
}

// NewRunner creates a Runner writing to os.Stdout and os.Stderr by default.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes name with args inside dir. The exit code alone decides success:
// a non-zero exit, or a failure to start, returns a *domain.CommandError.
func (r *Runner) Run(ctx context.Context, dir string, name string, args ...string) error {
	line := name
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}

	// Transcript echo; a failed write must not stop the release.
	_, _ = fmt.Fprintln(r.stdout, line)

	if r.logger != nil {
		r.logger.Debug(ctx, "executing command", map[string]interface{}{
			"command": line,
			"dir":     dir,
		})
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if len(r.env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range r.env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	cmdErr := &domain.CommandError{
		Command:  name,
		Args:     append([]string(nil), args...),
		Dir:      dir,
		ExitCode: exitCode,
		Err:      err,
	}

	if r.logger != nil {
		r.logger.Warn(ctx, "command failed", map[string]interface{}{
			"command":   line,
			"dir":       dir,
			"exit_code": exitCode,
		})
	}

	return cmdErr
}
