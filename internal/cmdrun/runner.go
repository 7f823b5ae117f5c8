package cmdrun

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Output is the captured output of a command that exited successfully.
type Output struct {
	Stdout string
	Stderr string
}

// Runner runs an external command in dir and blocks until it exits.
// An empty dir runs the command in the current working directory.
type Runner interface {
	Run(ctx context.Context, dir, command string, args ...string) (Output, error)
}

// RunStdout runs the command and returns only its standard output.
func RunStdout(ctx context.Context, r Runner, dir, command string, args ...string) (string, error) {
	out, err := r.Run(ctx, dir, command, args...)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

// SystemRunner runs commands as operating system processes.
type SystemRunner struct {
	// Logger receives one debug line per command. Defaults to slog.Default().
	Logger *slog.Logger

	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// NewSystemRunner returns a SystemRunner that logs to logger.
func NewSystemRunner(logger *slog.Logger) *SystemRunner {
	return &SystemRunner{Logger: logger}
}

// Run implements Runner.
//
// Standard input is closed. Standard output and standard error are copied
// into separate buffers by the exec package's copying goroutines, and Wait
// returns only after both copies hit EOF, so output of any volume on either
// stream is drained without deadlock.
func (r *SystemRunner) Run(ctx context.Context, dir, command string, args ...string) (Output, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("run command", "dir", dir, "cmd", commandLine(command, args))

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	if r.Env != nil {
		cmd.Env = r.Env
	} else {
		cmd.Env = os.Environ()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdin = nil
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Output{}, &LaunchError{Command: command, Args: args, Err: err}
	}
	err := cmd.Wait()

	out := Output{Stdout: decode(stdout.Bytes()), Stderr: decode(stderr.Bytes())}
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Output{}, &LaunchError{Command: command, Args: args, Err: ctxErr}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		return Output{}, &CommandError{
			Command:  command,
			Args:     args,
			Stdout:   out.Stdout,
			Stderr:   out.Stderr,
			ExitCode: exitErr.ExitCode(),
		}
	}
	return Output{}, &LaunchError{Command: command, Args: args, Err: err}
}

// decode converts the accumulated bytes to a string once, replacing invalid
// UTF-8 sequences.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
