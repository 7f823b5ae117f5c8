package cmdrun

import (
	"errors"
	"fmt"
	"strings"
)

// CommandError reports that a command ran but exited with a nonzero status.
type CommandError struct {
	Command  string
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
}

func (e *CommandError) Error() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "running %s: exit status %d", commandLine(e.Command, e.Args), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

// LaunchError reports that a command could not be started or that waiting
// for it was interrupted.
type LaunchError struct {
	Command string
	Args    []string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("cannot run process %s: %v", commandLine(e.Command, e.Args), e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsCommandError reports whether err is, or wraps, a *CommandError.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// IsLaunchError reports whether err is, or wraps, a *LaunchError.
func IsLaunchError(err error) bool {
	var le *LaunchError
	return errors.As(err, &le)
}

func commandLine(command string, args []string) string {
	return strings.Join(append([]string{command}, args...), " ")
}
