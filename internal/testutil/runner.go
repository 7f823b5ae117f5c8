package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/roach88/reposync/internal/cmdrun"
)

// Call records one command invocation seen by DiffRunner.
type Call struct {
	Dir     string
	Command string
	Args    []string
}

// DiffRunner stands in for an external diff tool. For a command of the form
// `diff [flags...] a b` it compares the two files byte for byte: identical
// files succeed, differing files fail with a *cmdrun.CommandError whose exit
// code is 1, mirroring diff(1). Any other command fails with a
// *cmdrun.LaunchError.
//
// Thread-safety: all methods are safe for concurrent use.
type DiffRunner struct {
	mu    sync.Mutex
	calls []Call
}

// Run implements cmdrun.Runner.
func (r *DiffRunner) Run(_ context.Context, dir, command string, args ...string) (cmdrun.Output, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Dir: dir, Command: command, Args: append([]string(nil), args...)})
	r.mu.Unlock()

	if command != "diff" || len(args) < 2 {
		return cmdrun.Output{}, &cmdrun.LaunchError{Command: command, Args: args, Err: fmt.Errorf("unexpected command")}
	}
	a, b := args[len(args)-2], args[len(args)-1]
	da, err := os.ReadFile(a)
	if err != nil {
		return cmdrun.Output{}, &cmdrun.LaunchError{Command: command, Args: args, Err: err}
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return cmdrun.Output{}, &cmdrun.LaunchError{Command: command, Args: args, Err: err}
	}
	if bytes.Equal(da, db) {
		return cmdrun.Output{}, nil
	}
	return cmdrun.Output{}, &cmdrun.CommandError{
		Command:  command,
		Args:     args,
		Stdout:   "contents differ\n",
		ExitCode: 1,
	}
}

// Calls returns the invocations seen so far, in order.
func (r *DiffRunner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Reset forgets recorded calls.
func (r *DiffRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
