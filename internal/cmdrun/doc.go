// Package cmdrun runs external commands to completion and captures their
// output.
//
// Both output streams are drained concurrently with the running process, so
// a child that fills one pipe while the other is idle can never block. The
// caller only observes a result after the process has exited and both
// streams have reached EOF.
//
// A nonzero exit status is reported as *CommandError, which carries the
// captured output. Anything that prevents the process from running to
// completion (missing executable, cancelled context, broken pipe) is
// reported as *LaunchError and is never retried.
package cmdrun
