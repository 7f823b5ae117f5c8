package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	gh "github.com/google/go-github/v48/github"

	"github.com/roach88/reposync/internal/cmdrun"
	"github.com/roach88/reposync/internal/expression"
	"github.com/roach88/reposync/internal/project"
	"github.com/roach88/reposync/internal/repository"
	"github.com/roach88/reposync/internal/resolve"
	"github.com/roach88/reposync/internal/revision"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Negative answer: codebases differ, scenarios failed, no match
	ExitCommandError = 2 // Command error (bad config, bad expression, database unreadable)
)

// Error codes reported by the CLI in addition to project.ErrCode* and
// resolve.Code*.
const (
	ErrCodeGeneric         = "ERROR"
	ErrCodeUsage           = "USAGE"
	ErrCodeParse           = "PARSE_ERROR"
	ErrCodeInvalidProject  = "INVALID_PROJECT"
	ErrCodeUnresolvable    = "UNRESOLVABLE_REVISION"
	ErrCodeCommand         = "COMMAND_FAILED"
	ErrCodeGitHub          = "GITHUB"
	ErrCodeScenariosFailed = "SCENARIOS_FAILED"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the command has already printed the outcome,
	// so the caller should not print the error again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode classifies err for the "code" field of an error response.
func ErrorCode(err error) string {
	var (
		loadErr    *project.LoadError
		resolveErr *resolve.Error
		parseErr   *expression.ParseError
		projectErr *repository.InvalidProjectError
		githubErr  *gh.ErrorResponse
	)
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code
	case errors.As(err, &resolveErr):
		return resolveErr.Code
	case errors.As(err, &parseErr):
		return ErrCodeParse
	case errors.As(err, &projectErr):
		return ErrCodeInvalidProject
	case errors.Is(err, repository.ErrUnresolvableRevision):
		return ErrCodeUnresolvable
	case errors.Is(err, revision.ErrSameRepository):
		return ErrCodeUsage
	case cmdrun.IsCommandError(err), cmdrun.IsLaunchError(err):
		return ErrCodeCommand
	case errors.As(err, &githubErr):
		return ErrCodeGitHub
	}
	return ErrCodeGeneric
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // project, resolve or CLI error code
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// Text output prints data with fmt.Println.
func (f *OutputFormatter) Success(data any) error {
	return f.Emit(data, func(w io.Writer) {
		fmt.Fprintln(w, data)
	})
}

// Emit outputs data as a JSON "ok" response, or calls text to render it
// for people.
func (f *OutputFormatter) Emit(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err through Error and returns it as an ExitError with the
// given exit code, so RunE can return the result directly. A nil err is a
// usage error.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	code, text := ErrCodeUsage, message
	if err != nil {
		code = ErrorCode(err)
		text = fmt.Sprintf("%s: %v", message, err)
	}
	if outErr := f.Error(code, text, nil); outErr != nil {
		return outErr
	}
	return &ExitError{Code: exitCode, Message: message, Err: err, Reported: true}
}

// reportedExit returns an ExitError for an outcome already printed.
func reportedExit(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message, Reported: true}
}

// IsReported reports whether err is an ExitError whose outcome the command
// has already printed.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
