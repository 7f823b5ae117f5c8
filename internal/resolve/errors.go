package resolve

import (
	"errors"
	"fmt"
)

// Error codes reported in Error.Code.
const (
	CodeUnknownRepository = "UNKNOWN_REPOSITORY"
	CodeUnknownOption     = "UNKNOWN_OPTION"
	CodeUnknownTranslator = "UNKNOWN_TRANSLATOR"
	CodeUnknownEditor     = "UNKNOWN_EDITOR"
	CodeInvalidOption     = "INVALID_OPTION"
)

// Error reports an expression that names something that does not exist or
// carries an option its target does not accept.
type Error struct {
	Code       string
	Expression string
	Key        string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s in expression %q", e.Code, e.Message, e.Expression)
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code string) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == code
}
