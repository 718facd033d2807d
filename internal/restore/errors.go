package restore

import "fmt"

// Exit codes of environment-fatal conditions
const (
	ExitNoConfigDir     = 10
	ExitProfileNotFound = 11
	ExitNoProfile       = 12
	ExitNoCommonOutput  = 13
	ExitNoMapping       = 14
)

// FatalError aborts the whole operation. Code is the process exit code.
type FatalError struct {
	Code int
	Err  error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal builds a FatalError from a format string
func Fatal(code int, format string, args ...any) *FatalError {
	return &FatalError{Code: code, Err: fmt.Errorf(format, args...)}
}
