package gcode

import "fmt"

// SimpleError is a bottom-level diagnostic with no file position attached.
// Its message is the verbatim text shown to the user after the "Error:"
// prefix.
type SimpleError struct {
	Message string
}

// Errorf creates a SimpleError with a formatted message.
func Errorf(format string, args ...interface{}) *SimpleError {
	return &SimpleError{Message: fmt.Sprintf(format, args...)}
}

func (e *SimpleError) Error() string {
	return e.Message
}

// AtLine annotates the error with a 1-based file line number.
func (e *SimpleError) AtLine(line uint64) *LineError {
	return &LineError{Err: e, Line: line}
}

// NoLine wraps the error without a line annotation, for failures that
// happen outside any line context (e.g. opening the file).
func (e *SimpleError) NoLine() *LineError {
	return &LineError{Err: e}
}

// LineError is a SimpleError that crossed the file-line boundary.
// Line is 1-based; 0 means no line context is available.
type LineError struct {
	Err  *SimpleError
	Line uint64
}

func (e *LineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("At line %d:\nError: %s", e.Line, e.Err.Message)
	}
	return fmt.Sprintf("Error: %s", e.Err.Message)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
