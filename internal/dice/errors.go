package dice

import "fmt"

// ParseError is a user-facing description of malformed input.
type ParseError struct {
	Msg   string
	Input string
}

func (e *ParseError) Error() string {
	if e.Input == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s (in %q)", e.Msg, e.Input)
}

// Errorf builds a ParseError about input.
func Errorf(input, format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Input: input}
}
