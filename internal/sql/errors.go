package sql

import (
	"encoding/json"
	"fmt"
)

// SyntaxError reports input the tokenizer or parser cannot make sense
// of. Line is the 1-based source line of the offending token, or 0
// when the statement ended too early for there to be one.
type SyntaxError struct {
	Message string
	Line    int
}

func (e *SyntaxError) Error() string {
	return "SyntaxError: " + e.Message
}

// MarshalJSON renders the transport-facing error body.
func (e *SyntaxError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":    "syntax",
		"message": e.Message,
	})
}

// ValidationError reports a statement that is grammatically valid but
// violates schema or table constraints.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "ValidationError: " + e.Message
}

// MarshalJSON renders the transport-facing error body.
func (e *ValidationError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":    "validation",
		"message": e.Message,
	})
}

func syntaxErrorf(line int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Line: line}
}
