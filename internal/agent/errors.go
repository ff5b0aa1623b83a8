package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors for the agent and its function registry.
var (
	ErrEmptyQuestion     = errors.New("question is empty")
	ErrQuestionTooLong   = errors.New("question is too long")
	ErrEmptyName         = errors.New("function name is empty")
	ErrDuplicateFunction = errors.New("function already registered")
	ErrFunctionNotFound  = errors.New("function not found")
	ErrMissingFunctions  = errors.New("function has no handler")
	ErrTimeout           = errors.New("completion timed out")
)

// ValidationError reports invalid user input: the question itself or the
// arguments of a function call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
