package services

import (
	"errors"
	"fmt"
)

// Error taxonomy for the feedback engine. All of these are recoverable at the
// request boundary; controllers map them to status codes with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrSurveyNotActive    = errors.New("survey is not active")
	ErrInvalidTransition  = errors.New("operation not valid in current session state")
	ErrInvalidAnswerCount = errors.New("invalid number of answers")
	ErrDuplicateAnswer    = errors.New("duplicate answer key")
	ErrUnknownOptionKey   = errors.New("unknown option key")
	ErrConflict           = errors.New("session was modified concurrently")
)

// UnknownOptionKeyError names the offending key; it matches ErrUnknownOptionKey
// under errors.Is.
type UnknownOptionKeyError struct {
	Key string
}

func (e *UnknownOptionKeyError) Error() string {
	return fmt.Sprintf("unknown option key %q", e.Key)
}

func (e *UnknownOptionKeyError) Is(target error) bool {
	return target == ErrUnknownOptionKey
}
