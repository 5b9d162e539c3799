package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for invalid session operations.
var (
	ErrNotActive        = errors.New("session is not in progress")
	ErrSubmitInFlight   = errors.New("submission already in flight")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	ErrUnknownQuestion  = errors.New("question does not belong to this quiz")
	ErrWrongAnswerShape = errors.New("answer shape does not match question type")
)

// LoadError marks a failure while fetching the quiz or creating the
// attempt. Load errors are terminal for the session: the only recovery is
// navigating away and starting over.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("session load failed: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// SubmitError marks a failed completion call. Submission errors are
// recoverable: the session reverts to in-progress and the user may retry.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return fmt.Sprintf("submission failed: %v", e.Err) }
func (e *SubmitError) Unwrap() error { return e.Err }
