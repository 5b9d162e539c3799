package service

import "errors"

// Sentinel errors shared by the service layer. Handlers map these onto
// the response error codes.
var (
	ErrNotFound                = errors.New("resource not found")
	ErrForbidden               = errors.New("forbidden")
	ErrQuizNotAvailable        = errors.New("quiz is not available")
	ErrQuizNotPublished        = errors.New("quiz is not published")
	ErrQuizNotDraft            = errors.New("quiz is not in draft status")
	ErrQuizHasAttempts         = errors.New("quiz already has attempts")
	ErrNoQuestions             = errors.New("quiz has no questions")
	ErrInvalidQuestion         = errors.New("invalid question")
	ErrAttemptCompleted        = errors.New("attempt has already been completed")
	ErrAttemptAlreadyCompleted = errors.New("answers were already submitted for this quiz")
	ErrAttemptNotCompleted     = errors.New("attempt has not been completed yet")
	ErrUnknownQuestion         = errors.New("question does not belong to this quiz")
	ErrWrongAnswerShape        = errors.New("answer value does not match the question type")
	ErrResultsHidden           = errors.New("results are hidden for this quiz")
)
