package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrStaffAccessOnly   ErrCode = "STAFF_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrQuizNotAvailable        ErrCode = "QUIZ_NOT_AVAILABLE"
	ErrQuizNotPublished        ErrCode = "QUIZ_NOT_PUBLISHED"
	ErrQuizNotDraft            ErrCode = "QUIZ_NOT_DRAFT"
	ErrQuizHasAttempts         ErrCode = "QUIZ_HAS_ATTEMPTS"
	ErrNotQuizAuthor           ErrCode = "NOT_QUIZ_AUTHOR"
	ErrNoQuestions             ErrCode = "NO_QUESTIONS"
	ErrInvalidQuestion         ErrCode = "INVALID_QUESTION"
	ErrAttemptCompleted        ErrCode = "ATTEMPT_COMPLETED"
	ErrAttemptAlreadyCompleted ErrCode = "ATTEMPT_ALREADY_COMPLETED"
	ErrAttemptNotCompleted     ErrCode = "ATTEMPT_NOT_COMPLETED"
	ErrWrongAnswerShape        ErrCode = "WRONG_ANSWER_SHAPE"
	ErrResultsHidden           ErrCode = "RESULTS_HIDDEN"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrStaffAccessOnly:
		return "This resource is restricted to faculty and management."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrQuizNotAvailable:
		return "This quiz is not available right now."
	case ErrQuizNotPublished:
		return "This quiz has not been published."
	case ErrQuizNotDraft:
		return "This quiz is not in DRAFT status."
	case ErrQuizHasAttempts:
		return "This quiz already has attempts and can no longer be edited."
	case ErrNotQuizAuthor:
		return "You are not the author of this quiz."
	case ErrNoQuestions:
		return "This quiz has no questions."
	case ErrInvalidQuestion:
		return "One or more questions are invalid."
	case ErrAttemptCompleted:
		return "This attempt has already been submitted."
	case ErrAttemptAlreadyCompleted:
		return "Your answers were already submitted for this quiz."
	case ErrAttemptNotCompleted:
		return "This attempt has not been submitted yet."
	case ErrWrongAnswerShape:
		return "The answer does not match the question type."
	case ErrResultsHidden:
		return "Results are not visible for this quiz."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
