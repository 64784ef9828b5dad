package errors

// Error codes for standardized error responses.
const (
	// Authentication errors
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeLoginFailed  = "login_failed"

	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeEmailRequired  = "email_required"

	// Resource errors
	ErrCodeQuizNotFound        = "quiz_not_found"
	ErrCodeQuestionSetNotFound = "question_set_not_found"
	ErrCodeInvalidQuestionSet  = "invalid_question_set"

	// Business logic errors
	ErrCodeNoQuestions     = "no_questions"
	ErrCodeEmailNotAllowed = "email_not_allowed"
	ErrCodeRoundInProgress = "round_in_progress"

	// Server errors
	ErrCodeInternalError = "internal_error"
)
