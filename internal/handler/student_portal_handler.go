package handler

import (
	"errors"
	"net/http"

	"github.com/edulane/quizdesk-backend/internal/middleware"
	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/edulane/quizdesk-backend/internal/response"
	"github.com/edulane/quizdesk-backend/internal/service"
	"github.com/edulane/quizdesk-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StudentPortalHandler handles the student-facing REST endpoints: lobby,
// attempt start/resume, paper, state, saves, completion, and result. The
// REST save/complete pair backs clients that cannot hold a WebSocket.
type StudentPortalHandler struct {
	attemptService *service.AttemptService
	quizService    *service.QuizService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	attemptService *service.AttemptService,
	quizService *service.QuizService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		attemptService: attemptService,
		quizService:    quizService,
	}
}

// GetLobby godoc
// GET /api/v1/student/lobby
// Returns the published quizzes with the student's attempt state overlaid.
func (h *StudentPortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.attemptService.GetLobby(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": lobby})
}

// StartAttempt godoc
// POST /api/v1/student/quizzes/:quiz_id/attempt
// Starts or resumes the student's attempt (idempotent).
func (h *StudentPortalHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.StartAttempt(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrQuizNotAvailable):
			response.Fail(c, http.StatusBadRequest, response.ErrQuizNotAvailable)
		case errors.Is(err, service.ErrAttemptAlreadyCompleted):
			response.Fail(c, http.StatusConflict, response.ErrAttemptAlreadyCompleted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetPaper godoc
// GET /api/v1/student/quizzes/:quiz_id/paper
// Returns the quiz paper from Redis. Requires an attempt, so students
// cannot download papers they have not started.
func (h *StudentPortalHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.attemptService.GetAttemptState(c.Request.Context(), quizID, claims.UserID)
	if err != nil || state.AttemptID == uuid.Nil {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	paper, err := h.quizService.GetPaper(c.Request.Context(), quizID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrQuizNotPublished)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// GetState godoc
// GET /api/v1/student/quizzes/:quiz_id/state
// Returns the resume payload: buffered answers and remaining seconds.
// Covers the page reload so the frontend can restore the attempt.
func (h *StudentPortalHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.attemptService.GetAttemptState(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SaveAnswer godoc
// PUT /api/v1/student/attempts/:attempt_id/answers
// Saves one answer. The WebSocket stream is the primary save path; this
// endpoint serves clients without one.
func (h *StudentPortalHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.SaveAnswer(c.Request.Context(), attemptID, req.QuestionID, req.Value()); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAttemptCompleted):
			response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
		case errors.Is(err, service.ErrUnknownQuestion), errors.Is(err, service.ErrWrongAnswerShape):
			response.Fail(c, http.StatusBadRequest, response.ErrWrongAnswerShape)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// CompleteAttempt godoc
// POST /api/v1/student/attempts/:attempt_id/complete
// Submits the attempt and runs the objective grading pass. Idempotent:
// a duplicate completion returns the existing result.
func (h *StudentPortalHandler) CompleteAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.CompleteAttempt(c.Request.Context(), attemptID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptAlreadyCompleted):
			response.Success(c, http.StatusOK, gin.H{"attempt": attempt, "already_completed": true})
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetResult godoc
// GET /api/v1/student/quizzes/:quiz_id/result
// Returns the student's own result, honoring show_results and allow_review.
func (h *StudentPortalHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAttemptNotCompleted):
			response.Fail(c, http.StatusBadRequest, response.ErrAttemptNotCompleted)
		case errors.Is(err, service.ErrResultsHidden):
			response.Fail(c, http.StatusForbidden, response.ErrResultsHidden)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}
