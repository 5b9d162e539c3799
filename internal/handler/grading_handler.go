package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/edulane/quizdesk-backend/internal/response"
	"github.com/edulane/quizdesk-backend/internal/service"
	"github.com/edulane/quizdesk-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GradingHandler handles the manual grading endpoints for staff.
type GradingHandler struct {
	attemptService *service.AttemptService
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(attemptService *service.AttemptService) *GradingHandler {
	return &GradingHandler{attemptService: attemptService}
}

// ListAttempts godoc
// GET /api/v1/staff/quizzes/:quiz_id/attempts?page=&per_page=
func (h *GradingHandler) ListAttempts(c *gin.Context) {
	user := actor(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	attempts, pagination, err := h.attemptService.ListAttempts(c.Request.Context(), quizID, user, page, perPage)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": attempts}, pagination)
}

// GetAttempt godoc
// GET /api/v1/staff/attempts/:attempt_id
// Returns the attempt with its answers and the quiz's full question set.
func (h *GradingHandler) GetAttempt(c *gin.Context) {
	user := actor(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, quiz, err := h.attemptService.GetAttemptDetail(c.Request.Context(), attemptID, user)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt, "quiz": quiz})
}

// GradeAttempt godoc
// POST /api/v1/staff/attempts/:attempt_id/grade
// Applies manual per-question scores and recomputes the totals.
func (h *GradingHandler) GradeAttempt(c *gin.Context) {
	user := actor(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.GradeAttempt(c.Request.Context(), attemptID, user, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

func (h *GradingHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizAuthor)
	case errors.Is(err, service.ErrAttemptNotCompleted):
		response.Fail(c, http.StatusBadRequest, response.ErrAttemptNotCompleted)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
