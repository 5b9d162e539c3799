package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/edulane/quizdesk-backend/internal/middleware"
	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/edulane/quizdesk-backend/internal/response"
	"github.com/edulane/quizdesk-backend/internal/service"
	"github.com/edulane/quizdesk-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuizHandler handles quiz authoring endpoints for faculty and management.
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// actor builds the acting user from the validated claims.
func actor(c *gin.Context) *model.User {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return nil
	}
	return &model.User{ID: claims.UserID, Name: claims.Name, Role: claims.Role}
}

// List godoc
// GET /api/v1/staff/quizzes?page=&per_page=
// Faculty see their own quizzes; management sees all.
func (h *QuizHandler) List(c *gin.Context) {
	user := actor(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	authorID := user.ID
	if user.Role == model.RoleManagement {
		authorID = 0
	}

	quizzes, pagination, err := h.quizService.List(c.Request.Context(), authorID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"quizzes": quizzes}, pagination)
}

// Get godoc
// GET /api/v1/staff/quizzes/:quiz_id
// Returns the quiz with its full question set, correct answers included.
func (h *QuizHandler) Get(c *gin.Context) {
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

	quiz, err := h.quizService.GetWithQuestions(c.Request.Context(), quizID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if user.Role != model.RoleManagement && quiz.AuthorID != user.ID {
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizAuthor)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// Create godoc
// POST /api/v1/staff/quizzes
func (h *QuizHandler) Create(c *gin.Context) {
	user := actor(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), user.ID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// Update godoc
// PUT /api/v1/staff/quizzes/:quiz_id
func (h *QuizHandler) Update(c *gin.Context) {
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

	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), quizID, user, &req)
	if err != nil {
		h.failEdit(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// Delete godoc
// DELETE /api/v1/staff/quizzes/:quiz_id
func (h *QuizHandler) Delete(c *gin.Context) {
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

	if err := h.quizService.Delete(c.Request.Context(), quizID, user); err != nil {
		h.failEdit(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// ReplaceQuestions godoc
// PUT /api/v1/staff/quizzes/:quiz_id/questions
// Swaps the quiz's entire question set (bulk editor save).
func (h *QuizHandler) ReplaceQuestions(c *gin.Context) {
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

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := req.ToQuestions()
	if err := h.quizService.ReplaceQuestions(c.Request.Context(), quizID, user, questions); err != nil {
		if errors.Is(err, service.ErrInvalidQuestion) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestion)
			return
		}
		h.failEdit(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "questions_replaced"})
}

// Publish godoc
// POST /api/v1/staff/quizzes/:quiz_id/publish
func (h *QuizHandler) Publish(c *gin.Context) {
	h.transition(c, h.quizService.Publish, "published")
}

// Archive godoc
// POST /api/v1/staff/quizzes/:quiz_id/archive
func (h *QuizHandler) Archive(c *gin.Context) {
	h.transition(c, h.quizService.Archive, "archived")
}

// RefreshCache godoc
// POST /api/v1/staff/quizzes/:quiz_id/refresh-cache
// Re-caches the paper for a published quiz.
func (h *QuizHandler) RefreshCache(c *gin.Context) {
	h.transition(c, h.quizService.RefreshCache, "cache_refreshed")
}

// transition runs one of the status-change operations that share the
// claims/id/error plumbing.
func (h *QuizHandler) transition(c *gin.Context, op func(context.Context, uuid.UUID, *model.User) error, status string) {
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

	if err := op(c.Request.Context(), quizID, user); err != nil {
		if errors.Is(err, service.ErrInvalidQuestion) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestion)
			return
		}
		h.failEdit(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": status})
}

func (h *QuizHandler) failEdit(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizAuthor)
	case errors.Is(err, service.ErrQuizHasAttempts):
		response.Fail(c, http.StatusConflict, response.ErrQuizHasAttempts)
	case errors.Is(err, service.ErrQuizNotDraft):
		response.Fail(c, http.StatusBadRequest, response.ErrQuizNotDraft)
	case errors.Is(err, service.ErrQuizNotPublished):
		response.Fail(c, http.StatusBadRequest, response.ErrQuizNotPublished)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
