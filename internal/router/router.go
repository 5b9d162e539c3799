package router

import (
	"net/http"
	"time"

	"github.com/edulane/quizdesk-backend/internal/config"
	"github.com/edulane/quizdesk-backend/internal/handler"
	"github.com/edulane/quizdesk-backend/internal/middleware"
	"github.com/edulane/quizdesk-backend/internal/response"
	"github.com/edulane/quizdesk-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	Quiz          *handler.QuizHandler
	Grading       *handler.GradingHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireAnyJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAnyJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Active Session) ───────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckActiveSession(authService),
	)
	{
		studentAPI.GET("/lobby", handlers.StudentPortal.GetLobby)
		studentAPI.POST("/quizzes/:quiz_id/attempt", handlers.StudentPortal.StartAttempt)
		studentAPI.GET("/quizzes/:quiz_id/paper", handlers.StudentPortal.GetPaper)
		studentAPI.GET("/quizzes/:quiz_id/state", handlers.StudentPortal.GetState)
		studentAPI.GET("/quizzes/:quiz_id/result", handlers.StudentPortal.GetResult)
		studentAPI.PUT("/attempts/:attempt_id/answers", handlers.StudentPortal.SaveAnswer)
		studentAPI.POST("/attempts/:attempt_id/complete", handlers.StudentPortal.CompleteAttempt)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/quizzes/:quiz_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Staff Group (Faculty + Management JWT) ─────────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(middleware.RequireStaffJWT(authService))
	{
		staffAPI.GET("/quizzes", handlers.Quiz.List)
		staffAPI.POST("/quizzes", handlers.Quiz.Create)
		staffAPI.GET("/quizzes/:quiz_id", handlers.Quiz.Get)
		staffAPI.PUT("/quizzes/:quiz_id", handlers.Quiz.Update)
		staffAPI.DELETE("/quizzes/:quiz_id", handlers.Quiz.Delete)
		staffAPI.PUT("/quizzes/:quiz_id/questions", handlers.Quiz.ReplaceQuestions)
		staffAPI.POST("/quizzes/:quiz_id/publish", handlers.Quiz.Publish)
		staffAPI.POST("/quizzes/:quiz_id/archive", handlers.Quiz.Archive)
		staffAPI.POST("/quizzes/:quiz_id/refresh-cache", handlers.Quiz.RefreshCache)

		staffAPI.GET("/quizzes/:quiz_id/attempts", handlers.Grading.ListAttempts)
		staffAPI.GET("/attempts/:attempt_id", handlers.Grading.GetAttempt)
		staffAPI.POST("/attempts/:attempt_id/grade", handlers.Grading.GradeAttempt)
	}

	return router
}
