package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/services"
	"github.com/SAP-F-2025/quiz-access-service/internal/utils"
)

type HandlerManager struct {
	quizHandler     *QuizHandler
	accessHandler   *QuizAccessHandler
	overrideHandler *OverrideHandler
	taskHandler     *TaskHandler
	authMiddleware  *AuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	verifier TokenVerifier,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:     NewQuizHandler(serviceManager.Quiz(), logger),
		accessHandler:   NewQuizAccessHandler(serviceManager.QuizAccess(), logger),
		overrideHandler: NewOverrideHandler(serviceManager.Override(), logger),
		taskHandler:     NewTaskHandler(serviceManager.Overdue(), serviceManager.HealthCheck, logger),
		authMiddleware:  NewAuthMiddleware(verifier, logger),
	}
}

// NewEngine creates the gin engine. X-Forwarded-For is only honoured when the peer is
// one of trustedProxies, so the IP address rule sees the real client when the list is empty.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	return router, nil
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	staff := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		quizzes := v1.Group("/quizzes")
		{
			// Quiz settings - Teachers and Admins only
			quizzes.POST("", staff, hm.quizHandler.CreateQuiz)
			quizzes.PUT("/:id/settings", staff, hm.quizHandler.UpdateSettings)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)

			// Access checks and attempts - All authenticated users
			quizzes.GET("/:id/access", hm.accessHandler.GetAccess)
			quizzes.POST("/:id/attempts", hm.accessHandler.StartAttempt)

			// Overrides - Teachers and Admins only
			quizzes.GET("/:id/overrides", staff, hm.overrideHandler.ListOverrides)
			quizzes.PUT("/:id/overrides/users/:user_id", staff, hm.overrideHandler.SetUserOverride)
			quizzes.PUT("/:id/overrides/groups/:group_id", staff, hm.overrideHandler.SetGroupOverride)
			quizzes.DELETE("/:id/overrides/:override_id", staff, hm.overrideHandler.DeleteOverride)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/:id/resume", hm.accessHandler.ResumeAttempt)
			attempts.GET("/:id/timer", hm.accessHandler.GetTimer)
			attempts.POST("/:id/finish", hm.accessHandler.FinishAttempt)
		}

		// Scheduled task triggers - Admins only
		tasks := v1.Group("/tasks")
		tasks.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			tasks.POST("/overdue", hm.taskHandler.RunOverdue)
		}
	}

	router.GET("/health", hm.taskHandler.Health)
}
