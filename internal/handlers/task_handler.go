package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-access-service/internal/services"
	"github.com/SAP-F-2025/quiz-access-service/internal/utils"
)

type TaskHandler struct {
	BaseHandler
	overdueService services.OverdueService
	healthCheck    func(ctx context.Context) error
}

func NewTaskHandler(overdueService services.OverdueService, healthCheck func(ctx context.Context) error, logger utils.Logger) *TaskHandler {
	return &TaskHandler{
		BaseHandler:    NewBaseHandler(logger),
		overdueService: overdueService,
		healthCheck:    healthCheck,
	}
}

// RunOverdue runs the overdue attempt task immediately
// @Summary Process overdue attempts
// @Tags tasks
// @Produce json
// @Success 200 {object} services.OverdueResult
// @Router /tasks/overdue [post]
func (h *TaskHandler) RunOverdue(c *gin.Context) {
	h.LogRequest(c, "Running overdue attempt task")

	result, err := h.overdueService.ProcessOverdueAttempts(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TaskHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.healthCheck != nil {
		if err := h.healthCheck(ctx); err != nil {
			h.LogError(c, err, "Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "quiz-access-service",
				"error":   err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-access-service",
	})
}
