package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-access-service/internal/services"
	"github.com/SAP-F-2025/quiz-access-service/internal/utils"
)

type QuizAccessHandler struct {
	BaseHandler
	accessService services.QuizAccessService
}

func NewQuizAccessHandler(accessService services.QuizAccessService, logger utils.Logger) *QuizAccessHandler {
	return &QuizAccessHandler{
		BaseHandler:   NewBaseHandler(logger),
		accessService: accessService,
	}
}

// GetAccess tells the quiz page whether an attempt can start and what to ask first
// @Summary Get quiz access summary
// @Tags access
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.AccessSummary
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/access [get]
func (h *QuizAccessHandler) GetAccess(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	summary, err := h.accessService.GetAccess(c.Request.Context(), quizID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// StartAttempt starts an attempt, or resumes the open one
// @Summary Start quiz attempt
// @Tags access
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param attempt body services.StartAttemptRequest false "Preflight form"
// @Success 201 {object} services.AttemptResponse
// @Success 200 {object} services.AttemptResponse "open attempt resumed"
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /quizzes/{id}/attempts [post]
func (h *QuizAccessHandler) StartAttempt(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting quiz attempt", "quiz_id", quizID)

	req, ok := h.bindPreflight(c)
	if !ok {
		return
	}

	attempt, err := h.accessService.StartAttempt(c.Request.Context(), quizID, req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if attempt.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, attempt)
}

// ResumeAttempt continues an open attempt
// @Summary Resume quiz attempt
// @Tags access
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param attempt body services.StartAttemptRequest false "Preflight form"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/resume [post]
func (h *QuizAccessHandler) ResumeAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Resuming quiz attempt", "attempt_id", attemptID)

	req, ok := h.bindPreflight(c)
	if !ok {
		return
	}

	attempt, err := h.accessService.ResumeAttempt(c.Request.Context(), attemptID, req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// GetTimer returns the countdown of an attempt
// @Summary Get attempt timer
// @Tags access
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.TimerResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/timer [get]
func (h *QuizAccessHandler) GetTimer(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	timer, err := h.accessService.GetTimer(c.Request.Context(), attemptID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, timer)
}

// FinishAttempt submits an attempt
// @Summary Finish quiz attempt
// @Tags access
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/finish [post]
func (h *QuizAccessHandler) FinishAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	caller, ok := h.callerFromContext(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Finishing quiz attempt", "attempt_id", attemptID)

	attempt, err := h.accessService.FinishAttempt(c.Request.Context(), attemptID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// bindPreflight reads the optional preflight form
func (h *QuizAccessHandler) bindPreflight(c *gin.Context) (*services.StartAttemptRequest, bool) {
	var req services.StartAttemptRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return nil, false
		}
	}
	req.UserAgent = c.Request.UserAgent()
	return &req, true
}
