package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-access-service/internal/services"
	"github.com/SAP-F-2025/quiz-access-service/internal/utils"
)

type OverrideHandler struct {
	BaseHandler
	overrideService services.OverrideService
}

func NewOverrideHandler(overrideService services.OverrideService, logger utils.Logger) *OverrideHandler {
	return &OverrideHandler{
		BaseHandler:     NewBaseHandler(logger),
		overrideService: overrideService,
	}
}

// ListOverrides lists the user and group overrides of a quiz
// @Summary List quiz overrides
// @Tags overrides
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {array} services.OverrideResponse
// @Router /quizzes/{id}/overrides [get]
func (h *OverrideHandler) ListOverrides(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	overrides, err := h.overrideService.ListOverrides(c.Request.Context(), quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overrides)
}

// SetUserOverride creates or replaces the override of one user
// @Summary Set user override
// @Tags overrides
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param user_id path string true "User ID"
// @Param override body services.OverrideRequest true "Settings to override"
// @Success 200 {object} services.OverrideResponse
// @Router /quizzes/{id}/overrides/users/{user_id} [put]
func (h *OverrideHandler) SetUserOverride(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	userID := c.Param("user_id")

	h.LogRequest(c, "Setting user override", "quiz_id", quizID, "target_user_id", userID)

	var req services.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	override, err := h.overrideService.SetUserOverride(c.Request.Context(), quizID, userID, &req, c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, override)
}

// SetGroupOverride creates or replaces the override of one group
// @Summary Set group override
// @Tags overrides
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param group_id path string true "Group ID"
// @Param override body services.OverrideRequest true "Settings to override"
// @Success 200 {object} services.OverrideResponse
// @Router /quizzes/{id}/overrides/groups/{group_id} [put]
func (h *OverrideHandler) SetGroupOverride(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	groupID := c.Param("group_id")

	h.LogRequest(c, "Setting group override", "quiz_id", quizID, "group_id", groupID)

	var req services.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	override, err := h.overrideService.SetGroupOverride(c.Request.Context(), quizID, groupID, &req, c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, override)
}

// DeleteOverride removes an override
// @Summary Delete override
// @Tags overrides
// @Param id path uint true "Quiz ID"
// @Param override_id path uint true "Override ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/overrides/{override_id} [delete]
func (h *OverrideHandler) DeleteOverride(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	overrideID := h.parseIDParam(c, "override_id")
	if overrideID == 0 {
		return
	}

	h.LogRequest(c, "Deleting override", "quiz_id", quizID, "override_id", overrideID)

	if err := h.overrideService.DeleteOverride(c.Request.Context(), quizID, overrideID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
