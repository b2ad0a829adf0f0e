package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-access-service/internal/accessrules"
	"github.com/SAP-F-2025/quiz-access-service/internal/services"
	"github.com/SAP-F-2025/quiz-access-service/internal/utils"
)

// SessionHeader lets a client keep preflight checks apart between its own browser sessions
const SessionHeader = "X-Session-ID"

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, append(args, "user_id", c.GetString("user_id"))...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

// parseIDParam returns 0 after writing a 400 when the path parameter is not a positive integer
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name,
			Details: c.Param(name),
		})
		return 0
	}
	return uint(id)
}

// callerFromContext builds the access-rule caller from the authenticated user
func (h *BaseHandler) callerFromContext(c *gin.Context) (services.CallerInfo, bool) {
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return services.CallerInfo{}, false
	}
	return services.NewCallerInfo(user, c.ClientIP(), c.GetHeader(SessionHeader)), true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrPreflightFailed) {
		var fieldErrors accessrules.ValidationErrors
		errors.As(err, &fieldErrors)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Preflight check failed",
			Details: fieldErrors,
		})
		return
	}

	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var deniedError *services.AccessDeniedError
	if errors.As(err, &deniedError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: deniedError.Reason(),
			Details: map[string]interface{}{
				"reasons": deniedError.Reasons,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Quiz not found"})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, services.ErrOverrideNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Override not found"})
	case errors.Is(err, services.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt is not active"})
	case errors.Is(err, services.ErrInvalidOverride):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid override", Details: err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
