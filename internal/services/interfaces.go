package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-access-service/internal/accessrules"
	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/session"
)

// ===== CALLER =====

// CallerInfo identifies who is asking and from where
type CallerInfo struct {
	UserID     string
	Groups     []string
	RemoteAddr string
	// SessionID keys the preflight checks already passed in this login session
	SessionID string
	// IsPreviewUser callers (teachers) may always start preview attempts
	IsPreviewUser       bool
	CanIgnoreTimeLimits bool
}

// NewCallerInfo derives the caller from an authenticated user
func NewCallerInfo(user *models.User, remoteAddr, sessionID string) CallerInfo {
	if sessionID == "" {
		sessionID = user.ID
	}
	return CallerInfo{
		UserID:              user.ID,
		Groups:              user.Groups,
		RemoteAddr:          remoteAddr,
		SessionID:           sessionID,
		IsPreviewUser:       user.IsStaff(),
		CanIgnoreTimeLimits: user.Role == models.RoleAdmin,
	}
}

func (c CallerInfo) sessionKey() session.Key {
	return session.Key{UserID: c.UserID, SessionID: c.SessionID}
}

func (c CallerInfo) ruleCaller() accessrules.Caller {
	return accessrules.Caller{
		RemoteAddr:          c.RemoteAddr,
		IsPreviewUser:       c.IsPreviewUser,
		CanIgnoreTimeLimits: c.CanIgnoreTimeLimits,
	}
}

// ===== QUIZ DTOs =====

// QuizSettingsRequest creates a quiz or replaces its access settings. Times are Unix seconds.
type QuizSettingsRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	TimeOpen        int64  `json:"time_open" validate:"min=0"`
	TimeClose       int64  `json:"time_close" validate:"min=0"`
	TimeLimit       int64  `json:"time_limit" validate:"min=0"`
	GracePeriod     int64  `json:"grace_period" validate:"min=0"`
	OverdueHandling string `json:"overdue_handling" validate:"omitempty,overdue_handling"`
	Attempts        int    `json:"attempts" validate:"min=0,max=100"`
	Delay1          int64  `json:"delay1" validate:"min=0"`
	Delay2          int64  `json:"delay2" validate:"min=0"`
	Subnet          string `json:"subnet" validate:"omitempty,max=1000,subnet_list"`
	Password        string `json:"password" validate:"omitempty,max=255"`
	BrowserSecurity string `json:"browser_security" validate:"omitempty,browser_security"`
	AllowOffline    bool   `json:"allow_offline_attempts"`
}

// QuizResponse never exposes the quiz password
type QuizResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	TimeOpen        int64     `json:"time_open"`
	TimeClose       int64     `json:"time_close"`
	TimeLimit       int64     `json:"time_limit"`
	GracePeriod     int64     `json:"grace_period"`
	OverdueHandling string    `json:"overdue_handling"`
	Attempts        int       `json:"attempts"`
	Delay1          int64     `json:"delay1"`
	Delay2          int64     `json:"delay2"`
	Subnet          string    `json:"subnet"`
	HasPassword     bool      `json:"has_password"`
	BrowserSecurity string    `json:"browser_security"`
	AllowOffline    bool      `json:"allow_offline_attempts"`
	CreatedBy       string    `json:"created_by"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ===== ACCESS DTOs =====

// AccessSummary is everything a quiz landing page needs to decide what to show
type AccessSummary struct {
	QuizID      uint     `json:"quiz_id"`
	CanStart    bool     `json:"can_start"`
	Reason      string   `json:"reason,omitempty"`
	Reasons     []string `json:"reasons,omitempty"`
	IsFinished  bool     `json:"is_finished"`
	IsPreview   bool     `json:"is_preview"`
	Description []string `json:"descriptions"`

	NumAttempts int              `json:"num_attempts"`
	OpenAttempt *AttemptResponse `json:"open_attempt,omitempty"`

	PreflightRequired bool                         `json:"preflight_required"`
	PreflightFields   []accessrules.PreflightField `json:"preflight_fields,omitempty"`

	AttemptMustBeInPopup bool                      `json:"attempt_must_be_in_popup"`
	PopupOptions         *accessrules.PopupOptions `json:"popup_options,omitempty"`
	PageLayout           accessrules.PageLayout    `json:"page_layout"`
}

// StartAttemptRequest carries the preflight form
type StartAttemptRequest struct {
	Preflight accessrules.PreflightData `json:"preflight"`
	UserAgent string                    `json:"-"`
}

type AttemptResponse struct {
	*models.QuizAttempt
	EndTime  int64  `json:"end_time,omitempty"`
	TimeLeft *int64 `json:"time_left,omitempty"`
	Resumed  bool   `json:"resumed,omitempty"`

	AttemptMustBeInPopup bool                      `json:"attempt_must_be_in_popup"`
	PopupOptions         *accessrules.PopupOptions `json:"popup_options,omitempty"`
	PageLayout           accessrules.PageLayout    `json:"page_layout"`
}

// TimerResponse is polled by the attempt page countdown
type TimerResponse struct {
	AttemptID uint                `json:"attempt_id"`
	State     models.AttemptState `json:"state"`
	EndTime   int64               `json:"end_time,omitempty"`
	TimeLeft  *int64              `json:"time_left,omitempty"`
	Now       int64               `json:"now"`
}

// ===== OVERRIDE DTOs =====

// OverrideRequest lists the settings to replace. Nil fields keep the quiz value.
type OverrideRequest struct {
	TimeOpen  *int64  `json:"time_open" validate:"omitempty,min=0"`
	TimeClose *int64  `json:"time_close" validate:"omitempty,min=0"`
	TimeLimit *int64  `json:"time_limit" validate:"omitempty,min=0"`
	Attempts  *int    `json:"attempts" validate:"omitempty,min=0,max=100"`
	Password  *string `json:"password" validate:"omitempty,max=255"`
}

type OverrideResponse struct {
	*models.QuizOverride
	HasPassword bool `json:"has_password"`
}

// ===== TASK DTOs =====

// OverdueResult summarises one run of the overdue task
type OverdueResult struct {
	Checked   int `json:"checked"`
	Finished  int `json:"finished"`
	Overdue   int `json:"overdue"`
	Abandoned int `json:"abandoned"`
	Failed    int `json:"failed"`
}

// ===== SERVICE INTERFACES =====

type QuizService interface {
	Create(ctx context.Context, req *QuizSettingsRequest, creatorID string) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint) (*QuizResponse, error)
	UpdateSettings(ctx context.Context, id uint, req *QuizSettingsRequest) (*QuizResponse, error)
}

// QuizAccessService runs the access rules around the attempt lifecycle
type QuizAccessService interface {
	GetAccess(ctx context.Context, quizID uint, caller CallerInfo) (*AccessSummary, error)
	StartAttempt(ctx context.Context, quizID uint, req *StartAttemptRequest, caller CallerInfo) (*AttemptResponse, error)
	ResumeAttempt(ctx context.Context, attemptID uint, req *StartAttemptRequest, caller CallerInfo) (*AttemptResponse, error)
	GetTimer(ctx context.Context, attemptID uint, caller CallerInfo) (*TimerResponse, error)
	FinishAttempt(ctx context.Context, attemptID uint, caller CallerInfo) (*AttemptResponse, error)
}

type OverrideService interface {
	SetUserOverride(ctx context.Context, quizID uint, userID string, req *OverrideRequest, actorID string) (*OverrideResponse, error)
	SetGroupOverride(ctx context.Context, quizID uint, groupID string, req *OverrideRequest, actorID string) (*OverrideResponse, error)
	DeleteOverride(ctx context.Context, quizID, overrideID uint) error
	ListOverrides(ctx context.Context, quizID uint) ([]*OverrideResponse, error)
}

// OverdueService closes attempts whose time ran out while nobody was looking
type OverdueService interface {
	ProcessOverdueAttempts(ctx context.Context) (*OverdueResult, error)
	// Start runs ProcessOverdueAttempts every interval until ctx is cancelled
	Start(ctx context.Context, interval time.Duration)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Quiz() QuizService
	QuizAccess() QuizAccessService
	Override() OverrideService
	Overdue() OverdueService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
