package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-access-service/internal/accessrules"
)

type AttemptState = accessrules.AttemptState

const (
	AttemptInProgress = accessrules.StateInProgress
	AttemptOverdue    = accessrules.StateOverdue
	AttemptFinished   = accessrules.StateFinished
	AttemptAbandoned  = accessrules.StateAbandoned
)

// OpenAttemptStates are the states an attempt can still be worked on in.
var OpenAttemptStates = []AttemptState{AttemptInProgress, AttemptOverdue}

// At most one attempt per user and quiz may be open, enforced by idx_attempt_open_owner.
type QuizAttempt struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	QuizID        uint         `json:"quiz_id" gorm:"not null;index:idx_attempt_quiz_user;uniqueIndex:idx_attempt_open_owner,where:state <> 'finished' AND state <> 'abandoned'"`
	UserID        string       `json:"user_id" gorm:"not null;size:255;index:idx_attempt_quiz_user;uniqueIndex:idx_attempt_open_owner,where:state <> 'finished' AND state <> 'abandoned'"`
	AttemptNumber int          `json:"attempt_number" gorm:"not null"`
	State         AttemptState `json:"state" gorm:"size:20;default:inprogress;index"`
	Preview       bool         `json:"preview" gorm:"default:false"`

	// Timing, Unix seconds
	TimeStart           int64 `json:"time_start"`
	TimeFinish          int64 `json:"time_finish"`
	TimeModifiedOffline int64 `json:"time_modified_offline"`

	// Metadata
	IPAddress   *string        `json:"ip_address" gorm:"size:45"`
	UserAgent   *string        `json:"user_agent" gorm:"type:text"`
	SessionData datatypes.JSON `json:"session_data" gorm:"type:jsonb"`

	// Owner snapshot taken at start, used by the overdue task when the user directory cannot resolve the owner
	UserGroups       datatypes.JSONSlice[string] `json:"-"`
	IgnoreTimeLimits bool                        `json:"-" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) IsOpen() bool {
	return a.State == AttemptInProgress || a.State == AttemptOverdue
}

// RuleAttempt converts the row for rule evaluation.
func (a *QuizAttempt) RuleAttempt() *accessrules.Attempt {
	if a == nil {
		return nil
	}
	return &accessrules.Attempt{
		ID:                  a.ID,
		AttemptNumber:       a.AttemptNumber,
		TimeStart:           a.TimeStart,
		TimeFinish:          a.TimeFinish,
		TimeModifiedOffline: a.TimeModifiedOffline,
		Preview:             a.Preview,
		State:               a.State,
	}
}
