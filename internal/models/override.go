package models

import (
	"time"

	"github.com/SAP-F-2025/quiz-access-service/internal/accessrules"
)

// QuizOverride changes quiz settings for one user or one group. Exactly one of UserID and GroupID is set.
// Nil fields keep the quiz value.
type QuizOverride struct {
	ID      uint    `json:"id" gorm:"primaryKey"`
	QuizID  uint    `json:"quiz_id" gorm:"not null;index"`
	UserID  *string `json:"user_id,omitempty" gorm:"size:255;index"`
	GroupID *string `json:"group_id,omitempty" gorm:"size:255;index"`

	TimeOpen  *int64  `json:"time_open,omitempty"`
	TimeClose *int64  `json:"time_close,omitempty"`
	TimeLimit *int64  `json:"time_limit,omitempty"`
	Attempts  *int    `json:"attempts,omitempty"`
	Password  *string `json:"-" gorm:"size:255"`

	CreatedBy string    `json:"created_by" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizOverride) TableName() string {
	return "quiz_overrides"
}

// IsUserOverride reports whether the override targets a single user.
func (o *QuizOverride) IsUserOverride() bool {
	return o.UserID != nil
}

func (o *QuizOverride) RuleOverride() accessrules.Override {
	return accessrules.Override{
		TimeOpen:  o.TimeOpen,
		TimeClose: o.TimeClose,
		TimeLimit: o.TimeLimit,
		Attempts:  o.Attempts,
		Password:  o.Password,
	}
}
