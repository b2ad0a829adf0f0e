package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-access-service/internal/accessrules"
)

// Quiz holds the access settings of a quiz. Times are Unix seconds, 0 means not set.
type Quiz struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Title string `json:"title" gorm:"not null;size:200"`

	// Timing
	TimeOpen        int64  `json:"time_open"`
	TimeClose       int64  `json:"time_close"`
	TimeLimit       int64  `json:"time_limit"`   // seconds
	GracePeriod     int64  `json:"grace_period"` // seconds
	OverdueHandling string `json:"overdue_handling" gorm:"size:20;default:autosubmit"`

	// Attempts
	Attempts int   `json:"attempts"` // 0 = unlimited
	Delay1   int64 `json:"delay1"`
	Delay2   int64 `json:"delay2"`

	// Extra restrictions
	Subnet          string `json:"subnet" gorm:"type:text"`
	Password        string `json:"password,omitempty" gorm:"size:255"` // plain or bcrypt hash
	BrowserSecurity string `json:"browser_security" gorm:"size:32"`
	AllowOffline    bool   `json:"allow_offline_attempts" gorm:"default:false"`

	// Free-form settings owned by other services (layout, review options, ...)
	Metadata datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedBy string         `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Settings converts the row into the snapshot the access rules evaluate.
func (q *Quiz) Settings() accessrules.Settings {
	return accessrules.Settings{
		QuizID:          q.ID,
		Attempts:        q.Attempts,
		TimeOpen:        q.TimeOpen,
		TimeClose:       q.TimeClose,
		TimeLimit:       q.TimeLimit,
		GracePeriod:     q.GracePeriod,
		OverdueHandling: accessrules.OverdueHandling(q.OverdueHandling),
		Subnet:          q.Subnet,
		Password:        q.Password,
		Delay1:          q.Delay1,
		Delay2:          q.Delay2,
		BrowserSecurity: accessrules.BrowserSecurity(q.BrowserSecurity),
		AllowOffline:    q.AllowOffline,
	}
}
