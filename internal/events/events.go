package events

import (
	"context"
	"time"
)

// EventType names an attempt lifecycle event
type EventType string

const (
	AttemptStarted   EventType = "attempt.started"
	AttemptFinished  EventType = "attempt.finished"
	AttemptOverdue   EventType = "attempt.overdue"
	AttemptAbandoned EventType = "attempt.abandoned"
)

// DefaultTopic is where attempt events are published unless configured otherwise
const DefaultTopic = "quiz.attempts"

// AttemptEvent is published whenever an attempt changes state
type AttemptEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	QuizID        uint      `json:"quiz_id"`
	AttemptID     uint      `json:"attempt_id"`
	UserID        string    `json:"user_id"`
	AttemptNumber int       `json:"attempt_number"`
	State         string    `json:"state"`
	Preview       bool      `json:"preview"`
	TimeStart     int64     `json:"time_start,omitempty"`
	TimeFinish    int64     `json:"time_finish,omitempty"`
	EndTime       int64     `json:"end_time,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher publishes attempt events
type Publisher interface {
	PublishAttemptEvent(ctx context.Context, event *AttemptEvent) error
	Close() error
}
