package events

import (
	"context"
	"log/slog"
	"sync"
)

// MockEventPublisher records events instead of sending them
type MockEventPublisher struct {
	mu     sync.Mutex
	events []AttemptEvent
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) PublishAttemptEvent(_ context.Context, event *AttemptEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	m.logger.Debug("Mock event recorded", "event_type", event.Type, "attempt_id", event.AttemptID)
	return nil
}

// GetPublishedEvents returns a copy of every recorded event
func (m *MockEventPublisher) GetPublishedEvents() []AttemptEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AttemptEvent(nil), m.events...)
}

// Reset forgets the recorded events
func (m *MockEventPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

func (m *MockEventPublisher) Close() error { return nil }
