package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestWatermillPublisher_GoChannel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher, pubSub := NewGoChannelPublisher("", logger)
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, DefaultTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	event := &AttemptEvent{Type: AttemptStarted, QuizID: 4, AttemptID: 9, UserID: "u1", AttemptNumber: 1, State: "inprogress"}
	if err := publisher.PublishAttemptEvent(ctx, event); err != nil {
		t.Fatalf("PublishAttemptEvent() error = %v", err)
	}
	if event.ID == "" || event.OccurredAt.IsZero() {
		t.Error("event id and time should be filled in")
	}

	select {
	case msg := <-messages:
		msg.Ack()
		if msg.UUID != event.ID {
			t.Errorf("message uuid = %s, want %s", msg.UUID, event.ID)
		}
		if msg.Metadata.Get("event_type") != string(AttemptStarted) {
			t.Errorf("event_type metadata = %q", msg.Metadata.Get("event_type"))
		}
		var got AttemptEvent
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatal(err)
		}
		if got.AttemptID != 9 || got.UserID != "u1" {
			t.Errorf("payload = %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_ = mock.PublishAttemptEvent(context.Background(), &AttemptEvent{Type: AttemptFinished})
	_ = mock.PublishAttemptEvent(context.Background(), &AttemptEvent{Type: AttemptOverdue})

	got := mock.GetPublishedEvents()
	if len(got) != 2 || got[1].Type != AttemptOverdue {
		t.Errorf("GetPublishedEvents() = %+v", got)
	}
	mock.Reset()
	if len(mock.GetPublishedEvents()) != 0 {
		t.Error("Reset() should clear events")
	}
}
