package memory

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"ordering/internal/scheduler"
)

func TestOneShotReminderFiresOnce(t *testing.T) {
	s := NewScheduler(slog.Default())

	fired := make(chan scheduler.Reminder, 4)
	s.SetHandler(func(ctx context.Context, r scheduler.Reminder) error {
		fired <- r
		return nil
	})

	orderID := uuid.New()
	payload := []byte(`[1,2]`)
	if err := s.Schedule(context.Background(), orderID, "stock-rejected", payload, 5*time.Millisecond, 0); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case r := <-fired:
		if r.OrderID != orderID || r.Name != "stock-rejected" || string(r.Payload) != `[1,2]` {
			t.Fatalf("unexpected reminder: %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("reminder never fired")
	}

	select {
	case r := <-fired:
		t.Fatalf("one-shot reminder fired again: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPeriodicReminderRefires(t *testing.T) {
	s := NewScheduler(slog.Default())

	var count int32
	done := make(chan struct{})
	s.SetHandler(func(ctx context.Context, r scheduler.Reminder) error {
		if atomic.AddInt32(&count, 1) == 3 {
			close(done)
		}
		return nil
	})

	if err := s.Schedule(context.Background(), uuid.New(), "tick", nil, time.Millisecond, time.Millisecond); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("periodic reminder fired %d times, expected at least 3", atomic.LoadInt32(&count))
	}
}
