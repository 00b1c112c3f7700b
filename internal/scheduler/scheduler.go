package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reminder is a durable, named, delayed callback scoped to one order. The
// payload is opaque to the scheduler.
type Reminder struct {
	OrderID uuid.UUID
	Name    string
	Payload []byte
}

// Handler receives a reminder when it comes due. A non-nil error leaves
// the reminder pending, so delivery is at-least-once.
type Handler func(ctx context.Context, reminder Reminder) error

// Scheduler registers reminders that survive restarts. A zero period means
// one-shot. There is no cancellation path: once registered, a reminder
// fires.
type Scheduler interface {
	Schedule(ctx context.Context, orderID uuid.UUID, name string, payload []byte, due, period time.Duration) error
}
