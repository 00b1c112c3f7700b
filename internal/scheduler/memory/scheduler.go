package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ordering/internal/scheduler"
)

// Scheduler fires reminders from in-process timers. It loses reminders on
// restart, so it is only suitable for tests and local development.
type Scheduler struct {
	mu      sync.RWMutex
	handler scheduler.Handler
	logger  *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// SetHandler must be called before the first reminder comes due.
func (s *Scheduler) SetHandler(handler scheduler.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

func (s *Scheduler) Schedule(ctx context.Context, orderID uuid.UUID, name string, payload []byte, due, period time.Duration) error {
	reminder := scheduler.Reminder{OrderID: orderID, Name: name, Payload: payload}
	time.AfterFunc(due, func() {
		s.fire(reminder, period)
	})
	return nil
}

func (s *Scheduler) fire(reminder scheduler.Reminder, period time.Duration) {
	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()

	if handler == nil {
		s.logger.Error("Reminder due but no handler registered", "name", reminder.Name)
		return
	}

	if err := handler(context.Background(), reminder); err != nil {
		s.logger.Error("Reminder handler failed", "order_id", reminder.OrderID, "name", reminder.Name, "err", err)
	}

	if period > 0 {
		time.AfterFunc(period, func() {
			s.fire(reminder, period)
		})
	}
}
