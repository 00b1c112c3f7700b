package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"ordering/internal/scheduler"
)

// Scheduler stores reminders in Postgres and dispatches them from a
// polling loop. A reminder is marked fired only after its handler
// succeeds, so a crash between dispatch and mark redelivers it.
type Scheduler struct {
	db           *sql.DB
	pollInterval time.Duration
	logger       *slog.Logger
}

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reminders (
			id BIGSERIAL PRIMARY KEY,
			order_id UUID NOT NULL,
			name TEXT NOT NULL,
			payload BYTEA,
			due_at TIMESTAMPTZ NOT NULL,
			period_ms BIGINT NOT NULL DEFAULT 0,
			fired_at TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS reminders_due_idx
			ON reminders (due_at) WHERE fired_at IS NULL;
	`)
	return err
}

func NewScheduler(db *sql.DB, pollInterval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{db: db, pollInterval: pollInterval, logger: logger}
}

func (s *Scheduler) Schedule(ctx context.Context, orderID uuid.UUID, name string, payload []byte, due, period time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO reminders (order_id, name, payload, due_at, period_ms) VALUES ($1, $2, $3, $4, $5)",
		orderID.String(), name, payload, time.Now().Add(due), period.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to register reminder %s: %w", name, err)
	}
	return nil
}

// Run polls for due reminders and hands them to the handler until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context, handler scheduler.Handler) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder dispatcher shutting down")
			return
		case <-ticker.C:
			if err := s.dispatchDue(ctx, handler); err != nil {
				s.logger.Error("Error dispatching reminders", "err", err)
			}
		}
	}
}

type dueReminder struct {
	id       int64
	orderID  string
	name     string
	payload  []byte
	periodMS int64
}

func (s *Scheduler) dispatchDue(ctx context.Context, handler scheduler.Handler) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, order_id, name, payload, period_ms FROM reminders WHERE fired_at IS NULL AND due_at <= NOW() ORDER BY due_at LIMIT 100",
	)
	if err != nil {
		return fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var due []dueReminder
	for rows.Next() {
		var r dueReminder
		if err := rows.Scan(&r.id, &r.orderID, &r.name, &r.payload, &r.periodMS); err != nil {
			return fmt.Errorf("failed to scan reminder: %w", err)
		}
		due = append(due, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating reminder rows: %w", err)
	}

	for _, r := range due {
		orderID, err := uuid.Parse(r.orderID)
		if err != nil {
			// Unroutable rows would be retried forever; drop them instead.
			s.logger.Error("Dropping reminder with bad order id", "id", r.id, "order_id", r.orderID)
			if err := s.markFired(ctx, r.id); err != nil {
				return err
			}
			continue
		}

		err = handler(ctx, scheduler.Reminder{OrderID: orderID, Name: r.name, Payload: r.payload})
		if err != nil {
			s.logger.Error("Reminder handler failed, will retry", "order_id", r.orderID, "name", r.name, "err", err)
			continue
		}

		if r.periodMS > 0 {
			_, err = s.db.ExecContext(ctx,
				"UPDATE reminders SET due_at = NOW() + ($1 * INTERVAL '1 millisecond') WHERE id = $2",
				r.periodMS, r.id,
			)
		} else {
			err = s.markFired(ctx, r.id)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) markFired(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "UPDATE reminders SET fired_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder fired: %w", err)
	}
	return nil
}
