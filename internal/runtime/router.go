package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ordering/internal/entity"
	"ordering/internal/messaging"
	"ordering/internal/metrics"
	"ordering/internal/repository"
	"ordering/internal/saga"
	"ordering/internal/scheduler"
)

const defaultIdleAfter = 5 * time.Minute

// Config carries the saga dependencies the router hands to each process
// instance. Metrics may be nil.
type Config struct {
	Store     repository.OrderStateStore
	Scheduler scheduler.Scheduler
	Events    messaging.EventBus
	Settings  saga.Settings
	Metrics   *metrics.SagaMetrics
	Logger    *slog.Logger
	// IdleAfter is how long an order's worker lingers without traffic
	// before it is retired. Zero means the default.
	IdleAfter time.Duration
}

// Router hosts saga instances. Every operation for one order id goes
// through that id's single worker goroutine, so no two operations for the
// same order ever run concurrently; different orders are independent.
type Router struct {
	cfg       Config
	idleAfter time.Duration

	mu        sync.Mutex
	instances map[uuid.UUID]*instance
}

type task struct {
	ctx  context.Context
	op   string
	fn   func(ctx context.Context, p *saga.Process) error
	done chan error
}

type instance struct {
	tasks   chan task
	stopped chan struct{}
}

func NewRouter(cfg Config) *Router {
	idleAfter := cfg.IdleAfter
	if idleAfter <= 0 {
		idleAfter = defaultIdleAfter
	}
	return &Router{
		cfg:       cfg,
		idleAfter: idleAfter,
		instances: make(map[uuid.UUID]*instance),
	}
}

// Invoke runs fn against the order's saga process on its serialized
// worker. The op name is only used in diagnostics.
func (r *Router) Invoke(ctx context.Context, orderID uuid.UUID, op string, fn func(ctx context.Context, p *saga.Process) error) error {
	// The operation runs on a context detached from the caller's so a
	// disconnecting caller cannot abort it between the status write and
	// the event publish. The caller's context only bounds the wait.
	t := task{ctx: context.WithoutCancel(ctx), op: op, fn: fn, done: make(chan error, 1)}

	for {
		inst := r.instanceFor(orderID)
		select {
		case inst.tasks <- t:
			select {
			case err := <-t.done:
				return err
			case <-ctx.Done():
				// The operation still runs to completion on the worker;
				// only the caller stops waiting.
				return ctx.Err()
			}
		case <-inst.stopped:
			// Worker retired between lookup and enqueue; get a fresh one.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// HandleReminder is the scheduler dispatch target.
func (r *Router) HandleReminder(ctx context.Context, reminder scheduler.Reminder) error {
	if r.cfg.Metrics != nil {
		if saga.KnownReminder(reminder.Name) {
			r.cfg.Metrics.RemindersFired.WithLabelValues(reminder.Name).Inc()
		} else {
			r.cfg.Metrics.RemindersDropped.Inc()
		}
	}
	return r.Invoke(ctx, reminder.OrderID, "reminder/"+reminder.Name, func(ctx context.Context, p *saga.Process) error {
		return p.ReceiveReminder(ctx, reminder.Name, reminder.Payload)
	})
}

func (r *Router) instanceFor(orderID uuid.UUID) *instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[orderID]; ok {
		return inst
	}
	inst := &instance{
		tasks:   make(chan task),
		stopped: make(chan struct{}),
	}
	r.instances[orderID] = inst
	go r.run(orderID, inst)
	return inst
}

func (r *Router) run(orderID uuid.UUID, inst *instance) {
	process := saga.NewProcess(orderID, r.cfg.Store, r.cfg.Scheduler, r.cfg.Events, r.cfg.Settings, r.cfg.Logger)

	idle := time.NewTimer(r.idleAfter)
	defer idle.Stop()

	for {
		select {
		case t := <-inst.tasks:
			t.done <- r.execute(t, orderID, process)
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(r.idleAfter)
		case <-idle.C:
			// Retire unless a sender sneaked in; the lock keeps instanceFor
			// from handing out a retiring worker.
			r.mu.Lock()
			select {
			case t := <-inst.tasks:
				r.mu.Unlock()
				t.done <- r.execute(t, orderID, process)
				idle.Reset(r.idleAfter)
			default:
				delete(r.instances, orderID)
				close(inst.stopped)
				r.mu.Unlock()
				return
			}
		}
	}
}

// execute wraps the operation with a before/after status snapshot, logging
// a transition record when the status changed. This is diagnostic only and
// never affects the operation's outcome.
func (r *Router) execute(t task, orderID uuid.UUID, process *saga.Process) error {
	before, hasBefore, snapErr := r.cfg.Store.GetStatus(t.ctx, orderID)

	opErr := t.fn(t.ctx, process)

	if snapErr == nil {
		after, hasAfter, err := r.cfg.Store.GetStatus(t.ctx, orderID)
		if err == nil && hasAfter && (!hasBefore || before != after) {
			r.cfg.Logger.Info("Order has been updated",
				"order_id", orderID, "op", t.op, "status", after.String())
			if r.cfg.Metrics != nil {
				r.cfg.Metrics.Transitions.WithLabelValues(statusLabel(before, hasBefore), after.String()).Inc()
			}
		}
	}
	return opErr
}

func statusLabel(status entity.OrderStatus, exists bool) string {
	if !exists {
		return "None"
	}
	return status.String()
}
