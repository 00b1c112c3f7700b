package saga

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ordering/internal/entity"
	"ordering/internal/messaging"
	"ordering/internal/repository"
	"ordering/internal/scheduler"
)

// ErrOrderNotFound is returned by read operations when no order exists for
// the identity. Guarded transitions never return it; they log and report
// false instead.
var ErrOrderNotFound = errors.New("order not found")

// Settings holds the time-driven knobs of the order lifecycle.
type Settings struct {
	// GracePeriod is how long after submission the buyer can still cancel
	// freely before stock validation starts.
	GracePeriod time.Duration
	// SimulatedWorkTime is the delay between accepting a notification and
	// announcing its outcome, standing in for external processing.
	SimulatedWorkTime time.Duration
}

// Process drives a single order through its lifecycle. It is the only
// writer of the order's state; the hosting runtime guarantees that at most
// one operation per order id runs at a time.
type Process struct {
	orderID   uuid.UUID
	store     repository.OrderStateStore
	scheduler scheduler.Scheduler
	events    messaging.EventBus
	settings  Settings
	logger    *slog.Logger
}

func NewProcess(
	orderID uuid.UUID,
	store repository.OrderStateStore,
	sched scheduler.Scheduler,
	events messaging.EventBus,
	settings Settings,
	logger *slog.Logger,
) *Process {
	return &Process{
		orderID:   orderID,
		store:     store,
		scheduler: sched,
		events:    events,
		settings:  settings,
		logger:    logger,
	}
}

// Submit creates the order record from the basket snapshot, starts the
// cancellation grace period and announces the submission. A duplicate
// Submit for an existing order is a no-op.
func (p *Process) Submit(ctx context.Context, buyerID, buyerName, street, city, zipCode, state, country string, basket entity.CustomerBasket) error {
	_, exists, err := p.store.GetStatus(ctx, p.orderID)
	if err != nil {
		return err
	}
	if exists {
		p.logger.Warn("Order already submitted, ignoring duplicate", "order_id", p.orderID)
		return nil
	}

	items := make([]entity.OrderItem, 0, len(basket.Items))
	for _, item := range basket.Items {
		items = append(items, entity.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Units:       item.Quantity,
			PictureURL:  item.PictureURL,
		})
	}

	order := entity.Order{
		OrderDate:   time.Now().UTC(),
		Status:      entity.StatusSubmitted,
		Description: "The order was submitted.",
		Address: entity.OrderAddress{
			Street:  street,
			City:    city,
			State:   state,
			Country: country,
			ZipCode: zipCode,
		},
		BuyerID:   buyerID,
		BuyerName: buyerName,
		Items:     items,
	}

	if err := p.store.SaveDetails(ctx, p.orderID, order); err != nil {
		return err
	}
	if err := p.store.SaveStatus(ctx, p.orderID, entity.StatusSubmitted); err != nil {
		return err
	}

	if err := p.scheduler.Schedule(ctx, p.orderID, GracePeriodReminder, nil, p.settings.GracePeriod, 0); err != nil {
		return err
	}

	return p.events.Publish(ctx, messaging.OrderStatusChangedToSubmitted{
		OrderStatusEvent: p.baseEvent(entity.StatusSubmitted, "The order was submitted.", buyerName),
		BuyerID:          buyerID,
	})
}

// NotifyStockConfirmed moves the order to Validated and schedules the
// simulated-work reminder that will announce the result.
func (p *Process) NotifyStockConfirmed(ctx context.Context) error {
	changed, err := p.tryUpdateStatus(ctx, entity.StatusAwaitingStockValidation, entity.StatusValidated)
	if err != nil || !changed {
		return err
	}
	return p.scheduler.Schedule(ctx, p.orderID, StockConfirmedReminder, nil, p.settings.SimulatedWorkTime, 0)
}

// NotifyStockRejected cancels the order over missing stock. The rejected
// product ids travel through the reminder payload so the continuation can
// name them in the cancellation event.
func (p *Process) NotifyStockRejected(ctx context.Context, rejectedProductIDs []int) error {
	changed, err := p.tryUpdateStatus(ctx, entity.StatusAwaitingStockValidation, entity.StatusCancelled)
	if err != nil || !changed {
		return err
	}

	payload, err := json.Marshal(rejectedProductIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal rejected product ids: %w", err)
	}
	return p.scheduler.Schedule(ctx, p.orderID, StockRejectedReminder, payload, p.settings.SimulatedWorkTime, 0)
}

// NotifyPaymentSucceeded moves the order to Paid and schedules the
// simulated-work reminder that will announce the result.
func (p *Process) NotifyPaymentSucceeded(ctx context.Context) error {
	changed, err := p.tryUpdateStatus(ctx, entity.StatusValidated, entity.StatusPaid)
	if err != nil || !changed {
		return err
	}
	return p.scheduler.Schedule(ctx, p.orderID, PaymentSucceededReminder, nil, p.settings.SimulatedWorkTime, 0)
}

// NotifyPaymentFailed cancels the order. A failed payment never passes
// through Paid; the cancellation event follows after the simulated work
// delay.
func (p *Process) NotifyPaymentFailed(ctx context.Context) error {
	changed, err := p.tryUpdateStatus(ctx, entity.StatusValidated, entity.StatusCancelled)
	if err != nil || !changed {
		return err
	}
	return p.scheduler.Schedule(ctx, p.orderID, PaymentFailedReminder, nil, p.settings.SimulatedWorkTime, 0)
}

// Cancel applies a buyer-initiated cancellation. It reports false without
// touching state when the order doesn't exist or is already Paid or
// Shipped.
func (p *Process) Cancel(ctx context.Context) (bool, error) {
	status, exists, err := p.store.GetStatus(ctx, p.orderID)
	if err != nil {
		return false, err
	}
	if !exists {
		p.logger.Warn("Order cannot be cancelled because it doesn't exist", "order_id", p.orderID)
		return false, nil
	}
	if status == entity.StatusPaid || status == entity.StatusShipped {
		p.logger.Warn("Order cannot be cancelled", "order_id", p.orderID, "status", status.String())
		return false, nil
	}

	if err := p.store.SaveStatus(ctx, p.orderID, entity.StatusCancelled); err != nil {
		return false, err
	}

	order, _, err := p.store.GetDetails(ctx, p.orderID)
	if err != nil {
		return false, err
	}

	err = p.events.Publish(ctx, messaging.OrderStatusChangedToCancelled{
		OrderStatusEvent: p.baseEvent(entity.StatusCancelled, "The order was cancelled by buyer.", order.BuyerName),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ship marks a paid order as shipped. It reports false without touching
// state from any other status.
func (p *Process) Ship(ctx context.Context) (bool, error) {
	changed, err := p.tryUpdateStatus(ctx, entity.StatusPaid, entity.StatusShipped)
	if err != nil || !changed {
		return false, err
	}

	order, _, err := p.store.GetDetails(ctx, p.orderID)
	if err != nil {
		return false, err
	}

	err = p.events.Publish(ctx, messaging.OrderStatusChangedToShipped{
		OrderStatusEvent: p.baseEvent(entity.StatusShipped, "The order was shipped.", order.BuyerName),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// OrderDetails returns the order record with its current status.
func (p *Process) OrderDetails(ctx context.Context) (entity.Order, error) {
	order, exists, err := p.store.GetDetails(ctx, p.orderID)
	if err != nil {
		return entity.Order{}, err
	}
	if !exists {
		return entity.Order{}, ErrOrderNotFound
	}

	status, exists, err := p.store.GetStatus(ctx, p.orderID)
	if err != nil {
		return entity.Order{}, err
	}
	if exists {
		order.Status = status
	}
	return order, nil
}

// tryUpdateStatus persists next only when the stored status equals
// expected. A missing record or a mismatch is reported as false, which is
// the sole defense against duplicate and out-of-order notifications.
func (p *Process) tryUpdateStatus(ctx context.Context, expected, next entity.OrderStatus) (bool, error) {
	status, exists, err := p.store.GetStatus(ctx, p.orderID)
	if err != nil {
		return false, err
	}
	if !exists {
		p.logger.Warn("Order cannot be updated because it doesn't exist", "order_id", p.orderID)
		return false, nil
	}
	if status != expected {
		p.logger.Warn("Order is not in the expected status",
			"order_id", p.orderID, "status", status.String(), "expected", expected.String())
		return false, nil
	}

	if err := p.store.SaveStatus(ctx, p.orderID, next); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Process) baseEvent(status entity.OrderStatus, description, buyerName string) messaging.OrderStatusEvent {
	return messaging.OrderStatusEvent{
		OrderID:     p.orderID,
		OrderStatus: status.String(),
		Description: description,
		BuyerName:   buyerName,
	}
}

func stockItems(order entity.Order) []messaging.OrderStockItem {
	items := make([]messaging.OrderStockItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, messaging.OrderStockItem{ProductID: item.ProductID, Units: item.Units})
	}
	return items
}

func rejectedProductNames(order entity.Order, rejectedProductIDs []int) string {
	rejected := make(map[int]bool, len(rejectedProductIDs))
	for _, id := range rejectedProductIDs {
		rejected[id] = true
	}

	var names []string
	for _, item := range order.Items {
		if rejected[item.ProductID] {
			names = append(names, item.ProductName)
		}
	}
	return strings.Join(names, ", ")
}
