package saga

import (
	"context"
	"encoding/json"
	"fmt"

	"ordering/internal/entity"
	"ordering/internal/messaging"
)

// Reminder names. They are persisted by the scheduler, so renaming one
// orphans every reminder already registered under the old name.
const (
	GracePeriodReminder      = "grace-period"
	StockConfirmedReminder   = "stock-confirmed"
	StockRejectedReminder    = "stock-rejected"
	PaymentSucceededReminder = "payment-succeeded"
	PaymentFailedReminder    = "payment-failed"
)

// KnownReminder reports whether name belongs to the closed reminder set.
func KnownReminder(name string) bool {
	switch name {
	case GracePeriodReminder, StockConfirmedReminder, StockRejectedReminder,
		PaymentSucceededReminder, PaymentFailedReminder:
		return true
	}
	return false
}

// ReceiveReminder dispatches a due reminder to its continuation. Unknown
// names and undecodable payloads are logged and dropped; retrying either
// would never succeed.
func (p *Process) ReceiveReminder(ctx context.Context, name string, payload []byte) error {
	p.logger.Info("Received reminder", "order_id", p.orderID, "reminder", name)

	switch name {
	case GracePeriodReminder:
		return p.onGracePeriodElapsed(ctx)
	case StockConfirmedReminder:
		return p.onStockConfirmedWorkDone(ctx)
	case StockRejectedReminder:
		var rejectedProductIDs []int
		if err := json.Unmarshal(payload, &rejectedProductIDs); err != nil {
			p.logger.Error("Dropping reminder with undecodable payload",
				"order_id", p.orderID, "reminder", name, "err", err)
			return nil
		}
		return p.onStockRejectedWorkDone(ctx, rejectedProductIDs)
	case PaymentSucceededReminder:
		return p.onPaymentSucceededWorkDone(ctx)
	case PaymentFailedReminder:
		return p.onPaymentFailedWorkDone(ctx)
	}

	p.logger.Error("Unknown reminder, dropping", "order_id", p.orderID, "reminder", name)
	return nil
}

// onGracePeriodElapsed ends the cancellation window and asks the catalog
// subsystem to validate stock for every line item.
func (p *Process) onGracePeriodElapsed(ctx context.Context) error {
	changed, err := p.tryUpdateStatus(ctx, entity.StatusSubmitted, entity.StatusAwaitingStockValidation)
	if err != nil || !changed {
		return err
	}

	order, exists, err := p.store.GetDetails(ctx, p.orderID)
	if err != nil {
		return err
	}
	if !exists {
		p.logger.Warn("Order status exists without details", "order_id", p.orderID)
		return nil
	}

	return p.events.Publish(ctx, messaging.OrderStatusChangedToAwaitingStockValidation{
		OrderStatusEvent: p.baseEvent(entity.StatusAwaitingStockValidation,
			"Grace period elapsed; waiting for stock validation.", order.BuyerName),
		StockItems: stockItems(order),
	})
}

func (p *Process) onStockConfirmedWorkDone(ctx context.Context) error {
	order, exists, err := p.store.GetDetails(ctx, p.orderID)
	if err != nil {
		return err
	}
	if !exists {
		p.logger.Warn("Order status exists without details", "order_id", p.orderID)
		return nil
	}

	return p.events.Publish(ctx, messaging.OrderStatusChangedToValidated{
		OrderStatusEvent: p.baseEvent(entity.StatusValidated,
			"All the items were confirmed with available stock.", order.BuyerName),
		Total: order.Total(),
	})
}

func (p *Process) onStockRejectedWorkDone(ctx context.Context, rejectedProductIDs []int) error {
	order, exists, err := p.store.GetDetails(ctx, p.orderID)
	if err != nil {
		return err
	}
	if !exists {
		p.logger.Warn("Order status exists without details", "order_id", p.orderID)
		return nil
	}

	description := fmt.Sprintf("The following product items don't have stock: (%s).",
		rejectedProductNames(order, rejectedProductIDs))

	return p.events.Publish(ctx, messaging.OrderStatusChangedToCancelled{
		OrderStatusEvent: p.baseEvent(entity.StatusCancelled, description, order.BuyerName),
	})
}

func (p *Process) onPaymentSucceededWorkDone(ctx context.Context) error {
	order, exists, err := p.store.GetDetails(ctx, p.orderID)
	if err != nil {
		return err
	}
	if !exists {
		p.logger.Warn("Order status exists without details", "order_id", p.orderID)
		return nil
	}

	return p.events.Publish(ctx, messaging.OrderStatusChangedToPaid{
		OrderStatusEvent: p.baseEvent(entity.StatusPaid,
			`The payment was performed at a simulated "American Bank checking bank account ending on XX35071"`,
			order.BuyerName),
		StockItems: stockItems(order),
	})
}

func (p *Process) onPaymentFailedWorkDone(ctx context.Context) error {
	order, exists, err := p.store.GetDetails(ctx, p.orderID)
	if err != nil {
		return err
	}
	if !exists {
		p.logger.Warn("Order status exists without details", "order_id", p.orderID)
		return nil
	}

	return p.events.Publish(ctx, messaging.OrderStatusChangedToCancelled{
		OrderStatusEvent: p.baseEvent(entity.StatusCancelled,
			"The order was cancelled because payment failed.", order.BuyerName),
	})
}
