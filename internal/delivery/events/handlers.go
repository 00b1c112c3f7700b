package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"ordering/internal/entity"
	"ordering/internal/messaging"
	"ordering/internal/runtime"
	"ordering/internal/saga"
)

// Handlers maps inbound notification topics onto saga operations. A
// payload that doesn't decode is logged and dropped: redelivery would not
// help, and the broker must not stall on it.
type Handlers struct {
	router *runtime.Router
	logger *slog.Logger
}

func NewHandlers(router *runtime.Router, logger *slog.Logger) *Handlers {
	return &Handlers{router: router, logger: logger}
}

// Run subscribes each notification topic. It returns immediately; the
// consumers stop when ctx is cancelled.
func (h *Handlers) Run(ctx context.Context, subscriber messaging.Subscriber, groupID string) {
	go subscriber.Consume(ctx, messaging.TopicUserCheckoutAccepted, groupID, h.handleUserCheckoutAccepted)
	go subscriber.Consume(ctx, messaging.TopicOrderStockConfirmed, groupID, h.handleStockConfirmed)
	go subscriber.Consume(ctx, messaging.TopicOrderStockRejected, groupID, h.handleStockRejected)
	go subscriber.Consume(ctx, messaging.TopicOrderPaymentSucceeded, groupID, h.handlePaymentSucceeded)
	go subscriber.Consume(ctx, messaging.TopicOrderPaymentFailed, groupID, h.handlePaymentFailed)
}

func (h *Handlers) handleUserCheckoutAccepted(ctx context.Context, payload []byte) error {
	var event messaging.UserCheckoutAccepted
	if !h.decode(payload, &event, messaging.TopicUserCheckoutAccepted) {
		return nil
	}

	basket := entity.CustomerBasket{BuyerID: event.Basket.BuyerID}
	for _, item := range event.Basket.Items {
		basket.Items = append(basket.Items, entity.BasketItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			PictureURL:  item.PictureURL,
		})
	}

	return h.router.Invoke(ctx, event.OrderID, "submit", func(ctx context.Context, p *saga.Process) error {
		return p.Submit(ctx, event.BuyerID, event.BuyerName, event.Street, event.City, event.ZipCode, event.State, event.Country, basket)
	})
}

func (h *Handlers) handleStockConfirmed(ctx context.Context, payload []byte) error {
	var event messaging.OrderStockConfirmed
	if !h.decode(payload, &event, messaging.TopicOrderStockConfirmed) {
		return nil
	}
	return h.router.Invoke(ctx, event.OrderID, "notify-stock-confirmed", func(ctx context.Context, p *saga.Process) error {
		return p.NotifyStockConfirmed(ctx)
	})
}

func (h *Handlers) handleStockRejected(ctx context.Context, payload []byte) error {
	var event messaging.OrderStockRejected
	if !h.decode(payload, &event, messaging.TopicOrderStockRejected) {
		return nil
	}
	return h.router.Invoke(ctx, event.OrderID, "notify-stock-rejected", func(ctx context.Context, p *saga.Process) error {
		return p.NotifyStockRejected(ctx, event.RejectedProductIDs)
	})
}

func (h *Handlers) handlePaymentSucceeded(ctx context.Context, payload []byte) error {
	var event messaging.OrderPaymentSucceeded
	if !h.decode(payload, &event, messaging.TopicOrderPaymentSucceeded) {
		return nil
	}
	return h.router.Invoke(ctx, event.OrderID, "notify-payment-succeeded", func(ctx context.Context, p *saga.Process) error {
		return p.NotifyPaymentSucceeded(ctx)
	})
}

func (h *Handlers) handlePaymentFailed(ctx context.Context, payload []byte) error {
	var event messaging.OrderPaymentFailed
	if !h.decode(payload, &event, messaging.TopicOrderPaymentFailed) {
		return nil
	}
	return h.router.Invoke(ctx, event.OrderID, "notify-payment-failed", func(ctx context.Context, p *saga.Process) error {
		return p.NotifyPaymentFailed(ctx)
	})
}

func (h *Handlers) decode(payload []byte, v any, topic string) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		h.logger.Error("Dropping undecodable message", "topic", topic, "err", err)
		return false
	}
	return true
}
