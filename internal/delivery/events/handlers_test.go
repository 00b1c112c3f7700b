package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"ordering/internal/entity"
	"ordering/internal/messaging"
	"ordering/internal/repository/memory"
	"ordering/internal/runtime"
	"ordering/internal/saga"
)

type recordingScheduler struct {
	mu    sync.Mutex
	names []string
}

func (s *recordingScheduler) Schedule(ctx context.Context, orderID uuid.UUID, name string, payload []byte, due, period time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (b *recordingBus) Publish(ctx context.Context, event messaging.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func newTestHandlers() (*Handlers, *memory.Store) {
	store := memory.NewStore()
	router := runtime.NewRouter(runtime.Config{
		Store:     store,
		Scheduler: &recordingScheduler{},
		Events:    &recordingBus{},
		Settings:  saga.Settings{GracePeriod: time.Minute, SimulatedWorkTime: time.Second},
		Logger:    slog.Default(),
	})
	return NewHandlers(router, slog.Default()), store
}

func TestHandleUserCheckoutAcceptedSubmitsOrder(t *testing.T) {
	h, store := newTestHandlers()
	orderID := uuid.New()

	event := messaging.UserCheckoutAccepted{
		OrderID:   orderID,
		BuyerID:   "buyer-1",
		BuyerName: "Bob",
		Street:    "Street",
		City:      "City",
		ZipCode:   "12345",
	}
	event.Basket = messaging.CheckoutBasket{
		BuyerID: "buyer-1",
		Items: []messaging.CheckoutBasketItem{
			{ProductID: 1, ProductName: "Mug", UnitPrice: 9.99, Quantity: 2},
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := h.handleUserCheckoutAccepted(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	status, ok, err := store.GetStatus(context.Background(), orderID)
	if err != nil || !ok {
		t.Fatalf("status missing: %v", err)
	}
	if status != entity.StatusSubmitted {
		t.Fatalf("expected Submitted, got %v", status)
	}

	order, _, _ := store.GetDetails(context.Background(), orderID)
	if order.BuyerName != "Bob" || len(order.Items) != 1 || order.Items[0].Units != 2 {
		t.Fatalf("unexpected order: %+v", order)
	}
}

func TestHandleStockConfirmedAdvancesStatus(t *testing.T) {
	h, store := newTestHandlers()
	orderID := uuid.New()
	ctx := context.Background()

	store.SaveDetails(ctx, orderID, entity.Order{BuyerName: "Bob"})
	store.SaveStatus(ctx, orderID, entity.StatusAwaitingStockValidation)

	payload, _ := json.Marshal(messaging.OrderStockConfirmed{OrderID: orderID})
	if err := h.handleStockConfirmed(ctx, payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	status, _, _ := store.GetStatus(ctx, orderID)
	if status != entity.StatusValidated {
		t.Fatalf("expected Validated, got %v", status)
	}
}

func TestUndecodablePayloadIsDropped(t *testing.T) {
	h, store := newTestHandlers()
	orderID := uuid.New()
	ctx := context.Background()

	store.SaveStatus(ctx, orderID, entity.StatusAwaitingStockValidation)

	// A broken payload must be swallowed, not returned as an error, or the
	// consumer would stall on it forever.
	if err := h.handleStockConfirmed(ctx, []byte(`{not json`)); err != nil {
		t.Fatalf("expected nil for undecodable payload, got %v", err)
	}

	status, _, _ := store.GetStatus(ctx, orderID)
	if status != entity.StatusAwaitingStockValidation {
		t.Fatalf("undecodable payload changed status to %v", status)
	}
}
