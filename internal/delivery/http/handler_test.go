package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ordering/internal/entity"
	"ordering/internal/messaging"
	"ordering/internal/repository/memory"
	"ordering/internal/runtime"
	"ordering/internal/saga"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopScheduler struct{}

func (nopScheduler) Schedule(ctx context.Context, orderID uuid.UUID, name string, payload []byte, due, period time.Duration) error {
	return nil
}

type nopBus struct{ mu sync.Mutex }

func (b *nopBus) Publish(ctx context.Context, event messaging.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return nil
}

func newTestHandler() (*Handler, *memory.Store) {
	store := memory.NewStore()
	router := runtime.NewRouter(runtime.Config{
		Store:     store,
		Scheduler: nopScheduler{},
		Events:    &nopBus{},
		Settings:  saga.Settings{GracePeriod: time.Minute, SimulatedWorkTime: time.Second},
		Logger:    slog.Default(),
	})
	return NewHandler(router, slog.Default()), store
}

func doRequest(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.Engine().ServeHTTP(rec, req)
	return rec
}

const submitBody = `{
	"buyer_id": "buyer-1",
	"buyer_name": "Bob",
	"street": "Street",
	"city": "City",
	"zip_code": "12345",
	"basket": {
		"buyer_id": "buyer-1",
		"items": [
			{"product_id": 1, "product_name": "Mug", "unit_price": 9.99, "quantity": 2}
		]
	}
}`

func submitOrder(t *testing.T, h *Handler) uuid.UUID {
	t.Helper()
	rec := doRequest(h, http.MethodPost, "/api/orders", submitBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	orderID, err := uuid.Parse(resp.OrderID)
	if err != nil {
		t.Fatalf("bad order id %q: %v", resp.OrderID, err)
	}
	return orderID
}

func TestSubmitAndGetOrder(t *testing.T) {
	h, _ := newTestHandler()
	orderID := submitOrder(t, h)

	rec := doRequest(h, http.MethodGet, "/api/orders/"+orderID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status    string  `json:"status"`
		BuyerName string  `json:"buyer_name"`
		Total     float64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "Submitted" || resp.BuyerName != "Bob" || resp.Total != 19.98 {
		t.Fatalf("unexpected order: %+v", resp)
	}
}

func TestSubmitRejectsEmptyBasket(t *testing.T) {
	h, _ := newTestHandler()
	body := `{"buyer_id":"b","buyer_name":"Bob","basket":{"buyer_id":"b","items":[]}}`
	rec := doRequest(h, http.MethodPost, "/api/orders", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetUnknownOrder(t *testing.T) {
	h, _ := newTestHandler()

	rec := doRequest(h, http.MethodGet, "/api/orders/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doRequest(h, http.MethodGet, "/api/orders/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCancelOrder(t *testing.T) {
	h, store := newTestHandler()
	orderID := submitOrder(t, h)

	rec := doRequest(h, http.MethodPut, "/api/orders/"+orderID.String()+"/cancel", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	status, _, _ := store.GetStatus(context.Background(), orderID)
	if status != entity.StatusCancelled {
		t.Fatalf("expected Cancelled, got %v", status)
	}
}

func TestCancelPaidOrderConflicts(t *testing.T) {
	h, store := newTestHandler()
	orderID := submitOrder(t, h)
	store.SaveStatus(context.Background(), orderID, entity.StatusPaid)

	rec := doRequest(h, http.MethodPut, "/api/orders/"+orderID.String()+"/cancel", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestShipOrder(t *testing.T) {
	h, store := newTestHandler()
	orderID := submitOrder(t, h)

	// Shipping before payment must be refused.
	rec := doRequest(h, http.MethodPut, "/api/orders/"+orderID.String()+"/ship", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	store.SaveStatus(context.Background(), orderID, entity.StatusPaid)
	rec = doRequest(h, http.MethodPut, "/api/orders/"+orderID.String()+"/ship", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	status, _, _ := store.GetStatus(context.Background(), orderID)
	if status != entity.StatusShipped {
		t.Fatalf("expected Shipped, got %v", status)
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler()
	rec := doRequest(h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
