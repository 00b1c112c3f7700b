package messaging

import "github.com/google/uuid"

// OrderStatusEvent carries the fields every order lifecycle event shares.
type OrderStatusEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderStatus string    `json:"order_status"`
	Description string    `json:"description"`
	BuyerName   string    `json:"buyer_name"`
}

// Key is the partitioning key for order lifecycle events.
func (e OrderStatusEvent) Key() string {
	return e.OrderID.String()
}

// OrderStockItem is the (product, units) pair stock validation works on.
type OrderStockItem struct {
	ProductID int `json:"product_id"`
	Units     int `json:"units"`
}

type OrderStatusChangedToSubmitted struct {
	OrderStatusEvent
	BuyerID string `json:"buyer_id"`
}

func (OrderStatusChangedToSubmitted) EventType() string { return "OrderStatusChangedToSubmitted" }

type OrderStatusChangedToAwaitingStockValidation struct {
	OrderStatusEvent
	StockItems []OrderStockItem `json:"stock_items"`
}

func (OrderStatusChangedToAwaitingStockValidation) EventType() string {
	return "OrderStatusChangedToAwaitingStockValidation"
}

type OrderStatusChangedToValidated struct {
	OrderStatusEvent
	Total float64 `json:"total"`
}

func (OrderStatusChangedToValidated) EventType() string { return "OrderStatusChangedToValidated" }

type OrderStatusChangedToPaid struct {
	OrderStatusEvent
	StockItems []OrderStockItem `json:"stock_items"`
}

func (OrderStatusChangedToPaid) EventType() string { return "OrderStatusChangedToPaid" }

type OrderStatusChangedToCancelled struct {
	OrderStatusEvent
}

func (OrderStatusChangedToCancelled) EventType() string { return "OrderStatusChangedToCancelled" }

type OrderStatusChangedToShipped struct {
	OrderStatusEvent
}

func (OrderStatusChangedToShipped) EventType() string { return "OrderStatusChangedToShipped" }

// --- Inbound notifications from other subsystems ---

// UserCheckoutAccepted is published by the basket subsystem when a buyer
// checks out; it is what creates an order here.
type UserCheckoutAccepted struct {
	OrderID   uuid.UUID      `json:"order_id"`
	BuyerID   string         `json:"buyer_id"`
	BuyerName string         `json:"buyer_name"`
	Street    string         `json:"street"`
	City      string         `json:"city"`
	State     string         `json:"state"`
	Country   string         `json:"country"`
	ZipCode   string         `json:"zip_code"`
	Basket    CheckoutBasket `json:"basket"`
}

// CheckoutBasket is the basket snapshot embedded in a checkout
// notification.
type CheckoutBasket struct {
	BuyerID string               `json:"buyer_id"`
	Items   []CheckoutBasketItem `json:"items"`
}

type CheckoutBasketItem struct {
	ID          string  `json:"id"`
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	PictureURL  string  `json:"picture_url"`
}

// OrderStockConfirmed is published by the catalog subsystem when every
// requested item has stock.
type OrderStockConfirmed struct {
	OrderID uuid.UUID `json:"order_id"`
}

// OrderStockRejected lists the products that could not be fulfilled.
type OrderStockRejected struct {
	OrderID            uuid.UUID `json:"order_id"`
	RejectedProductIDs []int     `json:"rejected_product_ids"`
}

// OrderPaymentSucceeded is published by the payment subsystem.
type OrderPaymentSucceeded struct {
	OrderID uuid.UUID `json:"order_id"`
}

// OrderPaymentFailed is published by the payment subsystem.
type OrderPaymentFailed struct {
	OrderID uuid.UUID `json:"order_id"`
}

// Topic names the notification consumers subscribe to.
const (
	TopicUserCheckoutAccepted  = "UserCheckoutAccepted"
	TopicOrderStockConfirmed   = "OrderStockConfirmed"
	TopicOrderStockRejected    = "OrderStockRejected"
	TopicOrderPaymentSucceeded = "OrderPaymentSucceeded"
	TopicOrderPaymentFailed    = "OrderPaymentFailed"
)
