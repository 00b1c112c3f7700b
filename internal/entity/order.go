package entity

import "time"

// OrderItem is a line item within an order.
type OrderItem struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Units       int     `json:"units"`
	PictureURL  string  `json:"picture_url"`
}

// OrderAddress is the shipping address, immutable after creation.
type OrderAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

// Order is the per-identity aggregate the saga reads and writes through
// the state store. The order id itself is the store key and lives outside
// the record.
type Order struct {
	OrderDate   time.Time    `json:"order_date"`
	Status      OrderStatus  `json:"status"`
	Description string       `json:"description"`
	Address     OrderAddress `json:"address"`
	BuyerID     string       `json:"buyer_id"`
	BuyerName   string       `json:"buyer_name"`
	Items       []OrderItem  `json:"items"`
}

// Total sums units × unit price over all items, floored at zero so a
// malformed line can never produce a negative amount.
func (o Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += float64(item.Units) * item.UnitPrice
	}
	if total < 0 {
		return 0
	}
	return total
}

// BasketItem is one line of the basket snapshot handed to Submit.
type BasketItem struct {
	ID           string  `json:"id"`
	ProductID    int     `json:"product_id"`
	ProductName  string  `json:"product_name"`
	UnitPrice    float64 `json:"unit_price"`
	OldUnitPrice float64 `json:"old_unit_price"`
	Quantity     int     `json:"quantity"`
	PictureURL   string  `json:"picture_url"`
}

// CustomerBasket is the checkout snapshot an order is created from.
type CustomerBasket struct {
	BuyerID string       `json:"buyer_id"`
	Items   []BasketItem `json:"items"`
}
