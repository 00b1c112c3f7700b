package entity

import (
	"encoding/json"
	"fmt"
)

// OrderStatus identifies where an order is in its lifecycle. The numeric
// ids are part of the persisted state format and must stay stable.
type OrderStatus int

const (
	StatusSubmitted OrderStatus = iota + 1
	StatusAwaitingStockValidation
	StatusValidated
	StatusPaid
	StatusShipped
	StatusCancelled
)

var statusNames = map[OrderStatus]string{
	StatusSubmitted:               "Submitted",
	StatusAwaitingStockValidation: "AwaitingStockValidation",
	StatusValidated:               "Validated",
	StatusPaid:                    "Paid",
	StatusShipped:                 "Shipped",
	StatusCancelled:               "Cancelled",
}

func (s OrderStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

func (s OrderStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

type statusJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MarshalJSON keeps both the id and the display name on the wire so
// consumers never have to hardcode the numbering.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(statusJSON{ID: int(s), Name: s.String()})
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw statusJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status := OrderStatus(raw.ID)
	if !status.Valid() {
		return fmt.Errorf("unknown order status id %d", raw.ID)
	}
	*s = status
	return nil
}
