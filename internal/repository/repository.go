package repository

import (
	"context"

	"github.com/google/uuid"

	"ordering/internal/entity"
)

// OrderStateStore is the durable per-order store the saga runs against.
// Each order id owns two named values: the order details record and the
// current status. Reads report absence instead of erroring so callers can
// guard on "no record yet".
type OrderStateStore interface {
	GetDetails(ctx context.Context, orderID uuid.UUID) (entity.Order, bool, error)
	SaveDetails(ctx context.Context, orderID uuid.UUID, order entity.Order) error
	GetStatus(ctx context.Context, orderID uuid.UUID) (entity.OrderStatus, bool, error)
	SaveStatus(ctx context.Context, orderID uuid.UUID, status entity.OrderStatus) error
}
