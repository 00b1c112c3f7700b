package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"ordering/internal/entity"
)

// Store is an in-memory order state store for tests and local development.
type Store struct {
	mu      sync.RWMutex
	details map[uuid.UUID]entity.Order
	status  map[uuid.UUID]entity.OrderStatus
}

func NewStore() *Store {
	return &Store{
		details: make(map[uuid.UUID]entity.Order),
		status:  make(map[uuid.UUID]entity.OrderStatus),
	}
}

func (s *Store) GetDetails(ctx context.Context, orderID uuid.UUID) (entity.Order, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.details[orderID]
	if !ok {
		return entity.Order{}, false, nil
	}
	return copyOrder(order), true, nil
}

func (s *Store) SaveDetails(ctx context.Context, orderID uuid.UUID, order entity.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.details[orderID] = copyOrder(order)
	return nil
}

func (s *Store) GetStatus(ctx context.Context, orderID uuid.UUID) (entity.OrderStatus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.status[orderID]
	return status, ok, nil
}

func (s *Store) SaveStatus(ctx context.Context, orderID uuid.UUID, status entity.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status[orderID] = status
	return nil
}

func copyOrder(order entity.Order) entity.Order {
	items := make([]entity.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}
