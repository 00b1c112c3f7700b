package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ordering/internal/entity"
	"ordering/internal/repository"
)

const (
	detailsField = "details"
	statusField  = "status"
)

type store struct {
	client *redis.Client
}

// NewStore creates an order state store backed by Redis. Each order is one
// hash keyed by its id, holding the details and status fields.
func NewStore(client *redis.Client) repository.OrderStateStore {
	return &store{client: client}
}

func orderKey(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

func (s *store) GetDetails(ctx context.Context, orderID uuid.UUID) (entity.Order, bool, error) {
	raw, err := s.client.HGet(ctx, orderKey(orderID), detailsField).Result()
	if errors.Is(err, redis.Nil) {
		return entity.Order{}, false, nil
	}
	if err != nil {
		return entity.Order{}, false, fmt.Errorf("failed to read order details: %w", err)
	}

	var order entity.Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return entity.Order{}, false, fmt.Errorf("failed to decode order details: %w", err)
	}
	return order, true, nil
}

func (s *store) SaveDetails(ctx context.Context, orderID uuid.UUID, order entity.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order details: %w", err)
	}
	if err := s.client.HSet(ctx, orderKey(orderID), detailsField, data).Err(); err != nil {
		return fmt.Errorf("failed to write order details: %w", err)
	}
	return nil
}

func (s *store) GetStatus(ctx context.Context, orderID uuid.UUID) (entity.OrderStatus, bool, error) {
	raw, err := s.client.HGet(ctx, orderKey(orderID), statusField).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read order status: %w", err)
	}

	var status entity.OrderStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return 0, false, fmt.Errorf("failed to decode order status: %w", err)
	}
	return status, true, nil
}

func (s *store) SaveStatus(ctx context.Context, orderID uuid.UUID, status entity.OrderStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode order status: %w", err)
	}
	if err := s.client.HSet(ctx, orderKey(orderID), statusField, data).Err(); err != nil {
		return fmt.Errorf("failed to write order status: %w", err)
	}
	return nil
}
