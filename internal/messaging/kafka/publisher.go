package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"ordering/internal/messaging"
)

const orderIDMetadataKey = "order_id"

// EventBus publishes integration events to Kafka, one topic per event
// type, keyed by order id so all events for one order land on the same
// partition.
type EventBus struct {
	publisher *wmkafka.Publisher
	logger    *slog.Logger
}

func NewEventBus(brokers []string, logger *slog.Logger) (*EventBus, error) {
	saramaConfig := wmkafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.ClientID = "ordering-service"
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	publisher, err := wmkafka.NewPublisher(wmkafka.PublisherConfig{
		Brokers:               brokers,
		Marshaler:             wmkafka.NewWithPartitioningMarshaler(partitionKey),
		OverwriteSaramaConfig: saramaConfig,
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &EventBus{publisher: publisher, logger: logger}, nil
}

func partitionKey(topic string, msg *message.Message) (string, error) {
	return msg.Metadata.Get(orderIDMetadataKey), nil
}

func (b *EventBus) Publish(ctx context.Context, event messaging.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if keyed, ok := event.(interface{ Key() string }); ok {
		msg.Metadata.Set(orderIDMetadataKey, keyed.Key())
	}

	b.logger.Info("Publishing event", "topic", event.EventType())

	if err := b.publisher.Publish(event.EventType(), msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}
	return nil
}

func (b *EventBus) Close() error {
	return b.publisher.Close()
}
