package kafka

import (
	"context"
	"log/slog"

	kafkaGo "github.com/segmentio/kafka-go"

	"ordering/internal/messaging"
)

type subscriber struct {
	brokers []string
	logger  *slog.Logger
}

// NewSubscriber creates a Kafka subscriber for inbound notifications.
func NewSubscriber(brokers []string, logger *slog.Logger) messaging.Subscriber {
	return &subscriber{brokers: brokers, logger: logger}
}

// messageSource is the slice of kafka.Reader the consume loop needs.
type messageSource interface {
	FetchMessage(ctx context.Context) (kafkaGo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkaGo.Message) error
}

// Consume reads messages from a topic in a loop and calls the handler for
// each one. It blocks until the context is cancelled.
func (s *subscriber) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: s.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	s.consume(ctx, reader, topic, handler)
}

// consume commits an offset only after its handler succeeds. Handlers
// swallow poison messages themselves and return errors only for
// infrastructure failures, so an uncommitted message comes back on the
// next rebalance or restart and the retry can succeed; the saga's status
// guards make that redelivery safe.
func (s *subscriber) consume(ctx context.Context, source messageSource, topic string, handler func(ctx context.Context, payload []byte) error) {
	for {
		msg, err := source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Consumer shutting down", "topic", topic)
				return
			}
			s.logger.Error("Error fetching message", "topic", topic, "err", err)
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			s.logger.Error("Error handling message, leaving offset uncommitted",
				"topic", topic, "offset", msg.Offset, "err", err)
			continue
		}

		if err := source.CommitMessages(ctx, msg); err != nil {
			s.logger.Error("Error committing offset", "topic", topic, "offset", msg.Offset, "err", err)
		}
	}
}
