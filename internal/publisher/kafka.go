package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iliyamo/cabin-booking/internal/queue"
)

// Kafka publishes events keyed by cabin so that the events of one cabin
// keep their order within a partition.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka returns a publisher writing to topic.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// PublishReservationEvent implements Publisher.
func (p *Kafka) PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error {
	const op = "publisher.Kafka.Publish"

	msg, err := message(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func message(ev queue.ReservationEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:     []byte(ev.Key()),
		Value:   value,
		Headers: []kafka.Header{{Key: "action", Value: []byte(ev.Action)}},
	}, nil
}

// Close flushes pending messages and closes the writer.
func (p *Kafka) Close() error {
	return p.writer.Close()
}
