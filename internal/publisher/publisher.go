// Package publisher delivers reservation events to the configured
// message broker.  Delivery is best effort: callers log failures and go on.
package publisher

import (
	"context"
	"log/slog"

	"github.com/iliyamo/cabin-booking/internal/config"
	"github.com/iliyamo/cabin-booking/internal/queue"
)

// Publisher sends reservation events and releases its broker resources on
// Close.
type Publisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
	Close() error
}

// New builds the publisher selected by cfg.Backend.
func New(cfg config.EventsConfig, log *slog.Logger) Publisher {
	switch cfg.Backend {
	case config.BackendKafka:
		log.Info("publishing reservation events to kafka", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", cfg.KafkaTopic))
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	case config.BackendNone:
		log.Info("reservation events disabled")
		return Noop{}
	default:
		log.Info("publishing reservation events to rabbitmq", slog.String("queue", cfg.Queue))
		return NewAMQP(cfg.AMQPURL, cfg.Queue)
	}
}

// Noop discards events.
type Noop struct{}

func (Noop) PublishReservationEvent(context.Context, queue.ReservationEvent) error { return nil }
func (Noop) Close() error { return nil }
