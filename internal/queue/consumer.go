package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cabin-booking/internal/logger/sl"
)

// DefaultQueue is the durable queue reservation events are routed to.
const DefaultQueue = "reservation.events"

// Consumer drains the reservation event queue and appends every event to a
// log file.
type Consumer struct {
	URL     string
	Queue   string
	LogPath string
	Log     *slog.Logger

	mu sync.Mutex
}

// NewConsumer returns a Consumer writing to logs/reservation.log.
func NewConsumer(url, queue string, log *slog.Logger) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Consumer{
		URL:     url,
		Queue:   queue,
		LogPath: filepath.Join("logs", "reservation.log"),
		Log:     log,
	}
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes until
// ctx is cancelled.  Broken connections are redialled with exponential
// backoff capped at 30 seconds.  A message that cannot be handled is
// rejected without requeue so the loop keeps going.
func (c *Consumer) Run(ctx context.Context) error {
	const op = "queue.Consumer.Run"
	log := c.Log.With(slog.String("op", op), slog.String("queue", c.Queue))

	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Warn("failed to dial broker", sl.Err(err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", sl.Err(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("set QoS failed", sl.Err(err))
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.Log.Warn("handle message failed", sl.Err(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one event body and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ReservationID == 0 {
		return errors.New("event without reservation_id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(ev.LogLine()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
