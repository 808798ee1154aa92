package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cabin-booking/internal/queue"
)

// AMQP publishes events as persistent JSON messages to a durable queue on
// the default exchange.  The connection is opened on first use and
// re-dialled after a failure.
type AMQP struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQP returns a publisher for queue on the broker at url.
func NewAMQP(url, queueName string) *AMQP {
	if queueName == "" {
		queueName = queue.DefaultQueue
	}
	return &AMQP{url: url, queue: queueName}
}

// PublishReservationEvent implements Publisher.
func (p *AMQP) PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error {
	const op = "publisher.AMQP.Publish"

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         ev.Action,
			Body:         body,
		})
	if err != nil {
		p.reset()
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// channel returns the open channel, dialling when needed.  p.mu is held.
func (p *AMQP) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQP) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
