package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jongrhanrhao/reservation-backend/internal/queue"
)

// EventPublisher delivers domain events after the write that caused them
// has committed.  Callers treat delivery as best effort.
type EventPublisher interface {
	PublishReservation(ctx context.Context, ev queue.ReservationEvent) error
	PublishStore(ctx context.Context, ev queue.StoreEvent) error
	Close() error
}

// NopPublisher drops every event.  Used when RabbitMQ is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishReservation(context.Context, queue.ReservationEvent) error { return nil }
func (NopPublisher) PublishStore(context.Context, queue.StoreEvent) error             { return nil }
func (NopPublisher) Close() error                                                     { return nil }

const (
	dialTimeout      = 3 * time.Second
	reconnectBackoff = 5 * time.Second
)

// ErrPublisherUnavailable is returned while the broker is unreachable and
// the next reconnect attempt is not due yet, or one is already running.
var ErrPublisherUnavailable = errors.New("event publisher unavailable")

// AMQPPublisher publishes persistent JSON messages to durable queues on
// the default exchange.  After the broker drops the connection, one
// publish redials in the background of the others; failed dials are
// retried at most every reconnectBackoff.
type AMQPPublisher struct {
	url  string
	log  *zap.Logger
	dial func(url string) (*amqp.Connection, error)
	now  func() time.Time

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	dialing bool
	closed  bool
	retryAt time.Time
}

func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

// NewAMQPPublisher dials url and declares the event queues.
func NewAMQPPublisher(url string, log *zap.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, log: log, dial: dialBroker, now: time.Now}
	conn, ch, err := p.open()
	if err != nil {
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return p, nil
}

func (p *AMQPPublisher) open() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := p.dial(p.url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	for _, name := range []string{queue.ReservationQueue, queue.StoreQueue} {
		// durable, not auto-deleted, not exclusive
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, err
		}
	}
	return conn, ch, nil
}

func (p *AMQPPublisher) connectedLocked() bool {
	return p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed()
}

// reconnect redials without holding mu, so publishes that arrive meanwhile
// fail fast with ErrPublisherUnavailable instead of queueing on the dial.
func (p *AMQPPublisher) reconnect() error {
	p.mu.Lock()
	if p.connectedLocked() {
		p.mu.Unlock()
		return nil
	}
	if p.closed || p.dialing || p.now().Before(p.retryAt) {
		p.mu.Unlock()
		return ErrPublisherUnavailable
	}
	p.dialing = true
	_ = p.closeLocked()
	p.mu.Unlock()

	conn, ch, err := p.open()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		p.retryAt = p.now().Add(reconnectBackoff)
		p.log.Warn("rabbitmq reconnect failed", zap.Error(err), zap.Time("retry_at", p.retryAt))
		return err
	}
	if p.closed {
		_ = ch.Close()
		_ = conn.Close()
		return ErrPublisherUnavailable
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) PublishReservation(ctx context.Context, ev queue.ReservationEvent) error {
	return p.publish(ctx, queue.ReservationQueue, ev)
}

func (p *AMQPPublisher) PublishStore(ctx context.Context, ev queue.StoreEvent) error {
	return p.publish(ctx, queue.StoreQueue, ev)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := p.reconnect(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connectedLocked() {
		return ErrPublisherUnavailable
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	return p.ch.PublishWithContext(ctx, "", routingKey, false, false, pub)
}

func (p *AMQPPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		if cerr := p.ch.Close(); cerr != nil && !errors.Is(cerr, amqp.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && !errors.Is(cerr, amqp.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
	}
	p.ch, p.conn = nil, nil
	return err
}

// Close releases the channel and connection.  Publishing afterwards
// returns ErrPublisherUnavailable.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeLocked()
}
