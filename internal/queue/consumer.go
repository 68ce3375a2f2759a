package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	eventLogFile = "events.log"
	maxBackoff   = 30 * time.Second
	prefetch     = 50
)

// Consumer reads both event queues and appends one line per event to
// <logDir>/events.log.
type Consumer struct {
	url    string
	logDir string
	log    *zap.Logger
}

func NewConsumer(url, logDir string, log *zap.Logger) *Consumer {
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{url: url, logDir: logDir, log: log.Named("event-consumer")}
}

// Run dials the broker and consumes until ctx is cancelled.  Failed dials
// are retried after 1s, doubling up to 30s; a dropped connection is
// redialed after the same backoff reset to 1s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second
		c.log.Info("connected to broker")

		err = c.consume(ctx, conn)
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, amqp.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		c.log.Warn("set qos failed", zap.Error(err))
	}

	reservations, err := c.subscribe(ch, ReservationQueue)
	if err != nil {
		return err
	}
	stores, err := c.subscribe(ch, StoreQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d  amqp.Delivery
			ok bool
		)
		select {
		case <-ctx.Done():
			return nil
		case d, ok = <-reservations:
		case d, ok = <-stores:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.handleMessage(d.RoutingKey, d.Body); err != nil {
			c.log.Error("handle message failed", zap.String("queue", d.RoutingKey), zap.Error(err))
			// rejected without requeue so a bad message cannot spin
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
}

func (c *Consumer) subscribe(ch *amqp.Channel, name string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", name, err)
	}
	msgs, err := ch.Consume(name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", name, err)
	}
	return msgs, nil
}

// handleMessage decodes an event published to queueName and appends its
// log line.
func (c *Consumer) handleMessage(queueName string, body []byte) error {
	var line string
	switch queueName {
	case ReservationQueue:
		var ev ReservationEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = FormatReservationEvent(ev)
	case StoreQueue:
		var ev StoreEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = FormatStoreEvent(ev)
	default:
		return fmt.Errorf("unknown queue %q", queueName)
	}
	return c.appendLine(line)
}

func (c *Consumer) appendLine(line string) (err error) {
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, eventLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	return nil
}

// FormatReservationEvent renders ev as a single log line.
func FormatReservationEvent(ev ReservationEvent) string {
	return fmt.Sprintf("[%s] %s %s | reservation_id=%s | store_id=%s | customer_id=%s | date=%s | seats=%d | status=%s",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.Action, ev.ReservationID, ev.StoreID,
		ev.CustomerID, ev.Date, ev.Seats, ev.Status)
}

// FormatStoreEvent renders ev as a single log line.
func FormatStoreEvent(ev StoreEvent) string {
	return fmt.Sprintf("[%s] %s %s | store_id=%s | owner_id=%s | name=%q",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.Action, ev.StoreID, ev.OwnerID, ev.Name)
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
