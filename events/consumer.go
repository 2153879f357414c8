package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier delivers an event to the people it concerns.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// LogNotifier writes one line per recipient instead of sending a push.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, ev Event) error {
	for _, userID := range ev.Recipients() {
		switch ev.Type {
		case BookingMessage:
			log.Printf("🔔 push to user %d: new message on booking %d: %q", userID, ev.BookingID, ev.Text)
		case BookingStatusChanged:
			log.Printf("🔔 push to user %d: booking %d is now %s", userID, ev.BookingID, ev.Status)
		case BookingStale:
			log.Printf("🔔 push to user %d: booking %d is still waiting for an answer", userID, ev.BookingID)
		default:
			log.Printf("🔔 push to user %d: %s for booking %d", userID, ev.Type, ev.BookingID)
		}
	}
	return nil
}

// StartConsumer reads booking events until ctx is cancelled, re-dialing with
// exponential backoff whenever the broker goes away.
func StartConsumer(ctx context.Context, url string, n Notifier) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("events-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, n)
		_ = conn.Close()
		if err != nil && ctx.Err() == nil {
			log.Printf("events-consumer: consume loop ended: %v; reconnecting", err)
			if !sleep(ctx, 2*time.Second) {
				return
			}
		}
	}
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

func consumeLoop(ctx context.Context, conn *amqp.Connection, n Notifier) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("events-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleDelivery(ctx, d.Body, n); err != nil {
				log.Printf("events-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleDelivery decodes one message body and passes it to n.
func HandleDelivery(ctx context.Context, body []byte, n Notifier) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.BookingID == 0 {
		return fmt.Errorf("malformed event %q", body)
	}
	return n.Notify(ctx, ev)
}
