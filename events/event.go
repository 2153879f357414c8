// Package events carries booking domain events to RabbitMQ and back out to
// the push notifier.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/servicemarket/models"
)

// QueueName is the durable queue every booking event goes to.
const QueueName = "booking.events"

type Type string

const (
	BookingCreated       Type = "booking.created"
	BookingStatusChanged Type = "booking.status_changed"
	BookingMessage       Type = "booking.message"
	BookingStale         Type = "booking.stale"
)

type Event struct {
	ID             string               `json:"id"`
	Type           Type                 `json:"type"`
	BookingID      uint                 `json:"bookingId"`
	Status         models.BookingStatus `json:"status,omitempty"`
	PreviousStatus models.BookingStatus `json:"previousStatus,omitempty"`
	CustomerID     uint                 `json:"customerId"`
	WorkerID       uint                 `json:"workerId"`
	SenderID       uint                 `json:"senderId,omitempty"`
	Text           string               `json:"text,omitempty"`
	OccurredAt     time.Time            `json:"occurredAt"`
}

// ForBooking builds an event of type t describing b.
func ForBooking(t Type, b *models.Booking) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		BookingID:  b.ID,
		Status:     b.Status,
		CustomerID: b.CustomerID,
		WorkerID:   b.WorkerID,
		OccurredAt: time.Now().UTC(),
	}
}

// StatusChanged describes a move from previous to b.Status.
func StatusChanged(b *models.Booking, previous models.BookingStatus) Event {
	ev := ForBooking(BookingStatusChanged, b)
	ev.PreviousStatus = previous
	return ev
}

// MessagePosted describes a chat line appended to b.
func MessagePosted(b *models.Booking, m *models.ChatMessage) Event {
	ev := ForBooking(BookingMessage, b)
	ev.SenderID = m.SenderID
	ev.Text = m.Text
	return ev
}

// Recipients returns the parties to notify, leaving out the sender of a
// chat message.
func (e Event) Recipients() []uint {
	var out []uint
	for _, id := range []uint{e.CustomerID, e.WorkerID} {
		if id == 0 || (e.Type == BookingMessage && id == e.SenderID) {
			continue
		}
		out = append(out, id)
	}
	return out
}
