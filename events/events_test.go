package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/meinhoongagan/servicemarket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct{ got []Event }

func (r *recordingNotifier) Notify(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return nil
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker down")
}

func TestMessageEventSkipsSender(t *testing.T) {
	b := &models.Booking{ID: 7, CustomerID: 1, WorkerID: 2, Status: models.StatusAccepted}
	ev := MessagePosted(b, &models.ChatMessage{SenderID: 1, Text: "hi"})

	assert.Equal(t, BookingMessage, ev.Type)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, []uint{2}, ev.Recipients())

	changed := StatusChanged(b, models.StatusPending)
	assert.Equal(t, models.StatusPending, changed.PreviousStatus)
	assert.Equal(t, []uint{1, 2}, changed.Recipients())
}

func TestHandleDelivery(t *testing.T) {
	b := &models.Booking{ID: 3, CustomerID: 4, WorkerID: 5, Status: models.StatusPending}
	body, err := json.Marshal(ForBooking(BookingCreated, b))
	require.NoError(t, err)

	n := &recordingNotifier{}
	require.NoError(t, HandleDelivery(context.Background(), body, n))
	require.Len(t, n.got, 1)
	assert.Equal(t, uint(3), n.got[0].BookingID)
	assert.Equal(t, models.StatusPending, n.got[0].Status)

	assert.Error(t, HandleDelivery(context.Background(), []byte("{"), n))
	assert.Error(t, HandleDelivery(context.Background(), []byte(`{"type":""}`), n))
}

func TestEmitSwallowsErrors(t *testing.T) {
	p := &failingPublisher{}
	Emit(context.Background(), p, Event{Type: BookingCreated, BookingID: 1})
	assert.Equal(t, 1, p.calls)

	Emit(context.Background(), nil, Event{})
}
