package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meinhoongagan/servicemarket/db/dbtest"
	"github.com/meinhoongagan/servicemarket/events"
	"github.com/meinhoongagan/servicemarket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct{ events []events.Event }

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.events = append(r.events, ev)
	return nil
}

type fakeMailer struct {
	enabled bool
	to      string
	subject string
	body    string
	err     error
}

func (m *fakeMailer) Enabled() bool { return m.enabled }

func (m *fakeMailer) SendEmail(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func TestReportStalePending(t *testing.T) {
	gdb := dbtest.Open(t)

	old := models.Booking{ServiceID: 1, CustomerID: 1, WorkerID: 2}
	require.NoError(t, gdb.Create(&old).Error)
	fresh := models.Booking{ServiceID: 1, CustomerID: 1, WorkerID: 2}
	require.NoError(t, gdb.Create(&fresh).Error)
	accepted := models.Booking{ServiceID: 1, CustomerID: 1, WorkerID: 2}
	require.NoError(t, gdb.Create(&accepted).Error)

	now := time.Now().UTC()
	require.NoError(t, gdb.Model(&old).Update("created_at", now.Add(-48*time.Hour)).Error)
	require.NoError(t, gdb.Model(&accepted).Updates(map[string]interface{}{
		"created_at": now.Add(-48 * time.Hour),
		"status":     models.StatusAccepted,
	}).Error)

	pub := &recordingPublisher{}
	jobs := &Jobs{DB: gdb, Publisher: pub, StalePendingAfter: 24 * time.Hour, now: func() time.Time { return now }}

	assert.Equal(t, 1, jobs.ReportStalePending(context.Background()))
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.BookingStale, pub.events[0].Type)
	assert.Equal(t, old.ID, pub.events[0].BookingID)

	// Reporting never changes the booking.
	reloaded, err := models.GetBooking(gdb, old.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reloaded.Status)
}

func TestSendAdminDigest(t *testing.T) {
	gdb := dbtest.Open(t)
	require.NoError(t, gdb.Create(&models.Booking{ServiceID: 1, CustomerID: 1, WorkerID: 2}).Error)

	mailer := &fakeMailer{enabled: true}
	jobs := &Jobs{DB: gdb, Mailer: mailer, DigestTo: "ops@example.com"}
	jobs.SendAdminDigest()

	assert.Equal(t, "ops@example.com", mailer.to)
	assert.Contains(t, mailer.subject, "Daily marketplace report")
	assert.Contains(t, mailer.body, "<strong>pending:</strong> 1")
	assert.Contains(t, mailer.body, "<strong>Bookings:</strong> 1")
}

func TestSendAdminDigestSkipsWithoutSMTP(t *testing.T) {
	mailer := &fakeMailer{enabled: false, err: errors.New("unreachable")}
	jobs := &Jobs{DB: dbtest.Open(t), Mailer: mailer, DigestTo: "ops@example.com"}
	jobs.SendAdminDigest()
	assert.Empty(t, mailer.to)
}
