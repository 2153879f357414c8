package cron

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/meinhoongagan/servicemarket/events"
	"github.com/meinhoongagan/servicemarket/models"
	"github.com/meinhoongagan/servicemarket/utils"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	staleCheckSpec = "*/15 * * * *"
	digestSpec     = "0 8 * * *"
)

// Mailer is the part of utils.Mailer the digest needs.
type Mailer interface {
	Enabled() bool
	SendEmail(to, subject, body string) error
}

// Jobs holds the dependencies of the scheduled tasks.
type Jobs struct {
	DB                *gorm.DB
	Publisher         events.Publisher
	Mailer            Mailer
	StalePendingAfter time.Duration
	DigestTo          string

	now func() time.Time
}

// StartCronJobs schedules the stale-booking check and the daily admin digest.
// The returned scheduler is already running; call Stop on shutdown.
func StartCronJobs(j *Jobs) (*cron.Cron, error) {
	log.Println("Starting cron job scheduler...")
	c := cron.New()
	if _, err := c.AddFunc(staleCheckSpec, func() { j.ReportStalePending(context.Background()) }); err != nil {
		return nil, fmt.Errorf("failed to add stale booking job: %w", err)
	}
	if j.DigestTo != "" {
		if _, err := c.AddFunc(digestSpec, j.SendAdminDigest); err != nil {
			return nil, fmt.Errorf("failed to add admin digest job: %w", err)
		}
	}
	c.Start()
	log.Println("Cron job scheduler started")
	return c, nil
}

func (j *Jobs) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now().UTC()
}

// ReportStalePending logs and announces bookings that have waited longer than
// StalePendingAfter for the worker's answer. Their status is left untouched.
func (j *Jobs) ReportStalePending(ctx context.Context) int {
	cutoff := j.clock().Add(-j.StalePendingAfter)
	bookings, err := models.ListStalePendingBookings(j.DB, cutoff)
	if err != nil {
		log.Printf("Error fetching stale bookings: %v", err)
		return 0
	}
	if len(bookings) == 0 {
		return 0
	}

	log.Printf("Found %d bookings pending since before %s", len(bookings), cutoff.Format(time.RFC3339))
	for i := range bookings {
		events.Emit(ctx, j.Publisher, events.ForBooking(events.BookingStale, &bookings[i]))
	}
	return len(bookings)
}

// SendAdminDigest mails the dashboard counts to DigestTo.
func (j *Jobs) SendAdminDigest() {
	if j.Mailer == nil || !j.Mailer.Enabled() {
		log.Println("Skipping admin digest: SMTP is not configured")
		return
	}
	stats, err := models.GetStats(j.DB)
	if err != nil {
		log.Printf("Error building admin digest: %v", err)
		return
	}

	subject := fmt.Sprintf("Daily marketplace report - %s", j.clock().Format("2006-01-02"))
	if err := j.Mailer.SendEmail(j.DigestTo, subject, DigestBody(stats)); err != nil {
		log.Printf("Failed to send admin digest to %s: %v", j.DigestTo, err)
		return
	}
	log.Printf("Sent admin digest to %s", j.DigestTo)
}

// DigestBody renders stats as the HTML body of the daily digest.
func DigestBody(stats *models.Stats) string {
	statuses := make([]string, 0, len(stats.BookingsByState))
	for s := range stats.BookingsByState {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	var rows strings.Builder
	for _, s := range statuses {
		fmt.Fprintf(&rows, "\t\t\t<li><strong>%s:</strong> %d</li>\n", s, stats.BookingsByState[models.BookingStatus(s)])
	}

	return fmt.Sprintf(`
		<p>Daily marketplace summary</p>
		<ul>
			<li><strong>Users:</strong> %d</li>
			<li><strong>Services:</strong> %d</li>
			<li><strong>Categories:</strong> %d</li>
			<li><strong>Bookings:</strong> %d</li>
		</ul>
		<p><strong>Bookings by status</strong></p>
		<ul>
%s		</ul>
	`, stats.Users, stats.Services, stats.Categories, stats.Bookings, rows.String())
}

var _ Mailer = utils.Mailer{}
