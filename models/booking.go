package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusRejected  BookingStatus = "rejected"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// MaxMessageLength bounds a single chat message, in characters.
const MaxMessageLength = 2000

// bookingTransitions lists, per status, the statuses a booking may move to.
// Terminal statuses map to nothing.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:  {StatusCompleted, StatusCancelled},
	StatusRejected:  {},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) Terminal() bool {
	return s.Valid() && len(bookingTransitions[s]) == 0
}

// CanTransition reports whether from -> to is allowed by the transition table.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentMethod struct {
	Type  string `json:"type"`
	Last4 string `json:"last4"`
}

// ChatMessage is one entry of a booking's conversation. Messages are only
// ever inserted; ID order is display order.
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BookingID uint      `json:"bookingId" gorm:"index;not null"`
	SenderID  uint      `json:"senderId" gorm:"not null"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

type Booking struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	ServiceID     uint          `json:"serviceId" gorm:"index"`
	Service       *Service      `json:"service" gorm:"foreignKey:ServiceID"`
	CustomerID    uint          `json:"customerId" gorm:"index"`
	Customer      *User         `json:"customer" gorm:"foreignKey:CustomerID"`
	WorkerID      uint          `json:"workerId" gorm:"index"`
	Worker        *User         `json:"worker" gorm:"foreignKey:WorkerID"`
	Status        BookingStatus `json:"status" gorm:"type:varchar(16);index;not null"`
	Location      GeoAddress    `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	BookingDate   string        `json:"bookingDate"`
	BookingTime   string        `json:"bookingTime"`
	Instructions  string        `json:"instructions"`
	PaymentMethod PaymentMethod `json:"paymentMethod" gorm:"embedded;embeddedPrefix:payment_"`
	ChatMessages  []ChatMessage `json:"chatMessages" gorm:"foreignKey:BookingID"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// BeforeCreate forces every new booking into pending, whatever the caller set.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	b.Status = StatusPending
	return nil
}

// IsParty reports whether userID is the booking's customer or worker.
func (b *Booking) IsParty(userID uint) bool {
	return userID != 0 && (userID == b.CustomerID || userID == b.WorkerID)
}

// TransitionTo checks newStatus against the transition table and applies it
// in memory. Re-applying the current status is accepted.
func (b *Booking) TransitionTo(newStatus BookingStatus) error {
	if !newStatus.Valid() {
		return newError(ErrValidation, "Invalid booking status %q", newStatus)
	}
	if b.Status == newStatus {
		return nil
	}
	if !CanTransition(b.Status, newStatus) {
		return &Error{
			Kind:    ErrInvalidTransition,
			Message: "Cannot change booking status from " + string(b.Status) + " to " + string(newStatus),
		}
	}
	b.Status = newStatus
	return nil
}

// Guard vets an operation on a loaded booking before it is persisted.
type Guard func(b *Booking) error

// BookingInput is the whitelisted payload for a new booking.
type BookingInput struct {
	ServiceID     uint
	CustomerID    uint
	WorkerID      uint
	Location      *GeoAddress
	BookingDate   string
	BookingTime   string
	Instructions  string
	PaymentMethod PaymentMethod
}

// BookingFilter narrows admin listings. Limit 0 returns everything.
type BookingFilter struct {
	Status BookingStatus
	Limit  int
	Offset int
}

func withBookingRelations(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Service").
		Preload("Customer").
		Preload("Worker").
		Preload("ChatMessages", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
}

// CreateBooking stores a new pending booking. WorkerID defaults to the
// service's worker, and the address to the customer's saved location.
func CreateBooking(tx *gorm.DB, in BookingInput) (*Booking, error) {
	service, err := GetService(tx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	customer, err := GetUser(tx, in.CustomerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("Customer")
		}
		return nil, err
	}

	workerID := in.WorkerID
	if workerID == 0 {
		workerID = service.WorkerID
	}
	if _, err := GetUser(tx, workerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("Worker")
		}
		return nil, err
	}

	location := customer.Location.GeoAddress()
	if in.Location != nil {
		if (in.Location.Latitude == nil) != (in.Location.Longitude == nil) {
			return nil, newError(ErrValidation, "Latitude and longitude must be set together")
		}
		if in.Location.Latitude != nil && !in.Location.HasCoordinates() {
			return nil, newError(ErrValidation, "Invalid coordinates")
		}
		if in.Location.Latitude != nil || strings.TrimSpace(in.Location.Address) != "" {
			location = *in.Location
		}
	}

	booking := Booking{
		ServiceID:     service.ID,
		CustomerID:    customer.ID,
		WorkerID:      workerID,
		Location:      location,
		BookingDate:   strings.TrimSpace(in.BookingDate),
		BookingTime:   strings.TrimSpace(in.BookingTime),
		Instructions:  in.Instructions,
		PaymentMethod: in.PaymentMethod,
	}
	if err := tx.Create(&booking).Error; err != nil {
		return nil, err
	}
	return GetBooking(tx, booking.ID)
}

// GetBooking loads a booking with service, both parties and the chat log.
func GetBooking(tx *gorm.DB, id uint) (*Booking, error) {
	var booking Booking
	if err := withBookingRelations(tx).First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Booking")
		}
		return nil, err
	}
	return &booking, nil
}

// ListBookingsForUser returns bookings where the user is the worker (role
// "worker") or the customer (any other role), newest first.
func ListBookingsForUser(tx *gorm.DB, userID uint, role string) ([]Booking, error) {
	column := "customer_id"
	if Role(role) == RoleWorker {
		column = "worker_id"
	}
	bookings := []Booking{}
	err := withBookingRelations(tx).
		Where(column+" = ?", userID).
		Order("id DESC").
		Find(&bookings).Error
	return bookings, err
}

// ListAllBookings is the back-office view across every user.
func ListAllBookings(tx *gorm.DB, filter BookingFilter) ([]Booking, int64, error) {
	q := tx.Model(&Booking{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := withBookingRelations(tx).Order("id DESC")
	if filter.Status != "" {
		fetch = fetch.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		fetch = fetch.Limit(filter.Limit).Offset(filter.Offset)
	}
	bookings := []Booking{}
	if err := fetch.Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// UpdateBookingStatus moves a booking to newStatus if the transition table
// allows it. The write is conditional on the status read, so two racing
// updates cannot both succeed from the same starting state.
func UpdateBookingStatus(tx *gorm.DB, id uint, newStatus BookingStatus, guard Guard) (*Booking, BookingStatus, error) {
	var booking Booking
	if err := tx.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", notFound("Booking")
		}
		return nil, "", err
	}
	previous := booking.Status

	if !newStatus.Valid() {
		return nil, previous, newError(ErrValidation, "Invalid booking status %q", newStatus)
	}
	if guard != nil {
		if err := guard(&booking); err != nil {
			return nil, previous, err
		}
	}
	if err := booking.TransitionTo(newStatus); err != nil {
		return nil, previous, err
	}

	if previous != newStatus {
		res := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", id, previous).
			Updates(map[string]interface{}{"status": newStatus, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return nil, previous, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, previous, newError(ErrConflict, "Booking status was changed by another request")
		}
	}

	updated, err := GetBooking(tx, id)
	return updated, previous, err
}

// AppendMessage adds one message at the end of the booking's chat log.
func AppendMessage(tx *gorm.DB, id, senderID uint, text string, guard Guard) (*Booking, *ChatMessage, error) {
	text = strings.TrimSpace(text)
	if senderID == 0 {
		return nil, nil, newError(ErrValidation, "Sender is required")
	}
	if text == "" {
		return nil, nil, newError(ErrValidation, "Message text is required")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, nil, newError(ErrValidation, "Message is longer than %d characters", MaxMessageLength)
	}

	var booking Booking
	if err := tx.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFound("Booking")
		}
		return nil, nil, err
	}
	if guard != nil {
		if err := guard(&booking); err != nil {
			return nil, nil, err
		}
	}

	message := ChatMessage{
		BookingID: booking.ID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Create(&message).Error; err != nil {
		return nil, nil, err
	}
	if err := tx.Model(&Booking{}).Where("id = ?", id).Update("updated_at", message.CreatedAt).Error; err != nil {
		return nil, nil, err
	}

	updated, err := GetBooking(tx, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, &message, nil
}

// ListMessagesAfter returns the messages of a booking with ID > afterID, for
// clients that poll for new chat lines.
func ListMessagesAfter(tx *gorm.DB, bookingID, afterID uint) ([]ChatMessage, error) {
	var count int64
	if err := tx.Model(&Booking{}).Where("id = ?", bookingID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, notFound("Booking")
	}
	messages := []ChatMessage{}
	err := tx.Where("booking_id = ? AND id > ?", bookingID, afterID).Order("id ASC").Find(&messages).Error
	return messages, err
}

// ListStalePendingBookings returns bookings still pending that were created
// before cutoff.
func ListStalePendingBookings(tx *gorm.DB, cutoff time.Time) ([]Booking, error) {
	bookings := []Booking{}
	err := tx.Where("status = ? AND created_at < ?", StatusPending, cutoff).Order("id ASC").Find(&bookings).Error
	return bookings, err
}
