package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/events"
	"github.com/meinhoongagan/servicemarket/middleware"
	"github.com/meinhoongagan/servicemarket/models"
	"gorm.io/gorm"
)

type BookingController struct {
	db  *gorm.DB
	pub events.Publisher

	// enforceParties restricts status changes and chat to the booking's
	// customer and worker.
	enforceParties bool
}

func NewBookingController(db *gorm.DB, pub events.Publisher, enforceParties bool) *BookingController {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &BookingController{db: db, pub: pub, enforceParties: enforceParties}
}

type createBookingRequest struct {
	ServiceID     uint                 `json:"serviceId" validate:"required"`
	CustomerID    uint                 `json:"customerId"`
	WorkerID      uint                 `json:"workerId"`
	Location      *models.GeoAddress   `json:"location"`
	BookingDate   string               `json:"bookingDate" validate:"max=32"`
	BookingTime   string               `json:"bookingTime" validate:"max=32"`
	Instructions  string               `json:"instructions" validate:"max=2000"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending accepted rejected completed cancelled"`
}

type messageRequest struct {
	SenderID uint   `json:"senderId"`
	Text     string `json:"text" validate:"required"`
}

// Create books a service. The new booking is always pending.
func (b *BookingController) Create(c *fiber.Ctx) error {
	var req createBookingRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	customerID := req.CustomerID
	if customerID == 0 {
		customerID, _, _ = middleware.CurrentUser(c)
	}
	if customerID == 0 {
		return fail(c, fiber.StatusBadRequest, "customerId is required")
	}

	booking, err := models.CreateBooking(b.db, models.BookingInput{
		ServiceID:     req.ServiceID,
		CustomerID:    customerID,
		WorkerID:      req.WorkerID,
		Location:      req.Location,
		BookingDate:   req.BookingDate,
		BookingTime:   req.BookingTime,
		Instructions:  req.Instructions,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return respondError(c, err)
	}

	events.Emit(c.UserContext(), b.pub, events.ForBooking(events.BookingCreated, booking))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "booking": booking})
}

func (b *BookingController) ListForUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	bookings, err := models.ListBookingsForUser(b.db, userID, c.Params("role"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "bookings": bookings})
}

func (b *BookingController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "bookingId")
	if err != nil {
		return respondError(c, err)
	}
	booking, err := models.GetBooking(b.db, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "booking": booking})
}

func (b *BookingController) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "bookingId")
	if err != nil {
		return respondError(c, err)
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	status := models.BookingStatus(req.Status)

	booking, previous, err := models.UpdateBookingStatus(b.db, id, status, b.statusGuard(c, status))
	if err != nil {
		return respondError(c, err)
	}
	if previous != booking.Status {
		events.Emit(c.UserContext(), b.pub, events.StatusChanged(booking, previous))
	}
	return c.JSON(fiber.Map{"success": true, "booking": booking})
}

// AddMessage appends a chat line. senderId defaults to the caller.
func (b *BookingController) AddMessage(c *fiber.Ctx) error {
	id, err := paramID(c, "bookingId")
	if err != nil {
		return respondError(c, err)
	}
	var req messageRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	senderID := req.SenderID
	if senderID == 0 {
		senderID, _, _ = middleware.CurrentUser(c)
	}

	booking, message, err := models.AppendMessage(b.db, id, senderID, req.Text, b.messageGuard(c, senderID))
	if err != nil {
		return respondError(c, err)
	}
	events.Emit(c.UserContext(), b.pub, events.MessagePosted(booking, message))
	return c.JSON(fiber.Map{"success": true, "booking": booking})
}

// Messages lists chat lines newer than ?after, for polling clients.
func (b *BookingController) Messages(c *fiber.Ctx) error {
	id, err := paramID(c, "bookingId")
	if err != nil {
		return respondError(c, err)
	}
	after := c.QueryInt("after", 0)
	if after < 0 {
		after = 0
	}
	messages, err := models.ListMessagesAfter(b.db, id, uint(after))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "messages": messages})
}

// statusGuard: the worker answers a request, either party may complete or
// cancel it. Admin tokens pass.
func (b *BookingController) statusGuard(c *fiber.Ctx, to models.BookingStatus) models.Guard {
	if !b.enforceParties {
		return nil
	}
	actorID, role, ok := middleware.CurrentUser(c)
	return func(booking *models.Booking) error {
		if ok && role == middleware.RoleAdmin {
			return nil
		}
		if !ok || !booking.IsParty(actorID) {
			return &models.Error{Kind: models.ErrForbidden, Message: "Only the booking's customer or worker can change its status"}
		}
		if (to == models.StatusAccepted || to == models.StatusRejected) && actorID != booking.WorkerID {
			return &models.Error{Kind: models.ErrForbidden, Message: "Only the worker can accept or reject a booking"}
		}
		return nil
	}
}

func (b *BookingController) messageGuard(c *fiber.Ctx, senderID uint) models.Guard {
	if !b.enforceParties {
		return nil
	}
	actorID, _, ok := middleware.CurrentUser(c)
	return func(booking *models.Booking) error {
		if ok && actorID != senderID {
			return &models.Error{Kind: models.ErrForbidden, Message: "Cannot send messages on behalf of another user"}
		}
		if !booking.IsParty(senderID) {
			return &models.Error{Kind: models.ErrForbidden, Message: "Only the booking's customer or worker can post messages"}
		}
		return nil
	}
}
