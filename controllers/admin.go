package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/models"
	"github.com/meinhoongagan/servicemarket/utils"
	"gorm.io/gorm"
)

type AdminController struct {
	db *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

type settingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}

// Users lists accounts with the number of bookings they take part in.
func (a *AdminController) Users(c *fiber.Ctx) error {
	page := utils.ParsePagination(c)
	role := models.Role(c.Query("role"))
	switch role {
	case models.RoleUnset, models.RoleCustomer, models.RoleWorker:
	default:
		return fail(c, fiber.StatusBadRequest, "role must be customer or worker")
	}

	users, total, err := models.ListUsersWithBookingCount(a.db, role, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"users":   users,
		"total":   total,
		"page":    page.Page,
		"pages":   page.Pages(total),
	})
}

func (a *AdminController) User(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	detail, err := models.GetUserDetail(a.db, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": detail})
}

// ToggleUser flips isActive; disabled users cannot log in.
func (a *AdminController) ToggleUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	user, err := models.ToggleUserActive(a.db, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

func (a *AdminController) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := models.DeleteUser(a.db, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "User deleted"})
}

func (a *AdminController) Bookings(c *fiber.Ctx) error {
	filter, err := bookingFilter(c)
	if err != nil {
		return respondError(c, err)
	}
	page := utils.ParsePagination(c)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	bookings, total, err := models.ListAllBookings(a.db, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"bookings": bookings,
		"total":    total,
		"page":     page.Page,
		"pages":    page.Pages(total),
	})
}

func bookingFilter(c *fiber.Ctx) (models.BookingFilter, error) {
	status := models.BookingStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return models.BookingFilter{}, &models.Error{Kind: models.ErrValidation, Message: "Invalid booking status " + string(status)}
	}
	return models.BookingFilter{Status: status}, nil
}

func (a *AdminController) Services(c *fiber.Ctx) error {
	page := utils.ParsePagination(c)
	services, total, err := models.ListAllServices(a.db, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"services": services,
		"total":    total,
		"page":     page.Page,
		"pages":    page.Pages(total),
	})
}

func (a *AdminController) Stats(c *fiber.Ctx) error {
	stats, err := models.GetStats(a.db)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "stats": stats})
}

func (a *AdminController) Settings(c *fiber.Ctx) error {
	settings, err := models.GetSettings(a.db)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "settings": settings})
}

func (a *AdminController) UpdateSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	settings, err := models.UpsertSettings(a.db, req.Settings)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "settings": settings})
}
