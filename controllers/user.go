package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/models"
	"gorm.io/gorm"
)

type UserController struct {
	db *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

type locationRequest struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	HouseNo      string   `json:"houseNo" validate:"max=200"`
	Apartment    string   `json:"apartment" validate:"max=200"`
	Directions   string   `json:"directions" validate:"max=500"`
	Label        string   `json:"label" validate:"omitempty,oneof=Home Work Other"`
	ContactName  string   `json:"contactName" validate:"max=100"`
	ContactPhone string   `json:"contactPhone" validate:"max=20"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer worker"`
}

type profileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (u *UserController) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	user, err := models.GetUser(u.db, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// SetLocation overwrites the saved location; omitted strings become empty.
func (u *UserController) SetLocation(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	var req locationRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := models.SetUserLocation(u.db, id, models.UserLocation{
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		HouseNo:      req.HouseNo,
		Apartment:    req.Apartment,
		Directions:   req.Directions,
		Label:        models.LocationLabel(req.Label),
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

func (u *UserController) SetRole(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	var req roleRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := models.SetUserRole(u.db, id, models.Role(req.Role))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

func (u *UserController) UpdateProfile(c *fiber.Ctx) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := models.UpdateUserProfile(u.db, id, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}
