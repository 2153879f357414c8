package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/middleware"
	"github.com/meinhoongagan/servicemarket/models"
	"github.com/meinhoongagan/servicemarket/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ServiceController struct {
	db              *gorm.DB
	defaultRadiusKm float64
}

func NewServiceController(db *gorm.DB, defaultRadiusKm float64) *ServiceController {
	return &ServiceController{db: db, defaultRadiusKm: defaultRadiusKm}
}

type createServiceRequest struct {
	WorkerID       uint            `json:"workerId"`
	Name           string          `json:"name" validate:"required,max=200"`
	Category       string          `json:"category" validate:"max=100"`
	SubCategories  []string        `json:"subCategories"`
	Price          decimal.Decimal `json:"price"`
	Description    string          `json:"description" validate:"max=5000"`
	Images         []string        `json:"images" validate:"dive,url"`
	Videos         []string        `json:"videos" validate:"dive,url"`
	CoverageRadius float64         `json:"coverageRadius" validate:"gte=0"`
}

type updateServiceRequest struct {
	Name           *string          `json:"name" validate:"omitempty,max=200"`
	Category       *string          `json:"category" validate:"omitempty,max=100"`
	SubCategories  *[]string        `json:"subCategories"`
	Price          *decimal.Decimal `json:"price"`
	Description    *string          `json:"description" validate:"omitempty,max=5000"`
	Images         *[]string        `json:"images"`
	Videos         *[]string        `json:"videos"`
	CoverageRadius *float64         `json:"coverageRadius" validate:"omitempty,gte=0"`
}

// Create lists a new service for workerId, or for the caller when the body
// leaves it out.
func (s *ServiceController) Create(c *fiber.Ctx) error {
	var req createServiceRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	workerID := req.WorkerID
	if workerID == 0 {
		workerID, _, _ = middleware.CurrentUser(c)
	}
	if workerID == 0 {
		return fail(c, fiber.StatusBadRequest, "workerId is required")
	}

	service, err := models.CreateService(s.db, models.ServiceInput{
		Name:           req.Name,
		Category:       req.Category,
		SubCategories:  req.SubCategories,
		Price:          req.Price,
		Description:    req.Description,
		Images:         req.Images,
		Videos:         req.Videos,
		CoverageRadius: req.CoverageRadius,
	}, workerID, s.defaultRadiusKm)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "service": service})
}

// Search returns every service, or only those reaching ?lat&lng when both
// are given.
func (s *ServiceController) Search(c *fiber.Ctx) error {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		return respondError(c, err)
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		return respondError(c, err)
	}
	if lat != nil && lng != nil && !utils.ValidCoordinates(*lat, *lng) {
		return fail(c, fiber.StatusBadRequest, "Invalid coordinates")
	}

	services, err := models.SearchServices(s.db, lat, lng)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "services": services})
}

func (s *ServiceController) ListByWorker(c *fiber.Ctx) error {
	workerID, err := paramID(c, "workerId")
	if err != nil {
		return respondError(c, err)
	}
	services, err := models.ListServicesByWorker(s.db, workerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "services": services})
}

func (s *ServiceController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "serviceId")
	if err != nil {
		return respondError(c, err)
	}
	service, err := models.GetService(s.db, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "service": service})
}

func (s *ServiceController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "serviceId")
	if err != nil {
		return respondError(c, err)
	}
	var req updateServiceRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	service, err := models.UpdateService(s.db, id, models.ServiceUpdate{
		Name:           req.Name,
		Category:       req.Category,
		SubCategories:  req.SubCategories,
		Price:          req.Price,
		Description:    req.Description,
		Images:         req.Images,
		Videos:         req.Videos,
		CoverageRadius: req.CoverageRadius,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "service": service})
}

// Refresh re-copies the worker's current name and location onto the service.
func (s *ServiceController) Refresh(c *fiber.Ctx) error {
	id, err := paramID(c, "serviceId")
	if err != nil {
		return respondError(c, err)
	}
	service, err := models.RefreshServiceSnapshot(s.db, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "service": service})
}

func (s *ServiceController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "serviceId")
	if err != nil {
		return respondError(c, err)
	}
	if err := models.DeleteService(s.db, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Service deleted"})
}
