package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/models"
	"gorm.io/gorm"
)

type CategoryController struct {
	db *gorm.DB
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

type createCategoryRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	SubCategories []string `json:"subCategories" validate:"max=100,dive,max=100"`
}

type updateCategoryRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	IsActive *bool   `json:"isActive"`
}

type subCategoriesRequest struct {
	SubCategories []string `json:"subCategories" validate:"max=100,dive,max=100"`
}

// List returns the active categories.
func (cc *CategoryController) List(c *fiber.Ctx) error {
	categories, err := models.ListActiveCategories(cc.db)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "categories": categories})
}

// ListAll includes inactive categories.
func (cc *CategoryController) ListAll(c *fiber.Ctx) error {
	categories, err := models.ListAllCategories(cc.db)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "categories": categories})
}

func (cc *CategoryController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	category, err := models.GetCategory(cc.db, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "category": category})
}

func (cc *CategoryController) Create(c *fiber.Ctx) error {
	var req createCategoryRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	category, err := models.CreateCategory(cc.db, req.Name, req.SubCategories)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "category": category})
}

func (cc *CategoryController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateCategoryRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	category, err := models.UpdateCategory(cc.db, id, models.CategoryUpdate{Name: req.Name, IsActive: req.IsActive})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "category": category})
}

func (cc *CategoryController) SetSubCategories(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req subCategoriesRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	category, err := models.SetSubCategories(cc.db, id, req.SubCategories)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "category": category})
}

func (cc *CategoryController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := models.DeleteCategory(cc.db, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Category deleted"})
}
