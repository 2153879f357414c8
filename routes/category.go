package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/controllers"
)

func SetupCategoryRoutes(app *fiber.App, d Deps) {
	ctrl := controllers.NewCategoryController(d.DB)

	categories := app.Group("/categories")
	categories.Get("/", ctrl.List)
	categories.Get("/:id", ctrl.Get)
	categories.Post("/", ctrl.Create)
	categories.Put("/:id", ctrl.Update)
	categories.Put("/:id/subcategories", ctrl.SetSubCategories)
	categories.Delete("/:id", ctrl.Delete)
}
