package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/controllers"
	"github.com/meinhoongagan/servicemarket/middleware"
)

func SetupServiceRoutes(app *fiber.App, d Deps) {
	ctrl := controllers.NewServiceController(d.DB, d.Config.DefaultCoverageRadiusKm)

	service := app.Group("/services", middleware.Identify(d.Config.JWTSecret))
	service.Post("/", ctrl.Create)
	service.Get("/", ctrl.Search)
	service.Get("/worker/:workerId", ctrl.ListByWorker)
	service.Get("/:serviceId", ctrl.Get)
	service.Put("/:serviceId", ctrl.Update)
	service.Post("/:serviceId/refresh", ctrl.Refresh)
	service.Delete("/:serviceId", ctrl.Delete)
}
