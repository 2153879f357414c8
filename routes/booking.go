package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/controllers"
	"github.com/meinhoongagan/servicemarket/middleware"
)

func SetupBookingRoutes(app *fiber.App, d Deps) {
	ctrl := controllers.NewBookingController(d.DB, d.Publisher, d.Config.EnforceBookingParties)

	booking := app.Group("/bookings", middleware.Identify(d.Config.JWTSecret))
	booking.Post("/", ctrl.Create)
	booking.Get("/user/:userId/:role", ctrl.ListForUser)
	booking.Patch("/status/:bookingId", ctrl.UpdateStatus)
	booking.Post("/message/:bookingId", ctrl.AddMessage)
	booking.Get("/:bookingId/messages", ctrl.Messages)
	booking.Get("/:bookingId", ctrl.Get)
}
