package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/controllers"
)

func SetupUserRoutes(app *fiber.App, d Deps) {
	ctrl := controllers.NewUserController(d.DB)

	users := app.Group("/users")
	users.Get("/:userId", ctrl.GetUser)
	users.Put("/:userId/location", ctrl.SetLocation)
	users.Put("/:userId/role", ctrl.SetRole)
	users.Put("/:userId/profile", ctrl.UpdateProfile)
}
