package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/controllers"
	"github.com/meinhoongagan/servicemarket/middleware"
)

// SetupAdminRoutes registers the back-office API. /admin/login lives with the
// auth routes and is the only unprotected admin path, so the guards are
// attached per route rather than to the group.
func SetupAdminRoutes(app *fiber.App, d Deps) {
	ctrl := controllers.NewAdminController(d.DB)
	categories := controllers.NewCategoryController(d.DB)

	auth := middleware.Protected(d.Config.JWTSecret)
	isAdmin := middleware.RequireRole(middleware.RoleAdmin)

	admin := app.Group("/admin")
	admin.Get("/users", auth, isAdmin, ctrl.Users)
	admin.Get("/users/:id", auth, isAdmin, ctrl.User)
	admin.Patch("/users/:id/toggle", auth, isAdmin, ctrl.ToggleUser)
	admin.Delete("/users/:id", auth, isAdmin, ctrl.DeleteUser)
	admin.Get("/bookings/export", auth, isAdmin, ctrl.ExportBookings)
	admin.Get("/bookings", auth, isAdmin, ctrl.Bookings)
	admin.Get("/services", auth, isAdmin, ctrl.Services)
	admin.Get("/categories", auth, isAdmin, categories.ListAll)
	admin.Get("/stats", auth, isAdmin, ctrl.Stats)
	admin.Get("/settings", auth, isAdmin, ctrl.Settings)
	admin.Put("/settings", auth, isAdmin, ctrl.UpdateSettings)
}
