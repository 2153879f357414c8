package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/controllers"
	"github.com/meinhoongagan/servicemarket/middleware"
)

// SetupAuthRoutes configures the OTP login and admin login routes
func SetupAuthRoutes(app *fiber.App, d Deps) {
	ctrl := controllers.NewAuthController(d.DB, d.Challenges, d.OTPSender, controllers.AuthConfig{
		JWTSecret:         d.Config.JWTSecret,
		JWTTTL:            d.Config.JWTTTL,
		AdminUsername:     d.Config.AdminUsername,
		AdminPasswordHash: d.Config.AdminPasswordHash,
	})

	auth := app.Group("/auth")
	auth.Post("/otp/request", ctrl.RequestOTP)
	auth.Post("/otp/verify", ctrl.VerifyOTP)
	auth.Get("/me", middleware.Protected(d.Config.JWTSecret), ctrl.Me)

	app.Post("/admin/login", ctrl.AdminLogin)
}
