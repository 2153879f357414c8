package routes

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/meinhoongagan/servicemarket/config"
	"github.com/meinhoongagan/servicemarket/controllers"
	"github.com/meinhoongagan/servicemarket/events"
	"github.com/meinhoongagan/servicemarket/media"
	"github.com/meinhoongagan/servicemarket/utils"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	DB         *gorm.DB
	Config     config.Config
	Challenges controllers.OTPChallenges
	OTPSender  utils.OTPSender
	Uploader   media.Uploader
	Publisher  events.Publisher

	// Quiet turns off the access log, for tests.
	Quiet bool
}

// NewApp builds the fiber app with every route registered.
func NewApp(d Deps) *fiber.App {
	if d.OTPSender == nil {
		d.OTPSender = utils.ConsoleOTPSender{}
	}
	if d.Uploader == nil {
		d.Uploader = media.DisabledUploader{}
	}
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	bodyLimit := d.Config.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 50
	}

	app := fiber.New(fiber.Config{
		AppName:      "servicemarket",
		BodyLimit:    bodyLimit * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if !d.Quiet {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Service marketplace API")
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, d)
	SetupUserRoutes(app, d)
	SetupCategoryRoutes(app, d)
	SetupServiceRoutes(app, d)
	SetupBookingRoutes(app, d)
	SetupUploadRoutes(app, d)
	SetupAdminRoutes(app, d)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{Success: false, Message: "Route not found"})
	})
	return app
}

// errorHandler renders errors that escape a handler, including panics caught
// by recover, in the usual failure shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, message = fe.Code, fe.Message
	} else {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(utils.ErrorResponse{Success: false, Message: message})
}
