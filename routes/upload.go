package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/controllers"
)

func SetupUploadRoutes(app *fiber.App, d Deps) {
	ctrl := controllers.NewUploadController(d.Uploader)

	upload := app.Group("/upload")
	upload.Post("/image", ctrl.Image)
	upload.Post("/images", ctrl.Images)
	upload.Post("/video", ctrl.Video)
}
