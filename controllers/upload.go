package controllers

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/media"
)

const (
	imageFolder = "servicemarket/images"
	videoFolder = "servicemarket/videos"

	maxImagesPerUpload = 10
)

type UploadController struct {
	uploader media.Uploader
}

func NewUploadController(uploader media.Uploader) *UploadController {
	return &UploadController{uploader: uploader}
}

func (u *UploadController) Image(c *fiber.Ctx) error {
	return u.single(c, media.KindImage, imageFolder, "image/")
}

func (u *UploadController) Video(c *fiber.Ctx) error {
	return u.single(c, media.KindVideo, videoFolder, "video/")
}

// Images uploads every part named "files" and returns the URLs in order.
func (u *UploadController) Images(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "No files uploaded")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return fail(c, fiber.StatusBadRequest, "No files uploaded")
	}
	if len(files) > maxImagesPerUpload {
		return fail(c, fiber.StatusBadRequest, "Too many files")
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		if !hasContentType(fh, "image/") {
			return fail(c, fiber.StatusBadRequest, "Only image files are allowed")
		}
		url, err := u.upload(c, fh, media.KindImage, imageFolder)
		if err != nil {
			return respondError(c, err)
		}
		urls = append(urls, url)
	}
	return c.JSON(fiber.Map{"success": true, "urls": urls})
}

func (u *UploadController) single(c *fiber.Ctx, kind media.Kind, folder, typePrefix string) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "No file uploaded")
	}
	if !hasContentType(fh, typePrefix) {
		return fail(c, fiber.StatusBadRequest, "Unsupported file type")
	}
	url, err := u.upload(c, fh, kind, folder)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "url": url})
}

func (u *UploadController) upload(c *fiber.Ctx, fh *multipart.FileHeader, kind media.Kind, folder string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return u.uploader.Upload(c.UserContext(), f, folder, kind)
}

// hasContentType accepts a missing or generic content type and leaves the
// final check to the media host.
func hasContentType(fh *multipart.FileHeader, prefix string) bool {
	ct := fh.Header.Get("Content-Type")
	return ct == "" || ct == "application/octet-stream" || strings.HasPrefix(ct, prefix)
}
