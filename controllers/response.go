package controllers

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/media"
	"github.com/meinhoongagan/servicemarket/models"
	"github.com/meinhoongagan/servicemarket/redis"
	"github.com/meinhoongagan/servicemarket/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names, which is what clients send.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// statusFor maps store and collaborator errors onto HTTP statuses. Conflicts,
// invalid transitions included, are client errors (400).
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrConflict):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, redis.ErrTooManyAttempts), errors.Is(err, redis.ErrResendCooldown):
		return fiber.StatusTooManyRequests
	case errors.Is(err, redis.ErrInvalidOTP), errors.Is(err, redis.ErrChallengeExpired):
		return fiber.StatusBadRequest
	case errors.Is(err, media.ErrUploadsDisabled):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		message = "Internal server error"
	}
	return fail(c, status, message)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(utils.ErrorResponse{Success: false, Message: message})
}

// bind parses the JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &models.Error{Kind: models.ErrValidation, Message: "Invalid request body"}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &models.Error{Kind: models.ErrValidation, Message: describe(verrs[0])}
		}
		return &models.Error{Kind: models.ErrValidation, Message: err.Error()}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "max", "len":
		return fmt.Sprintf("%s must have %s %s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// paramID reads a positive integer route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &models.Error{Kind: models.ErrValidation, Message: fmt.Sprintf("Invalid %s %q", name, raw)}
	}
	return uint(id), nil
}

// queryFloat returns nil when the parameter is absent.
func queryFloat(c *fiber.Ctx, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &models.Error{Kind: models.ErrValidation, Message: fmt.Sprintf("Invalid %s %q", name, raw)}
	}
	return &f, nil
}
