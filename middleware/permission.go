package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/utils"
)

// RoleAdmin is carried by tokens issued from the admin login.
const RoleAdmin = "admin"

// RequireRole must run after Protected. It lets the request through only if
// the token's role is one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, role, ok := CurrentUser(c)
		if ok {
			for _, r := range roles {
				if role == r {
					return c.Next()
				}
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(utils.ErrorResponse{
			Success: false,
			Message: "You don't have the required role to perform this action",
		})
	}
}
