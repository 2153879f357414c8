package middleware

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/servicemarket/utils"
)

// Locals keys set by Protected and Identify.
const (
	LocalUserID = "userID"
	LocalRole   = "role"
)

// Protected rejects requests without a valid bearer token and stores the
// token's user ID and role in locals.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c, "Invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "Invalid token claims")
			}
			userID, err := extractUserID(claims)
			if err != nil {
				log.Println("JWT user id:", err)
				return unauthorized(c, "Invalid user ID in token")
			}
			role, err := extractRole(claims)
			if err != nil {
				log.Println("JWT role:", err)
				return unauthorized(c, "Invalid role in token")
			}

			c.Locals(LocalUserID, userID)
			c.Locals(LocalRole, role)
			return c.Next()
		},
	})
}

// Identify is the optional variant of Protected: a valid token fills locals,
// a missing or bad one is ignored.
func Identify(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.Next()
		}
		token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Next()
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Next()
		}
		if userID, err := extractUserID(claims); err == nil {
			c.Locals(LocalUserID, userID)
		}
		if role, err := extractRole(claims); err == nil {
			c.Locals(LocalRole, role)
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user ID and role, if any.
func CurrentUser(c *fiber.Ctx) (uint, string, bool) {
	userID, ok := c.Locals(LocalUserID).(uint)
	if !ok {
		return 0, "", false
	}
	role, _ := c.Locals(LocalRole).(string)
	return userID, role, true
}

// extractUserID handles multiple potential formats of user ID in token
func extractUserID(claims jwt.MapClaims) (uint, error) {
	idVal := claims["id"]
	if idVal == nil {
		return 0, fmt.Errorf("no ID found in claims")
	}

	switch v := idVal.(type) {
	case float64:
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse ID string: %v", err)
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported ID type: %T", v)
	}
}

func extractRole(claims jwt.MapClaims) (string, error) {
	switch v := claims["role"].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported role type: %T", v)
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{Success: false, Message: message})
}

func jwtError(c *fiber.Ctx, err error) error {
	log.Println("JWT Error:", err)
	return unauthorized(c, "Invalid or expired token")
}
