package controllers

import (
	"context"
	"crypto/subtle"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/middleware"
	"github.com/meinhoongagan/servicemarket/models"
	"github.com/meinhoongagan/servicemarket/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OTPChallenges issues and checks one-time passwords per phone.
type OTPChallenges interface {
	Issue(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, code string) error
}

// AuthConfig holds the token and admin credential settings.
type AuthConfig struct {
	JWTSecret         string
	JWTTTL            time.Duration
	AdminUsername     string
	AdminPasswordHash string
}

type AuthController struct {
	db         *gorm.DB
	challenges OTPChallenges
	sender     utils.OTPSender
	cfg        AuthConfig
}

func NewAuthController(db *gorm.DB, challenges OTPChallenges, sender utils.OTPSender, cfg AuthConfig) *AuthController {
	return &AuthController{db: db, challenges: challenges, sender: sender, cfg: cfg}
}

type otpRequest struct {
	Phone string `json:"phone" validate:"required,min=6,max=20"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone" validate:"required,min=6,max=20"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type adminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RequestOTP creates the account on first contact and sends a fresh code.
func (a *AuthController) RequestOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, created, err := models.FindOrCreateUserByPhone(a.db, req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	if !user.IsActive {
		return fail(c, fiber.StatusForbidden, "Account is disabled")
	}
	if created {
		log.Printf("👤 new user %d for phone %s", user.ID, user.Phone)
	}

	code, err := a.challenges.Issue(c.UserContext(), user.Phone)
	if err != nil {
		return respondError(c, err)
	}
	if err := a.sender.SendOTP(c.UserContext(), user.Phone, code); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "OTP sent successfully",
		"isNewUser": created,
	})
}

// VerifyOTP consumes the pending code and returns an access token.
func (a *AuthController) VerifyOTP(c *fiber.Ctx) error {
	var req otpVerifyRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := models.GetUserByPhone(a.db, req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	if !user.IsActive {
		return fail(c, fiber.StatusForbidden, "Account is disabled")
	}
	if err := a.challenges.Verify(c.UserContext(), user.Phone, req.OTP); err != nil {
		return respondError(c, err)
	}

	token, err := utils.GenerateToken(a.cfg.JWTSecret, user.ID, string(user.Role), a.cfg.JWTTTL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "token": token, "user": user})
}

func (a *AuthController) Me(c *fiber.Ctx) error {
	userID, _, _ := middleware.CurrentUser(c)
	user, err := models.GetUser(a.db, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// AdminLogin checks the configured back-office credentials.
func (a *AuthController) AdminLogin(c *fiber.Ctx) error {
	var req adminLoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if a.cfg.AdminPasswordHash == "" {
		return fail(c, fiber.StatusServiceUnavailable, "Admin login is not configured")
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(a.cfg.AdminUsername)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(a.cfg.AdminPasswordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := utils.GenerateToken(a.cfg.JWTSecret, 0, middleware.RoleAdmin, a.cfg.JWTTTL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "token": token})
}
