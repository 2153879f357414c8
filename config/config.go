package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the marketplace API. Values come from
// the environment, optionally seeded from a local .env file.
type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	BodyLimitMB int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	OTPTTL            time.Duration
	OTPMaxAttempts    int
	OTPResendCooldown time.Duration

	DefaultCoverageRadiusKm float64
	EnforceBookingParties   bool

	AdminUsername     string
	AdminPasswordHash string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadPreset string

	RabbitMQURL string

	SMTPHost         string
	SMTPPort         int
	EmailUser        string
	EmailPass        string
	AdminReportEmail string

	CronEnabled       bool
	StalePendingAfter time.Duration
}

// Load reads the configuration. A missing .env file is not an error.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file. Using environment variables directly.")
	}

	cfg := Config{
		Env:         getenv("APP_ENV", "dev"),
		Port:        getenv("PORT", "8000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		BodyLimitMB: envInt("BODY_LIMIT_MB", 50),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    envDur("JWT_TTL", 30*24*time.Hour),

		OTPTTL:            envDur("OTP_TTL", 10*time.Minute),
		OTPMaxAttempts:    envInt("OTP_MAX_ATTEMPTS", 5),
		OTPResendCooldown: envDur("OTP_RESEND_COOLDOWN", 30*time.Second),

		DefaultCoverageRadiusKm: envFloat("DEFAULT_COVERAGE_RADIUS_KM", 10),
		EnforceBookingParties:   envBool("ENFORCE_BOOKING_PARTIES", false),

		AdminUsername:     getenv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         envInt("SMTP_PORT", 587),
		EmailUser:        os.Getenv("EMAIL_USER"),
		EmailPass:        os.Getenv("EMAIL_PASS"),
		AdminReportEmail: os.Getenv("ADMIN_REPORT_EMAIL"),

		CronEnabled:       envBool("CRON_ENABLED", true),
		StalePendingAfter: envDur("STALE_PENDING_AFTER", 24*time.Hour),
	}

	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is not set, using an insecure development secret")
		cfg.JWTSecret = "solid_secret_key"
	}
	if cfg.OTPMaxAttempts < 1 {
		cfg.OTPMaxAttempts = 1
	}
	if cfg.DefaultCoverageRadiusKm <= 0 {
		cfg.DefaultCoverageRadiusKm = 10
	}
	return cfg
}

// IsProduction reports whether the app runs with APP_ENV=prod.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	log.Printf("Warning: invalid int for %s: %q, using %d", key, v, def)
	return def
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	log.Printf("Warning: invalid number for %s: %q, using %v", key, v, def)
	return def
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	log.Printf("Warning: invalid duration for %s: %q, using %s", key, v, def)
	return def
}
