package utils

import (
	"context"
	"log"
)

// OTPSender delivers a one-time password to a phone number.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// ConsoleOTPSender prints codes to the server log instead of sending an SMS.
type ConsoleOTPSender struct{}

func (ConsoleOTPSender) SendOTP(_ context.Context, phone, code string) error {
	log.Printf("📱 OTP for %s: %s", phone, code)
	return nil
}
