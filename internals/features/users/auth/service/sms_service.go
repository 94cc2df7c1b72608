package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	authHelper "schoolku_backend/internals/features/users/auth/helper"
)

const fast2SMSEndpoint = "https://www.fast2sms.com/dev/bulkV2"

// OTPSender delivers a code to an E.164 phone number.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogSender only logs the code. Used when no SMS gateway is configured.
type LogSender struct {
	Log        *zap.Logger
	Production bool
}

func (s LogSender) SendOTP(_ context.Context, phone, code string) error {
	log := s.Log
	if log == nil {
		log = zap.L()
	}
	if s.Production {
		log.Warn("sms disabled, otp not delivered", zap.String("phone", authHelper.MaskContact(phone)))
		return nil
	}
	log.Info("otp issued (dev)", zap.String("phone", phone), zap.String("otp", code))
	return nil
}

// Fast2SMSSender posts the code to the Fast2SMS bulk API.
type Fast2SMSSender struct {
	APIKey   string
	SenderID string
	Endpoint string
	Timeout  time.Duration
	CodeTTL  time.Duration
	Fallback LogSender
	Log      *zap.Logger
}

// NewFast2SMSSender quotes codeTTL in the message; it should match the OTP expiry.
func NewFast2SMSSender(apiKey, senderID string, codeTTL time.Duration, fallback LogSender, log *zap.Logger) *Fast2SMSSender {
	return &Fast2SMSSender{
		APIKey:   apiKey,
		SenderID: senderID,
		Endpoint: fast2SMSEndpoint,
		Timeout:  10 * time.Second,
		CodeTTL:  codeTTL,
		Fallback: fallback,
		Log:      log,
	}
}

type fast2SMSResponse struct {
	Return    bool   `json:"return"`
	RequestID string `json:"request_id"`
	Message   any    `json:"message"`
}

// localNumber strips the country code; the gateway expects 10 digits.
func localNumber(phone string) string {
	n := strings.TrimPrefix(phone, "+91")
	n = strings.TrimPrefix(n, "+")
	if len(n) > 10 {
		n = n[len(n)-10:]
	}
	return n
}

func otpMessage(code string, ttl time.Duration) string {
	minutes := int(math.Ceil(ttl.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Your verification code is %s. Valid for %d %s. Do not share this code.", code, minutes, unit)
}

func (s *Fast2SMSSender) SendOTP(ctx context.Context, phone, code string) error {
	payload := fiber.Map{
		"route":     "q",
		"sender_id": s.SenderID,
		"message":   otpMessage(code, s.CodeTTL),
		"language":  "english",
		"flash":     0,
		"numbers":   localNumber(phone),
	}

	a := fiber.Post(s.Endpoint)
	a.Set("authorization", s.APIKey)
	a.Timeout(s.Timeout)
	a.JSON(payload)

	status, body, errs := a.Bytes()
	err := func() error {
		if len(errs) > 0 {
			return errs[0]
		}
		var res fast2SMSResponse
		_ = json.Unmarshal(body, &res)
		if status >= 300 || !res.Return {
			return fmt.Errorf("fast2sms status=%d message=%v", status, res.Message)
		}
		s.Log.Info("sms sent", zap.String("phone", authHelper.MaskContact(phone)), zap.String("request_id", res.RequestID))
		return nil
	}()
	if err != nil {
		s.Log.Error("sms send failed", zap.String("phone", authHelper.MaskContact(phone)), zap.Error(err))
		_ = s.Fallback.SendOTP(ctx, phone, code)
	}
	return err
}
