package dto

import (
	"time"

	"github.com/google/uuid"

	userModel "schoolku_backend/internals/features/users/user/model"
)

/* ===================== Requests ===================== */

type SendOTPRequest struct {
	CountryCode string `json:"countryCode" validate:"required,dial_code"`
	MobileNo    string `json:"mobileNo" validate:"required,min=4,max=20"`
}

type RegisterRequest struct {
	CountryCode string  `json:"countryCode" validate:"required,dial_code"`
	MobileNo    string  `json:"mobileNo" validate:"required,min=4,max=20"`
	OTP         string  `json:"otp" validate:"required,numeric,min=4,max=10"`
	Role        string  `json:"role" validate:"required,oneof=SUPER_ADMIN SCHOOL_ADMIN TEACHER PARENT"`
	SchoolID    *string `json:"schoolId" validate:"omitempty,uuid"`
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
}

type LoginRequest struct {
	CountryCode string `json:"countryCode" validate:"required,dial_code"`
	MobileNo    string `json:"mobileNo" validate:"required,min=4,max=20"`
	OTP         string `json:"otp" validate:"required,numeric,min=4,max=10"`
}

type LoginWithDeviceRequest struct {
	CountryCode    string `json:"countryCode" validate:"required,dial_code"`
	MobileNo       string `json:"mobileNo" validate:"required,min=4,max=20"`
	OTP            string `json:"otp" validate:"required,numeric,min=4,max=10"`
	DeviceID       string `json:"deviceId" validate:"omitempty,max=255"`
	DeviceName     string `json:"deviceName" validate:"omitempty,max=255"`
	RememberDevice bool   `json:"rememberDevice"`
}

type VerifyDeviceRequest struct {
	CountryCode string `json:"countryCode" validate:"required,dial_code"`
	MobileNo    string `json:"mobileNo" validate:"required,min=4,max=20"`
	DeviceID    string `json:"deviceId" validate:"required,max=255"`
	DeviceToken string `json:"deviceToken" validate:"required,len=64,hexadecimal"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

/* ===================== Responses ===================== */

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email,omitempty"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	SchoolID  uuid.UUID `json:"schoolId"`
	CreatedAt time.Time `json:"createdAt"`
}

func FromUserModel(u userModel.UserModel) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Phone:     u.Phone,
		Email:     u.Email,
		Name:      u.UserName,
		Role:      u.Role,
		SchoolID:  u.SchoolID,
		CreatedAt: u.CreatedAt,
	}
}

// LoginResponse carries either a session or the needsRegistration signal.
type LoginResponse struct {
	AccessToken       string        `json:"accessToken,omitempty"`
	TokenType         string        `json:"tokenType,omitempty"`
	ExpiresAt         *time.Time    `json:"expiresAt,omitempty"`
	User              *UserResponse `json:"user,omitempty"`
	NeedsRegistration bool          `json:"needsRegistration,omitempty"`
	Contact           string        `json:"contact,omitempty"`
	DeviceToken       string        `json:"deviceToken,omitempty"`
}

type DeviceResponse struct {
	ID         uuid.UUID `json:"id"`
	DeviceID   string    `json:"deviceId"`
	DeviceName *string   `json:"deviceName,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
}
