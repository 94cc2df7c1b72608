package helpers

import (
	"errors"
	"regexp"
	"strings"
)

var (
	contactNoiseRe = regexp.MustCompile(`[\s\-()]`)
	countryCodeRe  = regexp.MustCompile(`^\+\d{1,3}$`)
	digitsRe       = regexp.MustCompile(`^\d+$`)
	emailRe        = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	ErrInvalidCountryCode = errors.New("Invalid country code. Expected format like +91")
	ErrInvalidMobileNo    = errors.New("Invalid mobile number. Digits only")
	ErrInvalidEmail       = errors.New("Invalid email address")
)

// NormalizeE164 joins a country code and a local number into "+<cc><number>".
// Spaces, hyphens and parentheses are dropped from both parts.
func NormalizeE164(countryCode, mobileNo string) (string, error) {
	cc := contactNoiseRe.ReplaceAllString(strings.TrimSpace(countryCode), "")
	if cc != "" && !strings.HasPrefix(cc, "+") {
		cc = "+" + cc
	}
	if !countryCodeRe.MatchString(cc) {
		return "", ErrInvalidCountryCode
	}

	mobile := contactNoiseRe.ReplaceAllString(strings.TrimSpace(mobileNo), "")
	if !digitsRe.MatchString(mobile) {
		return "", ErrInvalidMobileNo
	}
	return cc + mobile, nil
}

// NormalizeEmail lower-cases and trims. Empty input yields "" with no error.
func NormalizeEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", nil
	}
	if !emailRe.MatchString(e) {
		return "", ErrInvalidEmail
	}
	return e, nil
}

// MaskContact hides all but the last four characters for logs.
func MaskContact(contact string) string {
	if len(contact) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(contact)-4) + contact[len(contact)-4:]
}
