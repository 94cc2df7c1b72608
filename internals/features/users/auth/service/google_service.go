package service

import (
	"errors"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
)

// GoogleVerifier checks a Google ID token and returns its verified email.
type GoogleVerifier interface {
	VerifyEmail(idToken string) (email string, err error)
}

type googleIDTokenVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) GoogleVerifier {
	return googleIDTokenVerifier{clientID: clientID}
}

func (g googleIDTokenVerifier) VerifyEmail(idToken string) (string, error) {
	if g.clientID == "" {
		return "", errors.New("google sign-in is not configured")
	}
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{g.clientID}); err != nil {
		return "", err
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return "", err
	}
	if claimSet.Email == "" {
		return "", errors.New("google token carries no email")
	}
	return claimSet.Email, nil
}
