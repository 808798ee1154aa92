// Package utils provides helpers for issuing staff access tokens.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an HS256 JWT carrying subject, role, expiration and
// issued-at claims.
func NewAccessToken(secret, subject, role string, ttl time.Duration) (AccessToken, error) {
	if secret == "" || subject == "" {
		return AccessToken{}, errors.New("utils.NewAccessToken: secret and subject are required")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
