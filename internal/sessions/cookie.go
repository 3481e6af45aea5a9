package sessions

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The browser cookie is a signed JWT carrying only the opaque session id.
// Signing means a tampered or forged sid is rejected before any store lookup.

type cookieClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// EncodeCookie signs the session id into a cookie value.
func EncodeCookie(secret, sid string, expiresAt time.Time) (string, error) {
	claims := cookieClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// DecodeCookie verifies the cookie value and returns the session id.
func DecodeCookie(secret, value string) (string, error) {
	var claims cookieClaims
	token, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.SID == "" {
		return "", fmt.Errorf("invalid session cookie")
	}
	return claims.SID, nil
}
