package sec

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignSessionToken wraps an opaque session token in a compact JWS signed
// with the session secret. The cookie value carries no state beyond the
// token; the server-side session store stays authoritative.
func SignSessionToken(token string, secret []byte, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        token,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseSessionCookie verifies the cookie signature and returns the embedded
// session token. Forged, garbled or expired cookies return [ErrNoSession]
// without touching the session store.
func ParseSessionCookie(value string, secret []byte) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", errors.Join(ErrNoSession, err)
	}
	if claims.ID == "" {
		return "", ErrNoSession
	}
	return claims.ID, nil
}
