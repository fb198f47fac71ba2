package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA‑256 hashing for refresh tokens
	"encoding/hex"  // hex encoding and decoding functions
	"errors"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/events-booking/internal/model"
)

// ErrInvalidAccessToken is returned by ParseAccessToken for a token that
// is malformed, expired, signed with another key or missing claims.
var ErrInvalidAccessToken = errors.New("invalid access token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short‑lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived token used to obtain new access tokens.
// The Raw field contains the raw token string returned to the client.  The Exp
// field records when it expires.  In the database only a SHA‑256 hash of the
// raw string is stored.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for the session's user.
// The token carries the subject (sub), role, name and email of the user
// together with exp and iat, both derived from now.
func NewAccessToken(secret string, s model.Session, ttlMin int, now time.Time) (AccessToken, error) {
	now = now.UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   s.UserID,
		"role":  string(s.Role),
		"name":  s.Name,
		"email": s.Email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and rebuilds the session it
// was issued for.  Only HMAC-signed tokens are accepted.
func ParseAccessToken(secret, raw string) (model.Session, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject any non-HMAC signing method.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidAccessToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return model.Session{}, ErrInvalidAccessToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return model.Session{}, ErrInvalidAccessToken
	}
	sub, _ := claims["sub"].(string)
	roleClaim, _ := claims["role"].(string)
	role, ok := model.ParseRole(roleClaim)
	if sub == "" || !ok {
		return model.Session{}, ErrInvalidAccessToken
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	return model.Session{UserID: sub, Role: role, Name: name, Email: email}, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time, ttlDays after now.
func NewRefreshToken(ttlDays int, now time.Time) (RefreshToken, error) {
	// 48 bytes -> 96 hex chars
	raw, err := randomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: now.UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA‑256 hash of the raw refresh token as a hex
// string.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
