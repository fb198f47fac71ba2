package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/events-booking/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	sess := model.Session{UserID: "u1", Name: "Ana", Email: "ana@example.com", Role: model.RoleProvider}
	now := time.Now()

	tok, err := NewAccessToken("s3cret", sess, 15, now)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if got := tok.Exp.Sub(now.UTC()); got != 15*time.Minute {
		t.Fatalf("expected 15m lifetime, got %v", got)
	}
	back, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back != sess {
		t.Fatalf("expected %+v, got %+v", sess, back)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	t.Parallel()
	sess := model.Session{UserID: "u1", Role: model.RoleUser}

	expired, err := NewAccessToken("s3cret", sess, 1, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	valid, err := NewAccessToken("s3cret", sess, 5, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	unknownRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1", "role": "root", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]struct{ secret, raw string }{
		"expired":      {"s3cret", expired.Token},
		"wrong secret": {"other", valid.Token},
		"unknown role": {"s3cret", unknownRole},
		"alg none":     {"s3cret", none},
		"garbage":      {"s3cret", "not.a.jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseAccessToken(tc.secret, tc.raw); !errors.Is(err, ErrInvalidAccessToken) {
				t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
			}
		})
	}
}

func TestRefreshTokens(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a, err := NewRefreshToken(7, now)
	if err != nil {
		t.Fatalf("new refresh: %v", err)
	}
	b, _ := NewRefreshToken(7, now)
	if a.Raw == b.Raw || len(a.Raw) != 96 {
		t.Fatalf("expected distinct 96-char tokens, got %q and %q", a.Raw, b.Raw)
	}
	if !a.Exp.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", a.Exp)
	}
	if h := HashRefreshRaw(a.Raw); len(h) != 64 || h != HashRefreshRaw(a.Raw) || h == HashRefreshRaw(b.Raw) {
		t.Fatalf("hash must be a stable 64-char hex digest, got %q", h)
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("correct horse", 0)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Fatal("expected the password to verify")
	}
	if VerifyPassword(hash, "wrong horse") {
		t.Fatal("expected a wrong password to fail")
	}
	RejectPassword("anything")
}
