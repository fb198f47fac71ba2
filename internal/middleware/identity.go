package middleware

// identity.go holds the helpers that read the caller identity stored by
// JWTAuth.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/events-booking/internal/model"
)

// SessionFrom returns the session stored by JWTAuth.
func SessionFrom(c echo.Context) (model.Session, bool) {
	sess, ok := c.Get(sessionKey).(model.Session)
	return sess, ok && sess.UserID != ""
}

// currentUserID returns the caller's user id, or "anon" when the request
// is not authenticated.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}
