package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/events-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
	sessionKey = "session"
	userIDKey  = "user_id"
	roleKey    = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the caller's model.Session in the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers
// read the session with SessionFrom; the subject and role are also set
// under "user_id" and "role" for the rate limiter and RequireRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			sess, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(sessionKey, sess)
			c.Set(userIDKey, sess.UserID)
			c.Set(roleKey, string(sess.Role))
			return next(c)
		}
	}
}
