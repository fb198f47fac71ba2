package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/events-booking/internal/middleware"
	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/service"
)

// dbTimeout bounds the store work of a single request.
const dbTimeout = 5 * time.Second

var validate = validator.New()

// bind decodes the request body into req and validates its tags.  The
// returned error is an *echo.HTTPError rendered by ErrorHandler.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// ErrorHandler renders echo errors in the {"error": ...} shape used by
// every handler.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := http.StatusInternalServerError, "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		c.Logger().Errorf("unhandled error: %v", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// session returns the caller stored by JWTAuth.  Routes using it are
// always mounted behind JWTAuth, so a missing session is a wiring bug
// reported as 401.
func session(c echo.Context) (model.Session, bool) {
	return middleware.SessionFrom(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// writeError maps a service error to its HTTP response.  Registration
// denials carry the failed check in "reason".
func writeError(c echo.Context, err error) error {
	body := echo.Map{"error": err.Error()}
	var de *service.DeniedError
	if errors.As(err, &de) {
		body = echo.Map{"error": "registration denied", "reason": de.Reason}
	}

	switch service.KindOf(err) {
	case service.KindNotFound:
		return c.JSON(http.StatusNotFound, body)
	case service.KindPrecondition:
		return c.JSON(http.StatusUnprocessableEntity, body)
	case service.KindUnauthorized:
		return c.JSON(http.StatusUnauthorized, body)
	case service.KindForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case service.KindConflict:
		return c.JSON(http.StatusConflict, body)
	}
	c.Logger().Errorf("request failed: %v", err)
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "backend unavailable"})
}
