package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a liveness probe.  It returns a plain text "ok" with 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by the store adapters.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ready reports 503 while the backing store is unreachable.
func Ready(p Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := requestCtx(c)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "store unavailable")
		}
		return c.String(http.StatusOK, "ready")
	}
}
