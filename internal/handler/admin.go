package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/events-booking/internal/service"
)

// AdminHandler serves the admin dashboard endpoints.
type AdminHandler struct {
	Admin *service.AdminService
}

func NewAdminHandler(a *service.AdminService) *AdminHandler {
	return &AdminHandler{Admin: a}
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	users, err := h.Admin.ListUsers(ctx, sess)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// Promote turns a user into a provider.
func (h *AdminHandler) Promote(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Admin.Promote(ctx, sess, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Demote turns a provider back into a user.
func (h *AdminHandler) Demote(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Admin.Demote(ctx, sess, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	st, err := h.Admin.Stats(ctx, sess)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
