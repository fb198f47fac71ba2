package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/events-booking/internal/service"
)

// RegistrationHandler exposes seat booking for users and the
// registration lists for providers and admins.
type RegistrationHandler struct {
	Booking *service.BookingService
}

func NewRegistrationHandler(b *service.BookingService) *RegistrationHandler {
	return &RegistrationHandler{Booking: b}
}

// registerSeatsReq defaults to one seat when seats is omitted.
type registerSeatsReq struct {
	Seats *int `json:"seats"`
}

// Register books seats on the event for the caller.  Repeated calls add
// to the caller's existing registration up to the per-user cap.
func (h *RegistrationHandler) Register(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var req registerSeatsReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}
	seats := 1
	if req.Seats != nil {
		seats = *req.Seats
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	reg, err := h.Booking.Register(ctx, sess, c.Param("id"), seats)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, reg)
}

// Cancel drops the caller's registration and returns its seats.
func (h *RegistrationHandler) Cancel(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	reg, err := h.Booking.Cancel(ctx, sess, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": reg})
}

// Eligibility answers whether the caller could book ?seats= seats (default 1)
// right now.  A denial is a normal answer here, not an error.
func (h *RegistrationHandler) Eligibility(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	seats := 1
	if raw := c.QueryParam("seats"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must be an integer"})
		}
		seats = n
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	err := h.Booking.CanRegister(ctx, sess, c.Param("id"), seats)
	var de *service.DeniedError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"allowed": true})
	case errors.As(err, &de):
		return c.JSON(http.StatusOK, echo.Map{"allowed": false, "reason": de.Reason})
	}
	return writeError(c, err)
}

// ListMine returns the caller's registrations joined with their events.
func (h *RegistrationHandler) ListMine(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	regs, err := h.Booking.ListUserRegistrations(ctx, sess)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": regs})
}

// ListForEvent returns the registrations of an event with seat totals.
func (h *RegistrationHandler) ListForEvent(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Booking.ListEventRegistrations(ctx, sess, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
