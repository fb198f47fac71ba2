package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/events-booking/internal/model"
	"github.com/iliyamo/events-booking/internal/service"
)

// EventHandler serves the event catalogue and the provider/admin
// management endpoints.
type EventHandler struct {
	Events *service.EventService
}

func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{Events: events}
}

// updateEventReq is the PATCH body.  Omitted fields stay unchanged.
type updateEventReq struct {
	Title       model.LocalizedText `json:"title"`
	Description model.LocalizedText `json:"description"`
	Date        *string             `json:"date"`
	Time        *string             `json:"time"`
	Location    *string             `json:"location"`
	ImageURL    *string             `json:"image_url"`
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

// List returns events ordered by date and time.  Optional query
// parameters: status, provider_id, from, to (YYYY-MM-DD, inclusive).
func (h *EventHandler) List(c echo.Context) error {
	f := model.EventFilter{
		ProviderID: c.QueryParam("provider_id"),
		From:       c.QueryParam("from"),
		To:         c.QueryParam("to"),
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, ok := model.ParseEventStatus(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		f.Status = st
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	events, err := h.Events.ListEvents(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

func (h *EventHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.Events.GetEvent(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// ListMine returns the events owned by the calling provider.
func (h *EventHandler) ListMine(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	events, err := h.Events.ListByProvider(ctx, sess.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// Create accepts an EventInput.  Field validation happens in the service
// so malformed values come back as 422 with the offending field.
func (h *EventHandler) Create(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in service.EventInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.Events.CreateEvent(ctx, sess, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

func (h *EventHandler) Update(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	patch := model.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.Events.UpdateEvent(ctx, sess, c.Param("id"), patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// SetStatus is the admin lifecycle action.
func (h *EventHandler) SetStatus(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var req statusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	st, known := model.ParseEventStatus(req.Status)
	if !known {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ev, err := h.Events.SetStatus(ctx, sess, c.Param("id"), st)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// Delete removes the event together with all of its registrations.
func (h *EventHandler) Delete(c echo.Context) error {
	sess, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	removed, err := h.Events.DeleteEvent(ctx, sess, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": true, "registrations_removed": removed})
}
