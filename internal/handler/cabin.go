package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// CabinStore extends CabinReader with the staff edits.
type CabinStore interface {
	CabinReader
	UpdatePrices(ctx context.Context, id uint64, weekdayCents, weekendCents int64) error
	SetCalendarURL(ctx context.Context, id uint64, url string) error
}

// CabinHandler serves the staff cabin endpoints.
type CabinHandler struct {
	cabins CabinStore
	log    *slog.Logger
}

// NewCabinHandler wires a CabinHandler.
func NewCabinHandler(cabins CabinStore, log *slog.Logger) *CabinHandler {
	if cabins == nil {
		panic("nil repository passed to NewCabinHandler")
	}
	return &CabinHandler{cabins: cabins, log: log}
}

// List handles GET /v1/cabins.
func (h *CabinHandler) List(c echo.Context) error {
	cabins, err := h.cabins.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]cabinResponse, 0, len(cabins))
	for _, cb := range cabins {
		out = append(out, toCabin(cb, true))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Get handles GET /v1/cabins/:id.
func (h *CabinHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid cabin id")
	}
	cb, err := h.cabins.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toCabin(*cb, true))
}

type pricesRequest struct {
	WeekdayPriceCents int64 `json:"weekday_price_cents" validate:"gte=0"`
	WeekendPriceCents int64 `json:"weekend_price_cents" validate:"gte=0"`
}

// UpdatePrices handles PUT /v1/cabins/:id/prices.
func (h *CabinHandler) UpdatePrices(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid cabin id")
	}
	var req pricesRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx := c.Request().Context()
	if err := h.cabins.UpdatePrices(ctx, id, req.WeekdayPriceCents, req.WeekendPriceCents); err != nil {
		return respondError(c, h.log, err)
	}
	cb, err := h.cabins.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toCabin(*cb, true))
}

type calendarURLRequest struct {
	URL string `json:"calendar_url" validate:"omitempty,url,max=2048"`
}

// SetCalendarURL handles PUT /v1/cabins/:id/calendar-url.  An empty URL
// removes the feed.
func (h *CabinHandler) SetCalendarURL(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid cabin id")
	}
	var req calendarURLRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	raw := strings.TrimSpace(req.URL)
	if raw != "" {
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return badRequest(c, "calendar_url must be an http or https url")
		}
	}
	if err := h.cabins.SetCalendarURL(c.Request().Context(), id, raw); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cabin_id": id, "calendar_url": raw})
}
