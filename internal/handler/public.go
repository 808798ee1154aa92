package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/booking"
	"github.com/iliyamo/cabin-booking/internal/model"
)

// CabinReader is the read side of cabin storage.
type CabinReader interface {
	List(ctx context.Context) ([]model.Cabin, error)
	GetByID(ctx context.Context, id uint64) (*model.Cabin, error)
}

// PublicHandler serves the unauthenticated guest endpoints: browsing
// cabins, quoting, availability and self-service booking requests.
type PublicHandler struct {
	svc    *booking.Service
	cabins CabinReader
	log    *slog.Logger
}

// NewPublicHandler wires a PublicHandler and panics on a nil dependency.
func NewPublicHandler(svc *booking.Service, cabins CabinReader, log *slog.Logger) *PublicHandler {
	if svc == nil || cabins == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{svc: svc, cabins: cabins, log: log}
}

// ListCabins handles GET /v1/public/cabins.
func (h *PublicHandler) ListCabins(c echo.Context) error {
	cabins, err := h.cabins.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]cabinResponse, 0, len(cabins))
	for _, cb := range cabins {
		out = append(out, toCabin(cb, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// GetCabin handles GET /v1/public/cabins/:id.
func (h *PublicHandler) GetCabin(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid cabin id")
	}
	cb, err := h.cabins.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toCabin(*cb, false))
}

// stayQuery reads checkin and checkout query parameters.
func stayQuery(c echo.Context) (in, out time.Time, err error) {
	if in, err = parseDay(c.QueryParam("checkin")); err != nil {
		return in, out, err
	}
	out, err = parseDay(c.QueryParam("checkout"))
	return in, out, err
}

// Quote handles GET /v1/public/cabins/:id/quote.  Unknown cabins and
// empty ranges quote zero.
func (h *PublicHandler) Quote(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid cabin id")
	}
	in, out, err := stayQuery(c)
	if err != nil {
		return badRequest(c, "checkin and checkout must be YYYY-MM-DD dates")
	}
	q, err := h.svc.Quote(c.Request().Context(), id, in, out, queryInt(c, "adults", 2), queryInt(c, "children", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Availability handles GET /v1/public/cabins/:id/availability.
func (h *PublicHandler) Availability(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid cabin id")
	}
	in, out, err := stayQuery(c)
	if err != nil {
		return badRequest(c, "checkin and checkout must be YYYY-MM-DD dates")
	}
	a, err := h.svc.CheckAvailability(c.Request().Context(), id, in, out, 0)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available":               a.Available,
		"conflict_reservation_id": a.ConflictReservationID,
	})
}

// OccupiedDates handles GET /v1/public/cabins/:id/occupied-dates.
func (h *PublicHandler) OccupiedDates(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid cabin id")
	}
	dates, err := h.svc.OccupiedDates(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(time.DateOnly))
	}
	return c.JSON(http.StatusOK, echo.Map{"cabin_id": id, "dates": out})
}

type bookingRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"max=50"`
	Email    string `json:"email" validate:"required,email"`
	CabinID  uint64 `json:"cabin_id" validate:"required"`
	CheckIn  string `json:"checkin" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"checkout" validate:"required,datetime=2006-01-02"`
	Adults   int    `json:"adults" validate:"gte=0,lte=20"`
	Children int    `json:"children" validate:"gte=0,lte=20"`
}

// RequestBooking handles POST /v1/public/requests.  The reservation is
// created pending; staff confirm it by checking the guest in.
func (h *PublicHandler) RequestBooking(c echo.Context) error {
	var req bookingRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	in, _ := parseDay(req.CheckIn)
	out, _ := parseDay(req.CheckOut)

	r, err := h.svc.RequestBooking(c.Request().Context(), booking.PublicRequest{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		CabinID:  req.CabinID,
		CheckIn:  in,
		CheckOut: out,
		Adults:   req.Adults,
		Children: req.Children,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toReservation(*r))
}
