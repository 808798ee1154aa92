package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/booking"
	"github.com/iliyamo/cabin-booking/internal/middleware"
	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

// ReservationReader is the read side of reservation storage.
type ReservationReader interface {
	List(ctx context.Context, f repository.ReservationFilter) ([]repository.ReservationView, int64, error)
	GetView(ctx context.Context, id uint64) (*repository.ReservationView, error)
	Calendar(ctx context.Context, from, to time.Time, cabinID uint64) ([]repository.ReservationView, error)
}

// AuditReader lists the audit trail of a reservation.
type AuditReader interface {
	ListByReservation(ctx context.Context, reservationID uint64) ([]model.AuditEntry, error)
}

// ReservationHandler serves the staff reservation endpoints.  Reads go to
// the repositories; every mutation goes through the booking engine.
type ReservationHandler struct {
	svc          *booking.Service
	reservations ReservationReader
	audit        AuditReader
	log          *slog.Logger
	placeholder  string
}

// NewReservationHandler wires a ReservationHandler.  placeholder is the
// name of the shared customer of calendar imports.
func NewReservationHandler(svc *booking.Service, reservations ReservationReader, audit AuditReader, placeholder string, log *slog.Logger) *ReservationHandler {
	if svc == nil || reservations == nil || audit == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	if placeholder == "" {
		placeholder = booking.DefaultPlaceholderName
	}
	return &ReservationHandler{svc: svc, reservations: reservations, audit: audit, log: log, placeholder: placeholder}
}

// filter builds a ReservationFilter from cabin_id, customer_id, status,
// origin, from and to query parameters.
func filter(c echo.Context) (repository.ReservationFilter, error) {
	f := repository.ReservationFilter{
		CabinID:    queryUint(c, "cabin_id"),
		CustomerID: queryUint(c, "customer_id"),
		Status:     c.QueryParam("status"),
		Origin:     c.QueryParam("origin"),
	}
	var err error
	if f.From, err = queryDay(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDay(c, "to"); err != nil {
		return f, err
	}
	return f, nil
}

// List handles GET /v1/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	f, err := filter(c)
	if err != nil {
		return badRequest(c, "from and to must be YYYY-MM-DD dates")
	}
	f.Page, f.PageSize = page(c)
	views, total, err := h.reservations.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, h.log, err)
	}
	items := make([]reservationResponse, 0, len(views))
	for _, v := range views {
		items = append(items, toReservationView(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total, "page": f.Page, "page_size": f.PageSize})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	v, err := h.reservations.GetView(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toReservationView(*v))
}

type createReservationRequest struct {
	CustomerID    uint64  `json:"customer_id" validate:"required"`
	CabinID       uint64  `json:"cabin_id" validate:"required"`
	CheckIn       string  `json:"checkin" validate:"required,datetime=2006-01-02"`
	CheckOut      string  `json:"checkout" validate:"required,datetime=2006-01-02"`
	Adults        int     `json:"adults" validate:"gte=0,lte=20"`
	Children      int     `json:"children" validate:"gte=0,lte=20"`
	PaymentMethod *string `json:"payment_method" validate:"omitempty,max=50"`
	TotalCents    *int64  `json:"total_cents" validate:"omitempty,gte=0"`
	DepositCents  *int64  `json:"deposit_cents" validate:"omitempty,gte=0"`
	DepositPaid   bool    `json:"deposit_paid"`
	FullyPaid     bool    `json:"fully_paid"`
	Notes         *string `json:"notes"`
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	in, _ := parseDay(req.CheckIn)
	out, _ := parseDay(req.CheckOut)

	r, err := h.svc.Create(c.Request().Context(), middleware.Actor(c), booking.CreateRequest{
		CustomerID:    req.CustomerID,
		CabinID:       req.CabinID,
		CheckIn:       in,
		CheckOut:      out,
		Adults:        req.Adults,
		Children:      req.Children,
		PaymentMethod: req.PaymentMethod,
		TotalCents:    req.TotalCents,
		DepositCents:  req.DepositCents,
		DepositPaid:   req.DepositPaid,
		FullyPaid:     req.FullyPaid,
		Notes:         req.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toReservation(*r))
}

type updateReservationRequest struct {
	CheckIn         *string `json:"checkin" validate:"omitempty,datetime=2006-01-02"`
	CheckOut        *string `json:"checkout" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod   *string `json:"payment_method" validate:"omitempty,max=50"`
	TotalCents      *int64  `json:"total_cents" validate:"omitempty,gte=0"`
	DepositCents    *int64  `json:"deposit_cents" validate:"omitempty,gte=0"`
	DepositPaid     *bool   `json:"deposit_paid"`
	FullyPaid       *bool   `json:"fully_paid"`
	AmountPaidCents *int64  `json:"amount_paid_cents" validate:"omitempty,gte=0"`
	Notes           *string `json:"notes"`
	Rating          *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Feedback        *string `json:"feedback"`
}

func optionalDay(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := parseDay(*s)
	if err != nil {
		return nil
	}
	return &t
}

// Update handles PATCH /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var req updateReservationRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	r, err := h.svc.Update(c.Request().Context(), middleware.Actor(c), id, booking.UpdateRequest{
		CheckIn:         optionalDay(req.CheckIn),
		CheckOut:        optionalDay(req.CheckOut),
		PaymentMethod:   req.PaymentMethod,
		TotalCents:      req.TotalCents,
		DepositCents:    req.DepositCents,
		DepositPaid:     req.DepositPaid,
		FullyPaid:       req.FullyPaid,
		AmountPaidCents: req.AmountPaidCents,
		Notes:           req.Notes,
		Rating:          req.Rating,
		Feedback:        req.Feedback,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toReservation(*r))
}

type lifecycleAction func(ctx context.Context, actor string, id uint64) (*model.Reservation, error)

func (h *ReservationHandler) lifecycle(c echo.Context, act lifecycleAction) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	r, err := act(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toReservation(*r))
}

// CheckIn handles POST /v1/reservations/:id/checkin.
func (h *ReservationHandler) CheckIn(c echo.Context) error { return h.lifecycle(c, h.svc.CheckIn) }

// CheckOut handles POST /v1/reservations/:id/checkout.
func (h *ReservationHandler) CheckOut(c echo.Context) error { return h.lifecycle(c, h.svc.CheckOut) }

// Cancel handles POST /v1/reservations/:id/cancel.  Cancelling twice is
// not an error.
func (h *ReservationHandler) Cancel(c echo.Context) error { return h.lifecycle(c, h.svc.Cancel) }

// Audit handles GET /v1/reservations/:id/audit.
func (h *ReservationHandler) Audit(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	entries, err := h.audit.ListByReservation(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]auditResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditResponse{ID: e.ID, Actor: e.Actor, Action: e.Action, Details: e.Details, CreatedAt: e.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

var exportHeader = []string{
	"id", "cabin_number", "cabin", "customer", "phone", "email", "checkin", "checkout", "nights",
	"status", "origin", "payment_status", "total", "deposit", "paid", "external_code",
}

// ExportCSV handles GET /v1/reservations/export.csv with the same filters
// as List and no paging.
func (h *ReservationHandler) ExportCSV(c echo.Context) error {
	f, err := filter(c)
	if err != nil {
		return badRequest(c, "from and to must be YYYY-MM-DD dates")
	}
	views, _, err := h.reservations.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, h.log, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="reservations.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	_ = w.Write(exportHeader)
	for _, v := range views {
		email := ""
		if v.CustomerEmail != nil {
			email = *v.CustomerEmail
		}
		code := ""
		if v.ExternalCode != nil {
			code = *v.ExternalCode
		}
		total := ""
		if v.TotalCents != nil {
			total = money(*v.TotalCents)
		}
		_ = w.Write([]string{
			strconv.FormatUint(v.ID, 10),
			strconv.Itoa(v.CabinNumber),
			v.CabinName,
			v.CustomerName,
			v.CustomerPhone,
			email,
			v.CheckIn.Format(time.DateOnly),
			v.CheckOut.Format(time.DateOnly),
			strconv.Itoa(v.Nights()),
			v.Status,
			v.Origin,
			v.PaymentStatus,
			total,
			money(v.DepositCents),
			money(v.AmountPaidCents),
			code,
		})
	}
	w.Flush()
	return w.Error()
}

func money(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

type calendarEntry struct {
	ID            uint64 `json:"id"`
	Title         string `json:"title"`
	Start         string `json:"start"`
	End           string `json:"end"`
	CabinID       uint64 `json:"cabin_id"`
	Status        string `json:"status"`
	Origin        string `json:"origin"`
	PaymentStatus string `json:"payment_status"`
}

// Calendar handles GET /v1/reservations/calendar?from&to&cabin_id and
// returns the non-cancelled stays intersecting [from, to).  The window
// defaults to the current month.
func (h *ReservationHandler) Calendar(c echo.Context) error {
	from, err := queryDay(c, "from")
	if err != nil {
		return badRequest(c, "from must be a YYYY-MM-DD date")
	}
	to, err := queryDay(c, "to")
	if err != nil {
		return badRequest(c, "to must be a YYYY-MM-DD date")
	}
	if from == nil {
		now := time.Now().UTC()
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		from = &first
	}
	if to == nil {
		end := from.AddDate(0, 1, 0)
		to = &end
	}
	if !to.After(*from) {
		return badRequest(c, "to must be after from")
	}

	views, err := h.reservations.Calendar(c.Request().Context(), *from, *to, queryUint(c, "cabin_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]calendarEntry, 0, len(views))
	for _, v := range views {
		out = append(out, calendarEntry{
			ID:            v.ID,
			Title:         h.calendarTitle(v),
			Start:         v.CheckIn.Format(time.DateOnly),
			End:           v.CheckOut.Format(time.DateOnly),
			CabinID:       v.CabinID,
			Status:        v.Status,
			Origin:        v.Origin,
			PaymentStatus: v.PaymentStatus,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) calendarTitle(v repository.ReservationView) string {
	if v.CustomerName == h.placeholder {
		return "External - " + v.CabinName
	}
	return v.CustomerName + " - " + v.CabinName
}
