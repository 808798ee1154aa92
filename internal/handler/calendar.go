package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/booking"
	"github.com/iliyamo/cabin-booking/internal/ingest"
	"github.com/iliyamo/cabin-booking/internal/middleware"
	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

// CabinReservations lists the non-cancelled reservations of a cabin.
type CabinReservations interface {
	ActiveByCabin(ctx context.Context, cabinID uint64) ([]model.Reservation, error)
}

// FeedSyncer pulls external calendar feeds.
type FeedSyncer interface {
	Sync(ctx context.Context, cabinID uint64) (bool, int)
	SyncAll(ctx context.Context) (synced, created int)
}

// CalendarHandler serves platform synchronisation: CSV uploads, feed
// syncs and the per-cabin iCal export.
type CalendarHandler struct {
	ingester     ingest.Ingester
	syncer       FeedSyncer
	cabins       CabinReader
	reservations CabinReservations
	log          *slog.Logger
	now          func() time.Time
}

// NewCalendarHandler wires a CalendarHandler.
func NewCalendarHandler(ing ingest.Ingester, syncer FeedSyncer, cabins CabinReader, reservations CabinReservations, log *slog.Logger) *CalendarHandler {
	if ing == nil || syncer == nil || cabins == nil || reservations == nil {
		panic("nil dependency passed to NewCalendarHandler")
	}
	return &CalendarHandler{ingester: ing, syncer: syncer, cabins: cabins, reservations: reservations, log: log, now: time.Now}
}

// UploadCSV handles POST /v1/calendar/import with a multipart "file"
// field holding a platform reservations export.
func (h *CalendarHandler) UploadCSV(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return badRequest(c, "file must be a .csv export")
	}
	if fh.Size > ingest.MaxCSVBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer f.Close()

	batch, err := ingest.ParseCSV(f)
	if err != nil {
		if errors.Is(err, ingest.ErrMissingColumns) {
			return badRequest(c, err.Error())
		}
		return badRequest(c, "unreadable csv export")
	}
	batch.Actor = middleware.Actor(c)

	res, err := h.ingester.Ingest(c.Request().Context(), batch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Sync handles POST /v1/cabins/:id/calendar/sync.  Feed failures are not
// errors; the response reports synced=false.
func (h *CalendarHandler) Sync(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid cabin id")
	}
	synced, created := h.syncer.Sync(c.Request().Context(), id)
	return c.JSON(http.StatusOK, echo.Map{"cabin_id": id, "synced": synced, "created": created})
}

// SyncAll handles POST /v1/calendar/sync.
func (h *CalendarHandler) SyncAll(c echo.Context) error {
	synced, created := h.syncer.SyncAll(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"synced": synced, "created": created})
}

// ExportICS handles GET /v1/public/cabins/:id/calendar.ics, the feed the
// booking platforms subscribe to.
func (h *CalendarHandler) ExportICS(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid cabin id")
	}
	ctx := c.Request().Context()
	cabin, err := h.cabins.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return respondError(c, h.log, &booking.NotFoundError{Entity: "cabin", ID: id})
	}
	if err != nil {
		return respondError(c, h.log, err)
	}
	rs, err := h.reservations.ActiveByCabin(ctx, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(ingest.ExportCabin(*cabin, rs, h.now())))
}
