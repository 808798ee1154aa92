package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/repository"
)

// RevenueReader computes the financial report.
type RevenueReader interface {
	MonthlyRevenue(ctx context.Context, year int) ([]repository.MonthlyRevenue, error)
	RevenueByCabin(ctx context.Context, year int) ([]repository.CabinRevenue, error)
}

// ReportHandler serves the staff financial report.
type ReportHandler struct {
	revenue RevenueReader
	log     *slog.Logger
}

// NewReportHandler wires a ReportHandler.
func NewReportHandler(revenue RevenueReader, log *slog.Logger) *ReportHandler {
	if revenue == nil {
		panic("nil repository passed to NewReportHandler")
	}
	return &ReportHandler{revenue: revenue, log: log}
}

// Financial handles GET /v1/reports/financial?year=.  Confirmed and
// completed reservations count; the year defaults to the current one.
func (h *ReportHandler) Financial(c echo.Context) error {
	year := queryInt(c, "year", time.Now().UTC().Year())
	if year < 2000 || year > 2100 {
		return badRequest(c, "invalid year")
	}
	ctx := c.Request().Context()
	months, err := h.revenue.MonthlyRevenue(ctx, year)
	if err != nil {
		return respondError(c, h.log, err)
	}
	cabins, err := h.revenue.RevenueByCabin(ctx, year)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var total, paid int64
	for _, m := range months {
		total += m.TotalCents
		paid += m.PaidCents
	}
	return c.JSON(http.StatusOK, echo.Map{
		"year":        year,
		"total_cents": total,
		"paid_cents":  paid,
		"months":      months,
		"cabins":      cabins,
	})
}
