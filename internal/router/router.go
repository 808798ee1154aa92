// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/handler"
	"github.com/iliyamo/cabin-booking/internal/metrics"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// liveness, readiness and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterPublic registers the guest endpoints under /v1/public.  cache
// wraps the read endpoints whose answers only change with staff edits and
// limit guards booking requests; either may be nil.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cal *handler.CalendarHandler, cache, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/public")

	reads := []echo.MiddlewareFunc{}
	if cache != nil {
		reads = append(reads, cache)
	}
	g.GET("/cabins", p.ListCabins, reads...)
	g.GET("/cabins/:id", p.GetCabin, reads...)
	g.GET("/cabins/:id/quote", p.Quote, reads...)

	// Availability must reflect bookings made a second ago.
	g.GET("/cabins/:id/availability", p.Availability)
	g.GET("/cabins/:id/occupied-dates", p.OccupiedDates)
	g.GET("/cabins/:id/calendar.ics", cal.ExportICS)

	writes := []echo.MiddlewareFunc{}
	if limit != nil {
		writes = append(writes, limit)
	}
	g.POST("/requests", p.RequestBooking, writes...)
}
