package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/handler"
	"github.com/iliyamo/cabin-booking/internal/middleware"
)

// Staff bundles the handlers mounted behind staff authentication.
type Staff struct {
	Reservations *handler.ReservationHandler
	Customers    *handler.CustomerHandler
	Cabins       *handler.CabinHandler
	Calendar     *handler.CalendarHandler
	Messages     *handler.MessageHandler
	Reports      *handler.ReportHandler
}

// RegisterStaff registers the back-office endpoints under /v1.  All routes
// require a valid JWT carrying the STAFF role.
func RegisterStaff(e *echo.Echo, s Staff, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleStaff),
	)

	// ---- Reservations ----
	r := s.Reservations
	g.GET("/reservations", r.List)
	g.POST("/reservations", r.Create)
	g.GET("/reservations/export.csv", r.ExportCSV)
	g.GET("/reservations/calendar", r.Calendar)
	g.GET("/reservations/:id", r.Get)
	g.PATCH("/reservations/:id", r.Update)
	g.POST("/reservations/:id/checkin", r.CheckIn)
	g.POST("/reservations/:id/checkout", r.CheckOut)
	g.POST("/reservations/:id/cancel", r.Cancel)
	g.GET("/reservations/:id/audit", r.Audit)

	// ---- Messages ----
	g.GET("/reservations/:id/messages", s.Messages.List)
	g.POST("/reservations/:id/messages", s.Messages.Create)
	g.POST("/messages/:id/read", s.Messages.MarkRead)

	// ---- Customers ----
	g.GET("/customers", s.Customers.List)
	g.POST("/customers", s.Customers.Create)
	g.GET("/customers/:id", s.Customers.Get)
	g.PATCH("/customers/:id", s.Customers.Update)

	// ---- Cabins ----
	g.GET("/cabins", s.Cabins.List)
	g.GET("/cabins/:id", s.Cabins.Get)
	g.PUT("/cabins/:id/prices", s.Cabins.UpdatePrices)
	g.PUT("/cabins/:id/calendar-url", s.Cabins.SetCalendarURL)

	// ---- Platform sync ----
	g.POST("/calendar/import", s.Calendar.UploadCSV)
	g.POST("/calendar/sync", s.Calendar.SyncAll)
	g.POST("/cabins/:id/calendar/sync", s.Calendar.Sync)

	// ---- Reports ----
	g.GET("/reports/financial", s.Reports.Financial)
}
