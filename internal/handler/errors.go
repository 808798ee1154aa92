package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/booking"
	"github.com/iliyamo/cabin-booking/internal/logger/sl"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

// respondError maps engine and storage errors to HTTP responses:
// validation 400, not found 404, conflict 409 with the conflicting
// reservation id, invalid transition 409 and everything else 500.
func respondError(c echo.Context, log *slog.Logger, err error) error {
	var (
		conflict *booking.ConflictError
		he       *echo.HTTPError
	)
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                   conflict.Error(),
			"conflict_reservation_id": conflict.ReservationID,
		})
	case errors.Is(err, booking.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundMessage(err)})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
	case errors.As(err, &he):
		return c.JSON(he.Code, echo.Map{"error": he.Message})
	}
	log.Error("request failed",
		slog.String("method", c.Request().Method),
		slog.String("route", c.Path()),
		sl.Err(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func notFoundMessage(err error) string {
	var nf *booking.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return "not found"
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
