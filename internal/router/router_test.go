package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cabin-booking/internal/handler"
	"github.com/iliyamo/cabin-booking/internal/metrics"
	"github.com/iliyamo/cabin-booking/internal/utils"
)

const secret = "router-test-secret"

func staffEcho() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, nil, metrics.New())
	RegisterStaff(e, Staff{
		Reservations: &handler.ReservationHandler{},
		Customers:    &handler.CustomerHandler{},
		Cabins:       &handler.CabinHandler{},
		Calendar:     &handler.CalendarHandler{},
		Messages:     &handler.MessageHandler{},
		Reports:      &handler.ReportHandler{},
	}, secret)
	return e
}

func get(e *echo.Echo, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestOperationalRoutes(t *testing.T) {
	e := staffEcho()
	assert.Equal(t, http.StatusOK, get(e, "/healthz", ""))
	assert.Equal(t, http.StatusOK, get(e, "/metrics", ""))
	assert.Equal(t, http.StatusNotFound, get(e, "/readyz", ""), "readiness needs a database")
}

func TestStaffRoutesRequireStaffToken(t *testing.T) {
	e := staffEcho()
	for _, path := range []string{"/v1/reservations", "/v1/customers", "/v1/reports/financial", "/v1/reservations/export.csv"} {
		assert.Equal(t, http.StatusUnauthorized, get(e, path, ""), path)
	}

	guest := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "7",
		"role": "GUEST",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := guest.SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(e, "/v1/reservations", signed))

	staff, err := utils.NewAccessToken(secret, "alice", "STAFF", time.Hour)
	require.NoError(t, err)
	// A zero handler answers 400 for a bad id before touching storage.
	assert.Equal(t, http.StatusBadRequest, get(e, "/v1/customers/abc", staff.Token))
}
