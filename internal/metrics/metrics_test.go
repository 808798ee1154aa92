package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Reservation("create", "ok")
		m.IngestRows("csv", "created", 3)
		m.CalendarSync(true)
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
		m.RateLimited()
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()
	m.Reservation("create", "ok")
	m.Reservation("create", "conflict")
	m.Reservation("create", "conflict")
	m.IngestRows("csv", "updated", 4)
	m.IngestRows("csv", "updated", 0)
	m.CalendarSync(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reservations.WithLabelValues("create", "conflict")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ingestRows.WithLabelValues("csv", "updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calendarSync.WithLabelValues("failed")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RateLimited()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "cabin_http_rate_limited_total 1")
}
