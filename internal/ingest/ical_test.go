package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cabin-booking/internal/booking"
	"github.com/iliyamo/cabin-booking/internal/logger"
	"github.com/iliyamo/cabin-booking/internal/metrics"
	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/repository"
	"github.com/iliyamo/cabin-booking/internal/repository/memory"
)

var feed = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//Airbnb Inc//Hosting Calendar 0.8.8//EN",
	"BEGIN:VEVENT",
	"DTSTAMP:20260401T120000Z",
	"DTSTART;VALUE=DATE:20260901",
	"DTEND;VALUE=DATE:20260904",
	"SUMMARY:Reserved",
	"UID:a1@airbnb.com",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"DTSTART;VALUE=DATE:20260910",
	"DTEND;VALUE=DATE:20260912",
	"SUMMARY:Airbnb (Not available)",
	"UID:a2@airbnb.com",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"DTSTART;VALUE=DATE:20260920",
	"SUMMARY:Broken",
	"UID:a3@airbnb.com",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func TestParseFeed(t *testing.T) {
	events, malformed, err := ParseFeed(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Equal(t, 1, malformed)
	require.Len(t, events, 2)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), events[0].CheckIn)
	assert.Equal(t, time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), events[0].CheckOut)
	assert.Equal(t, "Reserved", events[0].Summary)
}

type cabinMap map[uint64]model.Cabin

func (m cabinMap) GetByID(_ context.Context, id uint64) (*model.Cabin, error) {
	c, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m cabinMap) WithCalendar(context.Context) ([]model.Cabin, error) {
	var out []model.Cabin
	for _, c := range m {
		if c.CalendarURL != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func newSyncer(t *testing.T, url string, timeout time.Duration) (*Syncer, *memory.Store, model.Cabin, *metrics.Metrics) {
	t.Helper()
	st := memory.New()
	cabin := st.AddCabin(model.Cabin{Number: 1, Name: "Chalé Araucária", WeekdayPriceCents: 49000, WeekendPriceCents: 69000})
	cabin.CalendarURL = &url
	bare := st.AddCabin(model.Cabin{Number: 2, Name: "Chalé Ipê"})

	m := metrics.New()
	svc := booking.NewService(st, logger.Discard(), booking.WithMetrics(m))
	s := NewSyncer(cabinMap{cabin.ID: cabin, bare.ID: bare}, svc, NewFeedFetcher(timeout), logger.Discard(), m)
	return s, st, cabin, m
}

func TestSyncer_Sync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	s, st, cabin, _ := newSyncer(t, srv.URL, time.Second)
	ctx := context.Background()

	ok, created := s.Sync(ctx, cabin.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, created)

	ok, created = s.Sync(ctx, cabin.ID)
	assert.True(t, ok)
	assert.Zero(t, created, "re-sync matches the earlier import")
	require.Len(t, st.Reservations(), 1)
	assert.Equal(t, model.OriginExternal, st.Reservations()[0].Origin)

	synced, created := s.SyncAll(ctx)
	assert.Equal(t, 1, synced)
	assert.Zero(t, created)
}

func TestSyncer_SoftFailures(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer broken.Close()

	ctx := context.Background()

	s, _, cabin, _ := newSyncer(t, slow.URL, 50*time.Millisecond)
	ok, created := s.Sync(ctx, cabin.ID)
	assert.False(t, ok)
	assert.Zero(t, created)

	s, st, cabin, _ := newSyncer(t, broken.URL, time.Second)
	ok, _ = s.Sync(ctx, cabin.ID)
	assert.False(t, ok)
	assert.Empty(t, st.Reservations())

	ok, _ = s.Sync(ctx, cabin.ID+1)
	assert.False(t, ok, "cabin without a feed")
	ok, _ = s.Sync(ctx, 999)
	assert.False(t, ok, "unknown cabin")
}

func TestExportCabin(t *testing.T) {
	cabin := model.Cabin{ID: 1, Name: "Chalé Araucária"}
	rs := []model.Reservation{
		{ID: 5, CabinID: 1, CheckIn: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), Status: model.StatusConfirmed},
		{ID: 6, CabinID: 1, CheckIn: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC), Status: model.StatusCancelled},
	}

	out := ExportCabin(cabin, rs, time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "reservation-5@cabin-booking", events[0].GetProperty(ics.ComponentPropertyUniqueId).Value)

	in, ok := eventDate(events[0], ics.ComponentPropertyDtStart)
	require.True(t, ok)
	assert.Equal(t, rs[0].CheckIn, in)
	end, ok := eventDate(events[0], ics.ComponentPropertyDtEnd)
	require.True(t, ok)
	assert.Equal(t, rs[0].CheckOut, end)

	parsed, malformed, err := ParseFeed(strings.NewReader(out))
	require.NoError(t, err)
	assert.Zero(t, malformed)
	assert.Len(t, parsed, 1)
}
