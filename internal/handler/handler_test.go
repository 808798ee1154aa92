package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cabin-booking/internal/booking"
	"github.com/iliyamo/cabin-booking/internal/logger"
	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/repository"
	"github.com/iliyamo/cabin-booking/internal/repository/memory"
)

var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type fakeCabins struct {
	mu    sync.Mutex
	items []model.Cabin
}

func (f *fakeCabins) List(context.Context) ([]model.Cabin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Cabin(nil), f.items...), nil
}

func (f *fakeCabins) GetByID(_ context.Context, id uint64) (*model.Cabin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			c := f.items[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("fakeCabins.GetByID: %w", repository.ErrNotFound)
}

func (f *fakeCabins) UpdatePrices(_ context.Context, id uint64, weekday, weekend int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].WeekdayPriceCents, f.items[i].WeekendPriceCents = weekday, weekend
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeCabins) SetCalendarURL(_ context.Context, id uint64, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			if url == "" {
				f.items[i].CalendarURL = nil
			} else {
				f.items[i].CalendarURL = &url
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeReservations reads straight from the memory store.
type fakeReservations struct {
	store *memory.Store
}

func (f *fakeReservations) List(_ context.Context, flt repository.ReservationFilter) ([]repository.ReservationView, int64, error) {
	var out []repository.ReservationView
	for _, r := range f.store.Reservations() {
		if flt.Status != "" && r.Status != flt.Status {
			continue
		}
		out = append(out, repository.ReservationView{Reservation: r, CabinName: "Chalé Araucária", CabinNumber: 1})
	}
	return out, int64(len(out)), nil
}

func (f *fakeReservations) GetView(_ context.Context, id uint64) (*repository.ReservationView, error) {
	for _, r := range f.store.Reservations() {
		if r.ID == id {
			return &repository.ReservationView{Reservation: r}, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReservations) Calendar(_ context.Context, from, to time.Time, _ uint64) ([]repository.ReservationView, error) {
	var out []repository.ReservationView
	for _, r := range f.store.Reservations() {
		if r.Active() && booking.Overlaps(from, to, r.CheckIn, r.CheckOut) {
			out = append(out, repository.ReservationView{Reservation: r, CustomerName: "Import", CabinName: "Chalé Araucária"})
		}
	}
	return out, nil
}

func (f *fakeReservations) ActiveByCabin(_ context.Context, cabinID uint64) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.store.Reservations() {
		if r.CabinID == cabinID && r.Active() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservations) ListByReservation(_ context.Context, id uint64) ([]model.AuditEntry, error) {
	var out []model.AuditEntry
	for _, e := range f.store.Audit() {
		if e.ReservationID != nil && *e.ReservationID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeSyncer struct {
	calls []uint64
}

func (f *fakeSyncer) Sync(_ context.Context, id uint64) (bool, int) {
	f.calls = append(f.calls, id)
	return id == 1, 0
}

func (f *fakeSyncer) SyncAll(context.Context) (int, int) { return 0, 0 }

type fakeMessages struct {
	known map[uint64]bool
	items []model.Message
}

func (f *fakeMessages) Create(_ context.Context, m *model.Message) error {
	if !f.known[m.ReservationID] {
		return fmt.Errorf("fakeMessages.Create: %w", repository.ErrNotFound)
	}
	m.ID = uint64(len(f.items) + 1)
	m.CreatedAt = fixedNow
	f.items = append(f.items, *m)
	return nil
}

func (f *fakeMessages) ListByReservation(_ context.Context, id uint64) ([]model.Message, error) {
	out := []model.Message{}
	for _, m := range f.items {
		if m.ReservationID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, id uint64) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

type testEnv struct {
	e        *echo.Echo
	store    *memory.Store
	cabin    model.Cabin
	syncer   *fakeSyncer
	messages *fakeMessages
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	feed := "https://example.com/feed.ics"
	cabin := st.AddCabin(model.Cabin{
		Number:            1,
		Name:              "Chalé Araucária",
		Capacity:          4,
		WeekdayPriceCents: 49000,
		WeekendPriceCents: 69000,
		CalendarURL:       &feed,
	})
	units, err := booking.NewUnitMap([]model.ListingMapping{{ID: 1, ListingRef: "Araucária", CabinID: cabin.ID, Version: 1}}, []model.Cabin{cabin})
	require.NoError(t, err)

	log := logger.Discard()
	svc := booking.NewService(st, log,
		booking.WithClock(func() time.Time { return fixedNow }),
		booking.WithUnits(units),
	)
	cabins := &fakeCabins{items: []model.Cabin{cabin}}
	res := &fakeReservations{store: st}
	env := &testEnv{
		store:    st,
		cabin:    cabin,
		syncer:   &fakeSyncer{},
		messages: &fakeMessages{known: map[uint64]bool{}},
	}

	e := echo.New()
	e.Validator = NewValidator()

	pub := NewPublicHandler(svc, cabins, log)
	cal := NewCalendarHandler(svc, env.syncer, cabins, res, log)
	cal.now = func() time.Time { return fixedNow }
	e.GET("/v1/public/cabins", pub.ListCabins)
	e.GET("/v1/public/cabins/:id", pub.GetCabin)
	e.GET("/v1/public/cabins/:id/quote", pub.Quote)
	e.GET("/v1/public/cabins/:id/availability", pub.Availability)
	e.GET("/v1/public/cabins/:id/occupied-dates", pub.OccupiedDates)
	e.GET("/v1/public/cabins/:id/calendar.ics", cal.ExportICS)
	e.POST("/v1/public/requests", pub.RequestBooking)

	rh := NewReservationHandler(svc, res, res, "", log)
	e.GET("/v1/reservations", rh.List)
	e.POST("/v1/reservations", rh.Create)
	e.GET("/v1/reservations/export.csv", rh.ExportCSV)
	e.GET("/v1/reservations/calendar", rh.Calendar)
	e.PATCH("/v1/reservations/:id", rh.Update)
	e.POST("/v1/reservations/:id/checkin", rh.CheckIn)
	e.POST("/v1/reservations/:id/checkout", rh.CheckOut)
	e.POST("/v1/reservations/:id/cancel", rh.Cancel)
	e.GET("/v1/reservations/:id/audit", rh.Audit)

	ch := NewCabinHandler(cabins, log)
	e.GET("/v1/cabins/:id", ch.Get)
	e.PUT("/v1/cabins/:id/prices", ch.UpdatePrices)
	e.PUT("/v1/cabins/:id/calendar-url", ch.SetCalendarURL)

	e.POST("/v1/calendar/import", cal.UploadCSV)
	e.POST("/v1/cabins/:id/calendar/sync", cal.Sync)

	mh := NewMessageHandler(env.messages, log)
	e.POST("/v1/reservations/:id/messages", mh.Create)
	e.GET("/v1/reservations/:id/messages", mh.List)
	e.POST("/v1/messages/:id/read", mh.MarkRead)

	env.e = e
	return env
}

func (env *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func publicRequest(checkIn, checkOut string) map[string]any {
	return map[string]any{
		"name":     gofakeit.Name(),
		"phone":    gofakeit.Phone(),
		"email":    gofakeit.Email(),
		"cabin_id": 1,
		"checkin":  checkIn,
		"checkout": checkOut,
		"adults":   2,
	}
}

func TestRequestBooking_CreatesPendingThenConflicts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/public/requests", publicRequest("2026-07-03", "2026-07-06"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "local", body["origin"])
	assert.EqualValues(t, 187000, body["total_cents"])
	first := body["id"].(float64)

	rec = env.do(http.MethodPost, "/v1/public/requests", publicRequest("2026-07-05", "2026-07-08"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, first, decode(t, rec)["conflict_reservation_id"])

	rec = env.do(http.MethodPost, "/v1/public/requests", publicRequest("2026-07-06", "2026-07-08"))
	assert.Equal(t, http.StatusCreated, rec.Code, "back-to-back stays do not overlap")
}

func TestRequestBooking_Validation(t *testing.T) {
	env := newTestEnv(t)

	bad := publicRequest("2026-07-03", "2026-07-06")
	bad["email"] = "not-an-email"
	rec := env.do(http.MethodPost, "/v1/public/requests", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "email must be a valid email")

	inverted := publicRequest("2026-07-06", "2026-07-03")
	rec = env.do(http.MethodPost, "/v1/public/requests", inverted)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	unknown := publicRequest("2026-07-03", "2026-07-06")
	unknown["cabin_id"] = 99
	rec = env.do(http.MethodPost, "/v1/public/requests", unknown)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, env.store.Reservations())
}

func TestQuoteAndAvailability(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/v1/public/cabins/1/quote?checkin=2026-07-03&checkout=2026-07-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	q := decode(t, rec)
	assert.EqualValues(t, 187000, q["total_cents"])
	assert.EqualValues(t, 93500, q["deposit_cents"])
	assert.EqualValues(t, 3, q["nights"])
	assert.EqualValues(t, 1870, q["total"])
	assert.EqualValues(t, 935, q["deposit"])

	rec = env.do(http.MethodGet, "/v1/public/cabins/99/quote?checkin=2026-07-03&checkout=2026-07-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["total_cents"], "unknown cabin quotes zero")

	rec = env.do(http.MethodGet, "/v1/public/cabins/1/quote?checkin=03/07/2026&checkout=2026-07-06", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/v1/public/cabins/1/quote?checkin=2026-07-03&checkout=2026-07-06&adults=4611686018427387904", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "adults beyond the guest limit")

	rec = env.do(http.MethodGet, "/v1/public/cabins/1/quote?checkin=0001-01-01&checkout=9999-12-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["nights"], "overlong stays quote zero")

	longStay := publicRequest("2026-07-10", "9999-12-31")
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/v1/public/requests", longStay).Code)
	assert.Empty(t, env.store.Reservations())

	rec = env.do(http.MethodGet, "/v1/public/cabins/1/availability?checkin=2026-07-03&checkout=2026-07-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["available"])

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/public/requests", publicRequest("2026-07-04", "2026-07-05")).Code)
	rec = env.do(http.MethodGet, "/v1/public/cabins/1/availability?checkin=2026-07-03&checkout=2026-07-06", nil)
	a := decode(t, rec)
	assert.Equal(t, false, a["available"])
	assert.NotNil(t, a["conflict_reservation_id"])

	rec = env.do(http.MethodGet, "/v1/public/cabins/1/occupied-dates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"2026-07-04"}, decode(t, rec)["dates"])

	rec = env.do(http.MethodGet, "/v1/public/cabins/99/availability?checkin=2026-07-03&checkout=2026-07-06", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicCabinHidesCalendarURL(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/v1/public/cabins/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "example.com")

	rec = env.do(http.MethodGet, "/v1/cabins/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "example.com")

	rec = env.do(http.MethodGet, "/v1/public/cabins/7", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReservationLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	guest := env.store.AddCustomer(model.Customer{Name: gofakeit.Name()})

	rec := env.do(http.MethodPost, "/v1/reservations", map[string]any{
		"customer_id": guest.ID,
		"cabin_id":    env.cabin.ID,
		"checkin":     "2026-08-10",
		"checkout":    "2026-08-12",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := uint64(decode(t, rec)["id"].(float64))
	path := fmt.Sprintf("/v1/reservations/%d", id)

	rec = env.do(http.MethodPost, path+"/checkout", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "pending stays cannot check out")

	rec = env.do(http.MethodPost, path+"/checkin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", decode(t, rec)["status"])

	rec = env.do(http.MethodPost, path+"/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decode(t, rec)["status"])

	rec = env.do(http.MethodPost, path+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "completed stays cannot be cancelled")

	rec = env.do(http.MethodGet, path+"/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["count"])

	rec = env.do(http.MethodPost, "/v1/reservations/999/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReservation(t *testing.T) {
	env := newTestEnv(t)
	guest := env.store.AddCustomer(model.Customer{Name: gofakeit.Name()})
	a := env.store.AddReservation(model.Reservation{CustomerID: guest.ID, CabinID: env.cabin.ID,
		CheckIn: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		Status: model.StatusConfirmed, Origin: model.OriginLocal})
	b := env.store.AddReservation(model.Reservation{CustomerID: guest.ID, CabinID: env.cabin.ID,
		CheckIn: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
		Status: model.StatusPending, Origin: model.OriginLocal})

	rec := env.do(http.MethodPatch, fmt.Sprintf("/v1/reservations/%d", b.ID), map[string]any{"checkin": "2026-08-02"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.EqualValues(t, a.ID, decode(t, rec)["conflict_reservation_id"])

	rec = env.do(http.MethodPatch, fmt.Sprintf("/v1/reservations/%d", b.ID), map[string]any{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPatch, fmt.Sprintf("/v1/reservations/%d", b.ID), map[string]any{"checkout": "2026-08-08", "notes": "late arrival"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "2026-08-08", body["checkout"])
	assert.Equal(t, "late arrival", body["notes"])
}

func TestExportCSVAndCalendar(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/v1/public/requests", publicRequest("2026-04-10", "2026-04-12")).Code)

	rec := env.do(http.MethodGet, "/v1/reservations/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,cabin_number,cabin"))
	assert.Contains(t, lines[1], "2026-04-10,2026-04-12,2")

	rec = env.do(http.MethodGet, "/v1/reservations/calendar?from=2026-04-01&to=2026-05-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Import - Chalé Araucária", entries[0]["title"])

	rec = env.do(http.MethodGet, "/v1/reservations/calendar?from=2026-05-01&to=2026-04-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportICS(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/v1/public/requests", publicRequest("2026-07-03", "2026-07-06"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := uint64(decode(t, rec)["id"].(float64))

	rec = env.do(http.MethodGet, "/v1/public/cabins/1/calendar.ics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/calendar")
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, fmt.Sprintf("reservation-%d@cabin-booking", id))
	assert.Contains(t, body, "20260703")

	rec = env.do(http.MethodGet, "/v1/public/cabins/42/calendar.ics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func upload(t *testing.T, env *testEnv, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/calendar/import", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

const platformExport = "Código de confirmação,Status,Nome do hóspede,Entrar em contato,Data de início,Data de término,Anúncio,Ganhos\n" +
	"HMABC123,Confirmada,Maria Silva,+55 48 98888-1111,03/07/2026,06/07/2026,Chalé Araucária,\"R$ 1.234,56\"\n" +
	"HMZZZ999,Confirmada,João Pereira,,10/07/2026,12/07/2026,Casa da praia,\"R$ 800,00\"\n" +
	"HMBAD000,Confirmada,Bad Row,,31/02/2026,12/07/2026,Chalé Araucária,\n"

func TestUploadCSV(t *testing.T) {
	env := newTestEnv(t)

	rec := upload(t, env, "reservations.csv", platformExport)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode(t, rec)
	assert.EqualValues(t, 1, res["created"])
	assert.EqualValues(t, 1, res["ignored"])
	assert.EqualValues(t, 1, res["errors"])
	assert.NotEmpty(t, res["batch_id"])

	stored := env.store.Reservations()
	require.Len(t, stored, 1)
	assert.Equal(t, model.OriginExternal, stored[0].Origin)

	rec = upload(t, env, "reservations.csv", platformExport)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["created"], "re-import is idempotent")

	rec = upload(t, env, "reservations.xlsx", platformExport)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, env, "reservations.csv", "foo,bar\n1,2\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarSync(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/cabins/1/calendar/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["synced"])

	rec = env.do(http.MethodPost, "/v1/cabins/2/calendar/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code, "failed syncs are reported, not raised")
	assert.Equal(t, false, decode(t, rec)["synced"])
	assert.Equal(t, []uint64{1, 2}, env.syncer.calls)
}

func TestCabinEdits(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPut, "/v1/cabins/1/prices", map[string]any{"weekday_price_cents": 52000, "weekend_price_cents": 72000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPut, "/v1/cabins/1/calendar-url", map[string]any{"calendar_url": "ftp://example.com/x.ics"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/v1/cabins/9/prices", map[string]any{"weekday_price_cents": 1, "weekend_price_cents": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessages(t *testing.T) {
	env := newTestEnv(t)
	env.messages.known[5] = true

	rec := env.do(http.MethodPost, "/v1/reservations/6/messages", map[string]any{"sender": "guest", "body": "hello"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/v1/reservations/5/messages", map[string]any{"sender": "robot", "body": "hello"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/v1/reservations/5/messages", map[string]any{"sender": "guest", "body": "Can we arrive at 22h?"})
	require.Equal(t, http.StatusCreated, rec.Code)
	msgID := uint64(decode(t, rec)["id"].(float64))

	rec = env.do(http.MethodPost, fmt.Sprintf("/v1/messages/%d/read", msgID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/v1/reservations/5/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, true, body["items"].([]any)[0].(map[string]any)["read"])
}
