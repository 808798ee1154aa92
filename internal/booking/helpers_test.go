package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/iliyamo/cabin-booking/internal/logger"
	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/queue"
	"github.com/iliyamo/cabin-booking/internal/repository/memory"
)

var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func d(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) PublishReservationEvent(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Action)
	}
	return out
}

type fixture struct {
	store *memory.Store
	svc   *Service
	pub   *recordingPublisher
	cabin model.Cabin
	guest model.Customer
}

// newFixture seeds cabin #1 (weekday 490.00, weekend 690.00) and one
// customer.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st := memory.New()
	cabin := st.AddCabin(model.Cabin{
		Number:            1,
		Name:              "Chalé Araucária",
		Capacity:          4,
		WeekdayPriceCents: 49000,
		WeekendPriceCents: 69000,
	})
	guest := st.AddCustomer(model.Customer{Name: gofakeit.Name(), Phone: gofakeit.Phone(), Email: ptr(gofakeit.Email())})
	pub := &recordingPublisher{}
	all := append([]Option{WithPublisher(pub), WithClock(func() time.Time { return fixedNow })}, opts...)
	return &fixture{
		store: st,
		svc:   NewService(st, logger.Discard(), all...),
		pub:   pub,
		cabin: cabin,
		guest: guest,
	}
}

func (f *fixture) book(t *testing.T, in, out string) *model.Reservation {
	t.Helper()
	r, err := f.svc.Create(context.Background(), "staff:1", CreateRequest{
		CustomerID: f.guest.ID,
		CabinID:    f.cabin.ID,
		CheckIn:    d(in),
		CheckOut:   d(out),
	})
	if err != nil {
		t.Fatalf("book %s..%s: %v", in, out, err)
	}
	return r
}

func (f *fixture) reservation(t *testing.T, id uint64) model.Reservation {
	t.Helper()
	for _, r := range f.store.Reservations() {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("reservation %d not stored", id)
	return model.Reservation{}
}

var errBroker = errors.New("broker down")
