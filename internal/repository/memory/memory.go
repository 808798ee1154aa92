// Package memory is an in-process implementation of the booking unit of
// work.  Transactions are serialized by a mutex and applied to a copy of
// the data, so a failed transaction leaves nothing behind.  It backs the
// engine, ingestion and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

type state struct {
	cabins       map[uint64]model.Cabin
	customers    map[uint64]model.Customer
	reservations map[uint64]model.Reservation
	audit        []model.AuditEntry
	nextID       uint64
}

func (s *state) clone() *state {
	c := &state{
		cabins:       make(map[uint64]model.Cabin, len(s.cabins)),
		customers:    make(map[uint64]model.Customer, len(s.customers)),
		reservations: make(map[uint64]model.Reservation, len(s.reservations)),
		audit:        append([]model.AuditEntry(nil), s.audit...),
		nextID:       s.nextID,
	}
	for k, v := range s.cabins {
		c.cabins[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	return c
}

func (s *state) id() uint64 {
	s.nextID++
	return s.nextID
}

// Store keeps cabins, customers, reservations and audit entries in memory.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		st: &state{
			cabins:       map[uint64]model.Cabin{},
			customers:    map[uint64]model.Customer{},
			reservations: map[uint64]model.Reservation{},
		},
		now: time.Now,
	}
}

// WithinTx runs fn against a private copy of the data and publishes the
// copy only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, q repository.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, &tx{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// AddCabin stores c, assigning an id when it has none.
func (s *Store) AddCabin(c model.Cabin) model.Cabin {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.st.id()
	} else if c.ID > s.st.nextID {
		s.st.nextID = c.ID
	}
	s.st.cabins[c.ID] = c
	return c
}

// AddCustomer stores c, assigning an id when it has none.
func (s *Store) AddCustomer(c model.Customer) model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.st.id()
	}
	s.st.customers[c.ID] = c
	return c
}

// AddReservation stores r as is, without any availability check.
func (s *Store) AddReservation(r model.Reservation) model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.st.id()
	}
	s.st.reservations[r.ID] = r
	return r
}

// Reservations returns every stored reservation ordered by id.
func (s *Store) Reservations() []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(s.st.reservations))
	for _, r := range s.st.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Customers returns every stored customer ordered by id.
func (s *Store) Customers() []model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Customer, 0, len(s.st.customers))
	for _, c := range s.st.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Audit returns the audit entries in insertion order.
func (s *Store) Audit() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditEntry(nil), s.st.audit...)
}

type tx struct {
	st  *state
	now func() time.Time
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

func (t *tx) Cabin(_ context.Context, id uint64) (*model.Cabin, error) {
	c, ok := t.st.cabins[id]
	if !ok {
		return nil, notFound("memory.Cabin")
	}
	return &c, nil
}

func (t *tx) LockCabin(ctx context.Context, id uint64) (*model.Cabin, error) {
	return t.Cabin(ctx, id)
}

func (t *tx) Customer(_ context.Context, id uint64) (*model.Customer, error) {
	c, ok := t.st.customers[id]
	if !ok {
		return nil, notFound("memory.Customer")
	}
	return &c, nil
}

func (t *tx) CustomerByEmail(_ context.Context, email string) (*model.Customer, error) {
	var best *model.Customer
	for _, c := range t.st.customers {
		if c.Email != nil && *c.Email == email && (best == nil || c.ID < best.ID) {
			c := c
			best = &c
		}
	}
	if best == nil {
		return nil, notFound("memory.CustomerByEmail")
	}
	return best, nil
}

func (t *tx) CustomersByName(_ context.Context, name string) ([]model.Customer, error) {
	out := make([]model.Customer, 0)
	for _, c := range t.st.customers {
		if c.Name == name {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) InsertCustomer(_ context.Context, c *model.Customer) error {
	c.ID = t.st.id()
	c.CreatedAt = t.now().UTC()
	c.UpdatedAt = c.CreatedAt
	t.st.customers[c.ID] = *c
	return nil
}

func (t *tx) UpdateCustomer(_ context.Context, c *model.Customer) error {
	if _, ok := t.st.customers[c.ID]; !ok {
		return notFound("memory.UpdateCustomer")
	}
	c.UpdatedAt = t.now().UTC()
	t.st.customers[c.ID] = *c
	return nil
}

func (t *tx) Reservation(_ context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.st.reservations[id]
	if !ok {
		return nil, notFound("memory.Reservation")
	}
	return &r, nil
}

func (t *tx) ActiveReservations(_ context.Context, cabinID uint64) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for _, r := range t.st.reservations {
		if r.CabinID == cabinID && r.Status != model.StatusCancelled {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) FindExternalReservation(_ context.Context, m repository.ExternalMatch) (*model.Reservation, error) {
	candidates := make([]model.Reservation, 0)
	for _, r := range t.st.reservations {
		if r.CabinID == m.CabinID && r.Origin == model.OriginExternal {
			candidates = append(candidates, r)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	if m.Code != "" {
		for _, r := range candidates {
			if r.ExternalCode != nil && strings.EqualFold(*r.ExternalCode, m.Code) {
				r := r
				return &r, nil
			}
		}
	}
	for _, r := range candidates {
		in := sameDay(r.CheckIn, m.CheckIn)
		out := sameDay(r.CheckOut, m.CheckOut)
		if (m.Exact && in && out) || (!m.Exact && (in || out)) {
			r := r
			return &r, nil
		}
	}
	return nil, notFound("memory.FindExternalReservation")
}

func (t *tx) InsertReservation(_ context.Context, r *model.Reservation) error {
	if _, ok := t.st.cabins[r.CabinID]; !ok {
		return fmt.Errorf("memory.InsertReservation: unknown cabin %d", r.CabinID)
	}
	if _, ok := t.st.customers[r.CustomerID]; !ok {
		return fmt.Errorf("memory.InsertReservation: unknown customer %d", r.CustomerID)
	}
	r.ID = t.st.id()
	r.CreatedAt = t.now().UTC()
	r.UpdatedAt = r.CreatedAt
	t.st.reservations[r.ID] = *r
	return nil
}

func (t *tx) UpdateReservation(_ context.Context, r *model.Reservation) error {
	if _, ok := t.st.reservations[r.ID]; !ok {
		return notFound("memory.UpdateReservation")
	}
	r.UpdatedAt = t.now().UTC()
	t.st.reservations[r.ID] = *r
	return nil
}

func (t *tx) InsertAudit(_ context.Context, e *model.AuditEntry) error {
	e.ID = uint64(len(t.st.audit) + 1)
	t.st.audit = append(t.st.audit, *e)
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
