// Package booking is the reservation engine: pricing, availability,
// the reservation lifecycle and reconciliation of externally sourced
// bookings.  All storage access goes through a Store unit of work so that
// every availability check runs in the same transaction as the write that
// depends on it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/cabin-booking/internal/logger/sl"
	"github.com/iliyamo/cabin-booking/internal/metrics"
	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/queue"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

// Store opens units of work.  repository.Store implements it on MySQL.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, q repository.Queries) error) error
}

// Publisher receives an event after each committed reservation mutation.
type Publisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
}

// DefaultPlaceholderName names the shared customer used for calendar feed
// imports, which carry no guest identity.
const DefaultPlaceholderName = "External Import"

// Service implements the engine on top of a Store.
type Service struct {
	store       Store
	log         *slog.Logger
	metrics     *metrics.Metrics
	pub         Publisher
	units       *UnitMap
	now         func() time.Time
	placeholder string
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.pub = p } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithUnits sets the listing map used to resolve CSV unit references.
func WithUnits(u *UnitMap) Option { return func(s *Service) { s.units = u } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithPlaceholderName overrides the calendar import customer name.
func WithPlaceholderName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.placeholder = name
		}
	}
}

// NewService returns a Service backed by store.
func NewService(store Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		log:         log,
		now:         time.Now,
		placeholder: DefaultPlaceholderName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// audit writes one audit entry inside the current unit of work.
func (s *Service) audit(ctx context.Context, q repository.Queries, actor, action string, reservationID uint64, details string) error {
	e := &model.AuditEntry{
		Actor:     actor,
		Action:    action,
		CreatedAt: s.now().UTC(),
	}
	if reservationID != 0 {
		id := reservationID
		e.ReservationID = &id
	}
	if details != "" {
		e.Details = &details
	}
	if err := q.InsertAudit(ctx, e); err != nil {
		return fmt.Errorf("booking.audit: %w", err)
	}
	return nil
}

// publish hands a committed mutation to the publisher.  Failures are
// logged and never reach the caller.
func (s *Service) publish(ctx context.Context, action, actor string, r *model.Reservation) {
	if s.pub == nil || r == nil {
		return
	}
	ev := queue.ReservationEvent{
		ReservationID: r.ID,
		CabinID:       r.CabinID,
		CustomerID:    r.CustomerID,
		Action:        action,
		Status:        r.Status,
		CheckIn:       r.CheckIn.Format(time.DateOnly),
		CheckOut:      r.CheckOut.Format(time.DateOnly),
		Actor:         actor,
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	}
	if err := s.pub.PublishReservationEvent(ctx, ev); err != nil {
		s.log.Warn("publish reservation event failed",
			slog.String("op", "booking.publish"),
			slog.Uint64("reservation_id", r.ID),
			slog.String("action", action),
			sl.Err(err))
	}
}

// observe records the outcome of a lifecycle operation.
func (s *Service) observe(action string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		outcome = "invalid"
	case errors.Is(err, ErrConflict):
		outcome = "conflict"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrInvalidTransition):
		outcome = "invalid_transition"
	default:
		outcome = "error"
	}
	s.metrics.Reservation(action, outcome)
}

// notFound converts a storage ErrNotFound into a NotFoundError for entity.
func notFound(err error, entity string, id uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}
