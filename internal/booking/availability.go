package booking

import (
	"context"
	"slices"
	"time"

	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

// Overlaps reports whether the half-open stays [aIn, aOut) and
// [bIn, bOut) share at least one night.  Back-to-back stays do not overlap.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return day(aIn).Before(day(bOut)) && day(aOut).After(day(bIn))
}

// FindConflict returns the first active reservation in existing that
// overlaps [checkIn, checkOut), skipping the reservation with id exclude.
// existing is scanned in order, so callers pass it sorted by check-in.
func FindConflict(existing []model.Reservation, checkIn, checkOut time.Time, exclude uint64) *model.Reservation {
	for i := range existing {
		r := &existing[i]
		if !r.Active() || (exclude != 0 && r.ID == exclude) {
			continue
		}
		if Overlaps(checkIn, checkOut, r.CheckIn, r.CheckOut) {
			return r
		}
	}
	return nil
}

// checkAvailability runs the overlap test inside the caller's unit of
// work.  It returns a *ConflictError naming the blocking reservation.
func checkAvailability(ctx context.Context, q repository.Queries, cabinID uint64, checkIn, checkOut time.Time, exclude uint64) error {
	existing, err := q.ActiveReservations(ctx, cabinID)
	if err != nil {
		return err
	}
	if c := FindConflict(existing, checkIn, checkOut, exclude); c != nil {
		return &ConflictError{ReservationID: c.ID}
	}
	return nil
}

// Availability is the answer of the public availability probe.
type Availability struct {
	Available             bool    `json:"available"`
	ConflictReservationID *uint64 `json:"conflict_reservation_id,omitempty"`
}

// CheckAvailability reports whether [checkIn, checkOut) is free on the
// cabin, ignoring the reservation exclude (zero for none).
func (s *Service) CheckAvailability(ctx context.Context, cabinID uint64, checkIn, checkOut time.Time, exclude uint64) (Availability, error) {
	if !day(checkOut).After(day(checkIn)) {
		return Availability{}, invalid("checkout must be after checkin")
	}
	var out Availability
	err := s.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		if _, err := q.Cabin(ctx, cabinID); err != nil {
			return notFound(err, "cabin", cabinID)
		}
		existing, err := q.ActiveReservations(ctx, cabinID)
		if err != nil {
			return err
		}
		if c := FindConflict(existing, checkIn, checkOut, exclude); c != nil {
			id := c.ID
			out = Availability{ConflictReservationID: &id}
			return nil
		}
		out = Availability{Available: true}
		return nil
	})
	if err != nil {
		return Availability{}, err
	}
	return out, nil
}

// OccupiedDates returns every calendar date covered by an active
// reservation of the cabin, sorted and without duplicates.  Each stay
// contributes its nights, so the check-out date itself is not included.
func (s *Service) OccupiedDates(ctx context.Context, cabinID uint64) ([]time.Time, error) {
	var existing []model.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		if _, err := q.Cabin(ctx, cabinID); err != nil {
			return notFound(err, "cabin", cabinID)
		}
		var err error
		existing, err = q.ActiveReservations(ctx, cabinID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ExpandDates(existing), nil
}

// ExpandDates expands active stays into their individual nights.
func ExpandDates(rs []model.Reservation) []time.Time {
	seen := make(map[time.Time]struct{})
	out := make([]time.Time, 0)
	for _, r := range rs {
		if !r.Active() {
			continue
		}
		for d := day(r.CheckIn); d.Before(day(r.CheckOut)); d = d.AddDate(0, 0, 1) {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	slices.SortFunc(out, time.Time.Compare)
	return out
}
