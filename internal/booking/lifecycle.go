package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/queue"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

// ActorPublic is recorded as the actor of self-service requests.
const ActorPublic = "public"

// CreateRequest carries the fields staff supply for a new reservation.
// When TotalCents is nil the stay is priced from the cabin rates; when
// DepositCents is nil the deposit is half of the total.
type CreateRequest struct {
	CustomerID    uint64
	CabinID       uint64
	CheckIn       time.Time
	CheckOut      time.Time
	Adults        int
	Children      int
	PaymentMethod *string
	TotalCents    *int64
	DepositCents  *int64
	DepositPaid   bool
	FullyPaid     bool
	Notes         *string
}

// PublicRequest is a self-service booking request.  The customer is
// looked up by email and created when unknown.
type PublicRequest struct {
	Name     string
	Phone    string
	Email    string
	CabinID  uint64
	CheckIn  time.Time
	CheckOut time.Time
	Adults   int
	Children int
}

// UpdateRequest is a partial update.  Nil fields are left unchanged.
// Status is not updatable here; use the lifecycle actions.
type UpdateRequest struct {
	CheckIn         *time.Time
	CheckOut        *time.Time
	PaymentMethod   *string
	TotalCents      *int64
	DepositCents    *int64
	DepositPaid     *bool
	FullyPaid       *bool
	AmountPaidCents *int64
	Notes           *string
	Rating          *int
	Feedback        *string
}

func validateStay(checkIn, checkOut time.Time, adults, children int) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return invalid("checkin and checkout are required")
	}
	if !day(checkOut).After(day(checkIn)) {
		return invalid("checkout must be after checkin")
	}
	if NightsBetween(checkIn, checkOut) > MaxNights {
		return invalid("stays are limited to %d nights", MaxNights)
	}
	return validateGuests(adults, children)
}

func validateGuests(adults, children int) error {
	if adults < 0 || children < 0 {
		return invalid("guest counts cannot be negative")
	}
	if adults > MaxGuests || children > MaxGuests {
		return invalid("guest counts are limited to %d", MaxGuests)
	}
	return nil
}

// Create books a stay for an existing customer.  The cabin row is locked,
// the availability check runs and the reservation is inserted in one unit
// of work, so two overlapping creates cannot both succeed.  The new
// reservation is pending and local.
func (s *Service) Create(ctx context.Context, actor string, req CreateRequest) (res *model.Reservation, err error) {
	const op = "booking.Create"
	defer func() { s.observe("create", err) }()

	if err := validateStay(req.CheckIn, req.CheckOut, req.Adults, req.Children); err != nil {
		return nil, err
	}
	if req.TotalCents != nil && *req.TotalCents < 0 {
		return nil, invalid("total cannot be negative")
	}
	if req.DepositCents != nil && *req.DepositCents < 0 {
		return nil, invalid("deposit cannot be negative")
	}
	adults := req.Adults
	if adults == 0 {
		adults = includedAdults
	}

	var r *model.Reservation
	err = s.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		cabin, err := q.LockCabin(ctx, req.CabinID)
		if err != nil {
			return notFound(err, "cabin", req.CabinID)
		}
		if _, err := q.Customer(ctx, req.CustomerID); err != nil {
			return notFound(err, "customer", req.CustomerID)
		}
		if err := checkAvailability(ctx, q, cabin.ID, req.CheckIn, req.CheckOut, 0); err != nil {
			return err
		}

		total := req.TotalCents
		if total == nil {
			p := Price(*cabin, req.CheckIn, req.CheckOut, adults, req.Children).TotalCents
			total = &p
		}
		deposit := depositFor(*total)
		if req.DepositCents != nil {
			deposit = *req.DepositCents
		}

		r = &model.Reservation{
			CustomerID:    req.CustomerID,
			CabinID:       cabin.ID,
			CheckIn:       day(req.CheckIn),
			CheckOut:      day(req.CheckOut),
			PaymentMethod: req.PaymentMethod,
			TotalCents:    total,
			DepositCents:  deposit,
			DepositPaid:   req.DepositPaid,
			FullyPaid:     req.FullyPaid,
			Status:        model.StatusPending,
			Origin:        model.OriginLocal,
			Notes:         req.Notes,
		}
		settlePayment(r)
		if err := q.InsertReservation(ctx, r); err != nil {
			return err
		}
		return s.audit(ctx, q, actor, "create", r.ID, describeStay(r))
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}

	s.log.Info("reservation created",
		slog.String("op", op),
		slog.Uint64("reservation_id", r.ID),
		slog.Uint64("cabin_id", r.CabinID),
		slog.String("actor", actor))
	s.publish(ctx, queue.ActionCreated, actor, r)
	return r, nil
}

// RequestBooking records a public self-service request.  The customer is
// found by email or created in the same unit of work as the reservation.
// The stay is priced with the guest counts, which are also kept in the
// reservation notes.
func (s *Service) RequestBooking(ctx context.Context, req PublicRequest) (res *model.Reservation, err error) {
	const op = "booking.RequestBooking"
	defer func() { s.observe("request", err) }()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Email == "" {
		return nil, invalid("name and email are required")
	}
	if req.Adults == 0 {
		req.Adults = includedAdults
	}
	if err := validateStay(req.CheckIn, req.CheckOut, req.Adults, req.Children); err != nil {
		return nil, err
	}

	var r *model.Reservation
	err = s.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		cabin, err := q.LockCabin(ctx, req.CabinID)
		if err != nil {
			return notFound(err, "cabin", req.CabinID)
		}
		if err := checkAvailability(ctx, q, cabin.ID, req.CheckIn, req.CheckOut, 0); err != nil {
			return err
		}

		cust, err := q.CustomerByEmail(ctx, req.Email)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			email := req.Email
			cust = &model.Customer{Name: req.Name, Phone: req.Phone, Email: &email}
			if err := q.InsertCustomer(ctx, cust); err != nil {
				return err
			}
		case err != nil:
			return err
		case cust.Phone == "" && req.Phone != "":
			cust.Phone = req.Phone
			if err := q.UpdateCustomer(ctx, cust); err != nil {
				return err
			}
		}

		quote := Price(*cabin, req.CheckIn, req.CheckOut, req.Adults, req.Children)
		notes := fmt.Sprintf("Public request: %d adults, %d children", req.Adults, req.Children)
		r = &model.Reservation{
			CustomerID:   cust.ID,
			CabinID:      cabin.ID,
			CheckIn:      day(req.CheckIn),
			CheckOut:     day(req.CheckOut),
			TotalCents:   &quote.TotalCents,
			DepositCents: quote.DepositCents,
			Status:       model.StatusPending,
			Origin:       model.OriginLocal,
			Notes:        &notes,
		}
		settlePayment(r)
		if err := q.InsertReservation(ctx, r); err != nil {
			return err
		}
		return s.audit(ctx, q, ActorPublic, "request", r.ID, describeStay(r))
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}

	s.log.Info("public booking request recorded",
		slog.String("op", op),
		slog.Uint64("reservation_id", r.ID),
		slog.Uint64("cabin_id", r.CabinID))
	s.publish(ctx, queue.ActionRequested, ActorPublic, r)
	return r, nil
}

// CheckIn confirms a pending or confirmed reservation and records the
// check-in time.
func (s *Service) CheckIn(ctx context.Context, actor string, id uint64) (*model.Reservation, error) {
	return s.transition(ctx, actor, id, "checkin", queue.ActionCheckedIn, func(r *model.Reservation, now time.Time) (bool, error) {
		if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
			return false, &TransitionError{Action: "check in", From: r.Status}
		}
		r.Status = model.StatusConfirmed
		r.CheckedInAt = &now
		return true, nil
	})
}

// CheckOut completes a confirmed reservation and records the check-out time.
func (s *Service) CheckOut(ctx context.Context, actor string, id uint64) (*model.Reservation, error) {
	return s.transition(ctx, actor, id, "checkout", queue.ActionCheckedOut, func(r *model.Reservation, now time.Time) (bool, error) {
		if r.Status != model.StatusConfirmed {
			return false, &TransitionError{Action: "check out", From: r.Status}
		}
		r.Status = model.StatusCompleted
		r.CheckedOutAt = &now
		return true, nil
	})
}

// Cancel releases the reservation's dates.  The row is kept.  Cancelling
// a cancelled reservation changes nothing; completed stays cannot be
// cancelled.
func (s *Service) Cancel(ctx context.Context, actor string, id uint64) (*model.Reservation, error) {
	return s.transition(ctx, actor, id, "cancel", queue.ActionCancelled, func(r *model.Reservation, _ time.Time) (bool, error) {
		switch r.Status {
		case model.StatusCancelled:
			return false, nil
		case model.StatusCompleted:
			return false, &TransitionError{Action: "cancel", From: r.Status}
		}
		r.Status = model.StatusCancelled
		return true, nil
	})
}

// transition loads and locks a reservation, applies fn and persists the
// result with an audit entry when fn reports a change.
func (s *Service) transition(ctx context.Context, actor string, id uint64, action, event string,
	fn func(r *model.Reservation, now time.Time) (bool, error)) (res *model.Reservation, err error) {
	op := "booking." + action
	defer func() { s.observe(action, err) }()

	var (
		r       *model.Reservation
		changed bool
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		var err error
		r, err = q.Reservation(ctx, id)
		if err != nil {
			return notFound(err, "reservation", id)
		}
		from := r.Status
		changed, err = fn(r, s.now().UTC())
		if err != nil || !changed {
			return err
		}
		if err := q.UpdateReservation(ctx, r); err != nil {
			return err
		}
		return s.audit(ctx, q, actor, action, r.ID, fmt.Sprintf("status %s -> %s", from, r.Status))
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}
	if changed {
		s.log.Info("reservation status changed",
			slog.String("op", op),
			slog.Uint64("reservation_id", r.ID),
			slog.String("status", r.Status),
			slog.String("actor", actor))
		s.publish(ctx, event, actor, r)
	}
	return r, nil
}

// Update merges the supplied fields into the reservation.  When the dates
// change on an active reservation the availability check runs again,
// excluding the reservation itself.
func (s *Service) Update(ctx context.Context, actor string, id uint64, req UpdateRequest) (res *model.Reservation, err error) {
	const op = "booking.Update"
	defer func() { s.observe("update", err) }()

	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, invalid("rating must be between 1 and 5")
	}
	for _, v := range []*int64{req.TotalCents, req.DepositCents, req.AmountPaidCents} {
		if v != nil && *v < 0 {
			return nil, invalid("amounts cannot be negative")
		}
	}

	var (
		r       *model.Reservation
		changes []string
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		var err error
		r, err = q.Reservation(ctx, id)
		if err != nil {
			return notFound(err, "reservation", id)
		}

		datesChanged := false
		if req.CheckIn != nil && !day(*req.CheckIn).Equal(r.CheckIn) {
			r.CheckIn = day(*req.CheckIn)
			datesChanged = true
			changes = append(changes, "checkin="+r.CheckIn.Format(time.DateOnly))
		}
		if req.CheckOut != nil && !day(*req.CheckOut).Equal(r.CheckOut) {
			r.CheckOut = day(*req.CheckOut)
			datesChanged = true
			changes = append(changes, "checkout="+r.CheckOut.Format(time.DateOnly))
		}
		if datesChanged {
			if !r.CheckOut.After(r.CheckIn) {
				return invalid("checkout must be after checkin")
			}
			if NightsBetween(r.CheckIn, r.CheckOut) > MaxNights {
				return invalid("stays are limited to %d nights", MaxNights)
			}
			if r.Active() {
				if _, err := q.LockCabin(ctx, r.CabinID); err != nil {
					return notFound(err, "cabin", r.CabinID)
				}
				if err := checkAvailability(ctx, q, r.CabinID, r.CheckIn, r.CheckOut, r.ID); err != nil {
					return err
				}
			}
		}

		if req.PaymentMethod != nil {
			r.PaymentMethod = req.PaymentMethod
			changes = append(changes, "payment_method")
		}
		if req.TotalCents != nil {
			v := *req.TotalCents
			r.TotalCents = &v
			changes = append(changes, fmt.Sprintf("total=%d", v))
		}
		if req.DepositCents != nil {
			r.DepositCents = *req.DepositCents
			changes = append(changes, fmt.Sprintf("deposit=%d", r.DepositCents))
		}
		if req.DepositPaid != nil {
			r.DepositPaid = *req.DepositPaid
			changes = append(changes, fmt.Sprintf("deposit_paid=%t", r.DepositPaid))
		}
		if req.FullyPaid != nil {
			r.FullyPaid = *req.FullyPaid
			changes = append(changes, fmt.Sprintf("fully_paid=%t", r.FullyPaid))
		}
		if req.AmountPaidCents != nil {
			r.AmountPaidCents = *req.AmountPaidCents
			changes = append(changes, fmt.Sprintf("amount_paid=%d", r.AmountPaidCents))
		}
		if req.Notes != nil {
			r.Notes = req.Notes
			changes = append(changes, "notes")
		}
		if req.Rating != nil {
			v := *req.Rating
			r.Rating = &v
			changes = append(changes, fmt.Sprintf("rating=%d", v))
		}
		if req.Feedback != nil {
			r.Feedback = req.Feedback
			changes = append(changes, "feedback")
		}
		if len(changes) == 0 {
			return nil
		}
		if req.AmountPaidCents == nil {
			settlePayment(r)
		} else {
			r.PaymentStatus = paymentStatus(r)
		}
		if err := q.UpdateReservation(ctx, r); err != nil {
			return err
		}
		return s.audit(ctx, q, actor, "update", r.ID, strings.Join(changes, " "))
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}
	if len(changes) > 0 {
		s.publish(ctx, queue.ActionUpdated, actor, r)
	}
	return r, nil
}

// settlePayment derives the amount paid and payment status from the
// deposit and full-payment flags.
func settlePayment(r *model.Reservation) {
	switch {
	case r.FullyPaid && r.TotalCents != nil:
		r.AmountPaidCents = *r.TotalCents
	case r.DepositPaid && r.AmountPaidCents < r.DepositCents:
		r.AmountPaidCents = r.DepositCents
	}
	r.PaymentStatus = paymentStatus(r)
}

func paymentStatus(r *model.Reservation) string {
	switch {
	case r.PaymentStatus == model.PaymentRefunded:
		return model.PaymentRefunded
	case r.FullyPaid:
		return model.PaymentPaid
	case r.TotalCents != nil && *r.TotalCents > 0 && r.AmountPaidCents >= *r.TotalCents:
		return model.PaymentPaid
	case r.AmountPaidCents > 0:
		return model.PaymentPartial
	default:
		return model.PaymentUnpaid
	}
}

func describeStay(r *model.Reservation) string {
	total := "unknown"
	if r.TotalCents != nil {
		total = fmt.Sprintf("%d", *r.TotalCents)
	}
	return fmt.Sprintf("cabin=%d checkin=%s checkout=%s total=%s status=%s",
		r.CabinID, r.CheckIn.Format(time.DateOnly), r.CheckOut.Format(time.DateOnly), total, r.Status)
}

// wrapOp prefixes storage failures with op.  Domain errors are returned
// untouched so their messages reach the client as they are.
func wrapOp(op string, err error) error {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
