package model

import "time"

// Reservation statuses.  A reservation is created PENDING by staff or by a
// public request, or CONFIRMED when it arrives from the external booking
// platform.  Cancelled rows are never deleted.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Reservation origins.
const (
	OriginLocal    = "local"
	OriginExternal = "external"
)

// Payment statuses tracked on a reservation.
const (
	PaymentUnpaid   = "unpaid"
	PaymentPartial  = "partial"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Reservation is a booked or pending stay of one customer in one cabin.
// The stay covers the nights in [CheckIn, CheckOut); CheckOut is always
// after CheckIn.  Money is stored in cents.
//
// Fields:
//  ID              – primary key identifier.
//  CustomerID      – guest who holds the reservation.
//  CabinID         – cabin being booked.
//  CheckIn         – first night (inclusive), date only, UTC.
//  CheckOut        – departure day (exclusive), date only, UTC.
//  PaymentMethod   – free text payment method chosen by staff.
//  TotalCents      – total price; nil when unknown (e.g. calendar imports).
//  DepositCents    – deposit due at booking time.
//  DepositPaid     – whether the deposit was received.
//  FullyPaid       – whether the full amount was received.
//  AmountPaidCents – amount received so far.
//  PaymentStatus   – unpaid, partial, paid or refunded.
//  Status          – pending, confirmed, cancelled or completed.
//  Origin          – local or external.
//  ExternalCode    – confirmation code from the booking platform.
//  Notes           – staff notes.
//  CheckedInAt     – when the guest checked in.
//  CheckedOutAt    – when the guest checked out.
//  Rating          – guest rating 1..5.
//  Feedback        – guest feedback.
type Reservation struct {
	ID              uint64     // reservations.id
	CustomerID      uint64     // reservations.customer_id
	CabinID         uint64     // reservations.cabin_id
	CheckIn         time.Time  // reservations.checkin
	CheckOut        time.Time  // reservations.checkout
	PaymentMethod   *string    // reservations.payment_method (nullable)
	TotalCents      *int64     // reservations.total_cents (nullable)
	DepositCents    int64      // reservations.deposit_cents
	DepositPaid     bool       // reservations.deposit_paid
	FullyPaid       bool       // reservations.fully_paid
	AmountPaidCents int64      // reservations.amount_paid_cents
	PaymentStatus   string     // reservations.payment_status
	Status          string     // reservations.status
	Origin          string     // reservations.origin
	ExternalCode    *string    // reservations.external_code (nullable)
	Notes           *string    // reservations.notes (nullable)
	CheckedInAt     *time.Time // reservations.checked_in_at (nullable)
	CheckedOutAt    *time.Time // reservations.checked_out_at (nullable)
	Rating          *int       // reservations.rating (nullable)
	Feedback        *string    // reservations.feedback (nullable)
	CreatedAt       time.Time  // reservations.created_at
	UpdatedAt       time.Time  // reservations.updated_at
}

// Active reports whether the reservation occupies its cabin.  Only
// cancelled reservations release their dates.
func (r *Reservation) Active() bool { return r.Status != StatusCancelled }

// Nights returns the number of calendar nights covered by the stay.
func (r *Reservation) Nights() int {
	in, out := dateOf(r.CheckIn), dateOf(r.CheckOut)
	n := (out.Unix() - in.Unix()) / (24 * 60 * 60)
	if n < 0 {
		return 0
	}
	return int(n)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
