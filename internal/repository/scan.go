package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so that row mapping is
// shared between the transactional store and the plain repositories.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const reservationColumns = `id, customer_id, cabin_id, checkin, checkout, payment_method, total_cents,
	deposit_cents, deposit_paid, fully_paid, amount_paid_cents, payment_status, status, origin,
	external_code, notes, checked_in_at, checked_out_at, rating, feedback, created_at, updated_at`

func scanReservation(s rowScanner) (model.Reservation, error) {
	var r model.Reservation
	if err := scanReservationWith(s, &r); err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}

// scanReservationWith scans reservationColumns into r followed by any
// extra joined columns.
func scanReservationWith(s rowScanner, r *model.Reservation, extra ...any) error {
	var (
		payMethod  sql.NullString
		total      sql.NullInt64
		extCode    sql.NullString
		notes      sql.NullString
		checkedIn  sql.NullTime
		checkedOut sql.NullTime
		rating     sql.NullInt64
		feedback   sql.NullString
	)
	dest := []any{
		&r.ID, &r.CustomerID, &r.CabinID, &r.CheckIn, &r.CheckOut, &payMethod, &total,
		&r.DepositCents, &r.DepositPaid, &r.FullyPaid, &r.AmountPaidCents, &r.PaymentStatus, &r.Status, &r.Origin,
		&extCode, &notes, &checkedIn, &checkedOut, &rating, &feedback, &r.CreatedAt, &r.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	r.CheckIn = r.CheckIn.UTC()
	r.CheckOut = r.CheckOut.UTC()
	r.PaymentMethod = nullString(payMethod)
	r.TotalCents = nil
	if total.Valid {
		v := total.Int64
		r.TotalCents = &v
	}
	r.ExternalCode = nullString(extCode)
	r.Notes = nullString(notes)
	r.CheckedInAt, r.CheckedOutAt = nil, nil
	if checkedIn.Valid {
		t := checkedIn.Time.UTC()
		r.CheckedInAt = &t
	}
	if checkedOut.Valid {
		t := checkedOut.Time.UTC()
		r.CheckedOutAt = &t
	}
	r.Rating = nil
	if rating.Valid {
		v := int(rating.Int64)
		r.Rating = &v
	}
	r.Feedback = nullString(feedback)
	return nil
}

func scanReservations(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const cabinColumns = `id, number, name, description, capacity, weekday_price_cents, weekend_price_cents,
	allows_extra_guests, image_url, calendar_url, full_description, amenities, gallery_urls, created_at, updated_at`

func scanCabin(s rowScanner) (model.Cabin, error) {
	var (
		c                    model.Cabin
		desc, img, cal, full sql.NullString
		amenities, gallery   sql.NullString
	)
	err := s.Scan(
		&c.ID, &c.Number, &c.Name, &desc, &c.Capacity, &c.WeekdayPriceCents, &c.WeekendPriceCents,
		&c.AllowsExtraGuests, &img, &cal, &full, &amenities, &gallery, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return model.Cabin{}, err
	}
	c.Description = nullString(desc)
	c.ImageURL = nullString(img)
	c.CalendarURL = nullString(cal)
	c.FullDescription = nullString(full)
	c.Amenities = decodeList(amenities.String)
	c.GalleryURLs = decodeList(gallery.String)
	return c, nil
}

const customerColumns = `id, name, phone, email, created_at, updated_at`

func scanCustomer(s rowScanner) (model.Customer, error) {
	var (
		c     model.Customer
		email sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Phone, &email, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return model.Customer{}, err
	}
	c.Email = nullString(email)
	return c, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// encodeList stores an ordered list as a JSON array.  An empty list is
// stored as NULL.
func encodeList(items []string) any {
	if len(items) == 0 {
		return nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return string(b)
}

// decodeList reads a list written by encodeList.  Older rows hold a plain
// comma separated string; those are split and trimmed.
func decodeList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out
		}
	}
	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dateOnly formats a calendar date for DATE columns.
func dateOnly(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
