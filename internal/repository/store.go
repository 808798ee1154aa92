package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// Queries is the unit of work handed to booking operations.  Every call
// made through one Queries value participates in the same transaction, so
// an availability check and the insert that follows it commit or roll
// back together.
type Queries interface {
	// Cabin loads a cabin without locking it.
	Cabin(ctx context.Context, id uint64) (*model.Cabin, error)
	// LockCabin loads a cabin and holds a row lock on it until the
	// transaction ends.  Booking writers for one cabin serialize on it.
	LockCabin(ctx context.Context, id uint64) (*model.Cabin, error)
	Customer(ctx context.Context, id uint64) (*model.Customer, error)
	CustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
	CustomersByName(ctx context.Context, name string) ([]model.Customer, error)
	InsertCustomer(ctx context.Context, c *model.Customer) error
	UpdateCustomer(ctx context.Context, c *model.Customer) error
	// Reservation loads a reservation and locks it for update.
	Reservation(ctx context.Context, id uint64) (*model.Reservation, error)
	// ActiveReservations returns the non-cancelled reservations of a cabin
	// ordered by check-in date.
	ActiveReservations(ctx context.Context, cabinID uint64) ([]model.Reservation, error)
	FindExternalReservation(ctx context.Context, m ExternalMatch) (*model.Reservation, error)
	InsertReservation(ctx context.Context, r *model.Reservation) error
	UpdateReservation(ctx context.Context, r *model.Reservation) error
	InsertAudit(ctx context.Context, e *model.AuditEntry) error
}

// ExternalMatch describes how an imported booking is correlated with a
// reservation that was already imported.  Only external-origin
// reservations of CabinID are considered.  When Code is set a reservation
// carrying that confirmation code wins.  Otherwise Exact requires both
// dates to match; without Exact matching either date is enough.
type ExternalMatch struct {
	CabinID  uint64
	CheckIn  time.Time
	CheckOut time.Time
	Exact    bool
	Code     string
}

// Store opens transactions on the MySQL database.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

// WithinTx runs fn inside a single transaction.  The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error {
	const op = "repository.Store.WithinTx"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	committed = true
	return nil
}

// Tx implements Queries on top of a *sql.Tx.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Cabin(ctx context.Context, id uint64) (*model.Cabin, error) {
	return cabinByID(ctx, t.tx, id, false)
}

func (t *Tx) LockCabin(ctx context.Context, id uint64) (*model.Cabin, error) {
	return cabinByID(ctx, t.tx, id, true)
}

func (t *Tx) Customer(ctx context.Context, id uint64) (*model.Customer, error) {
	return customerByID(ctx, t.tx, id)
}

func (t *Tx) CustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	const op = "repository.Tx.CustomerByEmail"
	row := t.tx.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = ? ORDER BY id LIMIT 1`, email)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func (t *Tx) CustomersByName(ctx context.Context, name string) ([]model.Customer, error) {
	const op = "repository.Tx.CustomersByName"
	rows, err := t.tx.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE name = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]model.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (t *Tx) InsertCustomer(ctx context.Context, c *model.Customer) error {
	return insertCustomer(ctx, t.tx, c)
}

func (t *Tx) UpdateCustomer(ctx context.Context, c *model.Customer) error {
	return updateCustomer(ctx, t.tx, c)
}

func (t *Tx) Reservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	const op = "repository.Tx.Reservation"
	row := t.tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id)
	r, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

func (t *Tx) ActiveReservations(ctx context.Context, cabinID uint64) ([]model.Reservation, error) {
	const op = "repository.Tx.ActiveReservations"
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE cabin_id = ? AND status <> ?
		 ORDER BY checkin, id`,
		cabinID, model.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := scanReservations(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (t *Tx) FindExternalReservation(ctx context.Context, m ExternalMatch) (*model.Reservation, error) {
	const op = "repository.Tx.FindExternalReservation"
	const base = `SELECT ` + reservationColumns + ` FROM reservations WHERE cabin_id = ? AND origin = ? AND `

	if m.Code != "" {
		row := t.tx.QueryRowContext(ctx, base+`external_code = ? ORDER BY id LIMIT 1`, m.CabinID, model.OriginExternal, m.Code)
		r, err := scanReservation(row)
		if err == nil {
			return &r, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	var row *sql.Row
	if m.Exact {
		row = t.tx.QueryRowContext(ctx, base+`checkin = ? AND checkout = ? ORDER BY id LIMIT 1`,
			m.CabinID, model.OriginExternal, dateOnly(m.CheckIn), dateOnly(m.CheckOut))
	} else {
		row = t.tx.QueryRowContext(ctx, base+`(checkin = ? OR checkout = ?) ORDER BY id LIMIT 1`,
			m.CabinID, model.OriginExternal, dateOnly(m.CheckIn), dateOnly(m.CheckOut))
	}
	r, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

// InsertReservation inserts r and reads the row back so that generated
// ID and timestamps are populated on r.
func (t *Tx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	const op = "repository.Tx.InsertReservation"
	const q = `INSERT INTO reservations (customer_id, cabin_id, checkin, checkout, payment_method, total_cents,
		deposit_cents, deposit_paid, fully_paid, amount_paid_cents, payment_status, status, origin,
		external_code, notes, checked_in_at, checked_out_at, rating, feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		r.CustomerID, r.CabinID, dateOnly(r.CheckIn), dateOnly(r.CheckOut), r.PaymentMethod, r.TotalCents,
		r.DepositCents, r.DepositPaid, r.FullyPaid, r.AmountPaidCents, r.PaymentStatus, r.Status, r.Origin,
		r.ExternalCode, r.Notes, nullTime(r.CheckedInAt), nullTime(r.CheckedOutAt), r.Rating, r.Feedback,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return t.reload(ctx, uint64(id), r)
}

// UpdateReservation writes every mutable column of r.
func (t *Tx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
	const op = "repository.Tx.UpdateReservation"
	const q = `UPDATE reservations SET customer_id = ?, cabin_id = ?, checkin = ?, checkout = ?, payment_method = ?,
		total_cents = ?, deposit_cents = ?, deposit_paid = ?, fully_paid = ?, amount_paid_cents = ?, payment_status = ?,
		status = ?, origin = ?, external_code = ?, notes = ?, checked_in_at = ?, checked_out_at = ?, rating = ?, feedback = ?
		WHERE id = ?`
	res, err := t.tx.ExecContext(ctx, q,
		r.CustomerID, r.CabinID, dateOnly(r.CheckIn), dateOnly(r.CheckOut), r.PaymentMethod,
		r.TotalCents, r.DepositCents, r.DepositPaid, r.FullyPaid, r.AmountPaidCents, r.PaymentStatus,
		r.Status, r.Origin, r.ExternalCode, r.Notes, nullTime(r.CheckedInAt), nullTime(r.CheckedOutAt), r.Rating, r.Feedback,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports zero affected rows when nothing changed, so only a
		// missing row is an error.
		var exists bool
		if err := t.tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = ?)`, r.ID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return t.reload(ctx, r.ID, r)
}

func (t *Tx) reload(ctx context.Context, id uint64, r *model.Reservation) error {
	row := t.tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	fresh, err := scanReservation(row)
	if err != nil {
		return fmt.Errorf("repository.Tx.reload: %w", err)
	}
	*r = fresh
	return nil
}

func (t *Tx) InsertAudit(ctx context.Context, e *model.AuditEntry) error {
	const op = "repository.Tx.InsertAudit"
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO audit_logs (reservation_id, actor, action, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ReservationID, e.Actor, e.Action, e.Details, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.ID = uint64(id)
	return nil
}
