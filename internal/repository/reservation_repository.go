package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// ReservationRepo provides the read side of reservations: staff listings,
// the calendar view, exports and financial reports.  Writes go through
// Store so that they share a transaction with the availability check.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationFilter narrows List.  Zero values disable a filter.  From and
// To select reservations whose stay intersects [From, To).  A PageSize of
// zero returns every matching row.
type ReservationFilter struct {
	CabinID    uint64
	CustomerID uint64
	Status     string
	Origin     string
	ActiveOnly bool
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// ReservationView is a reservation joined with the customer and cabin
// columns that staff screens display next to it.
type ReservationView struct {
	model.Reservation
	CustomerName  string
	CustomerPhone string
	CustomerEmail *string
	CabinNumber   int
	CabinName     string
}

const reservationViewFrom = ` FROM reservations r
	JOIN customers cu ON cu.id = r.customer_id
	JOIN cabins ca ON ca.id = r.cabin_id`

func reservationViewColumns() string {
	return qualify(reservationColumns, "r") + `, cu.name, cu.phone, cu.email, ca.number, ca.name`
}

func scanReservationView(s rowScanner) (ReservationView, error) {
	var (
		v     ReservationView
		email sql.NullString
	)
	err := scanReservationWith(s, &v.Reservation, &v.CustomerName, &v.CustomerPhone, &email, &v.CabinNumber, &v.CabinName)
	if err != nil {
		return ReservationView{}, err
	}
	v.CustomerEmail = nullString(email)
	return v, nil
}

// List returns one page of reservations matching f, newest stays first,
// together with the total number of matches.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]ReservationView, int64, error) {
	const op = "repository.ReservationRepo.List"

	where := []string{}
	args := []any{}
	if f.CabinID != 0 {
		where = append(where, "r.cabin_id = ?")
		args = append(args, f.CabinID)
	}
	if f.CustomerID != 0 {
		where = append(where, "r.customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, f.Status)
	}
	if f.Origin != "" {
		where = append(where, "r.origin = ?")
		args = append(args, f.Origin)
	}
	if f.ActiveOnly {
		where = append(where, "r.status <> ?")
		args = append(args, model.StatusCancelled)
	}
	if f.From != nil {
		where = append(where, "r.checkout > ?")
		args = append(args, dateOnly(*f.From))
	}
	if f.To != nil {
		where = append(where, "r.checkin < ?")
		args = append(args, dateOnly(*f.To))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+reservationViewFrom+` WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	dataSQL := `SELECT ` + reservationViewColumns() + reservationViewFrom + ` WHERE ` + cond + ` ORDER BY r.checkin DESC, r.id DESC`
	dataArgs := append([]any{}, args...)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		dataSQL += ` LIMIT ? OFFSET ?`
		dataArgs = append(dataArgs, f.PageSize, (page-1)*f.PageSize)
	}

	rows, err := r.db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]ReservationView, 0)
	for rows.Next() {
		v, err := scanReservationView(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return out, total, nil
}

// GetView returns one reservation with its customer and cabin columns.
func (r *ReservationRepo) GetView(ctx context.Context, id uint64) (*ReservationView, error) {
	const op = "repository.ReservationRepo.GetView"
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationViewColumns()+reservationViewFrom+` WHERE r.id = ?`, id)
	v, err := scanReservationView(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &v, nil
}

// Exists reports whether a reservation with the given id is stored.
func (r *ReservationRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = ?)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("repository.ReservationRepo.Exists: %w", err)
	}
	return ok, nil
}

// ActiveByCabin returns the non-cancelled reservations of one cabin in
// check-in order.  It is the read-only counterpart of Tx.ActiveReservations.
func (r *ReservationRepo) ActiveByCabin(ctx context.Context, cabinID uint64) ([]model.Reservation, error) {
	const op = "repository.ReservationRepo.ActiveByCabin"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE cabin_id = ? AND status <> ? ORDER BY checkin, id`,
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

// Calendar returns the non-cancelled reservations whose stay intersects
// [from, to), optionally limited to one cabin.
func (r *ReservationRepo) Calendar(ctx context.Context, from, to time.Time, cabinID uint64) ([]ReservationView, error) {
	views, _, err := r.List(ctx, ReservationFilter{CabinID: cabinID, ActiveOnly: true, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// MonthlyRevenue is one row of the monthly financial report.
type MonthlyRevenue struct {
	Month        int   `json:"month"`
	Reservations int64 `json:"reservations"`
	TotalCents   int64 `json:"total_cents"`
	PaidCents    int64 `json:"paid_cents"`
}

// CabinRevenue is one row of the per-cabin financial report.
type CabinRevenue struct {
	CabinID      uint64 `json:"cabin_id"`
	CabinNumber  int    `json:"cabin_number"`
	CabinName    string `json:"cabin_name"`
	Reservations int64  `json:"reservations"`
	Nights       int64  `json:"nights"`
	TotalCents   int64  `json:"total_cents"`
}

// MonthlyRevenue sums confirmed and completed reservations per check-in
// month of the given year.
func (r *ReservationRepo) MonthlyRevenue(ctx context.Context, year int) ([]MonthlyRevenue, error) {
	const op = "repository.ReservationRepo.MonthlyRevenue"
	const q = `SELECT MONTH(checkin), COUNT(*), COALESCE(SUM(total_cents), 0), COALESCE(SUM(amount_paid_cents), 0)
		FROM reservations
		WHERE status IN (?, ?) AND YEAR(checkin) = ?
		GROUP BY MONTH(checkin)
		ORDER BY MONTH(checkin)`
	rows, err := r.db.QueryContext(ctx, q, model.StatusConfirmed, model.StatusCompleted, year)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]MonthlyRevenue, 0, 12)
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Reservations, &m.TotalCents, &m.PaidCents); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// RevenueByCabin sums confirmed and completed reservations per cabin for
// stays checking in during the given year.
func (r *ReservationRepo) RevenueByCabin(ctx context.Context, year int) ([]CabinRevenue, error) {
	const op = "repository.ReservationRepo.RevenueByCabin"
	const q = `SELECT ca.id, ca.number, ca.name, COUNT(r.id),
			COALESCE(SUM(DATEDIFF(r.checkout, r.checkin)), 0), COALESCE(SUM(r.total_cents), 0)
		FROM cabins ca
		LEFT JOIN reservations r ON r.cabin_id = ca.id AND r.status IN (?, ?) AND YEAR(r.checkin) = ?
		GROUP BY ca.id, ca.number, ca.name
		ORDER BY ca.number`
	rows, err := r.db.QueryContext(ctx, q, model.StatusConfirmed, model.StatusCompleted, year)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]CabinRevenue, 0)
	for rows.Next() {
		var c CabinRevenue
		if err := rows.Scan(&c.CabinID, &c.CabinNumber, &c.CabinName, &c.Reservations, &c.Nights, &c.TotalCents); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// qualify prefixes every column of a comma separated list with alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
