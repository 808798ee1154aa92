package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// CabinRepo encapsulates the cabin queries that do not take part in a
// booking transaction: listing, staff edits and calendar configuration.
type CabinRepo struct {
	db *sql.DB
}

// NewCabinRepo constructs a CabinRepo with the provided DB handle.
func NewCabinRepo(db *sql.DB) *CabinRepo {
	return &CabinRepo{db: db}
}

// List returns every cabin ordered by unit number.
func (r *CabinRepo) List(ctx context.Context) ([]model.Cabin, error) {
	const op = "repository.CabinRepo.List"
	rows, err := r.db.QueryContext(ctx, `SELECT `+cabinColumns+` FROM cabins ORDER BY number, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]model.Cabin, 0)
	for rows.Next() {
		c, err := scanCabin(rows)
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

// WithCalendar returns the cabins that have an external feed configured.
func (r *CabinRepo) WithCalendar(ctx context.Context) ([]model.Cabin, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Cabin, 0, len(all))
	for _, c := range all {
		if c.CalendarURL != nil && *c.CalendarURL != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetByID returns ErrNotFound when the cabin does not exist.
func (r *CabinRepo) GetByID(ctx context.Context, id uint64) (*model.Cabin, error) {
	return cabinByID(ctx, r.db, id, false)
}

// Create inserts a new cabin.  A second cabin with the same number yields
// ErrDuplicate.
func (r *CabinRepo) Create(ctx context.Context, c *model.Cabin) error {
	const op = "repository.CabinRepo.Create"
	const q = `INSERT INTO cabins (number, name, description, capacity, weekday_price_cents, weekend_price_cents,
		allows_extra_guests, image_url, calendar_url, full_description, amenities, gallery_urls)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		c.Number, c.Name, c.Description, c.Capacity, c.WeekdayPriceCents, c.WeekendPriceCents,
		c.AllowsExtraGuests, c.ImageURL, c.CalendarURL, c.FullDescription, encodeList(c.Amenities), encodeList(c.GalleryURLs),
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	fresh, err := cabinByID(ctx, r.db, uint64(id), false)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

// Update writes the editable fields of c.  The unit number is identity and
// is never changed here.
func (r *CabinRepo) Update(ctx context.Context, c *model.Cabin) error {
	const op = "repository.CabinRepo.Update"
	const q = `UPDATE cabins SET name = ?, description = ?, capacity = ?, weekday_price_cents = ?, weekend_price_cents = ?,
		allows_extra_guests = ?, image_url = ?, calendar_url = ?, full_description = ?, amenities = ?, gallery_urls = ?
		WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		c.Name, c.Description, c.Capacity, c.WeekdayPriceCents, c.WeekendPriceCents,
		c.AllowsExtraGuests, c.ImageURL, c.CalendarURL, c.FullDescription, encodeList(c.Amenities), encodeList(c.GalleryURLs),
		c.ID,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	fresh, err := cabinByID(ctx, r.db, c.ID, false)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

// UpdatePrices changes the weekday and weekend rates of one cabin.
func (r *CabinRepo) UpdatePrices(ctx context.Context, id uint64, weekdayCents, weekendCents int64) error {
	const op = "repository.CabinRepo.UpdatePrices"
	res, err := r.db.ExecContext(ctx,
		`UPDATE cabins SET weekday_price_cents = ?, weekend_price_cents = ? WHERE id = ?`,
		weekdayCents, weekendCents, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return r.requireRow(ctx, op, res, id)
}

// SetCalendarURL stores the external feed address for a cabin.  An empty
// url clears it.
func (r *CabinRepo) SetCalendarURL(ctx context.Context, id uint64, url string) error {
	const op = "repository.CabinRepo.SetCalendarURL"
	var v any
	if url != "" {
		v = url
	}
	res, err := r.db.ExecContext(ctx, `UPDATE cabins SET calendar_url = ? WHERE id = ?`, v, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return r.requireRow(ctx, op, res, id)
}

func (r *CabinRepo) requireRow(ctx context.Context, op string, res sql.Result, id uint64) error {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cabins WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func cabinByID(ctx context.Context, q queryer, id uint64, lock bool) (*model.Cabin, error) {
	const op = "repository.cabinByID"
	query := `SELECT ` + cabinColumns + ` FROM cabins WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	c, err := scanCabin(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}
