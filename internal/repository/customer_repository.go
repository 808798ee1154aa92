package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// CustomerRepo handles staff maintenance of guest records.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo constructs a CustomerRepo with the provided DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// Create inserts a customer and populates its ID and timestamps.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	return insertCustomer(ctx, r.db, c)
}

// Update writes name, phone and email.
func (r *CustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	return updateCustomer(ctx, r.db, c)
}

// GetByID returns ErrNotFound when the customer does not exist.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	return customerByID(ctx, r.db, id)
}

// List returns one page of customers ordered by name.  search, when set,
// filters on name, phone or email containing the term.
func (r *CustomerRepo) List(ctx context.Context, search string, limit, offset int) ([]model.Customer, int, error) {
	const op = "repository.CustomerRepo.List"

	where := ""
	args := []any{}
	if s := strings.TrimSpace(search); s != "" {
		where = ` WHERE name LIKE ? OR phone LIKE ? OR email LIKE ?`
		like := "%" + s + "%"
		args = append(args, like, like, like)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers`+where+` ORDER BY name, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]model.Customer, 0, limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return out, total, nil
}

func customerByID(ctx context.Context, q queryer, id uint64) (*model.Customer, error) {
	const op = "repository.customerByID"
	c, err := scanCustomer(q.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func insertCustomer(ctx context.Context, q queryer, c *model.Customer) error {
	const op = "repository.insertCustomer"
	res, err := q.ExecContext(ctx, `INSERT INTO customers (name, phone, email) VALUES (?, ?, ?)`, c.Name, c.Phone, c.Email)
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
	fresh, err := customerByID(ctx, q, uint64(id))
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

func updateCustomer(ctx context.Context, q queryer, c *model.Customer) error {
	const op = "repository.updateCustomer"
	if _, err := q.ExecContext(ctx, `UPDATE customers SET name = ?, phone = ?, email = ? WHERE id = ?`,
		c.Name, c.Phone, c.Email, c.ID); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	fresh, err := customerByID(ctx, q, c.ID)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}
