package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// MessageRepo stores the notes exchanged with guests about a reservation.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo constructs a MessageRepo with the provided DB handle.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Create inserts a message.  The reservation must exist; a missing one
// yields ErrNotFound.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	const op = "repository.MessageRepo.Create"

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = ?)`, m.ReservationID).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (reservation_id, sender, body, is_read) VALUES (?, ?, ?, ?)`,
		m.ReservationID, m.Sender, m.Body, m.Read)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.ID = uint64(id)
	if err := r.db.QueryRowContext(ctx, `SELECT created_at FROM messages WHERE id = ?`, m.ID).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListByReservation returns the messages of a reservation, oldest first.
func (r *MessageRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.Message, error) {
	const op = "repository.MessageRepo.ListByReservation"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reservation_id, sender, body, is_read, created_at
		 FROM messages WHERE reservation_id = ? ORDER BY created_at, id`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ReservationID, &m.Sender, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// MarkRead flags a message as read.
func (r *MessageRepo) MarkRead(ctx context.Context, id uint64) error {
	const op = "repository.MessageRepo.MarkRead"
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
