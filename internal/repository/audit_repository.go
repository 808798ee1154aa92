package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// AuditRepo reads the audit trail written by booking operations.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo constructs an AuditRepo with the provided DB handle.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// ListByReservation returns the audit entries of one reservation, oldest first.
func (r *AuditRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.AuditEntry, error) {
	const op = "repository.AuditRepo.ListByReservation"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reservation_id, actor, action, details, created_at
		 FROM audit_logs WHERE reservation_id = ? ORDER BY created_at, id`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]model.AuditEntry, 0)
	for rows.Next() {
		var (
			e       model.AuditEntry
			resID   sql.NullInt64
			details sql.NullString
		)
		if err := rows.Scan(&e.ID, &resID, &e.Actor, &e.Action, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if resID.Valid {
			id := uint64(resID.Int64)
			e.ReservationID = &id
		}
		e.Details = nullString(details)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
