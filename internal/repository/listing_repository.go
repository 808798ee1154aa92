package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// ListingRepo reads and maintains the mapping from external platform
// listing references to cabins.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo constructs a ListingRepo with the provided DB handle.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// List returns every mapping in resolution order (id ascending).
func (r *ListingRepo) List(ctx context.Context) ([]model.ListingMapping, error) {
	const op = "repository.ListingRepo.List"
	rows, err := r.db.QueryContext(ctx, `SELECT id, listing_ref, cabin_id, version, created_at FROM listing_mappings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]model.ListingMapping, 0)
	for rows.Next() {
		var m model.ListingMapping
		if err := rows.Scan(&m.ID, &m.ListingRef, &m.CabinID, &m.Version, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Upsert points ref at cabinID.  Re-pointing an existing ref bumps its
// version.
func (r *ListingRepo) Upsert(ctx context.Context, ref string, cabinID uint64) error {
	const op = "repository.ListingRepo.Upsert"
	const q = `INSERT INTO listing_mappings (listing_ref, cabin_id, version) VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE
			version = IF(cabin_id = VALUES(cabin_id), version, version + 1),
			cabin_id = VALUES(cabin_id)`
	if _, err := r.db.ExecContext(ctx, q, ref, cabinID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
