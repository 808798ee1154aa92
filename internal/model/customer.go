package model

import "time"

// Customer is a guest.  Customers are created on their first booking,
// either by staff, by a public request (deduplicated by email) or by an
// external import (deduplicated by name and phone).
type Customer struct {
	ID        uint64    // customers.id
	Name      string    // customers.name
	Phone     string    // customers.phone
	Email     *string   // customers.email (nullable)
	CreatedAt time.Time // customers.created_at
	UpdatedAt time.Time // customers.updated_at
}
