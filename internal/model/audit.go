package model

import "time"

// AuditEntry records one mutating action on a reservation.  Actor is the
// staff subject from the access token, "public" for self-service requests
// or "import" for background synchronisation.
type AuditEntry struct {
	ID            uint64    // audit_logs.id
	ReservationID *uint64   // audit_logs.reservation_id (nullable)
	Actor         string    // audit_logs.actor
	Action        string    // audit_logs.action
	Details       *string   // audit_logs.details (nullable)
	CreatedAt     time.Time // audit_logs.created_at
}

// Message is a note exchanged with the guest about a reservation.
type Message struct {
	ID            uint64    // messages.id
	ReservationID uint64    // messages.reservation_id
	Sender        string    // messages.sender (guest or staff)
	Body          string    // messages.body
	Read          bool      // messages.is_read
	CreatedAt     time.Time // messages.created_at
}

// ListingMapping binds an external platform listing reference to a cabin.
// Mappings are versioned so that a re-mapping can be audited.
type ListingMapping struct {
	ID         uint64    // listing_mappings.id
	ListingRef string    // listing_mappings.listing_ref
	CabinID    uint64    // listing_mappings.cabin_id
	Version    int       // listing_mappings.version
	CreatedAt  time.Time // listing_mappings.created_at
}
