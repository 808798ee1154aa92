// Package queue defines the message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

import "fmt"

// Reservation event actions.
const (
	ActionCreated    = "created"
	ActionRequested  = "requested"
	ActionUpdated    = "updated"
	ActionCheckedIn  = "checked_in"
	ActionCheckedOut = "checked_out"
	ActionCancelled  = "cancelled"
	ActionImported   = "imported"
)

// ReservationEvent is published after a reservation mutation commits.  It
// carries enough information for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type ReservationEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	CabinID       uint64 `json:"cabin_id"`
	CustomerID    uint64 `json:"customer_id"`
	Action        string `json:"action"`
	Status        string `json:"status"`
	CheckIn       string `json:"checkin"`
	CheckOut      string `json:"checkout"`
	Actor         string `json:"actor"`
	OccurredAt    string `json:"occurred_at"`
}

// Key is the partitioning key used by brokers that support one.
func (e ReservationEvent) Key() string {
	return fmt.Sprintf("cabin-%d", e.CabinID)
}

// LogLine renders the event as a single human friendly line.
func (e ReservationEvent) LogLine() string {
	return fmt.Sprintf("[%s] Reservation %s | reservation_id=%d | cabin_id=%d | customer_id=%d | status=%s | stay=%s..%s | actor=%q\n",
		e.OccurredAt, e.Action, e.ReservationID, e.CabinID, e.CustomerID, e.Status, e.CheckIn, e.CheckOut, e.Actor)
}
