package domain

import "time"

// BackloadStatus represents the lifecycle of a backload opportunity.
type BackloadStatus string

const (
	BackloadStatusAvailable BackloadStatus = "AVAILABLE"
	BackloadStatusMatched   BackloadStatus = "MATCHED"
	BackloadStatusCompleted BackloadStatus = "COMPLETED"
)

// BackloadOpportunity is an empty return leg offered for matching after a
// driver delivers an outbound load. An opportunity left AVAILABLE expires
// implicitly once its availability window elapses; nothing deletes it.
type BackloadOpportunity struct {
	ID               string
	VehicleID        string
	DriverID         string
	FromCity         string
	ToCity           string
	AvailableFrom    time.Time
	AvailableUntil   time.Time
	CapacityKg       float64
	EstimatedPrice   float64
	Status           BackloadStatus
	MatchedBookingID string
	CreatedAt        time.Time
}

// Open reports whether the opportunity can still be matched at the given time.
func (o *BackloadOpportunity) Open(now time.Time) bool {
	return o.Status == BackloadStatusAvailable && now.Before(o.AvailableUntil)
}
