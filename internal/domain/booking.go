package domain

import "time"

// BookingStatus represents the current status of a freight booking.
type BookingStatus string

const (
	BookingStatusPending        BookingStatus = "PENDING"
	BookingStatusDriverAssigned BookingStatus = "DRIVER_ASSIGNED"
	BookingStatusDriverAccepted BookingStatus = "DRIVER_ACCEPTED"
	BookingStatusDriverReached  BookingStatus = "DRIVER_REACHED"
	BookingStatusLoadingStarted BookingStatus = "LOADING_STARTED"
	BookingStatusInTransit      BookingStatus = "IN_TRANSIT"
	BookingStatusDelivered      BookingStatus = "DELIVERED"
	BookingStatusCompleted      BookingStatus = "COMPLETED"
	BookingStatusCancelled      BookingStatus = "CANCELLED"
	BookingStatusRejected       BookingStatus = "REJECTED"
)

// Terminal reports whether the status is absorbing.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled || s == BookingStatusRejected
}

// BookingKind distinguishes how a load was sourced and priced.
type BookingKind string

const (
	BookingKindStandard   BookingKind = "STANDARD"
	BookingKindBackload   BookingKind = "BACKLOAD"
	BookingKindSharedLoad BookingKind = "SHARED_LOAD"
)

// Location is an embedded pickup or dropoff point. It has no identity of
// its own; a booking exclusively owns its origin and destination.
type Location struct {
	Address string
	Lat     float64
	Lng     float64
	City    string
}

// Cargo describes the load being moved.
type Cargo struct {
	Type          string
	GrossWeightKg float64
	NetWeightKg   float64
	BoxCount      int
}

// Booking represents a freight booking. FinalFare = TotalFare - DiscountAmount
// holds after every mutation. Bookings are never deleted; terminal states are
// retained for audit and reporting.
type Booking struct {
	ID            string
	CustomerID    string
	VehicleTypeID string
	VehicleID     string
	DriverID      string
	Kind          BookingKind
	Status        BookingStatus

	Origin      Location
	Destination Location
	Cargo       Cargo

	TotalFare      float64
	DiscountAmount float64
	FinalFare      float64

	PickupAt       time.Time
	FlexiblePickup bool

	CreatedAt        time.Time
	AssignedAt       time.Time
	AcceptedAt       time.Time
	ReachedAt        time.Time
	LoadingStartedAt time.Time
	InTransitAt      time.Time
	DeliveredAt      time.Time
	CompletedAt      time.Time
	CancelledAt      time.Time
	CancelReason     string

	// Version guards concurrent transitions; a stale save must fail,
	// never silently overwrite.
	Version int64
}
