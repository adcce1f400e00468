package service

import "errors"

var (
	// ErrInvalidTransition is returned when a booking event is not valid
	// from the booking's current status.
	ErrInvalidTransition = errors.New("invalid booking transition")

	// ErrConflict is returned when concurrent transitions on the same
	// booking raced and retries were exhausted.
	ErrConflict = errors.New("booking was modified concurrently")

	// ErrCancellationNotAllowed is returned when the acting party is outside
	// its permitted cancellation window.
	ErrCancellationNotAllowed = errors.New("cancellation not permitted for this party at this time")

	// ErrReassignNotAllowed is returned when a driver change is attempted
	// after the assigned driver has accepted.
	ErrReassignNotAllowed = errors.New("driver reassignment no longer permitted")

	// ErrPickupWindowBlocked is returned when the pickup falls inside a
	// configured blackout window for the city.
	ErrPickupWindowBlocked = errors.New("pickups blocked for this city and time window")

	// ErrBackloadNotOpen is returned when claiming an opportunity that is
	// matched, completed, or past its availability window.
	ErrBackloadNotOpen = errors.New("backload opportunity no longer open")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidVehicleType is returned when the vehicle type is missing or inactive.
	ErrInvalidVehicleType = errors.New("invalid vehicle type")

	// ErrInvalidLocation is returned when coordinates are out of range or
	// the city name is missing.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidCargo is returned when cargo weights or box count are negative.
	ErrInvalidCargo = errors.New("invalid cargo")

	// ErrInvalidBookingKind is returned when the booking kind is unknown.
	ErrInvalidBookingKind = errors.New("invalid booking kind")

	// ErrInvalidPickupTime is returned when the pickup time is missing.
	ErrInvalidPickupTime = errors.New("invalid pickup time")

	// ErrInvalidDiscountRate is returned when a configured discount rate is
	// outside [0,1].
	ErrInvalidDiscountRate = errors.New("discount rate outside [0,1]")

	// ErrAggregationInProgress is returned when another run already holds
	// the window lock.
	ErrAggregationInProgress = errors.New("aggregation already running for window")
)
