package events

import "time"

// Routing keys on the dispatch topic exchange.
const (
	Exchange = "dispatch_topic"

	KeyBookingCompleted = "booking.completed"
	KeyBookingCancelled = "booking.cancelled"
	KeyFeeCharged       = "fee.charged"
)

// BookingCompleted is emitted when a booking reaches COMPLETED. Delivery is
// at-least-once; consumers must tolerate duplicates.
type BookingCompleted struct {
	BookingID   string    `json:"booking_id"`
	CustomerID  string    `json:"customer_id"`
	DriverID    string    `json:"driver_id"`
	VehicleID   string    `json:"vehicle_id"`
	OriginCity  string    `json:"origin_city"`
	DestCity    string    `json:"dest_city"`
	FinalFare   float64   `json:"final_fare"`
	CompletedAt time.Time `json:"completed_at"`
}

// BookingCancelled is emitted when a booking is cancelled or rejected.
type BookingCancelled struct {
	BookingID   string    `json:"booking_id"`
	CustomerID  string    `json:"customer_id"`
	DriverID    string    `json:"driver_id,omitempty"`
	Reason      string    `json:"reason"`
	CancelledBy string    `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// FeeCharged is emitted when a cancellation fee decision produces a fee.
type FeeCharged struct {
	FeeID     string    `json:"fee_id"`
	BookingID string    `json:"booking_id"`
	ChargedTo string    `json:"charged_to"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
