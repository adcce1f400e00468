package repository

import (
	"context"
	"time"

	"freight/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// Update saves a booking using its Version for optimistic concurrency.
	// Returns ErrConflict if the stored version no longer matches.
	Update(ctx context.Context, booking *domain.Booking) error

	// ListByStatus retrieves bookings in the given status.
	ListByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error)

	// ListByCustomer retrieves a customer's bookings.
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Booking, error)

	// ListByDriver retrieves a driver's bookings.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Booking, error)

	// ListCompletedBetween retrieves bookings completed within [from, to).
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*domain.Booking, error)
}

// CancellationFeeRepository defines persistence for cancellation fee records.
type CancellationFeeRepository interface {
	// Create persists a fee record. Fees are immutable once written except
	// for the paid flag.
	Create(ctx context.Context, fee *domain.CancellationFee) error

	// GetByBookingID retrieves the fee recorded for a booking.
	GetByBookingID(ctx context.Context, bookingID string) (*domain.CancellationFee, error)

	// MarkPaid flips the paid flag for a fee record.
	MarkPaid(ctx context.Context, feeID string) error
}
