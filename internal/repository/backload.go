package repository

import (
	"context"
	"time"

	"freight/internal/domain"
)

// BackloadRepository defines persistence for backload opportunities.
type BackloadRepository interface {
	// Create persists a new opportunity.
	Create(ctx context.Context, opp *domain.BackloadOpportunity) error

	// GetByID retrieves an opportunity by ID.
	GetByID(ctx context.Context, id string) (*domain.BackloadOpportunity, error)

	// Update saves the opportunity's status and matched booking.
	Update(ctx context.Context, opp *domain.BackloadOpportunity) error

	// ListAvailable retrieves opportunities still open for matching at the
	// given time, i.e. AVAILABLE with an unexpired availability window.
	ListAvailable(ctx context.Context, at time.Time) ([]*domain.BackloadOpportunity, error)

	// ListByDriver retrieves a driver's opportunities.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.BackloadOpportunity, error)
}
