package repository

import (
	"context"

	"freight/internal/domain"
)

// ConfigRepository defines read/administer access to pricing and policy
// configuration. The booking flow only reads; mutation happens through the
// admin surface.
type ConfigRepository interface {
	// ActiveSurgeRules retrieves the active surge rules for a city.
	ActiveSurgeRules(ctx context.Context, city string) ([]*domain.SurgeRule, error)

	// SaveSurgeRule creates or replaces a surge rule.
	SaveSurgeRule(ctx context.Context, rule *domain.SurgeRule) error

	// SetSurgeRuleActive activates or deactivates a surge rule.
	SetSurgeRuleActive(ctx context.Context, ruleID string, active bool) error

	// FeeConfig retrieves the current cancellation fee configuration.
	FeeConfig(ctx context.Context) (domain.FeeConfig, error)

	// SaveFeeConfig stores a new fee configuration revision.
	SaveFeeConfig(ctx context.Context, cfg domain.FeeConfig) error

	// DiscountConfig retrieves the current discount configuration.
	DiscountConfig(ctx context.Context) (domain.DiscountConfig, error)

	// SaveDiscountConfig stores a new discount configuration revision.
	SaveDiscountConfig(ctx context.Context, cfg domain.DiscountConfig) error

	// ActiveBANWindows retrieves the active blackout windows for a city.
	ActiveBANWindows(ctx context.Context, city string) ([]*domain.BANWindow, error)

	// CustomerProfile retrieves a customer's cumulative activity profile.
	CustomerProfile(ctx context.Context, customerID string) (*domain.CustomerProfile, error)

	// RecordCompletedBooking folds a completed booking's spend into the
	// customer's profile counters.
	RecordCompletedBooking(ctx context.Context, customerID string, spend float64) error
}

// VehicleTypeRepository defines read access to vehicle type pricing.
type VehicleTypeRepository interface {
	// GetByID retrieves a vehicle type by ID.
	GetByID(ctx context.Context, id string) (*domain.VehicleType, error)
}
