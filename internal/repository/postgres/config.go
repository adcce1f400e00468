package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"freight/internal/domain"
	"freight/internal/repository"
)

// ConfigRepository is a PostgreSQL implementation of repository.ConfigRepository.
type ConfigRepository struct {
	q Querier
}

// NewConfigRepository creates a new PostgreSQL config repository.
func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{q: db}
}

// ActiveSurgeRules retrieves the active surge rules for a city.
func (r *ConfigRepository) ActiveSurgeRules(ctx context.Context, city string) ([]*domain.SurgeRule, error) {
	query := `
		SELECT id, city, day_of_week, start_minute, end_minute, multiplier, active
		FROM surge_rules
		WHERE city = $1 AND active = TRUE
	`

	rows, err := r.q.QueryContext(ctx, query, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.SurgeRule
	for rows.Next() {
		var rule domain.SurgeRule
		var day int
		if err := rows.Scan(&rule.ID, &rule.City, &day, &rule.StartMinute, &rule.EndMinute, &rule.Multiplier, &rule.Active); err != nil {
			return nil, err
		}
		rule.Day = time.Weekday(day)
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

// SaveSurgeRule creates or replaces a surge rule.
func (r *ConfigRepository) SaveSurgeRule(ctx context.Context, rule *domain.SurgeRule) error {
	query := `
		INSERT INTO surge_rules (id, city, day_of_week, start_minute, end_minute, multiplier, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			city = EXCLUDED.city,
			day_of_week = EXCLUDED.day_of_week,
			start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			multiplier = EXCLUDED.multiplier,
			active = EXCLUDED.active
	`

	_, err := r.q.ExecContext(ctx, query,
		rule.ID, rule.City, int(rule.Day), rule.StartMinute, rule.EndMinute, rule.Multiplier, rule.Active,
	)
	return err
}

// SetSurgeRuleActive activates or deactivates a surge rule.
func (r *ConfigRepository) SetSurgeRuleActive(ctx context.Context, ruleID string, active bool) error {
	res, err := r.q.ExecContext(ctx, `UPDATE surge_rules SET active = $1 WHERE id = $2`, active, ruleID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// FeeConfig retrieves the current cancellation fee configuration. Defaults
// apply when no row has been configured.
func (r *ConfigRepository) FeeConfig(ctx context.Context) (domain.FeeConfig, error) {
	query := `
		SELECT free_cancel_minutes, driver_free_wait_minutes, no_show_fee,
			late_cancel_fee, driver_wait_expired_fee, early_driver_cancel_rate
		FROM fee_config
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var freeCancelMin, freeWaitMin int
	cfg := domain.DefaultFeeConfig()
	err := r.q.QueryRowContext(ctx, query).Scan(
		&freeCancelMin, &freeWaitMin, &cfg.NoShowFee,
		&cfg.LateCancelFee, &cfg.DriverWaitExpiredFee, &cfg.EarlyDriverCancelRate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultFeeConfig(), nil
		}
		return domain.FeeConfig{}, err
	}

	cfg.FreeCancelWindow = time.Duration(freeCancelMin) * time.Minute
	cfg.DriverFreeWaitPeriod = time.Duration(freeWaitMin) * time.Minute
	return cfg, nil
}

// SaveFeeConfig stores a new fee configuration revision. Readers pick up
// the most recent row, so older revisions stay around as history.
func (r *ConfigRepository) SaveFeeConfig(ctx context.Context, cfg domain.FeeConfig) error {
	query := `
		INSERT INTO fee_config (free_cancel_minutes, driver_free_wait_minutes, no_show_fee,
			late_cancel_fee, driver_wait_expired_fee, early_driver_cancel_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err := r.q.ExecContext(ctx, query,
		int(cfg.FreeCancelWindow/time.Minute), int(cfg.DriverFreeWaitPeriod/time.Minute),
		cfg.NoShowFee, cfg.LateCancelFee, cfg.DriverWaitExpiredFee, cfg.EarlyDriverCancelRate,
	)
	return err
}

// DiscountConfig retrieves the current discount configuration. Defaults
// apply when no row has been configured.
func (r *ConfigRepository) DiscountConfig(ctx context.Context) (domain.DiscountConfig, error) {
	query := `
		SELECT backload_rate, flexible_pickup_bonus, shared_load_floor_rate,
			shared_load_range_rate, silver_rate, gold_rate,
			silver_booking_count, silver_spend_threshold,
			gold_booking_count, gold_spend_threshold
		FROM discount_config
		ORDER BY updated_at DESC
		LIMIT 1
	`

	cfg := domain.DefaultDiscountConfig()
	err := r.q.QueryRowContext(ctx, query).Scan(
		&cfg.BackloadRate, &cfg.FlexiblePickupBonus, &cfg.SharedLoadFloorRate,
		&cfg.SharedLoadRangeRate, &cfg.SilverRate, &cfg.GoldRate,
		&cfg.SilverBookingCount, &cfg.SilverSpendThreshold,
		&cfg.GoldBookingCount, &cfg.GoldSpendThreshold,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultDiscountConfig(), nil
		}
		return domain.DiscountConfig{}, err
	}
	return cfg, nil
}

// SaveDiscountConfig stores a new discount configuration revision.
func (r *ConfigRepository) SaveDiscountConfig(ctx context.Context, cfg domain.DiscountConfig) error {
	query := `
		INSERT INTO discount_config (backload_rate, flexible_pickup_bonus, shared_load_floor_rate,
			shared_load_range_rate, silver_rate, gold_rate,
			silver_booking_count, silver_spend_threshold,
			gold_booking_count, gold_spend_threshold, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`

	_, err := r.q.ExecContext(ctx, query,
		cfg.BackloadRate, cfg.FlexiblePickupBonus, cfg.SharedLoadFloorRate,
		cfg.SharedLoadRangeRate, cfg.SilverRate, cfg.GoldRate,
		cfg.SilverBookingCount, cfg.SilverSpendThreshold,
		cfg.GoldBookingCount, cfg.GoldSpendThreshold,
	)
	return err
}

// ActiveBANWindows retrieves the active blackout windows for a city.
func (r *ConfigRepository) ActiveBANWindows(ctx context.Context, city string) ([]*domain.BANWindow, error) {
	query := `
		SELECT id, city, day_of_week, start_minute, end_minute, active
		FROM ban_windows
		WHERE city = $1 AND active = TRUE
	`

	rows, err := r.q.QueryContext(ctx, query, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []*domain.BANWindow
	for rows.Next() {
		var w domain.BANWindow
		var day int
		if err := rows.Scan(&w.ID, &w.City, &day, &w.StartMinute, &w.EndMinute, &w.Active); err != nil {
			return nil, err
		}
		w.Day = time.Weekday(day)
		windows = append(windows, &w)
	}
	return windows, rows.Err()
}

// CustomerProfile retrieves a customer's cumulative activity profile. An
// unknown customer gets a fresh INDIVIDUAL profile rather than an error.
func (r *ConfigRepository) CustomerProfile(ctx context.Context, customerID string) (*domain.CustomerProfile, error) {
	query := `
		SELECT customer_id, class, booking_count, total_spent
		FROM customer_profiles
		WHERE customer_id = $1
	`

	var p domain.CustomerProfile
	err := r.q.QueryRowContext(ctx, query, customerID).Scan(
		&p.CustomerID, &p.Class, &p.BookingCount, &p.TotalSpent,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.CustomerProfile{
				CustomerID: customerID,
				Class:      domain.CustomerClassIndividual,
			}, nil
		}
		return nil, err
	}
	return &p, nil
}

// RecordCompletedBooking folds a completed booking's spend into the
// customer's profile counters.
func (r *ConfigRepository) RecordCompletedBooking(ctx context.Context, customerID string, spend float64) error {
	query := `
		INSERT INTO customer_profiles (customer_id, class, booking_count, total_spent)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (customer_id) DO UPDATE SET
			booking_count = customer_profiles.booking_count + 1,
			total_spent = customer_profiles.total_spent + EXCLUDED.total_spent
	`

	_, err := r.q.ExecContext(ctx, query, customerID, domain.CustomerClassIndividual, spend)
	return err
}

// VehicleTypeRepository is a PostgreSQL implementation of
// repository.VehicleTypeRepository.
type VehicleTypeRepository struct {
	q Querier
}

// NewVehicleTypeRepository creates a new PostgreSQL vehicle type repository.
func NewVehicleTypeRepository(db *sql.DB) *VehicleTypeRepository {
	return &VehicleTypeRepository{q: db}
}

// GetByID retrieves a vehicle type by ID.
func (r *VehicleTypeRepository) GetByID(ctx context.Context, id string) (*domain.VehicleType, error) {
	query := `
		SELECT id, name, base_fare, per_km_rate, capacity_kg, active
		FROM vehicle_types
		WHERE id = $1
	`

	var vt domain.VehicleType
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&vt.ID, &vt.Name, &vt.BaseFare, &vt.PerKmRate, &vt.CapacityKg, &vt.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &vt, nil
}
