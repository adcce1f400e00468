package repository

import (
	"context"
	"time"

	"freight/internal/domain"
)

// RouteStatsDelta carries the increments to fold into a route's period row.
type RouteStatsDelta struct {
	OutboundCount int
	ReturnCount   int
	EmptyKmTotal  float64
	EmptyKmSaved  float64
}

// RouteUtilizationRepository defines persistence for route utilization rows.
type RouteUtilizationRepository interface {
	// GetForPeriod retrieves the row for a directed city pair and period.
	GetForPeriod(ctx context.Context, originCity, destCity string, periodStart time.Time) (*domain.RouteUtilization, error)

	// Increment folds a delta into the row for the pair/period, creating it
	// when absent. The stored utilization percentage is recomputed from the
	// incremented counts; existing rows are never overwritten wholesale.
	Increment(ctx context.Context, originCity, destCity string, periodStart, periodEnd time.Time, delta RouteStatsDelta) error

	// ListByRoute retrieves all period rows for a directed city pair,
	// newest first.
	ListByRoute(ctx context.Context, originCity, destCity string) ([]*domain.RouteUtilization, error)

	// GetLatest retrieves the most recent row for a directed city pair.
	GetLatest(ctx context.Context, originCity, destCity string) (*domain.RouteUtilization, error)
}
