package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"freight/internal/domain"
	"freight/internal/repository"
)

// RouteUtilizationRepository is a PostgreSQL implementation of
// repository.RouteUtilizationRepository.
type RouteUtilizationRepository struct {
	q Querier
}

// NewRouteUtilizationRepository creates a new PostgreSQL route utilization repository.
func NewRouteUtilizationRepository(db *sql.DB) *RouteUtilizationRepository {
	return &RouteUtilizationRepository{q: db}
}

// NewRouteUtilizationRepositoryWithTx creates a route utilization repository
// using a transaction.
func NewRouteUtilizationRepositoryWithTx(tx *sql.Tx) *RouteUtilizationRepository {
	return &RouteUtilizationRepository{q: tx}
}

const routeUtilColumns = `
	id, origin_city, dest_city, outbound_count, return_count,
	utilization_pct, empty_km_total, empty_km_saved, period_start, period_end`

// GetForPeriod retrieves the row for a directed city pair and period.
func (r *RouteUtilizationRepository) GetForPeriod(ctx context.Context, originCity, destCity string, periodStart time.Time) (*domain.RouteUtilization, error) {
	query := `SELECT ` + routeUtilColumns + `
		FROM route_utilization
		WHERE origin_city = $1 AND dest_city = $2 AND period_start = $3`

	row, err := scanRouteUtil(r.q.QueryRowContext(ctx, query, originCity, destCity, periodStart))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

// Increment folds a delta into the row for the pair/period. The upsert adds
// to the stored counters and recomputes the utilization percentage from the
// new totals, so re-running with fresh bookings increments rather than
// overwrites.
func (r *RouteUtilizationRepository) Increment(ctx context.Context, originCity, destCity string, periodStart, periodEnd time.Time, delta repository.RouteStatsDelta) error {
	query := `
		INSERT INTO route_utilization
			(id, origin_city, dest_city, outbound_count, return_count,
			 utilization_pct, empty_km_total, empty_km_saved, period_start, period_end)
		VALUES ($1, $2, $3, $4, $5,
			CASE WHEN $4 > 0 THEN $5::float / $4 * 100 ELSE 0 END,
			$6, $7, $8, $9)
		ON CONFLICT (origin_city, dest_city, period_start) DO UPDATE SET
			outbound_count = route_utilization.outbound_count + EXCLUDED.outbound_count,
			return_count = route_utilization.return_count + EXCLUDED.return_count,
			utilization_pct = CASE
				WHEN route_utilization.outbound_count + EXCLUDED.outbound_count > 0
				THEN (route_utilization.return_count + EXCLUDED.return_count)::float
					/ (route_utilization.outbound_count + EXCLUDED.outbound_count) * 100
				ELSE 0
			END,
			empty_km_total = route_utilization.empty_km_total + EXCLUDED.empty_km_total,
			empty_km_saved = route_utilization.empty_km_saved + EXCLUDED.empty_km_saved
	`

	_, err := r.q.ExecContext(ctx, query,
		uuid.New().String(), originCity, destCity,
		delta.OutboundCount, delta.ReturnCount,
		delta.EmptyKmTotal, delta.EmptyKmSaved,
		periodStart, periodEnd,
	)
	return err
}

// ListByRoute retrieves all period rows for a directed city pair, newest first.
func (r *RouteUtilizationRepository) ListByRoute(ctx context.Context, originCity, destCity string) ([]*domain.RouteUtilization, error) {
	query := `SELECT ` + routeUtilColumns + `
		FROM route_utilization
		WHERE origin_city = $1 AND dest_city = $2
		ORDER BY period_start DESC`

	rows, err := r.q.QueryContext(ctx, query, originCity, destCity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.RouteUtilization
	for rows.Next() {
		row, err := scanRouteUtil(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GetLatest retrieves the most recent row for a directed city pair.
func (r *RouteUtilizationRepository) GetLatest(ctx context.Context, originCity, destCity string) (*domain.RouteUtilization, error) {
	query := `SELECT ` + routeUtilColumns + `
		FROM route_utilization
		WHERE origin_city = $1 AND dest_city = $2
		ORDER BY period_start DESC
		LIMIT 1`

	row, err := scanRouteUtil(r.q.QueryRowContext(ctx, query, originCity, destCity))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

func scanRouteUtil(row rowScanner) (*domain.RouteUtilization, error) {
	var u domain.RouteUtilization
	err := row.Scan(
		&u.ID, &u.OriginCity, &u.DestCity, &u.OutboundCount, &u.ReturnCount,
		&u.UtilizationPct, &u.EmptyKmTotal, &u.EmptyKmSaved, &u.PeriodStart, &u.PeriodEnd,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
