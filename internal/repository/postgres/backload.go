package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"freight/internal/domain"
	"freight/internal/repository"
)

// BackloadRepository is a PostgreSQL implementation of repository.BackloadRepository.
type BackloadRepository struct {
	q Querier
}

// NewBackloadRepository creates a new PostgreSQL backload repository.
func NewBackloadRepository(db *sql.DB) *BackloadRepository {
	return &BackloadRepository{q: db}
}

// NewBackloadRepositoryWithTx creates a backload repository using a transaction.
func NewBackloadRepositoryWithTx(tx *sql.Tx) *BackloadRepository {
	return &BackloadRepository{q: tx}
}

const backloadColumns = `
	id, vehicle_id, driver_id, from_city, to_city,
	available_from, available_until, capacity_kg, estimated_price,
	status, matched_booking_id, created_at`

// Create persists a new opportunity.
func (r *BackloadRepository) Create(ctx context.Context, opp *domain.BackloadOpportunity) error {
	query := `
		INSERT INTO backload_opportunities (` + backloadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		opp.ID, opp.VehicleID, opp.DriverID, opp.FromCity, opp.ToCity,
		opp.AvailableFrom, opp.AvailableUntil, opp.CapacityKg, opp.EstimatedPrice,
		opp.Status, nullString(opp.MatchedBookingID), opp.CreatedAt,
	)
	return err
}

// GetByID retrieves an opportunity by ID.
func (r *BackloadRepository) GetByID(ctx context.Context, id string) (*domain.BackloadOpportunity, error) {
	query := `SELECT ` + backloadColumns + ` FROM backload_opportunities WHERE id = $1`

	opp, err := scanBackload(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return opp, nil
}

// Update saves the opportunity's status and matched booking.
func (r *BackloadRepository) Update(ctx context.Context, opp *domain.BackloadOpportunity) error {
	query := `
		UPDATE backload_opportunities
		SET status = $1, matched_booking_id = $2
		WHERE id = $3
	`

	res, err := r.q.ExecContext(ctx, query, opp.Status, nullString(opp.MatchedBookingID), opp.ID)
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

// ListAvailable retrieves opportunities still open for matching at the given time.
func (r *BackloadRepository) ListAvailable(ctx context.Context, at time.Time) ([]*domain.BackloadOpportunity, error) {
	query := `SELECT ` + backloadColumns + `
		FROM backload_opportunities
		WHERE status = $1 AND available_until > $2
		ORDER BY available_from`
	return r.list(ctx, query, domain.BackloadStatusAvailable, at)
}

// ListByDriver retrieves a driver's opportunities.
func (r *BackloadRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.BackloadOpportunity, error) {
	query := `SELECT ` + backloadColumns + `
		FROM backload_opportunities
		WHERE driver_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, driverID)
}

func (r *BackloadRepository) list(ctx context.Context, query string, args ...any) ([]*domain.BackloadOpportunity, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opps []*domain.BackloadOpportunity
	for rows.Next() {
		opp, err := scanBackload(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, opp)
	}
	return opps, rows.Err()
}

func scanBackload(row rowScanner) (*domain.BackloadOpportunity, error) {
	var opp domain.BackloadOpportunity
	var matchedBookingID sql.NullString

	err := row.Scan(
		&opp.ID, &opp.VehicleID, &opp.DriverID, &opp.FromCity, &opp.ToCity,
		&opp.AvailableFrom, &opp.AvailableUntil, &opp.CapacityKg, &opp.EstimatedPrice,
		&opp.Status, &matchedBookingID, &opp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	opp.MatchedBookingID = matchedBookingID.String
	return &opp, nil
}
