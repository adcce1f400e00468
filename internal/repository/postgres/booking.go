package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"freight/internal/domain"
	"freight/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `
	id, customer_id, vehicle_type_id, vehicle_id, driver_id, kind, status,
	origin_address, origin_lat, origin_lng, origin_city,
	dest_address, dest_lat, dest_lng, dest_city,
	cargo_type, cargo_gross_kg, cargo_net_kg, cargo_box_count,
	total_fare, discount_amount, final_fare,
	pickup_at, flexible_pickup, created_at,
	assigned_at, accepted_at, reached_at, loading_started_at,
	in_transit_at, delivered_at, completed_at, cancelled_at,
	cancel_reason, version`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29,
			$30, $31, $32, $33, $34, $35)
	`

	_, err := r.q.ExecContext(ctx, query,
		b.ID, b.CustomerID, b.VehicleTypeID,
		nullString(b.VehicleID), nullString(b.DriverID),
		b.Kind, b.Status,
		b.Origin.Address, b.Origin.Lat, b.Origin.Lng, b.Origin.City,
		b.Destination.Address, b.Destination.Lat, b.Destination.Lng, b.Destination.City,
		b.Cargo.Type, b.Cargo.GrossWeightKg, b.Cargo.NetWeightKg, b.Cargo.BoxCount,
		b.TotalFare, b.DiscountAmount, b.FinalFare,
		b.PickupAt, b.FlexiblePickup, b.CreatedAt,
		nullTime(b.AssignedAt), nullTime(b.AcceptedAt), nullTime(b.ReachedAt),
		nullTime(b.LoadingStartedAt), nullTime(b.InTransitAt), nullTime(b.DeliveredAt),
		nullTime(b.CompletedAt), nullTime(b.CancelledAt),
		nullString(b.CancelReason), b.Version,
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// Update saves a booking guarded by its version. The stored row is only
// touched when the version still matches; otherwise ErrConflict is returned
// and nothing changes.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `
		UPDATE bookings SET
			vehicle_id = $1, driver_id = $2, status = $3,
			total_fare = $4, discount_amount = $5, final_fare = $6,
			assigned_at = $7, accepted_at = $8, reached_at = $9,
			loading_started_at = $10, in_transit_at = $11, delivered_at = $12,
			completed_at = $13, cancelled_at = $14, cancel_reason = $15,
			version = version + 1
		WHERE id = $16 AND version = $17
	`

	res, err := r.q.ExecContext(ctx, query,
		nullString(b.VehicleID), nullString(b.DriverID), b.Status,
		b.TotalFare, b.DiscountAmount, b.FinalFare,
		nullTime(b.AssignedAt), nullTime(b.AcceptedAt), nullTime(b.ReachedAt),
		nullTime(b.LoadingStartedAt), nullTime(b.InTransitAt), nullTime(b.DeliveredAt),
		nullTime(b.CompletedAt), nullTime(b.CancelledAt), nullString(b.CancelReason),
		b.ID, b.Version,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrConflict
	}

	b.Version++
	return nil
}

// ListByStatus retrieves bookings in the given status.
func (r *BookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY created_at`
	return r.list(ctx, query, status)
}

// ListByCustomer retrieves a customer's bookings.
func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, customerID)
}

// ListByDriver retrieves a driver's bookings.
func (r *BookingRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, driverID)
}

// ListCompletedBetween retrieves bookings completed within [from, to).
func (r *BookingRepository) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND completed_at >= $2 AND completed_at < $3
		ORDER BY completed_at`
	return r.list(ctx, query, domain.BookingStatusCompleted, from, to)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var vehicleID, driverID, cancelReason sql.NullString
	var assignedAt, acceptedAt, reachedAt, loadingStartedAt sql.NullTime
	var inTransitAt, deliveredAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.CustomerID, &b.VehicleTypeID, &vehicleID, &driverID,
		&b.Kind, &b.Status,
		&b.Origin.Address, &b.Origin.Lat, &b.Origin.Lng, &b.Origin.City,
		&b.Destination.Address, &b.Destination.Lat, &b.Destination.Lng, &b.Destination.City,
		&b.Cargo.Type, &b.Cargo.GrossWeightKg, &b.Cargo.NetWeightKg, &b.Cargo.BoxCount,
		&b.TotalFare, &b.DiscountAmount, &b.FinalFare,
		&b.PickupAt, &b.FlexiblePickup, &b.CreatedAt,
		&assignedAt, &acceptedAt, &reachedAt, &loadingStartedAt,
		&inTransitAt, &deliveredAt, &completedAt, &cancelledAt,
		&cancelReason, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.VehicleID = vehicleID.String
	b.DriverID = driverID.String
	b.CancelReason = cancelReason.String
	b.AssignedAt = assignedAt.Time
	b.AcceptedAt = acceptedAt.Time
	b.ReachedAt = reachedAt.Time
	b.LoadingStartedAt = loadingStartedAt.Time
	b.InTransitAt = inTransitAt.Time
	b.DeliveredAt = deliveredAt.Time
	b.CompletedAt = completedAt.Time
	b.CancelledAt = cancelledAt.Time

	return &b, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
