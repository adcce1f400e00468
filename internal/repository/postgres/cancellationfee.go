package postgres

import (
	"context"
	"database/sql"
	"errors"

	"freight/internal/domain"
	"freight/internal/repository"
)

// CancellationFeeRepository is a PostgreSQL implementation of
// repository.CancellationFeeRepository.
type CancellationFeeRepository struct {
	q Querier
}

// NewCancellationFeeRepository creates a new PostgreSQL fee repository.
func NewCancellationFeeRepository(db *sql.DB) *CancellationFeeRepository {
	return &CancellationFeeRepository{q: db}
}

// NewCancellationFeeRepositoryWithTx creates a fee repository using a transaction.
func NewCancellationFeeRepositoryWithTx(tx *sql.Tx) *CancellationFeeRepository {
	return &CancellationFeeRepository{q: tx}
}

// Create persists a fee record.
func (r *CancellationFeeRepository) Create(ctx context.Context, fee *domain.CancellationFee) error {
	query := `
		INSERT INTO cancellation_fees (id, booking_id, reason, cancelled_by, charged_to, amount, note, paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		fee.ID, fee.BookingID, fee.Reason, fee.CancelledBy, fee.ChargedTo,
		fee.Amount, nullString(fee.Note), fee.Paid, fee.CreatedAt,
	)
	return err
}

// GetByBookingID retrieves the fee recorded for a booking.
func (r *CancellationFeeRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.CancellationFee, error) {
	query := `
		SELECT id, booking_id, reason, cancelled_by, charged_to, amount, note, paid, created_at
		FROM cancellation_fees WHERE booking_id = $1
	`

	var fee domain.CancellationFee
	var note sql.NullString
	err := r.q.QueryRowContext(ctx, query, bookingID).Scan(
		&fee.ID, &fee.BookingID, &fee.Reason, &fee.CancelledBy, &fee.ChargedTo,
		&fee.Amount, &note, &fee.Paid, &fee.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	fee.Note = note.String
	return &fee, nil
}

// MarkPaid flips the paid flag for a fee record.
func (r *CancellationFeeRepository) MarkPaid(ctx context.Context, feeID string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE cancellation_fees SET paid = TRUE WHERE id = $1`, feeID)
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
