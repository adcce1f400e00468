package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"freight/internal/domain"
	"freight/internal/repository"
)

var bookingCols = []string{
	"id", "customer_id", "vehicle_type_id", "vehicle_id", "driver_id", "kind", "status",
	"origin_address", "origin_lat", "origin_lng", "origin_city",
	"dest_address", "dest_lat", "dest_lng", "dest_city",
	"cargo_type", "cargo_gross_kg", "cargo_net_kg", "cargo_box_count",
	"total_fare", "discount_amount", "final_fare",
	"pickup_at", "flexible_pickup", "created_at",
	"assigned_at", "accepted_at", "reached_at", "loading_started_at",
	"in_transit_at", "delivered_at", "completed_at", "cancelled_at",
	"cancel_reason", "version",
}

func bookingRow(id string, status domain.BookingStatus, version int64) []driver.Value {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, "customer-1", "vt-standard", nil, nil, "STANDARD", string(status),
		"Industrial Area", 24.7136, 46.6753, "Riyadh",
		"Port Zone", 21.4858, 39.1925, "Jeddah",
		"electronics", 4000.0, 3800.0, 120,
		2425.0, 0.0, 2425.0,
		now, false, now,
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		nil, version,
	}
}

func addRow(rows *sqlmock.Rows, values []driver.Value) *sqlmock.Rows {
	return rows.AddRow(values...)
}

func TestBookingRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	rows := addRow(sqlmock.NewRows(bookingCols), bookingRow("booking-1", domain.BookingStatusPending, 1))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("booking-1").
		WillReturnRows(rows)

	repo := NewBookingRepository(db)
	b, err := repo.GetByID(context.Background(), "booking-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != "booking-1" {
		t.Errorf("expected booking-1, got %s", b.ID)
	}
	if b.Origin.City != "Riyadh" || b.Destination.City != "Jeddah" {
		t.Errorf("expected Riyadh->Jeddah, got %s->%s", b.Origin.City, b.Destination.City)
	}
	if b.Version != 1 {
		t.Errorf("expected version 1, got %d", b.Version)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingRepository_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("booking-missing").
		WillReturnRows(sqlmock.NewRows(bookingCols))

	repo := NewBookingRepository(db)
	_, err = repo.GetByID(context.Background(), "booking-missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookingRepository_UpdateBumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE bookings SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewBookingRepository(db)
	b := &domain.Booking{
		ID:      "booking-1",
		Status:  domain.BookingStatusDriverAssigned,
		Version: 3,
	}
	if err := repo.Update(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Version != 4 {
		t.Errorf("expected local version bumped to 4, got %d", b.Version)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingRepository_UpdateStaleVersionConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// Zero rows affected: the stored version moved on.
	mock.ExpectExec("UPDATE bookings SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewBookingRepository(db)
	b := &domain.Booking{
		ID:      "booking-1",
		Status:  domain.BookingStatusDriverAssigned,
		Version: 3,
	}
	err = repo.Update(context.Background(), b)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if b.Version != 3 {
		t.Errorf("expected local version untouched on conflict, got %d", b.Version)
	}
}

func TestBookingRepository_ListCompletedBetween(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	from := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	rows := sqlmock.NewRows(bookingCols)
	rows = addRow(rows, bookingRow("booking-1", domain.BookingStatusCompleted, 5))
	rows = addRow(rows, bookingRow("booking-2", domain.BookingStatusCompleted, 7))

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(string(domain.BookingStatusCompleted), from, to).
		WillReturnRows(rows)

	repo := NewBookingRepository(db)
	bookings, err := repo.ListCompletedBetween(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(bookings))
	}
	if bookings[0].ID != "booking-1" || bookings[1].ID != "booking-2" {
		t.Errorf("unexpected order: %s, %s", bookings[0].ID, bookings[1].ID)
	}
}
