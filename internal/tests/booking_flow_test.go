package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"freight/internal/domain"
	"freight/internal/events"
	"freight/internal/service"
)

// ──────────────────────────────────────────────
// 6. BOOKING FLOW END TO END
// ──────────────────────────────────────────────

func createRequest() service.CreateBookingRequest {
	return service.CreateBookingRequest{
		CustomerID:    "customer-1",
		VehicleTypeID: "vt-standard",
		Kind:          domain.BookingKindStandard,
		Origin:        riyadh,
		Destination:   jeddah,
		Cargo:         domain.Cargo{Type: "electronics", GrossWeightKg: 4000, NetWeightKg: 3800, BoxCount: 120},
		PickupAt:      time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
	}
}

func TestBooking_CreateStandardRiyadhToJeddah(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	svc := newBookingService(bookingRepo, NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), NewMockConfigRepository(), standardVehicleTypes(), nil)

	b, err := svc.CreateBooking(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.Status != domain.BookingStatusPending {
		t.Errorf("expected PENDING, got %s", b.Status)
	}
	if b.TotalFare != 2425.00 {
		t.Errorf("expected total 2425.00, got %.2f", b.TotalFare)
	}
	// A fresh individual customer is Bronze: no discount.
	if b.DiscountAmount != 0 {
		t.Errorf("expected no discount, got %.2f", b.DiscountAmount)
	}
	if b.FinalFare != 2425.00 {
		t.Errorf("expected final 2425.00, got %.2f", b.FinalFare)
	}
	if b.Version != 1 {
		t.Errorf("expected version 1, got %d", b.Version)
	}
	if bookingRepo.GetBooking(b.ID) == nil {
		t.Error("expected booking persisted")
	}
}

func TestBooking_BackloadDiscountAgainstBaseAmount(t *testing.T) {
	t.Parallel()

	svc := newBookingService(NewMockBookingRepository(), NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), NewMockConfigRepository(), standardVehicleTypes(), nil)

	req := createRequest()
	req.Kind = domain.BookingKindBackload
	req.FlexiblePickup = true

	b, err := svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Fare: 2425 * 0.85 = 2061.25. Discount: 20% of the 2425 base = 485.00.
	if b.TotalFare != 2061.25 {
		t.Errorf("expected total 2061.25, got %.2f", b.TotalFare)
	}
	if b.DiscountAmount != 485.00 {
		t.Errorf("expected discount 485.00, got %.2f", b.DiscountAmount)
	}
	if b.FinalFare != 1576.25 {
		t.Errorf("expected final 1576.25, got %.2f", b.FinalFare)
	}
}

func TestBooking_GoldTierDiscountApplied(t *testing.T) {
	t.Parallel()

	configRepo := NewMockConfigRepository()
	configRepo.SetProfile(&domain.CustomerProfile{
		CustomerID:   "customer-1",
		Class:        domain.CustomerClassCommercial,
		BookingCount: 60,
		TotalSpent:   120000,
	})

	svc := newBookingService(NewMockBookingRepository(), NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), configRepo, standardVehicleTypes(), nil)

	b, err := svc.CreateBooking(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Gold: 10% of the 2425 base amount.
	if b.DiscountAmount != 242.50 {
		t.Errorf("expected discount 242.50, got %.2f", b.DiscountAmount)
	}
	if b.FinalFare != 2182.50 {
		t.Errorf("expected final 2182.50, got %.2f", b.FinalFare)
	}
}

func TestBooking_CreateRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	svc := newBookingService(bookingRepo, NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), NewMockConfigRepository(), standardVehicleTypes(), nil)

	cases := []struct {
		name    string
		mutate  func(*service.CreateBookingRequest)
		wantErr error
	}{
		{"missing customer", func(r *service.CreateBookingRequest) { r.CustomerID = "" }, service.ErrInvalidCustomerID},
		{"unknown vehicle type", func(r *service.CreateBookingRequest) { r.VehicleTypeID = "vt-unknown" }, service.ErrInvalidVehicleType},
		{"bad kind", func(r *service.CreateBookingRequest) { r.Kind = "EXPRESS" }, service.ErrInvalidBookingKind},
		{"missing origin city", func(r *service.CreateBookingRequest) { r.Origin.City = "" }, service.ErrInvalidLocation},
		{"latitude out of range", func(r *service.CreateBookingRequest) { r.Destination.Lat = 91 }, service.ErrInvalidLocation},
		{"negative cargo weight", func(r *service.CreateBookingRequest) { r.Cargo.GrossWeightKg = -1 }, service.ErrInvalidCargo},
		{"zero pickup time", func(r *service.CreateBookingRequest) { r.PickupAt = time.Time{} }, service.ErrInvalidPickupTime},
		{"utilization out of range", func(r *service.CreateBookingRequest) { r.CapacityUtilization = 1.2 }, service.ErrInvalidDiscountRate},
	}

	for _, tc := range cases {
		req := createRequest()
		tc.mutate(&req)
		_, err := svc.CreateBooking(context.Background(), req)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}

	// Nothing may be written on rejection.
	if bookingRepo.CreateCallCount != 0 {
		t.Errorf("expected no writes, got %d", bookingRepo.CreateCallCount)
	}
}

func TestBooking_CreateBlockedByBANWindow(t *testing.T) {
	t.Parallel()

	configRepo := NewMockConfigRepository()
	configRepo.AddBANWindow(&domain.BANWindow{
		ID:          "ban-1",
		City:        "Riyadh",
		Day:         time.Tuesday, // 2025-06-03
		StartMinute: 8 * 60,
		EndMinute:   10 * 60,
		Active:      true,
	})

	bookingRepo := NewMockBookingRepository()
	svc := newBookingService(bookingRepo, NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), configRepo, standardVehicleTypes(), nil)

	_, err := svc.CreateBooking(context.Background(), createRequest())
	if !errors.Is(err, service.ErrPickupWindowBlocked) {
		t.Fatalf("expected ErrPickupWindowBlocked, got %v", err)
	}
	if bookingRepo.CreateCallCount != 0 {
		t.Error("expected nothing persisted for blocked pickup")
	}

	// The same booking outside the window goes through.
	req := createRequest()
	req.PickupAt = time.Date(2025, 6, 3, 13, 0, 0, 0, time.UTC)
	if _, err := svc.CreateBooking(context.Background(), req); err != nil {
		t.Fatalf("unexpected error outside window: %v", err)
	}
}

func TestBooking_CancelPersistsFeeAndPublishesEvents(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	feeRepo := NewMockCancellationFeeRepository()
	publisher := NewMockPublisher()
	svc := newBookingService(bookingRepo, feeRepo,
		NewMockBackloadRepository(), NewMockConfigRepository(), standardVehicleTypes(), publisher)

	// Late cancel with no driver assigned: 100 fee.
	bookingRepo.AddBooking(&domain.Booking{
		ID:         "booking-1",
		CustomerID: "customer-1",
		Status:     domain.BookingStatusPending,
		CreatedAt:  time.Now().UTC().Add(-45 * time.Minute),
		Version:    1,
	})

	b, fee, err := svc.Cancel(context.Background(), service.CancelRequest{
		BookingID:   "booking-1",
		Reason:      domain.ReasonCustomerChangedMind,
		CancelledBy: domain.CancelPartyCustomer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != domain.BookingStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", b.Status)
	}
	if fee == nil || fee.Amount != 100 {
		t.Fatalf("expected 100 fee, got %+v", fee)
	}
	if feeRepo.GetFee("booking-1") == nil {
		t.Error("expected fee persisted")
	}

	if got := len(publisher.EventsFor(events.KeyFeeCharged)); got != 1 {
		t.Errorf("expected 1 fee.charged event, got %d", got)
	}
	if got := len(publisher.EventsFor(events.KeyBookingCancelled)); got != 1 {
		t.Errorf("expected 1 booking.cancelled event, got %d", got)
	}
}

func TestBooking_CustomerCannotCancelLateWithDriverEnRoute(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	svc := newBookingService(bookingRepo, NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), NewMockConfigRepository(), standardVehicleTypes(), nil)

	bookingRepo.AddBooking(&domain.Booking{
		ID:         "booking-1",
		CustomerID: "customer-1",
		DriverID:   "driver-1",
		Status:     domain.BookingStatusDriverAccepted,
		CreatedAt:  time.Now().UTC().Add(-2 * time.Hour),
		Version:    1,
	})

	_, _, err := svc.Cancel(context.Background(), service.CancelRequest{
		BookingID:   "booking-1",
		Reason:      domain.ReasonCustomerChangedMind,
		CancelledBy: domain.CancelPartyCustomer,
	})
	if !errors.Is(err, service.ErrCancellationNotAllowed) {
		t.Fatalf("expected ErrCancellationNotAllowed, got %v", err)
	}

	// The gate must reject before any mutation.
	stored := bookingRepo.GetBooking("booking-1")
	if stored.Status != domain.BookingStatusDriverAccepted {
		t.Errorf("expected booking unchanged, got %s", stored.Status)
	}
}

func TestBooking_CompletionOpensReturnOpportunityAndPublishes(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	backloadRepo := NewMockBackloadRepository()
	configRepo := NewMockConfigRepository()
	publisher := NewMockPublisher()
	svc := newBookingService(bookingRepo, NewMockCancellationFeeRepository(),
		backloadRepo, configRepo, standardVehicleTypes(), publisher)

	bookingRepo.AddBooking(&domain.Booking{
		ID:            "booking-1",
		CustomerID:    "customer-1",
		DriverID:      "driver-1",
		VehicleID:     "vehicle-1",
		VehicleTypeID: "vt-standard",
		Kind:          domain.BookingKindStandard,
		Status:        domain.BookingStatusDelivered,
		Origin:        riyadh,
		Destination:   jeddah,
		FinalFare:     2425,
		Version:       1,
	})

	b, err := svc.Transition(context.Background(), service.TransitionRequest{
		BookingID: "booking-1",
		Event:     service.EventComplete,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != domain.BookingStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", b.Status)
	}

	// Customer activity counters move.
	profile, _ := configRepo.CustomerProfile(context.Background(), "customer-1")
	if profile.BookingCount != 1 || profile.TotalSpent != 2425 {
		t.Errorf("expected profile updated, got count=%d spent=%.2f", profile.BookingCount, profile.TotalSpent)
	}

	// The freed vehicle's return leg is offered for matching.
	opps, _ := backloadRepo.ListByDriver(context.Background(), "driver-1")
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	opp := opps[0]
	if opp.FromCity != "Jeddah" || opp.ToCity != "Riyadh" {
		t.Errorf("expected Jeddah->Riyadh return leg, got %s->%s", opp.FromCity, opp.ToCity)
	}
	if opp.Status != domain.BackloadStatusAvailable {
		t.Errorf("expected AVAILABLE, got %s", opp.Status)
	}
	// Return priced as a backload: 2425 * 0.85.
	if opp.EstimatedPrice != 2061.25 {
		t.Errorf("expected estimated price 2061.25, got %.2f", opp.EstimatedPrice)
	}

	if got := len(publisher.EventsFor(events.KeyBookingCompleted)); got != 1 {
		t.Errorf("expected 1 booking.completed event, got %d", got)
	}
}

func TestBooking_BackloadBookingClaimsOpportunity(t *testing.T) {
	t.Parallel()

	backloadRepo := NewMockBackloadRepository()
	svc := newBookingService(NewMockBookingRepository(), NewMockCancellationFeeRepository(),
		backloadRepo, NewMockConfigRepository(), standardVehicleTypes(), nil)

	backloadRepo.AddOpportunity(&domain.BackloadOpportunity{
		ID:             "opp-1",
		DriverID:       "driver-1",
		VehicleID:      "vehicle-1",
		FromCity:       "Jeddah",
		ToCity:         "Riyadh",
		AvailableFrom:  time.Now().UTC().Add(-time.Hour),
		AvailableUntil: time.Now().UTC().Add(12 * time.Hour),
		Status:         domain.BackloadStatusAvailable,
	})

	req := createRequest()
	req.Kind = domain.BookingKindBackload
	req.Origin = jeddah
	req.Destination = riyadh
	req.OpportunityID = "opp-1"

	b, err := svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opp := backloadRepo.GetOpportunity("opp-1")
	if opp.Status != domain.BackloadStatusMatched {
		t.Errorf("expected MATCHED, got %s", opp.Status)
	}
	if opp.MatchedBookingID != b.ID {
		t.Errorf("expected matched booking %s, got %s", b.ID, opp.MatchedBookingID)
	}
}
