package tests

import (
	"testing"
	"time"

	"freight/internal/domain"
	"freight/internal/service"
)

// ──────────────────────────────────────────────
// 2. CANCELLATION FEE POLICY
// ──────────────────────────────────────────────

var feePolicyNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func feeInput(b *domain.Booking, reason domain.CancelReason, by domain.CancelParty, class domain.CustomerClass) service.FeeInput {
	return service.FeeInput{
		Booking:         b,
		Reason:          reason,
		CancelledBy:     by,
		CustomerClass:   class,
		DriverReachedAt: b.ReachedAt,
		Now:             feePolicyNow,
	}
}

func TestFeePolicy_CommercialNoShowCharges250(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		CreatedAt: feePolicyNow.Add(-2 * time.Hour),
		DriverID:  "driver-1",
		ReachedAt: feePolicyNow.Add(-30 * time.Minute),
	}

	fee := calc.Evaluate(cfg, feeInput(b, domain.ReasonCustomerNoShow, domain.CancelPartyDriver, domain.CustomerClassCommercial))
	if fee == nil {
		t.Fatal("expected a fee, got nil")
	}
	if fee.Amount != 250 {
		t.Errorf("expected fee 250, got %.2f", fee.Amount)
	}
	if fee.ChargedTo != domain.CancelPartyCustomer {
		t.Errorf("expected fee charged to customer, got %s", fee.ChargedTo)
	}
	if fee.BookingID != "booking-1" {
		t.Errorf("expected booking ID on fee, got %q", fee.BookingID)
	}
}

func TestFeePolicy_SupplierSlowLoadingCharges250(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		CreatedAt: feePolicyNow.Add(-3 * time.Hour),
		DriverID:  "driver-1",
	}

	fee := calc.Evaluate(cfg, feeInput(b, domain.ReasonSlowLoading, domain.CancelPartyDriver, domain.CustomerClassSupplier))
	if fee == nil {
		t.Fatal("expected a fee, got nil")
	}
	if fee.Amount != 250 {
		t.Errorf("expected fee 250, got %.2f", fee.Amount)
	}
}

func TestFeePolicy_IndividualNoShowIsFree(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		CreatedAt: feePolicyNow.Add(-2 * time.Hour),
		DriverID:  "driver-1",
	}

	fee := calc.Evaluate(cfg, feeInput(b, domain.ReasonCustomerNoShow, domain.CancelPartyDriver, domain.CustomerClassIndividual))
	if fee != nil {
		t.Fatalf("expected no fee for individual no-show, got %.2f", fee.Amount)
	}
}

func TestFeePolicy_CustomerCancelInsideFreeWindow(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		CreatedAt: feePolicyNow.Add(-10 * time.Minute),
		DriverID:  "driver-1",
	}

	if !calc.CanCustomerCancel(cfg, b, feePolicyNow) {
		t.Fatal("expected customer cancel to be allowed inside free window")
	}

	fee := calc.Evaluate(cfg, feeInput(b, domain.ReasonCustomerChangedMind, domain.CancelPartyCustomer, domain.CustomerClassIndividual))
	if fee != nil {
		t.Fatalf("expected no fee inside free window, got %.2f", fee.Amount)
	}
}

func TestFeePolicy_CustomerLateCancelNoDriverCharges100(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		CreatedAt: feePolicyNow.Add(-45 * time.Minute),
	}

	if !calc.CanCustomerCancel(cfg, b, feePolicyNow) {
		t.Fatal("expected cancel allowed while no driver is assigned")
	}

	fee := calc.Evaluate(cfg, feeInput(b, domain.ReasonCustomerChangedMind, domain.CancelPartyCustomer, domain.CustomerClassIndividual))
	if fee == nil {
		t.Fatal("expected late cancel fee, got nil")
	}
	if fee.Amount != 100 {
		t.Errorf("expected fee 100, got %.2f", fee.Amount)
	}
	if fee.ChargedTo != domain.CancelPartyCustomer {
		t.Errorf("expected fee charged to customer, got %s", fee.ChargedTo)
	}
}

func TestFeePolicy_CustomerLateCancelWithDriverIsFree(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		CreatedAt: feePolicyNow.Add(-45 * time.Minute),
		DriverID:  "driver-1",
	}

	fee := calc.Evaluate(cfg, feeInput(b, domain.ReasonCustomerChangedMind, domain.CancelPartyCustomer, domain.CustomerClassIndividual))
	if fee != nil {
		t.Fatalf("expected no customer fee once a driver is assigned, got %.2f", fee.Amount)
	}
}

func TestFeePolicy_DriverWaitExpiredCharges500(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		CreatedAt: feePolicyNow.Add(-3 * time.Hour),
		DriverID:  "driver-1",
		Status:    domain.BookingStatusDriverReached,
		ReachedAt: feePolicyNow.Add(-65 * time.Minute),
	}

	if !calc.CanDriverCancel(cfg, b, feePolicyNow, b.ReachedAt) {
		t.Fatal("expected driver cancel allowed after waiting out the free period")
	}

	fee := calc.Evaluate(cfg, feeInput(b, domain.ReasonDriverWaitExpired, domain.CancelPartyDriver, domain.CustomerClassIndividual))
	if fee == nil {
		t.Fatal("expected wait-expired fee, got nil")
	}
	if fee.Amount != 500 {
		t.Errorf("expected fee 500, got %.2f", fee.Amount)
	}
	if fee.ChargedTo != domain.CancelPartyCustomer {
		t.Errorf("expected fee charged to customer, got %s", fee.ChargedTo)
	}
}

func TestFeePolicy_DriverCannotCancelWhileWaiting(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		Status:    domain.BookingStatusDriverReached,
		DriverID:  "driver-1",
		ReachedAt: feePolicyNow.Add(-10 * time.Minute),
	}

	if calc.CanDriverCancel(cfg, b, feePolicyNow, b.ReachedAt) {
		t.Fatal("expected driver cancel blocked 10 minutes after reaching pickup")
	}
}

func TestFeePolicy_DriverEarlyCancelChargesHalfFare(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		CreatedAt: feePolicyNow.Add(-2 * time.Hour),
		DriverID:  "driver-1",
		Status:    domain.BookingStatusDriverAccepted,
		FinalFare: 2425,
	}

	if !calc.CanDriverCancel(cfg, b, feePolicyNow, b.ReachedAt) {
		t.Fatal("expected driver cancel allowed before reaching pickup")
	}

	fee := calc.Evaluate(cfg, feeInput(b, domain.ReasonDriverUnavailable, domain.CancelPartyDriver, domain.CustomerClassIndividual))
	if fee == nil {
		t.Fatal("expected early-cancel fee, got nil")
	}
	if fee.Amount != 1212.50 {
		t.Errorf("expected fee 1212.50, got %.2f", fee.Amount)
	}
	if fee.ChargedTo != domain.CancelPartyDriver {
		t.Errorf("expected fee charged to driver, got %s", fee.ChargedTo)
	}
}

func TestFeePolicy_NonChargeableReasonsAlwaysFree(t *testing.T) {
	t.Parallel()

	calc := service.NewCancellationFeeCalculator()
	cfg := domain.DefaultFeeConfig()

	b := &domain.Booking{
		ID:        "booking-1",
		CreatedAt: feePolicyNow.Add(-5 * time.Hour),
		DriverID:  "driver-1",
		ReachedAt: feePolicyNow.Add(-2 * time.Hour),
		FinalFare: 2425,
	}

	reasons := []domain.CancelReason{
		domain.ReasonNoDriverAssigned,
		domain.ReasonVehicleBreakdown,
		domain.ReasonSafetyConcern,
	}
	parties := []domain.CancelParty{
		domain.CancelPartyCustomer,
		domain.CancelPartyDriver,
		domain.CancelPartyPlatform,
	}

	for _, reason := range reasons {
		for _, party := range parties {
			fee := calc.Evaluate(cfg, feeInput(b, reason, party, domain.CustomerClassCommercial))
			if fee != nil {
				t.Errorf("reason %s by %s: expected no fee, got %.2f", reason, party, fee.Amount)
			}
		}
	}
}
