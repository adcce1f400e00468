package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"freight/internal/domain"
	"freight/internal/service"
)

// ──────────────────────────────────────────────
// 1. BOOKING LIFECYCLE STATE MACHINE
// ──────────────────────────────────────────────

func TestLifecycle_FullHappyPath(t *testing.T) {
	t.Parallel()

	b := &domain.Booking{
		ID:     "booking-1",
		Status: domain.BookingStatusPending,
	}

	steps := []struct {
		event service.BookingEvent
		want  domain.BookingStatus
	}{
		{service.EventAssignDriver, domain.BookingStatusDriverAssigned},
		{service.EventDriverAccept, domain.BookingStatusDriverAccepted},
		{service.EventDriverReach, domain.BookingStatusDriverReached},
		{service.EventStartLoading, domain.BookingStatusLoadingStarted},
		{service.EventStartTransit, domain.BookingStatusInTransit},
		{service.EventDeliver, domain.BookingStatusDelivered},
		{service.EventComplete, domain.BookingStatusCompleted},
	}

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, step := range steps {
		if err := service.ApplyTransition(b, step.event, now); err != nil {
			t.Fatalf("event %s: unexpected error: %v", step.event, err)
		}
		if b.Status != step.want {
			t.Fatalf("event %s: expected status %s, got %s", step.event, step.want, b.Status)
		}
	}

	if b.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be stamped")
	}
}

func TestLifecycle_NoSkippingForward(t *testing.T) {
	t.Parallel()

	b := &domain.Booking{
		ID:     "booking-1",
		Status: domain.BookingStatusPending,
	}

	// PENDING cannot jump straight to IN_TRANSIT.
	err := service.ApplyTransition(b, service.EventStartTransit, time.Now())
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// The booking must be untouched after a rejected event.
	if b.Status != domain.BookingStatusPending {
		t.Errorf("expected status unchanged, got %s", b.Status)
	}
	if !b.InTransitAt.IsZero() {
		t.Error("expected no timestamp stamped on rejected transition")
	}
}

func TestLifecycle_CancelFromAnyNonTerminalState(t *testing.T) {
	t.Parallel()

	nonTerminal := []domain.BookingStatus{
		domain.BookingStatusPending,
		domain.BookingStatusDriverAssigned,
		domain.BookingStatusDriverAccepted,
		domain.BookingStatusDriverReached,
		domain.BookingStatusLoadingStarted,
		domain.BookingStatusInTransit,
		domain.BookingStatusDelivered,
	}

	for _, status := range nonTerminal {
		b := &domain.Booking{ID: "booking-1", Status: status}
		if err := service.ApplyTransition(b, service.EventCancel, time.Now()); err != nil {
			t.Fatalf("cancel from %s: unexpected error: %v", status, err)
		}
		if b.Status != domain.BookingStatusCancelled {
			t.Errorf("cancel from %s: expected CANCELLED, got %s", status, b.Status)
		}
		if b.CancelledAt.IsZero() {
			t.Errorf("cancel from %s: expected CancelledAt stamped", status)
		}
	}
}

func TestLifecycle_TerminalStatesAreAbsorbing(t *testing.T) {
	t.Parallel()

	terminal := []domain.BookingStatus{
		domain.BookingStatusCompleted,
		domain.BookingStatusCancelled,
		domain.BookingStatusRejected,
	}

	events := []service.BookingEvent{
		service.EventAssignDriver,
		service.EventCancel,
		service.EventReject,
		service.EventComplete,
	}

	for _, status := range terminal {
		for _, event := range events {
			b := &domain.Booking{ID: "booking-1", Status: status}
			err := service.ApplyTransition(b, event, time.Now())
			if !errors.Is(err, service.ErrInvalidTransition) {
				t.Errorf("event %s from %s: expected ErrInvalidTransition, got %v", event, status, err)
			}
			if b.Status != status {
				t.Errorf("event %s from %s: status changed to %s", event, status, b.Status)
			}
		}
	}
}

func TestLifecycle_RejectIsAbsorbing(t *testing.T) {
	t.Parallel()

	b := &domain.Booking{ID: "booking-1", Status: domain.BookingStatusDriverAssigned}
	if err := service.ApplyTransition(b, service.EventReject, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != domain.BookingStatusRejected {
		t.Fatalf("expected REJECTED, got %s", b.Status)
	}
}

func TestLifecycle_TransitionRetriesOnVersionConflict(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	svc := newBookingService(bookingRepo, NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), NewMockConfigRepository(), standardVehicleTypes(), nil)

	bookingRepo.AddBooking(&domain.Booking{
		ID:      "booking-1",
		Status:  domain.BookingStatusPending,
		Version: 1,
	})
	bookingRepo.ConflictsBeforeSuccess = 2

	b, err := svc.Transition(context.Background(), service.TransitionRequest{
		BookingID: "booking-1",
		Event:     service.EventAssignDriver,
		DriverID:  "driver-1",
		VehicleID: "vehicle-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != domain.BookingStatusDriverAssigned {
		t.Errorf("expected DRIVER_ASSIGNED, got %s", b.Status)
	}
	if b.DriverID != "driver-1" {
		t.Errorf("expected driver assigned, got %q", b.DriverID)
	}
	if got := bookingRepo.UpdateCallCount; got != 3 {
		t.Errorf("expected 3 update attempts, got %d", got)
	}
}

func TestLifecycle_TransitionGivesUpAfterRepeatedConflicts(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	svc := newBookingService(bookingRepo, NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), NewMockConfigRepository(), standardVehicleTypes(), nil)

	bookingRepo.AddBooking(&domain.Booking{
		ID:      "booking-1",
		Status:  domain.BookingStatusPending,
		Version: 1,
	})
	bookingRepo.ConflictsBeforeSuccess = 100

	_, err := svc.Transition(context.Background(), service.TransitionRequest{
		BookingID: "booking-1",
		Event:     service.EventAssignDriver,
		DriverID:  "driver-1",
	})
	if !errors.Is(err, service.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Stored booking must be untouched.
	stored := bookingRepo.GetBooking("booking-1")
	if stored.Status != domain.BookingStatusPending {
		t.Errorf("expected stored booking unchanged, got %s", stored.Status)
	}
}

func TestLifecycle_CancelEventRejectedByTransition(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	svc := newBookingService(bookingRepo, NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), NewMockConfigRepository(), standardVehicleTypes(), nil)

	bookingRepo.AddBooking(&domain.Booking{
		ID:      "booking-1",
		Status:  domain.BookingStatusPending,
		Version: 1,
	})

	_, err := svc.Transition(context.Background(), service.TransitionRequest{
		BookingID: "booking-1",
		Event:     service.EventCancel,
	})
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for CANCEL via Transition, got %v", err)
	}
}

func TestLifecycle_ReassignOnlyBeforeAcceptance(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	svc := newBookingService(bookingRepo, NewMockCancellationFeeRepository(),
		NewMockBackloadRepository(), NewMockConfigRepository(), standardVehicleTypes(), nil)

	bookingRepo.AddBooking(&domain.Booking{
		ID:       "booking-1",
		Status:   domain.BookingStatusDriverAssigned,
		DriverID: "driver-1",
		Version:  1,
	})

	b, err := svc.ReassignDriver(context.Background(), "booking-1", "driver-2", "vehicle-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.DriverID != "driver-2" {
		t.Errorf("expected driver-2, got %q", b.DriverID)
	}

	// After acceptance the assignment is fixed.
	bookingRepo.AddBooking(&domain.Booking{
		ID:       "booking-2",
		Status:   domain.BookingStatusDriverAccepted,
		DriverID: "driver-1",
		Version:  1,
	})

	_, err = svc.ReassignDriver(context.Background(), "booking-2", "driver-3", "vehicle-3")
	if !errors.Is(err, service.ErrReassignNotAllowed) {
		t.Fatalf("expected ErrReassignNotAllowed, got %v", err)
	}
}
