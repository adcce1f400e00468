package service

import (
	"time"

	"github.com/google/uuid"

	"freight/internal/domain"
)

// FeeInput carries everything the cancellation fee policy looks at.
type FeeInput struct {
	Booking         *domain.Booking
	Reason          domain.CancelReason
	CancelledBy     domain.CancelParty
	CustomerClass   domain.CustomerClass
	DriverReachedAt time.Time // zero when the driver never reached pickup
	Now             time.Time
}

// feeRule is one row of the cancellation fee policy table. Rules are
// evaluated in order; the first match decides.
type feeRule struct {
	name   string
	match  func(cfg domain.FeeConfig, in FeeInput) bool
	decide func(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee
}

// CancellationFeeCalculator decides whether a cancellation carries a fee.
// It is pure: it never errors for well-formed input, and "no fee" is a valid
// nil result, not a failure.
type CancellationFeeCalculator struct {
	rules []feeRule
}

// NewCancellationFeeCalculator builds the calculator with the standing
// policy table.
func NewCancellationFeeCalculator() *CancellationFeeCalculator {
	return &CancellationFeeCalculator{rules: policyTable()}
}

// Evaluate returns the fee a cancellation carries, or nil when no fee
// applies. Permission is the caller's concern: check CanCustomerCancel /
// CanDriverCancel first; Evaluate only prices the cancellation.
func (c *CancellationFeeCalculator) Evaluate(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee {
	if in.Booking == nil {
		return nil
	}

	for _, rule := range c.rules {
		if rule.match(cfg, in) {
			fee := rule.decide(cfg, in)
			if fee != nil {
				fee.ID = uuid.New().String()
				fee.BookingID = in.Booking.ID
				fee.Reason = in.Reason
				fee.CancelledBy = in.CancelledBy
				fee.CreatedAt = in.Now.UTC()
				fee.Note = rule.name
			}
			return fee
		}
	}

	return nil
}

// CanCustomerCancel reports whether a customer may cancel at the given time:
// inside the free window since creation, or any time no driver is assigned.
func (c *CancellationFeeCalculator) CanCustomerCancel(cfg domain.FeeConfig, b *domain.Booking, now time.Time) bool {
	if b.Status.Terminal() {
		return false
	}
	if now.Sub(b.CreatedAt) < cfg.FreeCancelWindow {
		return true
	}
	return b.DriverID == ""
}

// CanDriverCancel reports whether a driver may cancel: before reaching the
// pickup, or after waiting out the free waiting period at the pickup.
func (c *CancellationFeeCalculator) CanDriverCancel(cfg domain.FeeConfig, b *domain.Booking, now, driverReachedAt time.Time) bool {
	if b.Status.Terminal() {
		return false
	}
	if driverReachedAt.IsZero() {
		return true
	}
	return now.Sub(driverReachedAt) >= cfg.DriverFreeWaitPeriod
}

func policyTable() []feeRule {
	return []feeRule{
		{
			// Breakdown, safety and platform-sourced no-driver cancellations
			// never carry a fee, whoever reports them.
			name: "non-chargeable reason",
			match: func(cfg domain.FeeConfig, in FeeInput) bool {
				switch in.Reason {
				case domain.ReasonNoDriverAssigned, domain.ReasonVehicleBreakdown, domain.ReasonSafetyConcern:
					return true
				}
				return false
			},
			decide: func(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee {
				return nil
			},
		},
		{
			name: "commercial no-show",
			match: func(cfg domain.FeeConfig, in FeeInput) bool {
				if in.Reason != domain.ReasonCustomerNoShow && in.Reason != domain.ReasonSlowLoading {
					return false
				}
				return in.CustomerClass == domain.CustomerClassCommercial ||
					in.CustomerClass == domain.CustomerClassSupplier
			},
			decide: func(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee {
				return &domain.CancellationFee{
					ChargedTo: domain.CancelPartyCustomer,
					Amount:    cfg.NoShowFee,
				}
			},
		},
		{
			// Individual customers are not charged for no-show or slow loading.
			name: "individual no-show",
			match: func(cfg domain.FeeConfig, in FeeInput) bool {
				return in.Reason == domain.ReasonCustomerNoShow || in.Reason == domain.ReasonSlowLoading
			},
			decide: func(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee {
				return nil
			},
		},
		{
			name: "customer free window",
			match: func(cfg domain.FeeConfig, in FeeInput) bool {
				return in.CancelledBy == domain.CancelPartyCustomer &&
					in.Now.Sub(in.Booking.CreatedAt) < cfg.FreeCancelWindow
			},
			decide: func(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee {
				return nil
			},
		},
		{
			name: "customer late cancel unassigned",
			match: func(cfg domain.FeeConfig, in FeeInput) bool {
				return in.CancelledBy == domain.CancelPartyCustomer && in.Booking.DriverID == ""
			},
			decide: func(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee {
				return &domain.CancellationFee{
					ChargedTo: domain.CancelPartyCustomer,
					Amount:    cfg.LateCancelFee,
				}
			},
		},
		{
			// With a driver already assigned the customer is not charged;
			// driver-side remedies apply instead.
			name: "customer late cancel assigned",
			match: func(cfg domain.FeeConfig, in FeeInput) bool {
				return in.CancelledBy == domain.CancelPartyCustomer
			},
			decide: func(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee {
				return nil
			},
		},
		{
			name: "driver wait expired",
			match: func(cfg domain.FeeConfig, in FeeInput) bool {
				return in.CancelledBy == domain.CancelPartyDriver &&
					!in.DriverReachedAt.IsZero() &&
					in.Booking.LoadingStartedAt.IsZero() &&
					in.Now.Sub(in.DriverReachedAt) >= cfg.DriverFreeWaitPeriod
			},
			decide: func(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee {
				return &domain.CancellationFee{
					ChargedTo: domain.CancelPartyCustomer,
					Amount:    cfg.DriverWaitExpiredFee,
				}
			},
		},
		{
			name: "driver early cancel",
			match: func(cfg domain.FeeConfig, in FeeInput) bool {
				return in.CancelledBy == domain.CancelPartyDriver
			},
			decide: func(cfg domain.FeeConfig, in FeeInput) *domain.CancellationFee {
				return &domain.CancellationFee{
					ChargedTo: domain.CancelPartyDriver,
					Amount:    round2(in.Booking.FinalFare * cfg.EarlyDriverCancelRate),
				}
			},
		},
	}
}
