package domain

import "time"

// VehicleType carries per-type pricing and capacity parameters.
type VehicleType struct {
	ID         string
	Name       string
	BaseFare   float64
	PerKmRate  float64
	CapacityKg float64
	Active     bool
}

// SurgeRule multiplies fares inside a configured high-demand window.
// Day is the day of week the window applies to; StartMinute/EndMinute are
// minutes from midnight in the booking's local (UTC-normalized) pickup time.
type SurgeRule struct {
	ID          string
	City        string
	Day         time.Weekday
	StartMinute int
	EndMinute   int
	Multiplier  float64
	Active      bool
}

// Matches reports whether the rule covers the given city at the given time.
func (r *SurgeRule) Matches(city string, at time.Time) bool {
	if !r.Active || r.City != city {
		return false
	}
	at = at.UTC()
	if at.Weekday() != r.Day {
		return false
	}
	minute := at.Hour()*60 + at.Minute()
	return minute >= r.StartMinute && minute < r.EndMinute
}

// FeeConfig holds the tunable knobs of the cancellation fee policy.
type FeeConfig struct {
	FreeCancelWindow      time.Duration
	DriverFreeWaitPeriod  time.Duration
	NoShowFee             float64
	LateCancelFee         float64
	DriverWaitExpiredFee  float64
	EarlyDriverCancelRate float64
}

// DefaultFeeConfig returns the platform's standing fee policy values.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		FreeCancelWindow:      30 * time.Minute,
		DriverFreeWaitPeriod:  time.Hour,
		NoShowFee:             250,
		LateCancelFee:         100,
		DriverWaitExpiredFee:  500,
		EarlyDriverCancelRate: 0.5,
	}
}

// DiscountConfig holds the tunable kind and tier discount parameters.
// All rates are fractions in [0,1].
type DiscountConfig struct {
	BackloadRate         float64
	FlexiblePickupBonus  float64
	SharedLoadFloorRate  float64
	SharedLoadRangeRate  float64
	SilverRate           float64
	GoldRate             float64
	SilverBookingCount   int
	SilverSpendThreshold float64
	GoldBookingCount     int
	GoldSpendThreshold   float64
}

// DefaultDiscountConfig returns the platform's standing discount parameters.
func DefaultDiscountConfig() DiscountConfig {
	return DiscountConfig{
		BackloadRate:         0.15,
		FlexiblePickupBonus:  0.05,
		SharedLoadFloorRate:  0.10,
		SharedLoadRangeRate:  0.10,
		SilverRate:           0.05,
		GoldRate:             0.10,
		SilverBookingCount:   20,
		SilverSpendThreshold: 20000,
		GoldBookingCount:     50,
		GoldSpendThreshold:   50000,
	}
}

// CustomerTier is a loyalty tier assigned from cumulative activity.
type CustomerTier string

const (
	TierBronze CustomerTier = "BRONZE"
	TierSilver CustomerTier = "SILVER"
	TierGold   CustomerTier = "GOLD"
)

// CustomerProfile tracks the cumulative activity a tier is computed from.
type CustomerProfile struct {
	CustomerID   string
	Class        CustomerClass
	BookingCount int
	TotalSpent   float64
}

// BANWindow is a configured blackout window during which new pickups in a
// city are disallowed. Minutes are from midnight UTC.
type BANWindow struct {
	ID          string
	City        string
	Day         time.Weekday
	StartMinute int
	EndMinute   int
	Active      bool
}

// Blocks reports whether the window blocks a pickup in the city at the given time.
func (w *BANWindow) Blocks(city string, at time.Time) bool {
	if !w.Active || w.City != city {
		return false
	}
	at = at.UTC()
	if at.Weekday() != w.Day {
		return false
	}
	minute := at.Hour()*60 + at.Minute()
	return minute >= w.StartMinute && minute < w.EndMinute
}
