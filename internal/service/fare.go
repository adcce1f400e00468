package service

import (
	"math"
	"time"

	"freight/internal/domain"
	"freight/internal/geo"
)

// Default pricing applied when a vehicle type carries no rates of its own.
const (
	defaultBaseFare  = 50.0
	defaultPerKmRate = 2.5
)

// Booking-kind fare multipliers.
const (
	backloadFareMultiplier   = 0.85
	sharedLoadFareMultiplier = 0.70
)

// FareQuote is the breakdown of a priced trip.
type FareQuote struct {
	DistanceKm      float64
	BaseFare        float64
	PerKmRate       float64
	KindMultiplier  float64
	SurgeMultiplier float64
	Total           float64
}

// FareCalculator prices trips from distance, vehicle type, booking kind and
// surge configuration. It is pure and stateless; config is passed in per call.
type FareCalculator struct {
	distances geo.DistanceSource
}

// NewFareCalculator creates a FareCalculator on the given distance source.
func NewFareCalculator(distances geo.DistanceSource) *FareCalculator {
	return &FareCalculator{distances: distances}
}

// Price computes the fare for a trip. Surge rules are matched against the
// origin city at the pickup time; the first matching active rule applies on
// top of the already kind-adjusted fare.
func (c *FareCalculator) Price(
	vehicleType *domain.VehicleType,
	origin, destination domain.Location,
	kind domain.BookingKind,
	pickupAt time.Time,
	surgeRules []*domain.SurgeRule,
) FareQuote {
	baseFare := defaultBaseFare
	perKm := defaultPerKmRate
	if vehicleType != nil {
		if vehicleType.BaseFare > 0 {
			baseFare = vehicleType.BaseFare
		}
		if vehicleType.PerKmRate > 0 {
			perKm = vehicleType.PerKmRate
		}
	}

	distanceKm := c.distances.Distance(origin, destination)

	quote := FareQuote{
		DistanceKm:      distanceKm,
		BaseFare:        baseFare,
		PerKmRate:       perKm,
		KindMultiplier:  kindMultiplier(kind),
		SurgeMultiplier: 1.0,
	}

	fare := (baseFare + distanceKm*perKm) * quote.KindMultiplier

	for _, rule := range surgeRules {
		if rule.Matches(origin.City, pickupAt) && rule.Multiplier > 0 {
			quote.SurgeMultiplier = rule.Multiplier
			fare *= rule.Multiplier
			break
		}
	}

	quote.Total = round2(fare)
	return quote
}

func kindMultiplier(kind domain.BookingKind) float64 {
	switch kind {
	case domain.BookingKindBackload:
		return backloadFareMultiplier
	case domain.BookingKindSharedLoad:
		return sharedLoadFareMultiplier
	default:
		return 1.0
	}
}

// BackloadDiscount computes the additional discount amount for a backload
// booking: a share of the base fare, with a bonus when the pickup date is
// flexible. Distinct from the fare multiplier Price already applies.
func BackloadDiscount(cfg domain.DiscountConfig, baseFare float64, flexiblePickup bool) float64 {
	rate := cfg.BackloadRate
	if flexiblePickup {
		rate += cfg.FlexiblePickupBonus
	}
	return round2(baseFare * rate)
}

// SharedLoadDiscount computes the additional discount amount for a shared
// load. The rate grows linearly from the floor to floor+range as capacity
// utilization rises from 0 to 1.
func SharedLoadDiscount(cfg domain.DiscountConfig, baseFare, capacityUtilization float64) float64 {
	u := math.Max(0, math.Min(1, capacityUtilization))
	rate := cfg.SharedLoadFloorRate + cfg.SharedLoadRangeRate*u
	return round2(baseFare * rate)
}

// TierFor assigns a loyalty tier from cumulative booking count and spend.
func TierFor(cfg domain.DiscountConfig, profile *domain.CustomerProfile) domain.CustomerTier {
	if profile == nil {
		return domain.TierBronze
	}
	if profile.BookingCount >= cfg.GoldBookingCount || profile.TotalSpent >= cfg.GoldSpendThreshold {
		return domain.TierGold
	}
	if profile.BookingCount >= cfg.SilverBookingCount || profile.TotalSpent >= cfg.SilverSpendThreshold {
		return domain.TierSilver
	}
	return domain.TierBronze
}

// TierDiscount computes the flat tier discount amount against base fare.
func TierDiscount(cfg domain.DiscountConfig, tier domain.CustomerTier, baseFare float64) float64 {
	switch tier {
	case domain.TierGold:
		return round2(baseFare * cfg.GoldRate)
	case domain.TierSilver:
		return round2(baseFare * cfg.SilverRate)
	default:
		return 0
	}
}

// round2 rounds to 2 decimal places using standard half-away-from-zero rounding.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
