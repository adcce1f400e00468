package domain

import "time"

// RecommendationReason tags a recommended load by its score band.
type RecommendationReason string

const (
	ReasonPerfectMatch  RecommendationReason = "PERFECT_MATCH"
	ReasonHighEarnings  RecommendationReason = "HIGH_EARNINGS"
	ReasonNearbyPickup  RecommendationReason = "NEARBY_PICKUP"
	ReasonPopularRoute  RecommendationReason = "POPULAR_ROUTE"
	ReasonAvailableLoad RecommendationReason = "AVAILABLE_LOAD"
)

// RecommendedLoad is a transient ranked recommendation. It is never persisted;
// duplicate generation is harmless.
type RecommendedLoad struct {
	DriverID      string
	OpportunityID string
	Score         float64
	Reason        RecommendationReason
	GeneratedAt   time.Time
}
