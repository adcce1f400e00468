package service

import (
	"context"
	"log"
	"sort"
	"time"

	"freight/internal/domain"
	"freight/internal/geo"
	"freight/internal/repository"
)

// Scoring weights. They sum to 1 so scores stay in [0,1].
const (
	proximityWeight = 0.4
	timingWeight    = 0.2
	historyWeight   = 0.3
	priceWeight     = 0.1

	// minRecommendationScore is the cutoff below which (inclusive) a
	// candidate is dropped entirely.
	minRecommendationScore = 0.5

	maxRecommendations = 5
)

// RecommendationInput describes the driver's situation after a delivery.
type RecommendationInput struct {
	DriverID        string
	CurrentCity     string
	DestinationCity string
	CompletionTime  time.Time
}

// RouteHistory answers utilization lookups for scoring. A nil entry means no
// history exists for the route.
type RouteHistory interface {
	UtilizationFor(originCity, destCity string) *domain.RouteUtilization
}

// RecommendationEngine ranks open backload opportunities for a driver who
// just finished a trip.
type RecommendationEngine struct {
	distances geo.DistanceSource
}

// NewRecommendationEngine creates a RecommendationEngine.
func NewRecommendationEngine(distances geo.DistanceSource) *RecommendationEngine {
	return &RecommendationEngine{distances: distances}
}

// Rank scores the candidates and returns at most five, descending by score.
// It is pure: bad candidates lower scores, they never raise errors.
func (e *RecommendationEngine) Rank(
	in RecommendationInput,
	candidates []*domain.BackloadOpportunity,
	history RouteHistory,
) []domain.RecommendedLoad {
	now := in.CompletionTime

	var ranked []domain.RecommendedLoad
	for _, cand := range candidates {
		score := e.score(in, cand, history)
		if score <= minRecommendationScore {
			continue
		}
		ranked = append(ranked, domain.RecommendedLoad{
			DriverID:      in.DriverID,
			OpportunityID: cand.ID,
			Score:         score,
			Reason:        reasonFor(score),
			GeneratedAt:   now,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > maxRecommendations {
		ranked = ranked[:maxRecommendations]
	}
	return ranked
}

func (e *RecommendationEngine) score(in RecommendationInput, cand *domain.BackloadOpportunity, history RouteHistory) float64 {
	// The driver ends up at the trip destination; when the caller reports
	// no destination, their current city anchors proximity instead.
	anchor := in.DestinationCity
	if anchor == "" {
		anchor = in.CurrentCity
	}

	return proximityWeight*e.proximityScore(anchor, cand.FromCity) +
		timingWeight*timingScore(in.CompletionTime, cand.AvailableFrom) +
		historyWeight*historyScore(history, cand.FromCity, cand.ToCity) +
		priceWeight*priceScore(cand.EstimatedPrice)
}

// proximityScore rewards opportunities starting where the driver is heading.
// Same-city comparisons go through the distance source so casing and
// whitespace differences still count as a match.
func (e *RecommendationEngine) proximityScore(driverDest, oppOrigin string) float64 {
	distKm := e.distances.CityDistance(driverDest, oppOrigin)
	switch {
	case distKm == 0:
		return 1.0
	case distKm <= 50:
		return 0.9
	case distKm <= 100:
		return 0.7
	case distKm <= 200:
		return 0.5
	default:
		return 0.3
	}
}

// timingScore rewards pickups soon after the driver frees up. A pickup that
// is already past scores zero.
func timingScore(completion, pickup time.Time) float64 {
	gap := pickup.Sub(completion).Hours()
	switch {
	case gap < 0:
		return 0
	case gap <= 2:
		return 1.0
	case gap <= 6:
		return 0.8
	case gap <= 24:
		return 0.6
	default:
		return 0.4
	}
}

// historyScore reads the route's utilization percentage; an unknown route
// scores neutrally.
func historyScore(history RouteHistory, originCity, destCity string) float64 {
	if history == nil {
		return 0.5
	}
	row := history.UtilizationFor(originCity, destCity)
	if row == nil {
		return 0.5
	}
	score := row.UtilizationPct / 100
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func priceScore(price float64) float64 {
	switch {
	case price >= 5000:
		return 1.0
	case price >= 3000:
		return 0.8
	case price >= 2000:
		return 0.6
	case price >= 1000:
		return 0.4
	default:
		return 0.2
	}
}

func reasonFor(score float64) domain.RecommendationReason {
	switch {
	case score >= 0.9:
		return domain.ReasonPerfectMatch
	case score >= 0.8:
		return domain.ReasonHighEarnings
	case score >= 0.7:
		return domain.ReasonNearbyPickup
	case score >= 0.6:
		return domain.ReasonPopularRoute
	default:
		return domain.ReasonAvailableLoad
	}
}

// RecommendationService loads candidates and route history from the stores
// and runs the engine.
type RecommendationService struct {
	engine       *RecommendationEngine
	backloadRepo repository.BackloadRepository
	routeRepo    repository.RouteUtilizationRepository
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(
	engine *RecommendationEngine,
	backloadRepo repository.BackloadRepository,
	routeRepo repository.RouteUtilizationRepository,
) *RecommendationService {
	return &RecommendationService{
		engine:       engine,
		backloadRepo: backloadRepo,
		routeRepo:    routeRepo,
	}
}

// GenerateRecommendations produces a ranked, transient recommendation list
// for a driver finishing a trip. Duplicate generation has no side effect, so
// at-least-once completion delivery is harmless here.
func (s *RecommendationService) GenerateRecommendations(ctx context.Context, in RecommendationInput) ([]domain.RecommendedLoad, error) {
	if in.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	candidates, err := s.backloadRepo.ListAvailable(ctx, in.CompletionTime)
	if err != nil {
		return nil, err
	}

	// Drivers are not offered their own return legs.
	filtered := candidates[:0]
	for _, cand := range candidates {
		if cand.DriverID != in.DriverID {
			filtered = append(filtered, cand)
		}
	}

	return s.engine.Rank(in, filtered, &storeHistory{ctx: ctx, repo: s.routeRepo}), nil
}

// storeHistory adapts the repository to the engine's lookup interface. Lookup
// failures degrade to "no history" rather than failing the whole ranking.
type storeHistory struct {
	ctx  context.Context
	repo repository.RouteUtilizationRepository
}

func (h *storeHistory) UtilizationFor(originCity, destCity string) *domain.RouteUtilization {
	row, err := h.repo.GetLatest(h.ctx, originCity, destCity)
	if err != nil {
		if err != repository.ErrNotFound {
			log.Printf("route history lookup %s->%s failed: %v", originCity, destCity, err)
		}
		return nil
	}
	return row
}
