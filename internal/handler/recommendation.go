package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freight/internal/service"
)

// RecommendationHandler handles HTTP requests for backload recommendations.
type RecommendationHandler struct {
	recommendationService *service.RecommendationService
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(recommendationService *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

// RecommendedLoadResponse is the wire shape of one ranked recommendation.
type RecommendedLoadResponse struct {
	DriverID      string    `json:"driver_id"`
	OpportunityID string    `json:"opportunity_id"`
	Score         float64   `json:"score"`
	Reason        string    `json:"reason"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// GetRecommendations handles GET /v1/drivers/:id/recommendations
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	completionTime := time.Now()
	if raw := c.Query("completed_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid completed_at"})
			return
		}
		completionTime = parsed
	}

	loads, err := h.recommendationService.GenerateRecommendations(c.Request.Context(), service.RecommendationInput{
		DriverID:        c.Param("id"),
		CurrentCity:     c.Query("current_city"),
		DestinationCity: c.Query("destination_city"),
		CompletionTime:  completionTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]RecommendedLoadResponse, 0, len(loads))
	for _, l := range loads {
		resp = append(resp, RecommendedLoadResponse{
			DriverID:      l.DriverID,
			OpportunityID: l.OpportunityID,
			Score:         l.Score,
			Reason:        string(l.Reason),
			GeneratedAt:   l.GeneratedAt,
		})
	}
	respondJSON(c, http.StatusOK, resp)
}
