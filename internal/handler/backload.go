package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"freight/internal/domain"
	"freight/internal/repository"
)

// BackloadHandler handles HTTP requests for backload opportunities.
type BackloadHandler struct {
	backloadRepo repository.BackloadRepository
}

// NewBackloadHandler creates a new BackloadHandler.
func NewBackloadHandler(backloadRepo repository.BackloadRepository) *BackloadHandler {
	return &BackloadHandler{backloadRepo: backloadRepo}
}

// BackloadResponse is the wire shape of an opportunity.
type BackloadResponse struct {
	ID               string    `json:"id"`
	VehicleID        string    `json:"vehicle_id"`
	DriverID         string    `json:"driver_id"`
	FromCity         string    `json:"from_city"`
	ToCity           string    `json:"to_city"`
	AvailableFrom    time.Time `json:"available_from"`
	AvailableUntil   time.Time `json:"available_until"`
	CapacityKg       float64   `json:"capacity_kg"`
	EstimatedPrice   float64   `json:"estimated_price"`
	Status           string    `json:"status"`
	MatchedBookingID string    `json:"matched_booking_id,omitempty"`
}

func toBackloadResponse(o *domain.BackloadOpportunity) BackloadResponse {
	return BackloadResponse{
		ID:               o.ID,
		VehicleID:        o.VehicleID,
		DriverID:         o.DriverID,
		FromCity:         o.FromCity,
		ToCity:           o.ToCity,
		AvailableFrom:    o.AvailableFrom,
		AvailableUntil:   o.AvailableUntil,
		CapacityKg:       o.CapacityKg,
		EstimatedPrice:   o.EstimatedPrice,
		Status:           string(o.Status),
		MatchedBookingID: o.MatchedBookingID,
	}
}

// ListAvailable handles GET /v1/backloads
func (h *BackloadHandler) ListAvailable(c *gin.Context) {
	opps, err := h.backloadRepo.ListAvailable(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]BackloadResponse, 0, len(opps))
	for _, o := range opps {
		resp = append(resp, toBackloadResponse(o))
	}
	respondJSON(c, 200, resp)
}

// ListByDriver handles GET /v1/drivers/:id/backloads
func (h *BackloadHandler) ListByDriver(c *gin.Context) {
	opps, err := h.backloadRepo.ListByDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]BackloadResponse, 0, len(opps))
	for _, o := range opps {
		resp = append(resp, toBackloadResponse(o))
	}
	respondJSON(c, 200, resp)
}
