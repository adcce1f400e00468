package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freight/internal/domain"
	"freight/internal/service"
)

// FareHandler handles HTTP requests for fare quotes.
type FareHandler struct {
	bookingService *service.BookingService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(bookingService *service.BookingService) *FareHandler {
	return &FareHandler{bookingService: bookingService}
}

// FareQuoteRequest is the HTTP request body for a fare quote.
type FareQuoteRequest struct {
	VehicleTypeID string          `json:"vehicle_type_id"`
	Kind          string          `json:"kind,omitempty"`
	Origin        LocationPayload `json:"origin"`
	Destination   LocationPayload `json:"destination"`
	PickupAt      time.Time       `json:"pickup_at"`
}

// FareQuoteResponse is the HTTP response for a fare quote.
type FareQuoteResponse struct {
	DistanceKm      float64 `json:"distance_km"`
	BaseFare        float64 `json:"base_fare"`
	PerKmRate       float64 `json:"per_km_rate"`
	KindMultiplier  float64 `json:"kind_multiplier"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	Total           float64 `json:"total"`
}

// QuoteFare handles POST /v1/fares/quote
func (h *FareHandler) QuoteFare(c *gin.Context) {
	var req FareQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	kind := domain.BookingKind(req.Kind)
	if kind == "" {
		kind = domain.BookingKindStandard
	}
	pickupAt := req.PickupAt
	if pickupAt.IsZero() {
		pickupAt = time.Now()
	}

	quote, err := h.bookingService.QuoteFare(
		c.Request.Context(),
		req.VehicleTypeID,
		domain.Location{Address: req.Origin.Address, Lat: req.Origin.Lat, Lng: req.Origin.Lng, City: req.Origin.City},
		domain.Location{Address: req.Destination.Address, Lat: req.Destination.Lat, Lng: req.Destination.Lng, City: req.Destination.City},
		kind,
		pickupAt,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, FareQuoteResponse{
		DistanceKm:      quote.DistanceKm,
		BaseFare:        quote.BaseFare,
		PerKmRate:       quote.PerKmRate,
		KindMultiplier:  quote.KindMultiplier,
		SurgeMultiplier: quote.SurgeMultiplier,
		Total:           quote.Total,
	})
}
