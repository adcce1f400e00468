package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freight/internal/domain"
	"freight/internal/repository"
	"freight/internal/service"
)

// RouteHandler handles HTTP requests for route utilization.
type RouteHandler struct {
	routeRepo  repository.RouteUtilizationRepository
	aggregator *service.AggregatorService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routeRepo repository.RouteUtilizationRepository, aggregator *service.AggregatorService) *RouteHandler {
	return &RouteHandler{routeRepo: routeRepo, aggregator: aggregator}
}

// RouteUtilizationResponse is the wire shape of one period row.
type RouteUtilizationResponse struct {
	OriginCity     string    `json:"origin_city"`
	DestCity       string    `json:"dest_city"`
	OutboundCount  int       `json:"outbound_count"`
	ReturnCount    int       `json:"return_count"`
	UtilizationPct float64   `json:"utilization_pct"`
	EmptyKmTotal   float64   `json:"empty_km_total"`
	EmptyKmSaved   float64   `json:"empty_km_saved"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
}

func toRouteUtilResponse(u *domain.RouteUtilization) RouteUtilizationResponse {
	return RouteUtilizationResponse{
		OriginCity:     u.OriginCity,
		DestCity:       u.DestCity,
		OutboundCount:  u.OutboundCount,
		ReturnCount:    u.ReturnCount,
		UtilizationPct: u.UtilizationPct,
		EmptyKmTotal:   u.EmptyKmTotal,
		EmptyKmSaved:   u.EmptyKmSaved,
		PeriodStart:    u.PeriodStart,
		PeriodEnd:      u.PeriodEnd,
	}
}

// GetRouteUtilization handles GET /v1/routes/utilization?origin=...&dest=...
// An optional period_start (RFC3339) narrows the result to a single window.
func (h *RouteHandler) GetRouteUtilization(c *gin.Context) {
	origin := c.Query("origin")
	dest := c.Query("dest")
	if origin == "" || dest == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "origin and dest are required"})
		return
	}

	if periodStart := c.Query("period_start"); periodStart != "" {
		start, err := time.Parse(time.RFC3339, periodStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid period_start"})
			return
		}
		row, err := h.routeRepo.GetForPeriod(c.Request.Context(), origin, dest, start)
		if err != nil {
			respondError(c, err)
			return
		}
		respondJSON(c, http.StatusOK, toRouteUtilResponse(row))
		return
	}

	rows, err := h.routeRepo.ListByRoute(c.Request.Context(), origin, dest)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]RouteUtilizationResponse, 0, len(rows))
	for _, u := range rows {
		resp = append(resp, toRouteUtilResponse(u))
	}
	respondJSON(c, http.StatusOK, resp)
}

// AggregateRequest is the HTTP request body for a manual aggregation run.
type AggregateRequest struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end,omitempty"`
}

// TriggerAggregation handles POST /v1/routes/aggregate. The scheduled runs
// cover normal operation; this endpoint exists for backfills.
func (h *RouteHandler) TriggerAggregation(c *gin.Context) {
	var req AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.WindowStart.IsZero() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "window_start is required"})
		return
	}

	end := req.WindowEnd
	if end.IsZero() {
		end = req.WindowStart.Add(time.Hour)
	}

	if err := h.aggregator.AggregateWindow(c.Request.Context(), req.WindowStart, end); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusAccepted, gin.H{"status": "aggregated"})
}
