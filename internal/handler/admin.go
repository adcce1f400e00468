package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"freight/internal/domain"
	"freight/internal/repository"
)

// AdminHandler handles administrative pricing/policy configuration. The
// booking flow never mutates configuration; all changes come through here.
type AdminHandler struct {
	configRepo repository.ConfigRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(configRepo repository.ConfigRepository) *AdminHandler {
	return &AdminHandler{configRepo: configRepo}
}

// SurgeRuleRequest is the HTTP request body for creating a surge rule.
type SurgeRuleRequest struct {
	City        string  `json:"city"`
	Day         int     `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartMinute int     `json:"start_minute"`
	EndMinute   int     `json:"end_minute"`
	Multiplier  float64 `json:"multiplier"`
}

// CreateSurgeRule handles POST /v1/admin/surge-rules
func (h *AdminHandler) CreateSurgeRule(c *gin.Context) {
	var req SurgeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.City == "" || req.Multiplier < 1 || req.Day < 0 || req.Day > 6 ||
		req.StartMinute < 0 || req.EndMinute > 24*60 || req.StartMinute >= req.EndMinute {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid surge rule"})
		return
	}

	rule := &domain.SurgeRule{
		ID:          uuid.New().String(),
		City:        req.City,
		Day:         time.Weekday(req.Day),
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		Multiplier:  req.Multiplier,
		Active:      true,
	}

	if err := h.configRepo.SaveSurgeRule(c.Request.Context(), rule); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{"id": rule.ID})
}

// SetSurgeRuleActive handles POST /v1/admin/surge-rules/:id/activate and
// /deactivate.
func (h *AdminHandler) SetSurgeRuleActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.configRepo.SetSurgeRuleActive(c.Request.Context(), c.Param("id"), active); err != nil {
			respondError(c, err)
			return
		}
		respondJSON(c, http.StatusOK, gin.H{"active": active})
	}
}

// FeeConfigRequest is the HTTP request body for replacing the fee policy.
type FeeConfigRequest struct {
	FreeCancelMinutes     int     `json:"free_cancel_minutes"`
	DriverFreeWaitMinutes int     `json:"driver_free_wait_minutes"`
	NoShowFee             float64 `json:"no_show_fee"`
	LateCancelFee         float64 `json:"late_cancel_fee"`
	DriverWaitExpiredFee  float64 `json:"driver_wait_expired_fee"`
	EarlyDriverCancelRate float64 `json:"early_driver_cancel_rate"`
}

// UpdateFeeConfig handles PUT /v1/admin/fee-config
func (h *AdminHandler) UpdateFeeConfig(c *gin.Context) {
	var req FeeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.FreeCancelMinutes < 0 || req.DriverFreeWaitMinutes < 0 ||
		req.NoShowFee < 0 || req.LateCancelFee < 0 || req.DriverWaitExpiredFee < 0 ||
		req.EarlyDriverCancelRate < 0 || req.EarlyDriverCancelRate > 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid fee config"})
		return
	}

	cfg := domain.FeeConfig{
		FreeCancelWindow:      time.Duration(req.FreeCancelMinutes) * time.Minute,
		DriverFreeWaitPeriod:  time.Duration(req.DriverFreeWaitMinutes) * time.Minute,
		NoShowFee:             req.NoShowFee,
		LateCancelFee:         req.LateCancelFee,
		DriverWaitExpiredFee:  req.DriverWaitExpiredFee,
		EarlyDriverCancelRate: req.EarlyDriverCancelRate,
	}

	if err := h.configRepo.SaveFeeConfig(c.Request.Context(), cfg); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"updated": true})
}

// DiscountConfigRequest is the HTTP request body for replacing the discount
// policy.
type DiscountConfigRequest struct {
	BackloadRate         float64 `json:"backload_rate"`
	FlexiblePickupBonus  float64 `json:"flexible_pickup_bonus"`
	SharedLoadFloorRate  float64 `json:"shared_load_floor_rate"`
	SharedLoadRangeRate  float64 `json:"shared_load_range_rate"`
	SilverRate           float64 `json:"silver_rate"`
	GoldRate             float64 `json:"gold_rate"`
	SilverBookingCount   int     `json:"silver_booking_count"`
	SilverSpendThreshold float64 `json:"silver_spend_threshold"`
	GoldBookingCount     int     `json:"gold_booking_count"`
	GoldSpendThreshold   float64 `json:"gold_spend_threshold"`
}

// UpdateDiscountConfig handles PUT /v1/admin/discount-config
func (h *AdminHandler) UpdateDiscountConfig(c *gin.Context) {
	var req DiscountConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	rates := []float64{
		req.BackloadRate, req.FlexiblePickupBonus, req.SharedLoadFloorRate,
		req.SharedLoadRangeRate, req.SilverRate, req.GoldRate,
	}
	for _, r := range rates {
		if r < 0 || r > 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "discount rates must be between 0 and 1"})
			return
		}
	}
	if req.SilverBookingCount < 0 || req.GoldBookingCount < 0 ||
		req.SilverSpendThreshold < 0 || req.GoldSpendThreshold < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid discount config"})
		return
	}

	cfg := domain.DiscountConfig{
		BackloadRate:         req.BackloadRate,
		FlexiblePickupBonus:  req.FlexiblePickupBonus,
		SharedLoadFloorRate:  req.SharedLoadFloorRate,
		SharedLoadRangeRate:  req.SharedLoadRangeRate,
		SilverRate:           req.SilverRate,
		GoldRate:             req.GoldRate,
		SilverBookingCount:   req.SilverBookingCount,
		SilverSpendThreshold: req.SilverSpendThreshold,
		GoldBookingCount:     req.GoldBookingCount,
		GoldSpendThreshold:   req.GoldSpendThreshold,
	}

	if err := h.configRepo.SaveDiscountConfig(c.Request.Context(), cfg); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"updated": true})
}
