package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freight/internal/domain"
	"freight/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// LocationPayload is the wire shape of a pickup or dropoff point.
type LocationPayload struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	City    string  `json:"city"`
}

// CargoPayload is the wire shape of a load description.
type CargoPayload struct {
	Type          string  `json:"type"`
	GrossWeightKg float64 `json:"gross_weight_kg"`
	NetWeightKg   float64 `json:"net_weight_kg"`
	BoxCount      int     `json:"box_count"`
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	CustomerID          string          `json:"customer_id"`
	VehicleTypeID       string          `json:"vehicle_type_id"`
	Kind                string          `json:"kind,omitempty"` // STANDARD, BACKLOAD, SHARED_LOAD
	Origin              LocationPayload `json:"origin"`
	Destination         LocationPayload `json:"destination"`
	Cargo               CargoPayload    `json:"cargo"`
	PickupAt            time.Time       `json:"pickup_at"`
	FlexiblePickup      bool            `json:"flexible_pickup,omitempty"`
	CapacityUtilization float64         `json:"capacity_utilization,omitempty"`
	OpportunityID       string          `json:"opportunity_id,omitempty"`
}

// TransitionBookingRequest is the HTTP request body for a lifecycle event.
type TransitionBookingRequest struct {
	Event     string `json:"event"`
	DriverID  string `json:"driver_id,omitempty"`
	VehicleID string `json:"vehicle_id,omitempty"`
}

// CancelBookingRequest is the HTTP request body for cancelling a booking.
type CancelBookingRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
	Note        string `json:"note,omitempty"`
}

// ReassignDriverRequest is the HTTP request body for reassigning a driver.
type ReassignDriverRequest struct {
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id,omitempty"`
}

// BookingResponse is the wire shape of a booking.
type BookingResponse struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customer_id"`
	VehicleTypeID  string          `json:"vehicle_type_id"`
	VehicleID      string          `json:"vehicle_id,omitempty"`
	DriverID       string          `json:"driver_id,omitempty"`
	Kind           string          `json:"kind"`
	Status         string          `json:"status"`
	Origin         LocationPayload `json:"origin"`
	Destination    LocationPayload `json:"destination"`
	Cargo          CargoPayload    `json:"cargo"`
	TotalFare      float64         `json:"total_fare"`
	DiscountAmount float64         `json:"discount_amount"`
	FinalFare      float64         `json:"final_fare"`
	PickupAt       time.Time       `json:"pickup_at"`
	CreatedAt      time.Time       `json:"created_at"`
	CancelledAt    string          `json:"cancelled_at,omitempty"`
	CancelReason   string          `json:"cancel_reason,omitempty"`
}

// FeeResponse is the wire shape of a cancellation fee decision.
type FeeResponse struct {
	ID        string  `json:"id"`
	BookingID string  `json:"booking_id"`
	ChargedTo string  `json:"charged_to"`
	Amount    float64 `json:"amount"`
	Note      string  `json:"note,omitempty"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID,
		CustomerID:    b.CustomerID,
		VehicleTypeID: b.VehicleTypeID,
		VehicleID:     b.VehicleID,
		DriverID:      b.DriverID,
		Kind:          string(b.Kind),
		Status:        string(b.Status),
		Origin: LocationPayload{
			Address: b.Origin.Address, Lat: b.Origin.Lat, Lng: b.Origin.Lng, City: b.Origin.City,
		},
		Destination: LocationPayload{
			Address: b.Destination.Address, Lat: b.Destination.Lat, Lng: b.Destination.Lng, City: b.Destination.City,
		},
		Cargo: CargoPayload{
			Type:          b.Cargo.Type,
			GrossWeightKg: b.Cargo.GrossWeightKg,
			NetWeightKg:   b.Cargo.NetWeightKg,
			BoxCount:      b.Cargo.BoxCount,
		},
		TotalFare:      b.TotalFare,
		DiscountAmount: b.DiscountAmount,
		FinalFare:      b.FinalFare,
		PickupAt:       b.PickupAt,
		CreatedAt:      b.CreatedAt,
		CancelReason:   b.CancelReason,
	}
	if !b.CancelledAt.IsZero() {
		resp.CancelledAt = b.CancelledAt.Format(time.RFC3339)
	}
	return resp
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	kind := domain.BookingKind(req.Kind)
	if kind == "" {
		kind = domain.BookingKindStandard
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		CustomerID:    req.CustomerID,
		VehicleTypeID: req.VehicleTypeID,
		Kind:          kind,
		Origin: domain.Location{
			Address: req.Origin.Address, Lat: req.Origin.Lat, Lng: req.Origin.Lng, City: req.Origin.City,
		},
		Destination: domain.Location{
			Address: req.Destination.Address, Lat: req.Destination.Lat, Lng: req.Destination.Lng, City: req.Destination.City,
		},
		Cargo: domain.Cargo{
			Type:          req.Cargo.Type,
			GrossWeightKg: req.Cargo.GrossWeightKg,
			NetWeightKg:   req.Cargo.NetWeightKg,
			BoxCount:      req.Cargo.BoxCount,
		},
		PickupAt:            req.PickupAt,
		FlexiblePickup:      req.FlexiblePickup,
		CapacityUtilization: req.CapacityUtilization,
		OpportunityID:       req.OpportunityID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// ListBookings handles GET /v1/bookings?status=... and ?customer_id=...
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var bookings []*domain.Booking
	var err error

	if customerID := c.Query("customer_id"); customerID != "" {
		bookings, err = h.bookingService.ListBookingsByCustomer(c.Request.Context(), customerID)
	} else {
		status := domain.BookingStatus(c.Query("status"))
		if status == "" {
			status = domain.BookingStatusPending
		}
		bookings, err = h.bookingService.ListBookingsByStatus(c.Request.Context(), status)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBookingResponse(b))
	}
	respondJSON(c, http.StatusOK, resp)
}

// TransitionBooking handles POST /v1/bookings/:id/transition
func (h *BookingHandler) TransitionBooking(c *gin.Context) {
	var req TransitionBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.Transition(c.Request.Context(), service.TransitionRequest{
		BookingID: c.Param("id"),
		Event:     service.BookingEvent(req.Event),
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cancelledBy := domain.CancelParty(req.CancelledBy)
	if cancelledBy == "" {
		cancelledBy = domain.CancelPartyCustomer
	}

	booking, fee, err := h.bookingService.Cancel(c.Request.Context(), service.CancelRequest{
		BookingID:   c.Param("id"),
		Reason:      domain.CancelReason(req.Reason),
		CancelledBy: cancelledBy,
		Note:        req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := struct {
		Booking BookingResponse `json:"booking"`
		Fee     *FeeResponse    `json:"fee,omitempty"`
	}{Booking: toBookingResponse(booking)}

	if fee != nil {
		resp.Fee = &FeeResponse{
			ID:        fee.ID,
			BookingID: fee.BookingID,
			ChargedTo: string(fee.ChargedTo),
			Amount:    fee.Amount,
			Note:      fee.Note,
		}
	}

	respondJSON(c, http.StatusOK, resp)
}

// GetCancellationFee handles GET /v1/bookings/:id/fee
func (h *BookingHandler) GetCancellationFee(c *gin.Context) {
	fee, err := h.bookingService.GetCancellationFee(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, FeeResponse{
		ID:        fee.ID,
		BookingID: fee.BookingID,
		ChargedTo: string(fee.ChargedTo),
		Amount:    fee.Amount,
		Note:      fee.Note,
	})
}

// SettleFee handles POST /v1/fees/:id/settle
func (h *BookingHandler) SettleFee(c *gin.Context) {
	if err := h.bookingService.SettleCancellationFee(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"paid": true})
}

// ReassignDriver handles POST /v1/bookings/:id/reassign
func (h *BookingHandler) ReassignDriver(c *gin.Context) {
	var req ReassignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.ReassignDriver(c.Request.Context(), c.Param("id"), req.DriverID, req.VehicleID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}
