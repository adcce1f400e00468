package domain

import "time"

// CancelParty identifies who initiated or is charged for a cancellation.
type CancelParty string

const (
	CancelPartyCustomer CancelParty = "CUSTOMER"
	CancelPartyDriver   CancelParty = "DRIVER"
	CancelPartyPlatform CancelParty = "PLATFORM"
)

// CancelReason is a coded cancellation reason.
type CancelReason string

const (
	ReasonCustomerNoShow      CancelReason = "CUSTOMER_NO_SHOW"
	ReasonSlowLoading         CancelReason = "SLOW_LOADING"
	ReasonCustomerChangedMind CancelReason = "CUSTOMER_CHANGED_MIND"
	ReasonDriverWaitExpired   CancelReason = "DRIVER_WAIT_EXPIRED"
	ReasonDriverUnavailable   CancelReason = "DRIVER_UNAVAILABLE"
	ReasonNoDriverAssigned    CancelReason = "NO_DRIVER_ASSIGNED"
	ReasonVehicleBreakdown    CancelReason = "VEHICLE_BREAKDOWN"
	ReasonSafetyConcern       CancelReason = "SAFETY_CONCERN"
)

// CustomerClass segments customers for fee policy purposes.
type CustomerClass string

const (
	CustomerClassIndividual CustomerClass = "INDIVIDUAL"
	CustomerClassCommercial CustomerClass = "COMMERCIAL"
	CustomerClassSupplier   CustomerClass = "SUPPLIER"
)

// CancellationFee records a fee decision for a cancelled booking. At most one
// is created per cancellation event; only the Paid flag changes afterwards.
type CancellationFee struct {
	ID          string
	BookingID   string
	Reason      CancelReason
	CancelledBy CancelParty
	ChargedTo   CancelParty
	Amount      float64
	Note        string
	Paid        bool
	CreatedAt   time.Time
}
