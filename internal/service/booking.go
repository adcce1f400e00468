package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"freight/internal/domain"
	"freight/internal/events"
	"freight/internal/repository"
)

// transitionRetries bounds optimistic-concurrency retries before surfacing
// the conflict to the caller.
const transitionRetries = 3

// backloadWindow is how long a freed vehicle stays offered for a return load.
const backloadWindow = 24 * time.Hour

// BookingService owns booking creation and the lifecycle operations.
type BookingService struct {
	bookingRepo  repository.BookingRepository
	feeRepo      repository.CancellationFeeRepository
	backloadRepo repository.BackloadRepository
	configRepo   repository.ConfigRepository
	vehicleRepo  repository.VehicleTypeRepository
	fareCalc     *FareCalculator
	feeCalc      *CancellationFeeCalculator
	publisher    events.Publisher
	now          func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	feeRepo repository.CancellationFeeRepository,
	backloadRepo repository.BackloadRepository,
	configRepo repository.ConfigRepository,
	vehicleRepo repository.VehicleTypeRepository,
	fareCalc *FareCalculator,
	feeCalc *CancellationFeeCalculator,
	publisher events.Publisher,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		feeRepo:      feeRepo,
		backloadRepo: backloadRepo,
		configRepo:   configRepo,
		vehicleRepo:  vehicleRepo,
		fareCalc:     fareCalc,
		feeCalc:      feeCalc,
		publisher:    publisher,
		now:          time.Now,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	CustomerID     string
	VehicleTypeID  string
	Kind           domain.BookingKind
	Origin         domain.Location
	Destination    domain.Location
	Cargo          domain.Cargo
	PickupAt       time.Time
	FlexiblePickup bool

	// CapacityUtilization applies to shared loads only; fraction in [0,1].
	CapacityUtilization float64

	// OpportunityID links a backload booking to the opportunity it fills.
	OpportunityID string
}

// CreateBooking validates, prices and persists a new booking in PENDING.
// Validation is all-or-nothing: nothing is written on rejection.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	vehicleType, err := s.vehicleRepo.GetByID(ctx, req.VehicleTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidVehicleType
		}
		return nil, err
	}
	if !vehicleType.Active {
		return nil, ErrInvalidVehicleType
	}

	// Blackout windows are checked before anything is written.
	banWindows, err := s.configRepo.ActiveBANWindows(ctx, req.Origin.City)
	if err != nil {
		return nil, err
	}
	for _, w := range banWindows {
		if w.Blocks(req.Origin.City, req.PickupAt) {
			return nil, ErrPickupWindowBlocked
		}
	}

	surgeRules, err := s.configRepo.ActiveSurgeRules(ctx, req.Origin.City)
	if err != nil {
		return nil, err
	}
	discountCfg, err := s.configRepo.DiscountConfig(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.configRepo.CustomerProfile(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	quote := s.fareCalc.Price(vehicleType, req.Origin, req.Destination, req.Kind, req.PickupAt, surgeRules)

	// Additional discounts are computed against the base-priced amount,
	// before the kind and surge multipliers.
	baseAmount := quote.BaseFare + quote.DistanceKm*quote.PerKmRate
	discount := TierDiscount(discountCfg, TierFor(discountCfg, profile), baseAmount)
	switch req.Kind {
	case domain.BookingKindBackload:
		discount += BackloadDiscount(discountCfg, baseAmount, req.FlexiblePickup)
	case domain.BookingKindSharedLoad:
		discount += SharedLoadDiscount(discountCfg, baseAmount, req.CapacityUtilization)
	}
	if discount > quote.Total {
		discount = quote.Total
	}
	discount = round2(discount)

	booking := &domain.Booking{
		ID:             uuid.New().String(),
		CustomerID:     req.CustomerID,
		VehicleTypeID:  req.VehicleTypeID,
		Kind:           req.Kind,
		Status:         domain.BookingStatusPending,
		Origin:         req.Origin,
		Destination:    req.Destination,
		Cargo:          req.Cargo,
		TotalFare:      quote.Total,
		DiscountAmount: discount,
		FinalFare:      round2(quote.Total - discount),
		PickupAt:       req.PickupAt,
		FlexiblePickup: req.FlexiblePickup,
		CreatedAt:      s.now().UTC(),
		Version:        1,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	// A backload booking claims its opportunity on creation.
	if req.OpportunityID != "" {
		if err := s.claimOpportunity(ctx, req.OpportunityID, booking); err != nil {
			log.Printf("booking %s: claim opportunity %s failed: %v", booking.ID, req.OpportunityID, err)
		}
	}

	return booking, nil
}

func (s *BookingService) validateCreateRequest(req CreateBookingRequest) error {
	if req.CustomerID == "" {
		return ErrInvalidCustomerID
	}
	if req.VehicleTypeID == "" {
		return ErrInvalidVehicleType
	}
	switch req.Kind {
	case domain.BookingKindStandard, domain.BookingKindBackload, domain.BookingKindSharedLoad:
	default:
		return ErrInvalidBookingKind
	}
	if err := validateLocation(req.Origin); err != nil {
		return err
	}
	if err := validateLocation(req.Destination); err != nil {
		return err
	}
	if req.Cargo.GrossWeightKg < 0 || req.Cargo.NetWeightKg < 0 || req.Cargo.BoxCount < 0 {
		return ErrInvalidCargo
	}
	if req.PickupAt.IsZero() {
		return ErrInvalidPickupTime
	}
	if req.CapacityUtilization < 0 || req.CapacityUtilization > 1 {
		return ErrInvalidDiscountRate
	}
	return nil
}

func validateLocation(loc domain.Location) error {
	if loc.City == "" {
		return ErrInvalidLocation
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// TransitionRequest carries a lifecycle event for a booking. DriverID and
// VehicleID accompany ASSIGN_DRIVER only.
type TransitionRequest struct {
	BookingID string
	Event     BookingEvent
	DriverID  string
	VehicleID string
}

// Transition applies a single lifecycle event. Concurrent transitions on the
// same booking serialize through the version check; a loser retries against
// the fresh state and ultimately surfaces ErrConflict.
func (s *BookingService) Transition(ctx context.Context, req TransitionRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.Event == EventCancel {
		// Cancellations carry policy and fee behavior; they go through Cancel.
		return nil, ErrInvalidTransition
	}
	if req.Event == EventAssignDriver && req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	var booking *domain.Booking
	for attempt := 0; attempt < transitionRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
		if err != nil {
			return nil, err
		}

		if err := ApplyTransition(booking, req.Event, s.now()); err != nil {
			return nil, err
		}
		if req.Event == EventAssignDriver {
			booking.DriverID = req.DriverID
			booking.VehicleID = req.VehicleID
		}

		err = s.bookingRepo.Update(ctx, booking)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		if attempt == transitionRetries-1 {
			return nil, ErrConflict
		}
	}

	if booking.Status == domain.BookingStatusCompleted {
		s.onCompleted(ctx, booking)
	}

	return booking, nil
}

// ReassignDriver changes the assigned driver. Only permitted while PENDING
// or DRIVER_ASSIGNED; after acceptance the assignment is fixed.
func (s *BookingService) ReassignDriver(ctx context.Context, bookingID, driverID, vehicleID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !CanReassignDriver(booking.Status) {
		return nil, ErrReassignNotAllowed
	}

	booking.DriverID = driverID
	booking.VehicleID = vehicleID
	if booking.Status == domain.BookingStatusPending {
		if err := ApplyTransition(booking, EventAssignDriver, s.now()); err != nil {
			return nil, err
		}
	} else {
		booking.AssignedAt = s.now().UTC()
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return booking, nil
}

// CancelRequest contains the parameters for cancelling a booking.
type CancelRequest struct {
	BookingID   string
	Reason      domain.CancelReason
	CancelledBy domain.CancelParty
	Note        string
}

// Cancel cancels a booking. The acting party's gate is enforced first; the
// fee policy then decides whether a fee record is written. No mutation
// happens when the gate rejects.
func (s *BookingService) Cancel(ctx context.Context, req CancelRequest) (*domain.Booking, *domain.CancellationFee, error) {
	if req.BookingID == "" {
		return nil, nil, ErrInvalidBookingID
	}

	feeCfg, err := s.configRepo.FeeConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	var booking *domain.Booking
	var fee *domain.CancellationFee

	for attempt := 0; attempt < transitionRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		booking, err = s.bookingRepo.GetByID(ctx, req.BookingID)
		if err != nil {
			return nil, nil, err
		}

		now := s.now().UTC()
		switch req.CancelledBy {
		case domain.CancelPartyCustomer:
			if !s.feeCalc.CanCustomerCancel(feeCfg, booking, now) {
				return nil, nil, ErrCancellationNotAllowed
			}
		case domain.CancelPartyDriver:
			if !s.feeCalc.CanDriverCancel(feeCfg, booking, now, booking.ReachedAt) {
				return nil, nil, ErrCancellationNotAllowed
			}
		}

		profile, err := s.configRepo.CustomerProfile(ctx, booking.CustomerID)
		if err != nil {
			return nil, nil, err
		}

		if err := ApplyTransition(booking, EventCancel, now); err != nil {
			return nil, nil, err
		}
		booking.CancelReason = string(req.Reason)

		fee = s.feeCalc.Evaluate(feeCfg, FeeInput{
			Booking:         booking,
			Reason:          req.Reason,
			CancelledBy:     req.CancelledBy,
			CustomerClass:   profile.Class,
			DriverReachedAt: booking.ReachedAt,
			Now:             now,
		})

		err = s.bookingRepo.Update(ctx, booking)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, nil, err
		}
		if attempt == transitionRetries-1 {
			return nil, nil, ErrConflict
		}
	}

	if fee != nil {
		if req.Note != "" {
			fee.Note = req.Note
		}
		if err := s.feeRepo.Create(ctx, fee); err != nil {
			return nil, nil, err
		}
		s.publish(ctx, events.KeyFeeCharged, events.FeeCharged{
			FeeID:     fee.ID,
			BookingID: fee.BookingID,
			ChargedTo: string(fee.ChargedTo),
			Amount:    fee.Amount,
			CreatedAt: fee.CreatedAt,
		})
	}

	s.publish(ctx, events.KeyBookingCancelled, events.BookingCancelled{
		BookingID:   booking.ID,
		CustomerID:  booking.CustomerID,
		DriverID:    booking.DriverID,
		Reason:      booking.CancelReason,
		CancelledBy: string(req.CancelledBy),
		CancelledAt: booking.CancelledAt,
	})

	return booking, fee, nil
}

// QuoteFare prices a prospective trip without creating anything.
func (s *BookingService) QuoteFare(ctx context.Context, vehicleTypeID string, origin, destination domain.Location, kind domain.BookingKind, pickupAt time.Time) (FareQuote, error) {
	if err := validateLocation(origin); err != nil {
		return FareQuote{}, err
	}
	if err := validateLocation(destination); err != nil {
		return FareQuote{}, err
	}

	vehicleType, err := s.vehicleRepo.GetByID(ctx, vehicleTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return FareQuote{}, ErrInvalidVehicleType
		}
		return FareQuote{}, err
	}

	surgeRules, err := s.configRepo.ActiveSurgeRules(ctx, origin.City)
	if err != nil {
		return FareQuote{}, err
	}

	return s.fareCalc.Price(vehicleType, origin, destination, kind, pickupAt, surgeRules), nil
}

// GetBooking retrieves a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.bookingRepo.GetByID(ctx, bookingID)
}

// ListBookingsByStatus retrieves bookings in the given status.
func (s *BookingService) ListBookingsByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	return s.bookingRepo.ListByStatus(ctx, status)
}

// ListBookingsByCustomer retrieves a customer's bookings.
func (s *BookingService) ListBookingsByCustomer(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	return s.bookingRepo.ListByCustomer(ctx, customerID)
}

// GetCancellationFee retrieves the fee recorded for a cancelled booking.
func (s *BookingService) GetCancellationFee(ctx context.Context, bookingID string) (*domain.CancellationFee, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.feeRepo.GetByBookingID(ctx, bookingID)
}

// SettleCancellationFee marks a fee paid once the payment collaborator
// confirms collection.
func (s *BookingService) SettleCancellationFee(ctx context.Context, feeID string) error {
	if feeID == "" {
		return ErrInvalidBookingID
	}
	return s.feeRepo.MarkPaid(ctx, feeID)
}

// onCompleted runs the completion side effects: customer activity counters,
// the backload opportunity for the freed vehicle, and the outward completed
// signal. The transition itself already committed; failures here are logged,
// not propagated.
func (s *BookingService) onCompleted(ctx context.Context, b *domain.Booking) {
	if err := s.configRepo.RecordCompletedBooking(ctx, b.CustomerID, b.FinalFare); err != nil {
		log.Printf("booking %s: record customer activity failed: %v", b.ID, err)
	}

	if err := s.openReturnOpportunity(ctx, b); err != nil {
		log.Printf("booking %s: open backload opportunity failed: %v", b.ID, err)
	}

	if b.Kind == domain.BookingKindBackload {
		s.completeMatchedOpportunity(ctx, b)
	}

	s.publish(ctx, events.KeyBookingCompleted, events.BookingCompleted{
		BookingID:   b.ID,
		CustomerID:  b.CustomerID,
		DriverID:    b.DriverID,
		VehicleID:   b.VehicleID,
		OriginCity:  b.Origin.City,
		DestCity:    b.Destination.City,
		FinalFare:   b.FinalFare,
		CompletedAt: b.CompletedAt,
	})
}

// openReturnOpportunity offers the delivered vehicle's return leg for
// matching. The return is priced as a backload so the estimate reflects what
// a matched shipper would actually pay.
func (s *BookingService) openReturnOpportunity(ctx context.Context, b *domain.Booking) error {
	if b.DriverID == "" || b.VehicleID == "" {
		return nil
	}

	vehicleType, err := s.vehicleRepo.GetByID(ctx, b.VehicleTypeID)
	if err != nil {
		return err
	}

	quote := s.fareCalc.Price(vehicleType, b.Destination, b.Origin, domain.BookingKindBackload, b.CompletedAt, nil)

	opp := &domain.BackloadOpportunity{
		ID:             uuid.New().String(),
		VehicleID:      b.VehicleID,
		DriverID:       b.DriverID,
		FromCity:       b.Destination.City,
		ToCity:         b.Origin.City,
		AvailableFrom:  b.CompletedAt,
		AvailableUntil: b.CompletedAt.Add(backloadWindow),
		CapacityKg:     vehicleType.CapacityKg,
		EstimatedPrice: quote.Total,
		Status:         domain.BackloadStatusAvailable,
		CreatedAt:      s.now().UTC(),
	}

	return s.backloadRepo.Create(ctx, opp)
}

// claimOpportunity marks an opportunity MATCHED by a new backload booking.
func (s *BookingService) claimOpportunity(ctx context.Context, opportunityID string, b *domain.Booking) error {
	opp, err := s.backloadRepo.GetByID(ctx, opportunityID)
	if err != nil {
		return err
	}
	if !opp.Open(s.now()) {
		return ErrBackloadNotOpen
	}

	opp.Status = domain.BackloadStatusMatched
	opp.MatchedBookingID = b.ID
	return s.backloadRepo.Update(ctx, opp)
}

// completeMatchedOpportunity closes the opportunity a finished backload
// booking was filling.
func (s *BookingService) completeMatchedOpportunity(ctx context.Context, b *domain.Booking) {
	opps, err := s.backloadRepo.ListByDriver(ctx, b.DriverID)
	if err != nil {
		log.Printf("booking %s: list opportunities failed: %v", b.ID, err)
		return
	}
	for _, opp := range opps {
		if opp.MatchedBookingID == b.ID && opp.Status == domain.BackloadStatusMatched {
			opp.Status = domain.BackloadStatusCompleted
			if err := s.backloadRepo.Update(ctx, opp); err != nil {
				log.Printf("booking %s: complete opportunity %s failed: %v", b.ID, opp.ID, err)
			}
			return
		}
	}
}

func (s *BookingService) publish(ctx context.Context, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		log.Printf("publish %s failed: %v", key, err)
	}
}
