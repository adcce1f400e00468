package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"freight/internal/domain"
	"freight/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	ListError   error

	// ConflictsBeforeSuccess makes Update fail with ErrConflict this many
	// times before applying, to exercise retry loops.
	ConflictsBeforeSuccess int32
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking seeds a booking into the mock repository.
func (m *MockBookingRepository) AddBooking(b *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *b
	m.bookings[b.ID] = &copy
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *b
	m.bookings[b.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *b
	return &copy, nil
}

func (m *MockBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if atomic.LoadInt32(&m.ConflictsBeforeSuccess) > 0 {
		atomic.AddInt32(&m.ConflictsBeforeSuccess, -1)
		return repository.ErrConflict
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != b.Version {
		return repository.ErrConflict
	}
	b.Version++
	copy := *b
	m.bookings[b.ID] = &copy
	return nil
}

func (m *MockBookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.list(func(b *domain.Booking) bool { return b.Status == status }), nil
}

func (m *MockBookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.list(func(b *domain.Booking) bool { return b.CustomerID == customerID }), nil
}

func (m *MockBookingRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.list(func(b *domain.Booking) bool { return b.DriverID == driverID }), nil
}

func (m *MockBookingRepository) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*domain.Booking, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.list(func(b *domain.Booking) bool {
		return b.Status == domain.BookingStatusCompleted &&
			!b.CompletedAt.Before(from) && b.CompletedAt.Before(to)
	}), nil
}

func (m *MockBookingRepository) list(match func(*domain.Booking) bool) []*domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if match(b) {
			copy := *b
			result = append(result, &copy)
		}
	}
	// Deterministic order for assertions.
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetBooking returns the stored booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// ──────────────────────────────────────────────
// MOCK CANCELLATION FEE REPOSITORY
// ──────────────────────────────────────────────

// MockCancellationFeeRepository is a mock implementation of CancellationFeeRepository.
type MockCancellationFeeRepository struct {
	mu   sync.RWMutex
	fees map[string]*domain.CancellationFee // keyed by booking ID

	CreateCallCount int32
	CreateError     error
}

// NewMockCancellationFeeRepository creates a new mock fee repository.
func NewMockCancellationFeeRepository() *MockCancellationFeeRepository {
	return &MockCancellationFeeRepository{
		fees: make(map[string]*domain.CancellationFee),
	}
}

func (m *MockCancellationFeeRepository) Create(ctx context.Context, fee *domain.CancellationFee) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *fee
	m.fees[fee.BookingID] = &copy
	return nil
}

func (m *MockCancellationFeeRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.CancellationFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fee, ok := m.fees[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *fee
	return &copy, nil
}

func (m *MockCancellationFeeRepository) MarkPaid(ctx context.Context, feeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fee := range m.fees {
		if fee.ID == feeID {
			fee.Paid = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// GetFee returns the fee recorded for a booking, for test assertions.
func (m *MockCancellationFeeRepository) GetFee(bookingID string) *domain.CancellationFee {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fees[bookingID]
}

// ──────────────────────────────────────────────
// MOCK BACKLOAD REPOSITORY
// ──────────────────────────────────────────────

// MockBackloadRepository is a mock implementation of BackloadRepository.
type MockBackloadRepository struct {
	mu            sync.RWMutex
	opportunities map[string]*domain.BackloadOpportunity

	CreateCallCount int32
	UpdateCallCount int32

	CreateError error
	ListError   error
}

// NewMockBackloadRepository creates a new mock backload repository.
func NewMockBackloadRepository() *MockBackloadRepository {
	return &MockBackloadRepository{
		opportunities: make(map[string]*domain.BackloadOpportunity),
	}
}

// AddOpportunity seeds an opportunity into the mock repository.
func (m *MockBackloadRepository) AddOpportunity(opp *domain.BackloadOpportunity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *opp
	m.opportunities[opp.ID] = &copy
}

func (m *MockBackloadRepository) Create(ctx context.Context, opp *domain.BackloadOpportunity) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *opp
	m.opportunities[opp.ID] = &copy
	return nil
}

func (m *MockBackloadRepository) GetByID(ctx context.Context, id string) (*domain.BackloadOpportunity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	opp, ok := m.opportunities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *opp
	return &copy, nil
}

func (m *MockBackloadRepository) Update(ctx context.Context, opp *domain.BackloadOpportunity) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.opportunities[opp.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *opp
	m.opportunities[opp.ID] = &copy
	return nil
}

func (m *MockBackloadRepository) ListAvailable(ctx context.Context, at time.Time) ([]*domain.BackloadOpportunity, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.BackloadOpportunity
	for _, opp := range m.opportunities {
		if opp.Open(at) {
			copy := *opp
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockBackloadRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.BackloadOpportunity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.BackloadOpportunity
	for _, opp := range m.opportunities {
		if opp.DriverID == driverID {
			copy := *opp
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetOpportunity returns the stored opportunity for test assertions.
func (m *MockBackloadRepository) GetOpportunity(id string) *domain.BackloadOpportunity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opportunities[id]
}

// ──────────────────────────────────────────────
// MOCK ROUTE UTILIZATION REPOSITORY
// ──────────────────────────────────────────────

// MockRouteUtilizationRepository is a mock implementation of RouteUtilizationRepository.
type MockRouteUtilizationRepository struct {
	mu   sync.RWMutex
	rows map[string]*domain.RouteUtilization

	IncrementCallCount int32
	IncrementError     error

	// FailOrigin/FailDest narrow IncrementError to one directed pair;
	// left empty, every increment fails.
	FailOrigin string
	FailDest   string
}

// NewMockRouteUtilizationRepository creates a new mock route repository.
func NewMockRouteUtilizationRepository() *MockRouteUtilizationRepository {
	return &MockRouteUtilizationRepository{
		rows: make(map[string]*domain.RouteUtilization),
	}
}

func routeKey(originCity, destCity string, periodStart time.Time) string {
	return originCity + "|" + destCity + "|" + periodStart.UTC().Format(time.RFC3339)
}

// AddRow seeds a utilization row into the mock repository.
func (m *MockRouteUtilizationRepository) AddRow(row *domain.RouteUtilization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *row
	m.rows[routeKey(row.OriginCity, row.DestCity, row.PeriodStart)] = &copy
}

func (m *MockRouteUtilizationRepository) GetForPeriod(ctx context.Context, originCity, destCity string, periodStart time.Time) (*domain.RouteUtilization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[routeKey(originCity, destCity, periodStart)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *row
	return &copy, nil
}

func (m *MockRouteUtilizationRepository) Increment(ctx context.Context, originCity, destCity string, periodStart, periodEnd time.Time, delta repository.RouteStatsDelta) error {
	atomic.AddInt32(&m.IncrementCallCount, 1)
	if m.IncrementError != nil {
		if m.FailOrigin == "" || (originCity == m.FailOrigin && destCity == m.FailDest) {
			return m.IncrementError
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := routeKey(originCity, destCity, periodStart)
	row, ok := m.rows[key]
	if !ok {
		row = &domain.RouteUtilization{
			ID:          key,
			OriginCity:  originCity,
			DestCity:    destCity,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		}
		m.rows[key] = row
	}
	row.OutboundCount += delta.OutboundCount
	row.ReturnCount += delta.ReturnCount
	row.EmptyKmTotal += delta.EmptyKmTotal
	row.EmptyKmSaved += delta.EmptyKmSaved
	if row.OutboundCount > 0 {
		row.UtilizationPct = float64(row.ReturnCount) / float64(row.OutboundCount) * 100
	}
	return nil
}

func (m *MockRouteUtilizationRepository) ListByRoute(ctx context.Context, originCity, destCity string) ([]*domain.RouteUtilization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.RouteUtilization
	for _, row := range m.rows {
		if row.OriginCity == originCity && row.DestCity == destCity {
			copy := *row
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PeriodStart.After(result[j].PeriodStart) })
	return result, nil
}

func (m *MockRouteUtilizationRepository) GetLatest(ctx context.Context, originCity, destCity string) (*domain.RouteUtilization, error) {
	rows, _ := m.ListByRoute(ctx, originCity, destCity)
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return rows[0], nil
}

// GetRow returns the stored row for test assertions.
func (m *MockRouteUtilizationRepository) GetRow(originCity, destCity string, periodStart time.Time) *domain.RouteUtilization {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rows[routeKey(originCity, destCity, periodStart)]
}

// ──────────────────────────────────────────────
// MOCK CONFIG REPOSITORY
// ──────────────────────────────────────────────

// MockConfigRepository is a mock implementation of ConfigRepository serving
// default policy values unless overridden.
type MockConfigRepository struct {
	mu         sync.RWMutex
	surgeRules []*domain.SurgeRule
	banWindows []*domain.BANWindow
	profiles   map[string]*domain.CustomerProfile

	FeeConfigOverride      *domain.FeeConfig
	DiscountConfigOverride *domain.DiscountConfig

	RecordCompletedCallCount int32
	ProfileError             error
}

// NewMockConfigRepository creates a new mock config repository.
func NewMockConfigRepository() *MockConfigRepository {
	return &MockConfigRepository{
		profiles: make(map[string]*domain.CustomerProfile),
	}
}

// AddSurgeRule seeds a surge rule.
func (m *MockConfigRepository) AddSurgeRule(rule *domain.SurgeRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surgeRules = append(m.surgeRules, rule)
}

// AddBANWindow seeds a blackout window.
func (m *MockConfigRepository) AddBANWindow(w *domain.BANWindow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banWindows = append(m.banWindows, w)
}

// SetProfile seeds a customer profile.
func (m *MockConfigRepository) SetProfile(p *domain.CustomerProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.CustomerID] = p
}

func (m *MockConfigRepository) ActiveSurgeRules(ctx context.Context, city string) ([]*domain.SurgeRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SurgeRule
	for _, r := range m.surgeRules {
		if r.Active && r.City == city {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *MockConfigRepository) SaveSurgeRule(ctx context.Context, rule *domain.SurgeRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.surgeRules {
		if r.ID == rule.ID {
			m.surgeRules[i] = rule
			return nil
		}
	}
	m.surgeRules = append(m.surgeRules, rule)
	return nil
}

func (m *MockConfigRepository) SetSurgeRuleActive(ctx context.Context, ruleID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.surgeRules {
		if r.ID == ruleID {
			r.Active = active
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockConfigRepository) FeeConfig(ctx context.Context) (domain.FeeConfig, error) {
	if m.FeeConfigOverride != nil {
		return *m.FeeConfigOverride, nil
	}
	return domain.DefaultFeeConfig(), nil
}

func (m *MockConfigRepository) SaveFeeConfig(ctx context.Context, cfg domain.FeeConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeeConfigOverride = &cfg
	return nil
}

func (m *MockConfigRepository) DiscountConfig(ctx context.Context) (domain.DiscountConfig, error) {
	if m.DiscountConfigOverride != nil {
		return *m.DiscountConfigOverride, nil
	}
	return domain.DefaultDiscountConfig(), nil
}

func (m *MockConfigRepository) SaveDiscountConfig(ctx context.Context, cfg domain.DiscountConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DiscountConfigOverride = &cfg
	return nil
}

func (m *MockConfigRepository) ActiveBANWindows(ctx context.Context, city string) ([]*domain.BANWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.BANWindow
	for _, w := range m.banWindows {
		if w.Active && w.City == city {
			result = append(result, w)
		}
	}
	return result, nil
}

func (m *MockConfigRepository) CustomerProfile(ctx context.Context, customerID string) (*domain.CustomerProfile, error) {
	if m.ProfileError != nil {
		return nil, m.ProfileError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[customerID]
	if !ok {
		return &domain.CustomerProfile{
			CustomerID: customerID,
			Class:      domain.CustomerClassIndividual,
		}, nil
	}
	copy := *p
	return &copy, nil
}

func (m *MockConfigRepository) RecordCompletedBooking(ctx context.Context, customerID string, spend float64) error {
	atomic.AddInt32(&m.RecordCompletedCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[customerID]
	if !ok {
		p = &domain.CustomerProfile{
			CustomerID: customerID,
			Class:      domain.CustomerClassIndividual,
		}
		m.profiles[customerID] = p
	}
	p.BookingCount++
	p.TotalSpent += spend
	return nil
}

// ──────────────────────────────────────────────
// MOCK VEHICLE TYPE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleTypeRepository is a mock implementation of VehicleTypeRepository.
type MockVehicleTypeRepository struct {
	mu    sync.RWMutex
	types map[string]*domain.VehicleType
}

// NewMockVehicleTypeRepository creates a new mock vehicle type repository.
func NewMockVehicleTypeRepository() *MockVehicleTypeRepository {
	return &MockVehicleTypeRepository{
		types: make(map[string]*domain.VehicleType),
	}
}

// AddVehicleType seeds a vehicle type.
func (m *MockVehicleTypeRepository) AddVehicleType(vt *domain.VehicleType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[vt.ID] = vt
}

func (m *MockVehicleTypeRepository) GetByID(ctx context.Context, id string) (*domain.VehicleType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vt, ok := m.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vt
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// PublishedEvent records one Publish call.
type PublishedEvent struct {
	RoutingKey string
	Event      any
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{RoutingKey: routingKey, Event: event})
	return nil
}

// Events returns a snapshot of published events.
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]PublishedEvent(nil), m.events...)
}

// EventsFor returns published events matching a routing key.
func (m *MockPublisher) EventsFor(routingKey string) []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []PublishedEvent
	for _, e := range m.events {
		if e.RoutingKey == routingKey {
			result = append(result, e)
		}
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK WINDOW LOCK
// ──────────────────────────────────────────────

// MockWindowLock is a mock implementation of WindowLockInterface.
type MockWindowLock struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireError error
}

// NewMockWindowLock creates a new mock window lock.
func NewMockWindowLock() *MockWindowLock {
	return &MockWindowLock{held: make(map[string]bool)}
}

func (m *MockWindowLock) AcquireWindowLock(ctx context.Context, windowKey string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[windowKey] {
		return false, nil
	}
	m.held[windowKey] = true
	return true, nil
}

func (m *MockWindowLock) ReleaseWindowLock(ctx context.Context, windowKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, windowKey)
	return nil
}

// Hold pre-acquires a lock so a test can simulate a concurrent run.
func (m *MockWindowLock) Hold(windowKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[windowKey] = true
}

// ──────────────────────────────────────────────
// MOCK COMPLETION MARKER
// ──────────────────────────────────────────────

// MockCompletionMarker is a mock implementation of CompletionMarkerInterface.
type MockCompletionMarker struct {
	mu     sync.Mutex
	marked map[string]bool
}

// NewMockCompletionMarker creates a new mock completion marker.
func NewMockCompletionMarker() *MockCompletionMarker {
	return &MockCompletionMarker{marked: make(map[string]bool)}
}

func (m *MockCompletionMarker) MarkProcessed(ctx context.Context, windowKey, bookingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := windowKey + ":" + bookingID
	if m.marked[key] {
		return false, nil
	}
	m.marked[key] = true
	return true, nil
}

func (m *MockCompletionMarker) ClearProcessed(ctx context.Context, windowKey, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.marked, windowKey+":"+bookingID)
	return nil
}

// Marked reports whether a booking currently holds its dedup claim.
func (m *MockCompletionMarker) Marked(windowKey, bookingID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marked[windowKey+":"+bookingID]
}
