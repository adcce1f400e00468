package tests

import (
	"freight/internal/domain"
	"freight/internal/events"
	"freight/internal/geo"
	"freight/internal/service"
)

// newBookingService wires a BookingService on mocks with the production
// distance table and policy calculators.
func newBookingService(
	bookingRepo *MockBookingRepository,
	feeRepo *MockCancellationFeeRepository,
	backloadRepo *MockBackloadRepository,
	configRepo *MockConfigRepository,
	vehicleRepo *MockVehicleTypeRepository,
	publisher events.Publisher,
) *service.BookingService {
	distances := geo.NewStaticDistanceSource()
	return service.NewBookingService(
		bookingRepo, feeRepo, backloadRepo, configRepo, vehicleRepo,
		service.NewFareCalculator(distances),
		service.NewCancellationFeeCalculator(),
		publisher,
	)
}

// standardVehicleTypes returns a vehicle type repository seeded with the
// baseline truck used across tests.
func standardVehicleTypes() *MockVehicleTypeRepository {
	repo := NewMockVehicleTypeRepository()
	repo.AddVehicleType(&domain.VehicleType{
		ID:         "vt-standard",
		Name:       "Standard Truck",
		BaseFare:   50,
		PerKmRate:  2.5,
		CapacityKg: 10000,
		Active:     true,
	})
	return repo
}
