package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
	"github.com/zatekoja/valetparking/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/valetparking/backend/pkg/errors"
)

const (
	DefaultRecentBookings = 3
	MaxRecentBookings     = 50
)

// driverBookingStatuses is the driver list filter. "ongoing" is not a
// booking status and matches nothing.
var driverBookingStatuses = []string{string(entities.BookingStatusActive), "ongoing"}

// ReportingService answers read-only dashboard and self-service queries.
// Identifiers are validated before any query; an unknown location, user,
// manager or driver is NOT_FOUND while an empty result is not an error.
type ReportingService struct {
	repo     repositories.ReportingRepository
	location *time.Location
	now      func() time.Time
}

// ReportingOption configures a ReportingService
type ReportingOption func(*ReportingService)

// WithClock overrides the clock used for "today" windows
func WithClock(now func() time.Time) ReportingOption {
	return func(s *ReportingService) {
		s.now = now
	}
}

// NewReportingService creates a new reporting service. Calendar days are
// computed in location.
func NewReportingService(repo repositories.ReportingRepository, location *time.Location, opts ...ReportingOption) *ReportingService {
	if location == nil {
		location = time.UTC
	}
	s := &ReportingService{
		repo:     repo,
		location: location,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day as a half-open window
func (s *ReportingService) Today() repositories.TimeWindow {
	now := s.now().In(s.location)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	return repositories.TimeWindow{From: from, To: from.AddDate(0, 0, 1)}
}

// ActiveCars counts cars currently parked at a location
func (s *ReportingService) ActiveCars(ctx context.Context, locationID string) (int64, error) {
	if err := s.requireRef(ctx, repositories.ReferenceLocation, "location_id", locationID); err != nil {
		return 0, err
	}
	return s.repo.CountByStatus(ctx, locationID, entities.BookingStatusParked)
}

// RetrievingCars counts cars being brought back at a location
func (s *ReportingService) RetrievingCars(ctx context.Context, locationID string) (int64, error) {
	if err := s.requireRef(ctx, repositories.ReferenceLocation, "location_id", locationID); err != nil {
		return 0, err
	}
	return s.repo.CountByStatus(ctx, locationID, entities.BookingStatusRetrieving)
}

// TodayBookings counts bookings started today at a location
func (s *ReportingService) TodayBookings(ctx context.Context, locationID string) (int64, error) {
	if err := s.requireRef(ctx, repositories.ReferenceLocation, "location_id", locationID); err != nil {
		return 0, err
	}
	return s.repo.CountStarted(ctx, locationID, s.Today())
}

// TodayRevenue sums payments of bookings started today at a location
func (s *ReportingService) TodayRevenue(ctx context.Context, locationID string) (float64, error) {
	if err := s.requireRef(ctx, repositories.ReferenceLocation, "location_id", locationID); err != nil {
		return 0, err
	}
	return s.repo.Revenue(ctx, locationID, s.Today())
}

// LocationDashboard gathers the four location counters in one call
func (s *ReportingService) LocationDashboard(ctx context.Context, locationID string) (*entities.LocationDashboard, error) {
	if err := s.requireRef(ctx, repositories.ReferenceLocation, "location_id", locationID); err != nil {
		return nil, err
	}

	dashboard := &entities.LocationDashboard{LocationID: locationID}
	var err error
	if dashboard.ActiveCars, err = s.repo.CountByStatus(ctx, locationID, entities.BookingStatusParked); err != nil {
		return nil, err
	}
	if dashboard.Retrieving, err = s.repo.CountByStatus(ctx, locationID, entities.BookingStatusRetrieving); err != nil {
		return nil, err
	}
	today := s.Today()
	if dashboard.TodayBookings, err = s.repo.CountStarted(ctx, locationID, today); err != nil {
		return nil, err
	}
	if dashboard.TodayRevenue, err = s.repo.Revenue(ctx, locationID, today); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// RecentBookings returns a user's newest bookings. limit <= 0 selects the
// default and larger values are capped.
func (s *ReportingService) RecentBookings(ctx context.Context, userID string, limit int) ([]*entities.Booking, error) {
	if err := s.requireRef(ctx, repositories.ReferenceUser, "user_id", userID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID, ClampRecentLimit(limit))
}

// ClampRecentLimit applies the default and maximum to a recent-bookings limit
func ClampRecentLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentBookings
	case limit > MaxRecentBookings:
		return MaxRecentBookings
	default:
		return limit
	}
}

// BookingHistory returns every booking of a user, newest first
func (s *ReportingService) BookingHistory(ctx context.Context, userID string) ([]*entities.Booking, error) {
	if err := s.requireRef(ctx, repositories.ReferenceUser, "user_id", userID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID, 0)
}

// BookingsWithVehicle returns a user's bookings with location and vehicle details
func (s *ReportingService) BookingsWithVehicle(ctx context.Context, userID string) ([]*entities.BookingWithVehicle, error) {
	if err := s.requireRef(ctx, repositories.ReferenceUser, "user_id", userID); err != nil {
		return nil, err
	}
	return s.repo.ListWithVehicleByUser(ctx, userID)
}

// UserPayments returns the payments linked to a user's bookings
func (s *ReportingService) UserPayments(ctx context.Context, userID string) ([]*entities.Payment, error) {
	if err := s.requireRef(ctx, repositories.ReferenceUser, "user_id", userID); err != nil {
		return nil, err
	}
	return s.repo.ListPaymentsByUser(ctx, userID)
}

// ManagerStats aggregates bookings and revenue across a manager's locations
func (s *ReportingService) ManagerStats(ctx context.Context, managerID string) (*entities.ManagerStats, error) {
	if err := s.requireRef(ctx, repositories.ReferenceUser, "manager_id", managerID); err != nil {
		return nil, err
	}
	return s.repo.ManagerStats(ctx, managerID)
}

// ManagerLocations lists the locations run by a manager
func (s *ReportingService) ManagerLocations(ctx context.Context, managerID string) ([]*entities.ParkingLocation, error) {
	if err := s.requireRef(ctx, repositories.ReferenceUser, "manager_id", managerID); err != nil {
		return nil, err
	}
	return s.repo.ListLocations(ctx, managerID)
}

// Locations lists every parking location
func (s *ReportingService) Locations(ctx context.Context) ([]*entities.ParkingLocation, error) {
	return s.repo.ListLocations(ctx, "")
}

// DriverCurrentBooking returns the booking a driver is working, or nil when
// the driver has none in progress.
func (s *ReportingService) DriverCurrentBooking(ctx context.Context, driverID string) (*entities.DriverCurrentBooking, error) {
	if err := s.requireRef(ctx, repositories.ReferenceUser, "driver_id", driverID); err != nil {
		return nil, err
	}
	return s.repo.CurrentForDriver(ctx, driverID)
}

// DriverBookings lists a driver's active bookings, newest first
func (s *ReportingService) DriverBookings(ctx context.Context, driverID string) ([]*entities.Booking, error) {
	if err := s.requireRef(ctx, repositories.ReferenceUser, "driver_id", driverID); err != nil {
		return nil, err
	}
	return s.repo.ListByDriver(ctx, driverID, driverBookingStatuses)
}

// requireRef validates the identifier shape, then checks the row exists
func (s *ReportingService) requireRef(ctx context.Context, kind repositories.ReferenceKind, field, id string) error {
	if err := ValidateID(field, id); err != nil {
		return err
	}
	ok, err := s.repo.Exists(ctx, kind, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s %s not found", field, id))
	}
	return nil
}

// ValidateID rejects a missing or malformed identifier
func ValidateID(field, id string) error {
	if id == "" {
		return apperrors.NewValidationError(fmt.Sprintf("%s is required", field))
	}
	if err := uuid.Validate(id); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid %s %q", field, id))
	}
	return nil
}
