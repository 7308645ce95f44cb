package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/valetparking/backend/internal/application/services"
	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
	"github.com/zatekoja/valetparking/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/valetparking/backend/pkg/errors"
)

// MockReportingRepository is a mock implementation of ReportingRepository
type MockReportingRepository struct {
	mock.Mock
}

func (m *MockReportingRepository) Exists(ctx context.Context, kind repositories.ReferenceKind, id string) (bool, error) {
	args := m.Called(ctx, kind, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReportingRepository) CountByStatus(ctx context.Context, locationID string, status entities.BookingStatus) (int64, error) {
	args := m.Called(ctx, locationID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportingRepository) CountStarted(ctx context.Context, locationID string, window repositories.TimeWindow) (int64, error) {
	args := m.Called(ctx, locationID, window)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportingRepository) Revenue(ctx context.Context, locationID string, window repositories.TimeWindow) (float64, error) {
	args := m.Called(ctx, locationID, window)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockReportingRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Booking, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockReportingRepository) ListWithVehicleByUser(ctx context.Context, userID string) ([]*entities.BookingWithVehicle, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*entities.BookingWithVehicle), args.Error(1)
}

func (m *MockReportingRepository) ListPaymentsByUser(ctx context.Context, userID string) ([]*entities.Payment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*entities.Payment), args.Error(1)
}

func (m *MockReportingRepository) ManagerStats(ctx context.Context, managerID string) (*entities.ManagerStats, error) {
	args := m.Called(ctx, managerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ManagerStats), args.Error(1)
}

func (m *MockReportingRepository) ListLocations(ctx context.Context, managerID string) ([]*entities.ParkingLocation, error) {
	args := m.Called(ctx, managerID)
	return args.Get(0).([]*entities.ParkingLocation), args.Error(1)
}

func (m *MockReportingRepository) CurrentForDriver(ctx context.Context, driverID string) (*entities.DriverCurrentBooking, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DriverCurrentBooking), args.Error(1)
}

func (m *MockReportingRepository) ListByDriver(ctx context.Context, driverID string, statuses []string) ([]*entities.Booking, error) {
	args := m.Called(ctx, driverID, statuses)
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func TestReportingService_Today(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC on the 3rd is already the 4th in Kolkata
	now := time.Date(2026, 5, 3, 20, 0, 0, 0, time.UTC)
	service := services.NewReportingService(new(MockReportingRepository), kolkata,
		services.WithClock(func() time.Time { return now }))

	window := service.Today()
	assert.True(t, window.From.Equal(time.Date(2026, 5, 4, 0, 0, 0, 0, kolkata)))
	assert.True(t, window.To.Equal(time.Date(2026, 5, 5, 0, 0, 0, 0, kolkata)))
	assert.Equal(t, 24*time.Hour, window.To.Sub(window.From))
}

func TestReportingService_RejectsMalformedIDsBeforeQuerying(t *testing.T) {
	ctx := context.Background()
	repo := new(MockReportingRepository)
	service := services.NewReportingService(repo, time.UTC)

	calls := map[string]func() error{
		"active cars": func() error { _, err := service.ActiveCars(ctx, "42"); return err },
		"revenue":     func() error { _, err := service.TodayRevenue(ctx, ""); return err },
		"history":     func() error { _, err := service.BookingHistory(ctx, "abc"); return err },
		"payments":    func() error { _, err := service.UserPayments(ctx, "1; DROP TABLE"); return err },
		"manager":     func() error { _, err := service.ManagerStats(ctx, "m-1"); return err },
		"driver":      func() error { _, err := service.DriverCurrentBooking(ctx, "d-1"); return err },
		"dashboard":   func() error { _, err := service.LocationDashboard(ctx, "x"); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.True(t, apperrors.IsType(call(), apperrors.ErrorTypeValidation))
		})
	}
	repo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportingService_UnknownReferenceIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockReportingRepository)
	service := services.NewReportingService(repo, time.UTC)

	locationID := uuid.NewString()
	repo.On("Exists", ctx, repositories.ReferenceLocation, locationID).Return(false, nil)

	_, err := service.ActiveCars(ctx, locationID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	repo.AssertNotCalled(t, "CountByStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportingService_Counters(t *testing.T) {
	ctx := context.Background()
	repo := new(MockReportingRepository)
	now := time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC)
	service := services.NewReportingService(repo, time.UTC, services.WithClock(func() time.Time { return now }))
	today := service.Today()

	locationID := uuid.NewString()
	repo.On("Exists", ctx, repositories.ReferenceLocation, locationID).Return(true, nil)
	repo.On("CountByStatus", ctx, locationID, entities.BookingStatusParked).Return(int64(7), nil)
	repo.On("CountByStatus", ctx, locationID, entities.BookingStatusRetrieving).Return(int64(2), nil)
	repo.On("CountStarted", ctx, locationID, today).Return(int64(11), nil)
	repo.On("Revenue", ctx, locationID, today).Return(430.0, nil)

	active, err := service.ActiveCars(ctx, locationID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), active)

	retrieving, err := service.RetrievingCars(ctx, locationID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), retrieving)

	started, err := service.TodayBookings(ctx, locationID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), started)

	revenue, err := service.TodayRevenue(ctx, locationID)
	require.NoError(t, err)
	assert.InDelta(t, 430.0, revenue, 0.001)

	dashboard, err := service.LocationDashboard(ctx, locationID)
	require.NoError(t, err)
	assert.Equal(t, &entities.LocationDashboard{
		LocationID:    locationID,
		ActiveCars:    7,
		Retrieving:    2,
		TodayBookings: 11,
		TodayRevenue:  430.0,
	}, dashboard)
}

func TestReportingService_RecentBookingsLimit(t *testing.T) {
	tests := []struct {
		requested int
		applied   int
	}{
		{0, services.DefaultRecentBookings},
		{-5, services.DefaultRecentBookings},
		{10, 10},
		{500, services.MaxRecentBookings},
	}

	for _, tt := range tests {
		ctx := context.Background()
		repo := new(MockReportingRepository)
		service := services.NewReportingService(repo, time.UTC)

		userID := uuid.NewString()
		repo.On("Exists", ctx, repositories.ReferenceUser, userID).Return(true, nil)
		repo.On("ListByUser", ctx, userID, tt.applied).Return([]*entities.Booking{}, nil).Once()

		bookings, err := service.RecentBookings(ctx, userID, tt.requested)
		require.NoError(t, err)
		assert.Empty(t, bookings)
		repo.AssertExpectations(t)
	}
}

func TestReportingService_DriverViews(t *testing.T) {
	ctx := context.Background()
	repo := new(MockReportingRepository)
	service := services.NewReportingService(repo, time.UTC)

	driverID := uuid.NewString()
	repo.On("Exists", ctx, repositories.ReferenceUser, driverID).Return(true, nil)
	repo.On("CurrentForDriver", ctx, driverID).Return(nil, nil)
	repo.On("ListByDriver", ctx, driverID, []string{"active", "ongoing"}).Return([]*entities.Booking{}, nil)

	current, err := service.DriverCurrentBooking(ctx, driverID)
	require.NoError(t, err)
	assert.Nil(t, current)

	bookings, err := service.DriverBookings(ctx, driverID)
	require.NoError(t, err)
	assert.Empty(t, bookings)
	repo.AssertExpectations(t)
}

func TestReportingService_ManagerViews(t *testing.T) {
	ctx := context.Background()
	repo := new(MockReportingRepository)
	service := services.NewReportingService(repo, time.UTC)

	managerID := uuid.NewString()
	locations := []*entities.ParkingLocation{{ID: uuid.NewString(), Name: "Central Mall", ManagerID: &managerID}}
	repo.On("Exists", ctx, repositories.ReferenceUser, managerID).Return(true, nil)
	repo.On("ManagerStats", ctx, managerID).Return(&entities.ManagerStats{TotalBookings: 4, TotalRevenue: 99.5}, nil)
	repo.On("ListLocations", ctx, managerID).Return(locations, nil)
	repo.On("ListLocations", ctx, "").Return(locations, nil)

	stats, err := service.ManagerStats(ctx, managerID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalBookings)

	mine, err := service.ManagerLocations(ctx, managerID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := service.Locations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	repo.AssertExpectations(t)
}

func TestReportingService_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	repo := new(MockReportingRepository)
	service := services.NewReportingService(repo, time.UTC)

	userID := uuid.NewString()
	repo.On("Exists", ctx, repositories.ReferenceUser, userID).
		Return(false, apperrors.NewUnavailableError("failed to check reference", context.DeadlineExceeded))

	_, err := service.UserPayments(ctx, userID)
	assert.True(t, apperrors.Retryable(err))
}
