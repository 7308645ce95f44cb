package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
)

// ReferenceKind names a table whose rows other queries refer to by ID
type ReferenceKind string

const (
	ReferenceLocation ReferenceKind = "parking_locations"
	ReferenceUser     ReferenceKind = "users"
)

// TimeWindow is a half-open interval [From, To)
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// ReportingRepository answers read-only questions over bookings and the
// reference tables joined to them. Implementations never mutate.
type ReportingRepository interface {
	// Exists reports whether a referenced row is present
	Exists(ctx context.Context, kind ReferenceKind, id string) (bool, error)

	// CountByStatus counts bookings at a location in the given status
	CountByStatus(ctx context.Context, locationID string, status entities.BookingStatus) (int64, error)

	// CountStarted counts bookings at a location whose start_time falls in window
	CountStarted(ctx context.Context, locationID string, window TimeWindow) (int64, error)

	// Revenue sums payments of bookings at a location started in window
	Revenue(ctx context.Context, locationID string, window TimeWindow) (float64, error)

	// ListByUser returns a user's bookings newest first; limit <= 0 means all
	ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Booking, error)

	// ListWithVehicleByUser returns a user's bookings joined with location and vehicle
	ListWithVehicleByUser(ctx context.Context, userID string) ([]*entities.BookingWithVehicle, error)

	// ListPaymentsByUser returns payments linked to the user's bookings
	ListPaymentsByUser(ctx context.Context, userID string) ([]*entities.Payment, error)

	// ManagerStats aggregates bookings and revenue over a manager's locations
	ManagerStats(ctx context.Context, managerID string) (*entities.ManagerStats, error)

	// ListLocations returns all locations, or those of one manager when managerID is set
	ListLocations(ctx context.Context, managerID string) ([]*entities.ParkingLocation, error)

	// CurrentForDriver returns the driver's in-progress booking, or nil when none
	CurrentForDriver(ctx context.Context, driverID string) (*entities.DriverCurrentBooking, error)

	// ListByDriver returns a driver's bookings in any of statuses, newest first
	ListByDriver(ctx context.Context, driverID string, statuses []string) ([]*entities.Booking, error)
}
