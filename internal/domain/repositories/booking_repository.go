package repositories

import (
	"context"

	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
)

// BookingRepository is the booking store. It owns persistence; status changes
// go through CompareAndSetStatus only.
type BookingRepository interface {
	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// CompareAndSetStatus applies update in a single conditional statement.
	// It returns the committed row and true when the row matched, or nil and
	// false when the booking is absent or no longer in update.Expected.
	CompareAndSetStatus(ctx context.Context, update StatusUpdate) (*entities.Booking, bool, error)

	// DriverExists reports whether id names a user with the driver role
	DriverExists(ctx context.Context, id string) (bool, error)
}

// StatusUpdate describes one compare-and-set transition
type StatusUpdate struct {
	BookingID string
	Expected  entities.BookingStatus
	Target    entities.BookingStatus

	// DriverID is written when non-nil; the update then also requires that no
	// driver is linked yet.
	DriverID *string

	// StampStart and StampEnd set start_time / end_time to the store's clock.
	StampStart bool
	StampEnd   bool
}
