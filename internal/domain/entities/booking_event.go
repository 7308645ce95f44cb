package entities

import (
	"time"

	"github.com/google/uuid"
)

// BookingEvent records a committed lifecycle transition
type BookingEvent struct {
	ID         string        `json:"id"`
	BookingID  string        `json:"booking_id"`
	LocationID string        `json:"location_id"`
	DriverID   string        `json:"driver_id,omitempty"`
	From       BookingStatus `json:"from"`
	To         BookingStatus `json:"to"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewBookingEvent builds the event for a booking that just moved from `from`
// to its current status.
func NewBookingEvent(booking *Booking, from BookingStatus) *BookingEvent {
	event := &BookingEvent{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		LocationID: booking.LocationID,
		From:       from,
		To:         booking.Status,
		OccurredAt: time.Now().UTC(),
	}
	if booking.DriverID != nil {
		event.DriverID = *booking.DriverID
	}
	return event
}
