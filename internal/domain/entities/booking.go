package entities

import (
	"errors"
	"fmt"
	"time"
)

// BookingStatus represents where a booking is in the valet lifecycle
type BookingStatus string

const (
	BookingStatusRequested  BookingStatus = "requested"
	BookingStatusActive     BookingStatus = "active"
	BookingStatusParked     BookingStatus = "parked"
	BookingStatusRetrieving BookingStatus = "retrieving"
	BookingStatusCompleted  BookingStatus = "completed"
)

// ErrInvalidTransition is returned by NextStatus when a status pair is not in
// AllowedTransitions.
var ErrInvalidTransition = errors.New("invalid booking status transition")

// ErrUnknownStatus is returned when a status string is outside the enumeration.
var ErrUnknownStatus = errors.New("unknown booking status")

var statusRank = map[BookingStatus]int{
	BookingStatusRequested:  0,
	BookingStatusActive:     1,
	BookingStatusParked:     2,
	BookingStatusRetrieving: 3,
	BookingStatusCompleted:  4,
}

// AllowedTransitions is the booking state machine. Retrieval is optional:
// a parked car may be completed directly.
var AllowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusRequested:  {BookingStatusActive},
	BookingStatusActive:     {BookingStatusParked},
	BookingStatusParked:     {BookingStatusRetrieving, BookingStatusCompleted},
	BookingStatusRetrieving: {BookingStatusCompleted},
}

// ParseBookingStatus converts a stored value into a BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// Valid reports whether s is one of the enumerated statuses.
func (s BookingStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank is the position of s in the lifecycle, or -1 when s is unknown.
func (s BookingStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Terminal reports whether no further transition is possible from s.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted
}

// InProgress reports whether a driver is currently working the booking.
func (s BookingStatus) InProgress() bool {
	switch s {
	case BookingStatusActive, BookingStatusParked, BookingStatusRetrieving:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is in AllowedTransitions.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatus validates moving a booking from current to target.
func NextStatus(current, target BookingStatus) (BookingStatus, error) {
	if !current.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, current)
	}
	if !CanTransition(current, target) {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}
	return target, nil
}

// Booking is a single valet-parking session from request to completion
type Booking struct {
	ID         string        `json:"id" db:"id"`
	UserID     string        `json:"user_id" db:"user_id"`
	DriverID   *string       `json:"driver_id" db:"driver_id"`
	LocationID string        `json:"location_id" db:"location_id"`
	Status     BookingStatus `json:"status" db:"status"`
	Slot       *string       `json:"slot" db:"slot"`
	StartTime  *time.Time    `json:"start_time" db:"start_time"`
	EndTime    *time.Time    `json:"end_time" db:"end_time"`
}

// Validate checks the lifecycle invariants that must hold for any stored row.
func (b *Booking) Validate() error {
	if !b.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, b.Status)
	}
	if b.Status.Rank() >= BookingStatusActive.Rank() && (b.DriverID == nil || *b.DriverID == "") {
		return fmt.Errorf("booking %s is %s without a driver", b.ID, b.Status)
	}
	if b.Status.Rank() >= BookingStatusParked.Rank() && b.StartTime == nil {
		return fmt.Errorf("booking %s is %s without a start time", b.ID, b.Status)
	}
	if (b.Status == BookingStatusCompleted) != (b.EndTime != nil) {
		return fmt.Errorf("booking %s has status %s but end time set=%t", b.ID, b.Status, b.EndTime != nil)
	}
	return nil
}
