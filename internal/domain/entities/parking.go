package entities

import "time"

// User roles as stored in users.role
const (
	RoleUser    = "user"
	RoleDriver  = "driver"
	RoleManager = "manager"
)

// User is a rider, driver or manager. Owned by the accounts subsystem.
type User struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Phone string `json:"phone" db:"phone"`
	Role  string `json:"role" db:"role"`
}

// Vehicle belongs to a rider
type Vehicle struct {
	ID            string `json:"id" db:"id"`
	UserID        string `json:"user_id" db:"user_id"`
	VehicleNumber string `json:"vehicle_number" db:"vehicle_number"`
	Type          string `json:"type" db:"type"`
}

// ParkingLocation is a valet site run by a manager
type ParkingLocation struct {
	ID        string  `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Address   *string `json:"address" db:"address"`
	ManagerID *string `json:"manager_id" db:"manager_id"`
}

// Payment is recorded by the payments subsystem and only summed here
type Payment struct {
	ID        string     `json:"id" db:"id"`
	BookingID string     `json:"booking_id" db:"booking_id"`
	Amount    float64    `json:"amount" db:"amount"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// LocationDashboard groups the live counters shown on a manager console
type LocationDashboard struct {
	LocationID    string  `json:"location_id"`
	ActiveCars    int64   `json:"active_cars"`
	Retrieving    int64   `json:"retrieving"`
	TodayBookings int64   `json:"total_today"`
	TodayRevenue  float64 `json:"revenue"`
}

// ManagerStats aggregates every location under a manager
type ManagerStats struct {
	TotalBookings int64   `json:"total_bookings" db:"total_bookings"`
	TotalRevenue  float64 `json:"total_revenue" db:"total_revenue"`
}

// DriverCurrentBooking is the booking a driver is working right now,
// joined with the customer, vehicle and location it concerns.
type DriverCurrentBooking struct {
	ID            string        `json:"id" db:"id"`
	VehicleNumber *string       `json:"vehicle_number" db:"vehicle_number"`
	CustomerName  string        `json:"customer_name" db:"customer_name"`
	LocationName  string        `json:"location_name" db:"location_name"`
	Status        BookingStatus `json:"status" db:"status"`
	Slot          *string       `json:"slot" db:"slot"`
}

// BookingWithVehicle is a rider's booking joined with location and vehicle
type BookingWithVehicle struct {
	BookingID     string        `json:"booking_id" db:"booking_id"`
	StartTime     *time.Time    `json:"start_time" db:"start_time"`
	Status        BookingStatus `json:"status" db:"status"`
	LocationName  string        `json:"location_name" db:"location_name"`
	Address       *string       `json:"address" db:"address"`
	VehicleNumber *string       `json:"vehicle_number" db:"vehicle_number"`
	VehicleType   *string       `json:"vehicle_type" db:"vehicle_type"`
}
