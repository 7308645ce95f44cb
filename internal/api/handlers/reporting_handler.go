package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
)

// ReportingService is the set of read-only views served over HTTP
type ReportingService interface {
	ActiveCars(ctx context.Context, locationID string) (int64, error)
	RetrievingCars(ctx context.Context, locationID string) (int64, error)
	TodayBookings(ctx context.Context, locationID string) (int64, error)
	TodayRevenue(ctx context.Context, locationID string) (float64, error)
	LocationDashboard(ctx context.Context, locationID string) (*entities.LocationDashboard, error)
	RecentBookings(ctx context.Context, userID string, limit int) ([]*entities.Booking, error)
	BookingHistory(ctx context.Context, userID string) ([]*entities.Booking, error)
	BookingsWithVehicle(ctx context.Context, userID string) ([]*entities.BookingWithVehicle, error)
	UserPayments(ctx context.Context, userID string) ([]*entities.Payment, error)
	ManagerStats(ctx context.Context, managerID string) (*entities.ManagerStats, error)
	ManagerLocations(ctx context.Context, managerID string) ([]*entities.ParkingLocation, error)
	Locations(ctx context.Context) ([]*entities.ParkingLocation, error)
	DriverCurrentBooking(ctx context.Context, driverID string) (*entities.DriverCurrentBooking, error)
	DriverBookings(ctx context.Context, driverID string) ([]*entities.Booking, error)
}

// ReportingHandler serves dashboard and self-service views
type ReportingHandler struct {
	service ReportingService
}

// NewReportingHandler creates a new reporting handler
func NewReportingHandler(service ReportingService) *ReportingHandler {
	return &ReportingHandler{service: service}
}

// ActiveCars handles GET /manager/active-cars/{location_id}
func (h *ReportingHandler) ActiveCars(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.ActiveCars(r.Context(), r.PathValue("location_id"))
	h.respond(w, r, map[string]int64{"active_cars": count}, err)
}

// RetrievingCars handles GET /manager/retrieving/{location_id}
func (h *ReportingHandler) RetrievingCars(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.RetrievingCars(r.Context(), r.PathValue("location_id"))
	h.respond(w, r, map[string]int64{"retrieving": count}, err)
}

// TodayBookings handles GET /manager/today-bookings/{location_id}
func (h *ReportingHandler) TodayBookings(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.TodayBookings(r.Context(), r.PathValue("location_id"))
	h.respond(w, r, map[string]int64{"total_today": count}, err)
}

// TodayRevenue handles GET /manager/revenue/{location_id}
func (h *ReportingHandler) TodayRevenue(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.service.TodayRevenue(r.Context(), r.PathValue("location_id"))
	h.respond(w, r, map[string]float64{"revenue": revenue}, err)
}

// LocationDashboard handles GET /manager/dashboard/{location_id}
func (h *ReportingHandler) LocationDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.LocationDashboard(r.Context(), r.PathValue("location_id"))
	h.respond(w, r, dashboard, err)
}

// ManagerStats handles GET /manager/stats/{manager_id}
func (h *ReportingHandler) ManagerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.ManagerStats(r.Context(), r.PathValue("manager_id"))
	h.respond(w, r, stats, err)
}

// ManagerLocations handles GET /manager/locations/{manager_id}
func (h *ReportingHandler) ManagerLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ManagerLocations(r.Context(), r.PathValue("manager_id"))
	h.respond(w, r, locations, err)
}

// Locations handles GET /locations
func (h *ReportingHandler) Locations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.Locations(r.Context())
	h.respond(w, r, locations, err)
}

// RecentBookings handles GET /bookings/recent/{user_id}?limit=N
func (h *ReportingHandler) RecentBookings(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	bookings, err := h.service.RecentBookings(r.Context(), r.PathValue("user_id"), limit)
	h.respond(w, r, bookings, err)
}

// BookingHistory handles GET /bookings/history/{user_id}
func (h *ReportingHandler) BookingHistory(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.BookingHistory(r.Context(), r.PathValue("user_id"))
	h.respond(w, r, bookings, err)
}

// BookingsWithVehicle handles GET /bookings/with-vehicle/{user_id}
func (h *ReportingHandler) BookingsWithVehicle(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.BookingsWithVehicle(r.Context(), r.PathValue("user_id"))
	h.respond(w, r, bookings, err)
}

// UserPayments handles GET /payments/{user_id}
func (h *ReportingHandler) UserPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.UserPayments(r.Context(), r.PathValue("user_id"))
	h.respond(w, r, payments, err)
}

// DriverCurrentBooking handles GET /driver/current/{driver_id}. A driver
// with nothing in progress gets data: null.
func (h *ReportingHandler) DriverCurrentBooking(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.DriverCurrentBooking(r.Context(), r.PathValue("driver_id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if current == nil {
		respondWithData(w, http.StatusOK, nil)
		return
	}
	respondWithData(w, http.StatusOK, current)
}

// DriverBookings handles GET /driver/bookings/{driver_id}
func (h *ReportingHandler) DriverBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.DriverBookings(r.Context(), r.PathValue("driver_id"))
	h.respond(w, r, bookings, err)
}

func (h *ReportingHandler) respond(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, data)
}
