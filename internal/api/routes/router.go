package routes

import (
	"net/http"

	"github.com/zatekoja/valetparking/backend/internal/api/handlers"
	"github.com/zatekoja/valetparking/backend/internal/api/middleware"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	bookingHandler   *handlers.BookingHandler
	reportingHandler *handlers.ReportingHandler
	healthHandler    *handlers.HealthHandler

	apiKey         string
	allowedOrigins []string
	metrics        *observability.Metrics
	metricsHandler http.Handler
}

// Options carries the cross-cutting settings of the HTTP surface
type Options struct {
	APIKey         string
	AllowedOrigins []string
	Metrics        *observability.Metrics
	// MetricsHandler serves GET /metrics when set
	MetricsHandler http.Handler
}

// NewRouter creates a new router
func NewRouter(
	bookingHandler *handlers.BookingHandler,
	reportingHandler *handlers.ReportingHandler,
	healthHandler *handlers.HealthHandler,
	opts Options,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		bookingHandler:   bookingHandler,
		reportingHandler: reportingHandler,
		healthHandler:    healthHandler,
		apiKey:           opts.APIKey,
		allowedOrigins:   opts.AllowedOrigins,
		metrics:          opts.Metrics,
		metricsHandler:   opts.MetricsHandler,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	requireKey := middleware.RequireAPIKey(r.apiKey)
	private := func(pattern string, h http.HandlerFunc) {
		r.mux.Handle(pattern, requireKey(h))
	}

	// Health check endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /health/db", r.healthHandler.Database)
	if r.metricsHandler != nil {
		r.mux.Handle("GET /metrics", r.metricsHandler)
	}

	// Lifecycle endpoints
	private("POST /manager/assign-driver", r.bookingHandler.AssignDriver)
	private("POST /driver/start-parking/{booking_id}", r.bookingHandler.StartParking)
	private("POST /driver/begin-retrieval/{booking_id}", r.bookingHandler.BeginRetrieval)
	private("POST /driver/retrieve/{booking_id}", r.bookingHandler.CompleteRetrieval)

	// Manager dashboard endpoints
	private("GET /manager/active-cars/{location_id}", r.reportingHandler.ActiveCars)
	private("GET /manager/retrieving/{location_id}", r.reportingHandler.RetrievingCars)
	private("GET /manager/today-bookings/{location_id}", r.reportingHandler.TodayBookings)
	private("GET /manager/revenue/{location_id}", r.reportingHandler.TodayRevenue)
	private("GET /manager/dashboard/{location_id}", r.reportingHandler.LocationDashboard)
	private("GET /manager/stats/{manager_id}", r.reportingHandler.ManagerStats)
	private("GET /manager/locations/{manager_id}", r.reportingHandler.ManagerLocations)

	// Public location directory
	r.mux.HandleFunc("GET /locations", r.reportingHandler.Locations)

	// Rider self-service endpoints
	private("GET /bookings/recent/{user_id}", r.reportingHandler.RecentBookings)
	private("GET /bookings/history/{user_id}", r.reportingHandler.BookingHistory)
	private("GET /bookings/with-vehicle/{user_id}", r.reportingHandler.BookingsWithVehicle)
	private("GET /payments/{user_id}", r.reportingHandler.UserPayments)

	// Driver endpoints
	private("GET /driver/current/{driver_id}", r.reportingHandler.DriverCurrentBooking)
	private("GET /driver/bookings/{driver_id}", r.reportingHandler.DriverBookings)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.Compression(handler)

	// CORS wraps everything so preflight never reaches the key check
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
