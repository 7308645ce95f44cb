package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/valetparking/backend/internal/api/handlers"
	"github.com/zatekoja/valetparking/backend/internal/api/routes"
	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
)

type stubLifecycle struct{}

func (stubLifecycle) AssignDriver(ctx context.Context, bookingID, driverID string) (*entities.Booking, error) {
	return &entities.Booking{ID: bookingID, DriverID: &driverID, Status: entities.BookingStatusActive}, nil
}

func (stubLifecycle) StartParking(ctx context.Context, bookingID string) (*entities.Booking, error) {
	return &entities.Booking{ID: bookingID, Status: entities.BookingStatusParked}, nil
}

func (stubLifecycle) BeginRetrieval(ctx context.Context, bookingID string) (*entities.Booking, error) {
	return &entities.Booking{ID: bookingID, Status: entities.BookingStatusRetrieving}, nil
}

func (stubLifecycle) CompleteRetrieval(ctx context.Context, bookingID string) (*entities.Booking, error) {
	return &entities.Booking{ID: bookingID, Status: entities.BookingStatusCompleted}, nil
}

type stubReporting struct {
	handlers.ReportingService
}

func (stubReporting) Locations(ctx context.Context) ([]*entities.ParkingLocation, error) {
	return []*entities.ParkingLocation{}, nil
}

func (stubReporting) ActiveCars(ctx context.Context, locationID string) (int64, error) {
	return 2, nil
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

func newTestRouter() http.Handler {
	router := routes.NewRouter(
		handlers.NewBookingHandler(stubLifecycle{}),
		handlers.NewReportingHandler(stubReporting{}),
		handlers.NewHealthHandler(okPinger{}, nil),
		routes.Options{APIKey: "s3cret", AllowedOrigins: []string{"*"}},
	)
	return router.SetupRoutes()
}

func TestRouter_PublicRoutes(t *testing.T) {
	handler := newTestRouter()

	for _, path := range []string{"/health", "/health/db", "/locations"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_PrivateRoutesRequireKey(t *testing.T) {
	handler := newTestRouter()

	requests := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/manager/assign-driver", strings.NewReader(`{"booking_id":"b","driver_id":"d"}`)),
		httptest.NewRequest(http.MethodPost, "/driver/start-parking/b-1", nil),
		httptest.NewRequest(http.MethodPost, "/driver/begin-retrieval/b-1", nil),
		httptest.NewRequest(http.MethodPost, "/driver/retrieve/b-1", nil),
		httptest.NewRequest(http.MethodGet, "/manager/active-cars/l-1", nil),
	}

	for _, req := range requests {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, req.URL.Path)
	}
}

func TestRouter_PrivateRoutesWithKey(t *testing.T) {
	handler := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/driver/retrieve/b-1", nil)
	req.Header.Set("X-API-Key", "s3cret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"success":true,"data":{"id":"b-1","user_id":"","driver_id":null,"location_id":"","status":"completed","slot":null,"start_time":null,"end_time":null}}`,
		w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/manager/active-cars/l-1", nil)
	req.Header.Set("X-API-Key", "s3cret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.JSONEq(t, `{"success":true,"data":{"active_cars":2}}`, w.Body.String())
}

func TestRouter_MethodMismatch(t *testing.T) {
	handler := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/driver/retrieve/b-1", nil)
	req.Header.Set("X-API-Key", "s3cret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_NoLoginRoute(t *testing.T) {
	handler := newTestRouter()

	// Access control is the API key; there is no user login by phone.
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"phone":"9999999999"}`))
	req.Header.Set("X-API-Key", "s3cret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
