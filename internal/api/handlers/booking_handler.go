package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
)

const maxBodyBytes = 1 << 20

// LifecycleService is the booking state machine as seen by the transport
type LifecycleService interface {
	AssignDriver(ctx context.Context, bookingID, driverID string) (*entities.Booking, error)
	StartParking(ctx context.Context, bookingID string) (*entities.Booking, error)
	BeginRetrieval(ctx context.Context, bookingID string) (*entities.Booking, error)
	CompleteRetrieval(ctx context.Context, bookingID string) (*entities.Booking, error)
}

// BookingHandler handles booking lifecycle requests
type BookingHandler struct {
	service LifecycleService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service LifecycleService) *BookingHandler {
	return &BookingHandler{service: service}
}

// AssignDriverRequest is the body of POST /manager/assign-driver
type AssignDriverRequest struct {
	BookingID string `json:"booking_id"`
	DriverID  string `json:"driver_id"`
}

// AssignDriver handles POST /manager/assign-driver
func (h *BookingHandler) AssignDriver(w http.ResponseWriter, r *http.Request) {
	var req AssignDriverRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking_id is required")
		return
	}
	if req.DriverID == "" {
		respondWithError(w, http.StatusBadRequest, "driver_id is required")
		return
	}

	booking, err := h.service.AssignDriver(r.Context(), req.BookingID, req.DriverID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, booking)
}

// StartParking handles POST /driver/start-parking/{booking_id}
func (h *BookingHandler) StartParking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.StartParking)
}

// BeginRetrieval handles POST /driver/begin-retrieval/{booking_id}
func (h *BookingHandler) BeginRetrieval(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.BeginRetrieval)
}

// CompleteRetrieval handles POST /driver/retrieve/{booking_id}
func (h *BookingHandler) CompleteRetrieval(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CompleteRetrieval)
}

func (h *BookingHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, string) (*entities.Booking, error),
) {
	bookingID := r.PathValue("booking_id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking_id is required")
		return
	}

	booking, err := apply(r.Context(), bookingID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, booking)
}
