package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
	"github.com/zatekoja/valetparking/backend/internal/domain/providers"
	"github.com/zatekoja/valetparking/backend/internal/domain/repositories"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/valetparking/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	publishTimeout    = 2 * time.Second
	invalidateTimeout = 2 * time.Second
)

// LifecycleService applies booking status transitions. Every transition is a
// single compare-and-set on the status the booking was observed in, so of
// two racing callers exactly one wins and the other gets INVALID_TRANSITION.
// The service never retries.
type LifecycleService struct {
	repo        repositories.BookingRepository
	eventBus    providers.EventBus
	metrics     *observability.Metrics
	invalidator providers.DashboardInvalidator
}

// LifecycleOption configures a LifecycleService
type LifecycleOption func(*LifecycleService)

// WithInvalidator drops a location's cached dashboard counters after every
// committed transition, before the call returns.
func WithInvalidator(invalidator providers.DashboardInvalidator) LifecycleOption {
	return func(s *LifecycleService) {
		s.invalidator = invalidator
	}
}

// NewLifecycleService creates a new lifecycle service. eventBus and metrics
// may be nil.
func NewLifecycleService(
	repo repositories.BookingRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	opts ...LifecycleOption,
) *LifecycleService {
	s := &LifecycleService{
		repo:     repo,
		eventBus: eventBus,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignDriver links driverID to a requested booking and activates it.
// driverID must name a user with the driver role. A booking that already
// left requested is never reassigned.
func (s *LifecycleService) AssignDriver(ctx context.Context, bookingID, driverID string) (*entities.Booking, error) {
	guard := func(ctx context.Context) error {
		if err := ValidateID("driver_id", driverID); err != nil {
			return err
		}
		exists, err := s.repo.DriverExists(ctx, driverID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NewNotFoundError(fmt.Sprintf("driver %s not found", driverID))
		}
		return nil
	}
	return s.transition(ctx, "assign_driver", bookingID, entities.BookingStatusActive, guard, func(u *repositories.StatusUpdate) {
		u.DriverID = &driverID
	})
}

// StartParking moves an active booking to parked and stamps start_time
func (s *LifecycleService) StartParking(ctx context.Context, bookingID string) (*entities.Booking, error) {
	return s.transition(ctx, "start_parking", bookingID, entities.BookingStatusParked, nil, func(u *repositories.StatusUpdate) {
		u.StampStart = true
	})
}

// BeginRetrieval moves a parked booking to retrieving
func (s *LifecycleService) BeginRetrieval(ctx context.Context, bookingID string) (*entities.Booking, error) {
	return s.transition(ctx, "begin_retrieval", bookingID, entities.BookingStatusRetrieving, nil, nil)
}

// CompleteRetrieval completes a retrieving or parked booking and stamps end_time
func (s *LifecycleService) CompleteRetrieval(ctx context.Context, bookingID string) (*entities.Booking, error) {
	return s.transition(ctx, "complete_retrieval", bookingID, entities.BookingStatusCompleted, nil, func(u *repositories.StatusUpdate) {
		u.StampEnd = true
	})
}

func (s *LifecycleService) transition(
	ctx context.Context,
	operation, bookingID string,
	target entities.BookingStatus,
	guard func(context.Context) error,
	configure func(*repositories.StatusUpdate),
) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "lifecycle."+operation)
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("booking.id", bookingID),
		attribute.String("booking.target_status", string(target)),
	)

	booking, from, err := s.apply(ctx, bookingID, target, guard, configure)
	outcome := transitionOutcome(err)
	observability.RecordTransition(ctx, s.metrics, string(from), string(target), outcome)

	logger := observability.LoggerFromContext(ctx)
	if err != nil {
		observability.RecordError(span, err)
		if outcome == observability.OutcomeUnavailable || outcome == observability.OutcomeError {
			span.SetStatus(codes.Error, err.Error())
			logger.Error().Err(err).Str("booking_id", bookingID).Str("operation", operation).Msg("Booking transition failed")
		} else {
			logger.Info().Err(err).Str("booking_id", bookingID).Str("operation", operation).Msg("Booking transition rejected")
		}
		return nil, err
	}

	logger.Info().
		Str("booking_id", booking.ID).
		Str("from", string(from)).
		Str("to", string(booking.Status)).
		Msg("Booking transition applied")

	s.invalidate(ctx, booking)
	s.publish(ctx, booking, from)
	return booking, nil
}

// apply returns the committed booking and the status it was observed in
func (s *LifecycleService) apply(
	ctx context.Context,
	bookingID string,
	target entities.BookingStatus,
	guard func(context.Context) error,
	configure func(*repositories.StatusUpdate),
) (*entities.Booking, entities.BookingStatus, error) {
	if err := ValidateID("booking_id", bookingID); err != nil {
		return nil, "", err
	}
	if guard != nil {
		if err := guard(ctx); err != nil {
			return nil, "", err
		}
	}

	current, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}

	if _, err := entities.NextStatus(current.Status, target); err != nil {
		return nil, current.Status, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("booking %s cannot move from %s to %s", bookingID, current.Status, target),
		)
	}

	update := repositories.StatusUpdate{
		BookingID: bookingID,
		Expected:  current.Status,
		Target:    target,
	}
	if configure != nil {
		configure(&update)
	}

	updated, ok, err := s.repo.CompareAndSetStatus(ctx, update)
	if err != nil {
		return nil, current.Status, err
	}
	if ok {
		return updated, current.Status, nil
	}

	// The precondition no longer held: distinguish a vanished row from a
	// concurrent transition.
	latest, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, current.Status, err
	}
	return nil, current.Status, apperrors.NewInvalidTransitionError(
		fmt.Sprintf("booking %s status changed concurrently (now %s)", bookingID, latest.Status),
	)
}

// invalidate drops the location's cached counters so the next dashboard read
// sees the committed row. Failures are logged; the cached entries then age
// out with their TTL.
func (s *LifecycleService) invalidate(ctx context.Context, booking *entities.Booking) {
	if s.invalidator == nil {
		return
	}

	invCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()

	if err := s.invalidator.InvalidateLocation(invCtx, booking.LocationID); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("booking_id", booking.ID).
			Str("location_id", booking.LocationID).
			Msg("Failed to invalidate dashboard cache")
	}
}

// publish announces a committed transition. It outlives request
// cancellation and only logs on failure.
func (s *LifecycleService) publish(ctx context.Context, booking *entities.Booking, from entities.BookingStatus) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewBookingEvent(booking, from)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.eventBus.Publish(pubCtx, providers.EventChannelBookingUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("booking_id", booking.ID).
			Str("event_id", event.ID).
			Msg("Failed to publish booking event")
	}
}

func transitionOutcome(err error) string {
	if err == nil {
		return observability.OutcomeApplied
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return observability.OutcomeError
	}
	switch appErr.Type {
	case apperrors.ErrorTypeInvalidTransition, apperrors.ErrorTypeValidation:
		return observability.OutcomeRejected
	case apperrors.ErrorTypeNotFound:
		return observability.OutcomeNotFound
	case apperrors.ErrorTypeUnavailable:
		return observability.OutcomeUnavailable
	default:
		return observability.OutcomeError
	}
}
