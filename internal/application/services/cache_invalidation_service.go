package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
	"github.com/zatekoja/valetparking/backend/internal/domain/providers"
)

const invalidationTimeout = 5 * time.Second

// CacheInvalidationService drops a location's cached dashboard counters.
// The lifecycle service calls InvalidateLocation directly after each commit;
// the event listener covers transitions committed by other processes.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for booking events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelBookingUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to booking updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Str("channel", providers.EventChannelBookingUpdates).Msg("Cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.BookingEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil || event.LocationID == "" {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.BookingEvent) {
	ctx, cancel := context.WithTimeout(s.ctx, invalidationTimeout)
	defer cancel()

	if err := s.InvalidateLocation(ctx, event.LocationID); err != nil {
		log.Warn().Err(err).
			Str("event_id", event.ID).
			Str("booking_id", event.BookingID).
			Msg("Failed to invalidate dashboard cache")
		return
	}
	log.Debug().
		Str("event_id", event.ID).
		Str("location_id", event.LocationID).
		Str("from", string(event.From)).
		Str("to", string(event.To)).
		Msg("Invalidated dashboard cache")
}

// InvalidateLocation moves the location to a new cache generation, then
// deletes the counters cached under older ones. The generation bump alone
// is enough for readers; the delete only frees memory early.
func (s *CacheInvalidationService) InvalidateLocation(ctx context.Context, locationID string) error {
	var errs []error
	generation := []byte(uuid.NewString())
	if err := s.cache.Set(ctx, providers.DashboardGenerationKey(locationID), generation, 0); err != nil {
		errs = append(errs, fmt.Errorf("failed to bump dashboard generation for %s: %w", locationID, err))
	}
	if err := s.cache.DeletePattern(ctx, providers.DashboardCachePattern(locationID)); err != nil {
		errs = append(errs, fmt.Errorf("failed to invalidate dashboard cache for %s: %w", locationID, err))
	}
	return errors.Join(errs...)
}
