package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/valetparking/backend/internal/adapters/cache"
	"github.com/zatekoja/valetparking/backend/internal/adapters/database"
	"github.com/zatekoja/valetparking/backend/internal/adapters/events"
	"github.com/zatekoja/valetparking/backend/internal/api/handlers"
	"github.com/zatekoja/valetparking/backend/internal/api/routes"
	"github.com/zatekoja/valetparking/backend/internal/application/services"
	"github.com/zatekoja/valetparking/backend/internal/domain/providers"
	"github.com/zatekoja/valetparking/backend/internal/domain/repositories"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
	"github.com/zatekoja/valetparking/backend/pkg/config"
	"github.com/zatekoja/valetparking/backend/pkg/secrets"
)

func main() {
	// Pull credentials from Vault into the environment before reading config
	vaultResult, err := secrets.ApplyVault(context.Background(), nil, secrets.VaultConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load secrets from Vault: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Service.Env)
	if vaultResult.Loaded > 0 || vaultResult.Skipped > 0 {
		log.Info().
			Str("path", vaultResult.Path).
			Int("loaded", vaultResult.Loaded).
			Int("skipped", vaultResult.Skipped).
			Msg("Secrets loaded from Vault")
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry. Prometheus metrics are always on; OTLP
	// export only when enabled.
	endpoint := ""
	if cfg.OTEL.Enabled {
		endpoint = cfg.OTEL.Endpoint
	}
	shutdownOTEL, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, endpoint)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOTEL(ctx); err != nil {
				log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
			}
		}()
		log.Info().Bool("otlp", endpoint != "").Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	location, err := cfg.Service.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid service time zone")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client (optional)
	var (
		redisClient              *redis.Client
		cacheProvider            providers.CacheProvider
		eventBus                 providers.EventBus
		cacheInvalidationService *services.CacheInvalidationService
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without dashboard cache and booking events")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient.Client())

			// Transitions in this process invalidate directly; the listener
			// picks up transitions committed by other replicas.
			cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
			if err := cacheInvalidationService.Start(); err != nil {
				log.Warn().Err(err).Msg("Failed to start cache invalidation listener")
			}
			log.Info().Msg("Redis client initialized")
		}
	}

	// Initialize repositories
	bookingRepo := database.NewBookingAdapter(pgClient, metrics)
	var reportingRepo repositories.ReportingRepository = database.NewReportingAdapter(pgClient, metrics)
	var lifecycleOpts []services.LifecycleOption
	if cacheProvider != nil {
		reportingRepo = database.NewCachedReportingAdapter(reportingRepo, cacheProvider, cfg.Service.DashboardCacheTTL, metrics)
		lifecycleOpts = append(lifecycleOpts, services.WithInvalidator(cacheInvalidationService))
	}

	// Initialize services
	lifecycleService := services.NewLifecycleService(bookingRepo, eventBus, metrics, lifecycleOpts...)
	reportingService := services.NewReportingService(reportingRepo, location)

	// Initialize handlers
	var cachePinger handlers.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}
	bookingHandler := handlers.NewBookingHandler(lifecycleService)
	reportingHandler := handlers.NewReportingHandler(reportingService)
	healthHandler := handlers.NewHealthHandler(pgClient, cachePinger)

	// Set up router
	router := routes.NewRouter(bookingHandler, reportingHandler, healthHandler, routes.Options{
		APIKey:         cfg.Auth.APIKey,
		AllowedOrigins: cfg.Service.AllowedOrigins,
		Metrics:        metrics,
		MetricsHandler: observability.MetricsHandler(),
	})
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Str("time_zone", location.String()).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Stop cache invalidation service
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
