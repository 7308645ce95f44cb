//go:build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/valetparking/backend/pkg/config"
)

const migrationPath = "../../migrations/001_initial_schema.sql"

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func requireEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if os.Getenv(key) == "" {
			t.Skipf("Skipping integration test: %s not set", key)
		}
	}
}

func testRedisConfig() *config.RedisConfig {
	return &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client, err := redis.NewClient(context.Background(), testRedisConfig())
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:         getEnv("TEST_DB_HOST", "localhost"),
		Port:         getEnvAsInt("TEST_DB_PORT", 5432),
		User:         getEnv("TEST_DB_USER", "postgres"),
		Password:     getEnv("TEST_DB_PASSWORD", "postgres"),
		Database:     getEnv("TEST_DB_NAME", "valet_parking_test"),
		SSLMode:      getEnv("TEST_DB_SSLMODE", "disable"),
		MaxOpenConns: 20,
		MaxIdleConns: 5,
	}

	client, err := postgres.NewClient(context.Background(), cfg)
	require.NoError(t, err, "Failed to create postgres client")
	return client
}

func runMigrations(t *testing.T, db *sql.DB) {
	t.Helper()

	migrationSQL, err := os.ReadFile(migrationPath)
	require.NoError(t, err, "Failed to read migration file")

	_, err = db.Exec(string(migrationSQL))
	require.NoError(t, err, "Failed to run migrations")
}

func cleanupTestData(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`TRUNCATE payments, bookings, parking_locations, vehicles, users CASCADE`)
	require.NoError(t, err, "Failed to clean up test data")
}

// fixture holds the ids of one seeded rider, driver, manager and location.
type fixture struct {
	userID     string
	driverID   string
	managerID  string
	locationID string
}

func seedFixture(t *testing.T, db *sql.DB) fixture {
	t.Helper()

	f := fixture{
		userID:     uuid.NewString(),
		driverID:   uuid.NewString(),
		managerID:  uuid.NewString(),
		locationID: uuid.NewString(),
	}

	_, err := db.Exec(`INSERT INTO users (id, name, phone, role) VALUES
		($1, 'Asha Rao', '9000000001', 'user'),
		($2, 'Ravi Kumar', '9000000002', 'driver'),
		($3, 'Meera Iyer', '9000000003', 'manager')`,
		f.userID, f.driverID, f.managerID)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO vehicles (user_id, vehicle_number, type) VALUES ($1, 'KA01AB1234', 'sedan')`, f.userID)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO parking_locations (id, name, address, manager_id) VALUES ($1, 'Central Mall', '1 MG Road', $2)`,
		f.locationID, f.managerID)
	require.NoError(t, err)

	return f
}

func insertBooking(t *testing.T, db *sql.DB, f fixture, slot string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO bookings (id, user_id, location_id, status, slot) VALUES ($1, $2, $3, 'requested', $4)`,
		id, f.userID, f.locationID, slot)
	require.NoError(t, err)
	return id
}

func insertPayment(t *testing.T, db *sql.DB, bookingID string, amount float64) {
	t.Helper()

	_, err := db.Exec(`INSERT INTO payments (booking_id, amount) VALUES ($1, $2)`, bookingID, amount)
	require.NoError(t, err)
}
