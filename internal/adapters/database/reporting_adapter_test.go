package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/valetparking/backend/internal/adapters/database"
	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
	"github.com/zatekoja/valetparking/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/valetparking/backend/pkg/errors"
)

func todayWindow() repositories.TimeWindow {
	from := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	return repositories.TimeWindow{From: from, To: from.AddDate(0, 0, 1)}
}

func TestReportingAdapter_Exists(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewReportingAdapter(client, nil)

	mock.ExpectQuery(`SELECT 1 FROM "parking_locations" WHERE`).
		WithArgs("l-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM "users" WHERE`).
		WithArgs("u-404").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	ok, err := adapter.Exists(context.Background(), repositories.ReferenceLocation, "l-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.Exists(context.Background(), repositories.ReferenceUser, "u-404")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingAdapter_CountByStatus(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewReportingAdapter(client, nil)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "bookings" WHERE`).
		WithArgs("l-1", "parked").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := adapter.CountByStatus(context.Background(), "l-1", entities.BookingStatusParked)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingAdapter_CountStarted(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewReportingAdapter(client, nil)

	window := todayWindow()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "bookings" WHERE .*"start_time" >= .*"start_time" < `).
		WithArgs("l-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	n, err := adapter.CountStarted(context.Background(), "l-1", window)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingAdapter_Revenue(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewReportingAdapter(client, nil)

	window := todayWindow()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\("p"."amount"\),\s?0\) AS "revenue" FROM "payments" AS "p" INNER JOIN "bookings" AS "b"`).
		WithArgs("l-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"revenue"}).AddRow("1250.50"))

	revenue, err := adapter.Revenue(context.Background(), "l-1", window)
	require.NoError(t, err)
	assert.InDelta(t, 1250.50, revenue, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingAdapter_ListByUser(t *testing.T) {
	t.Run("applies limit and newest-first order", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := database.NewReportingAdapter(client, nil)

		later := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
		earlier := later.Add(-48 * time.Hour)
		mock.ExpectQuery(`SELECT .* FROM "bookings" WHERE .* ORDER BY "start_time" DESC NULLS LAST.* LIMIT`).
			WillReturnRows(sqlmock.NewRows(bookingCols).
				AddRow("b-2", "u-1", "d-1", "l-1", "parked", nil, later, nil).
				AddRow("b-1", "u-1", "d-1", "l-1", "completed", nil, earlier, later))

		bookings, err := adapter.ListByUser(context.Background(), "u-1", 3)
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, "b-2", bookings[0].ID)
		assert.Equal(t, entities.BookingStatusCompleted, bookings[1].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty history is an empty slice", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := database.NewReportingAdapter(client, nil)

		mock.ExpectQuery(`SELECT .* FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows(bookingCols))

		bookings, err := adapter.ListByUser(context.Background(), "u-1", 0)
		require.NoError(t, err)
		assert.NotNil(t, bookings)
		assert.Empty(t, bookings)
	})
}

func TestReportingAdapter_ManagerStats(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewReportingAdapter(client, nil)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT\("b"."id"\)\) AS "total_bookings"`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"total_bookings", "total_revenue"}).AddRow(12, "980.00"))

	stats, err := adapter.ManagerStats(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalBookings)
	assert.InDelta(t, 980.0, stats.TotalRevenue, 0.001)
}

func TestReportingAdapter_ListLocations(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewReportingAdapter(client, nil)

	cols := []string{"id", "name", "address", "manager_id"}
	mock.ExpectQuery(`SELECT "id", "name", "address", "manager_id" FROM "parking_locations" WHERE`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("l-1", "Central Mall", "1 Main St", "m-1"))
	mock.ExpectQuery(`SELECT "id", "name", "address", "manager_id" FROM "parking_locations" ORDER BY`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("l-1", "Central Mall", "1 Main St", "m-1").
			AddRow("l-2", "Airport", nil, nil))

	mine, err := adapter.ListLocations(context.Background(), "m-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Central Mall", mine[0].Name)

	all, err := adapter.ListLocations(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Nil(t, all[1].ManagerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingAdapter_CurrentForDriver(t *testing.T) {
	cols := []string{"id", "vehicle_number", "customer_name", "location_name", "status", "slot"}

	t.Run("returns the in-progress booking", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := database.NewReportingAdapter(client, nil)

		mock.ExpectQuery(`SELECT .* FROM "bookings" AS "b" INNER JOIN "users" AS "u"`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow("b-1", "KA01AB1234", "Asha", "Central Mall", "parked", "A7"))

		current, err := adapter.CurrentForDriver(context.Background(), "d-1")
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, "Asha", current.CustomerName)
		require.NotNil(t, current.VehicleNumber)
		assert.Equal(t, "KA01AB1234", *current.VehicleNumber)
		assert.Equal(t, entities.BookingStatusParked, current.Status)
	})

	t.Run("no booking is nil without error", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := database.NewReportingAdapter(client, nil)

		mock.ExpectQuery(`SELECT .* FROM "bookings" AS "b"`).
			WillReturnRows(sqlmock.NewRows(cols))

		current, err := adapter.CurrentForDriver(context.Background(), "d-1")
		require.NoError(t, err)
		assert.Nil(t, current)
	})
}

func TestReportingAdapter_ListByDriver(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewReportingAdapter(client, nil)

	mock.ExpectQuery(`SELECT .* FROM "bookings" WHERE .*"status" IN`).
		WithArgs("d-1", "active", "ongoing").
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow("b-1", "u-1", "d-1", "l-1", "active", nil, nil, nil))

	bookings, err := adapter.ListByDriver(context.Background(), "d-1", []string{"active", "ongoing"})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, entities.BookingStatusActive, bookings[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingAdapter_StoreErrors(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewReportingAdapter(client, nil)

	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(context.DeadlineExceeded)

	_, err := adapter.CountByStatus(context.Background(), "l-1", entities.BookingStatusRetrieving)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}
