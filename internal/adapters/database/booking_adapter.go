package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
	"github.com/zatekoja/valetparking/backend/internal/domain/repositories"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/valetparking/backend/pkg/errors"
)

var bookingColumns = []interface{}{
	"id", "user_id", "driver_id", "location_id", "status", "slot", "start_time", "end_time",
}

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewBookingAdapter creates a new booking adapter. metrics may be nil.
func NewBookingAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.BookingRepository {
	return &BookingAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	defer a.observe(ctx, "bookings.get", time.Now())

	query, args, err := a.db.From("bookings").
		Prepared(true).
		Select(bookingColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	booking := &entities.Booking{}
	err = a.client.X().QueryRowxContext(ctx, query, args...).StructScan(booking)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, storeError("failed to get booking", err)
	}

	if err := checkStatus(booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// CompareAndSetStatus applies a transition only if the row still holds the
// expected status, in one UPDATE ... RETURNING statement.
func (a *BookingAdapter) CompareAndSetStatus(ctx context.Context, update repositories.StatusUpdate) (*entities.Booking, bool, error) {
	defer a.observe(ctx, "bookings.compare_and_set", time.Now())

	record := goqu.Record{
		"status": string(update.Target),
	}
	where := []exp.Expression{
		goqu.Ex{"id": update.BookingID, "status": string(update.Expected)},
	}

	if update.DriverID != nil {
		record["driver_id"] = *update.DriverID
		where = append(where, goqu.C("driver_id").IsNull())
	}
	if update.StampStart {
		record["start_time"] = goqu.L("NOW()")
	}
	if update.StampEnd {
		record["end_time"] = goqu.L("NOW()")
	}

	query, args, err := a.db.Update("bookings").
		Prepared(true).
		Set(record).
		Where(where...).
		Returning(bookingColumns...).
		ToSQL()
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build update query", err)
	}

	booking := &entities.Booking{}
	err = a.client.X().QueryRowxContext(ctx, query, args...).StructScan(booking)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if postgres.IsForeignKeyViolation(err) {
		return nil, false, apperrors.NewNotFoundError("referenced driver not found")
	}
	if err != nil {
		return nil, false, storeError("failed to update booking status", err)
	}

	if err := checkStatus(booking); err != nil {
		return nil, false, err
	}
	return booking, true, nil
}

// DriverExists reports whether id names a user with the driver role
func (a *BookingAdapter) DriverExists(ctx context.Context, id string) (bool, error) {
	defer a.observe(ctx, "users.driver_exists", time.Now())

	query, args, err := a.db.From("users").
		Prepared(true).
		Select(goqu.L("1")).
		Where(goqu.Ex{"id": id, "role": entities.RoleDriver}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build driver query", err)
	}

	var one int
	err = a.client.X().GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeError("failed to look up driver", err)
	}
	return true, nil
}

func (a *BookingAdapter) observe(ctx context.Context, operation string, start time.Time) {
	if a.metrics != nil {
		observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
	}
}

func checkStatus(b *entities.Booking) error {
	if !b.Status.Valid() {
		return apperrors.NewInternalError(
			fmt.Sprintf("booking %s has unknown status %q", b.ID, b.Status),
			entities.ErrUnknownStatus,
		)
	}
	return nil
}

// storeError classifies a driver error: unreachable store is retryable,
// anything else is internal.
func storeError(message string, err error) error {
	if postgres.IsConnectivityError(err) {
		return apperrors.NewUnavailableError(message, err)
	}
	return apperrors.NewInternalError(message, err)
}
