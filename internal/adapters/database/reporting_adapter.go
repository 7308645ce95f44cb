package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
	"github.com/zatekoja/valetparking/backend/internal/domain/repositories"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/valetparking/backend/pkg/errors"
)

// ReportingAdapter implements the ReportingRepository interface
type ReportingAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewReportingAdapter creates a new reporting adapter. metrics may be nil.
func NewReportingAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.ReportingRepository {
	return &ReportingAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// Exists reports whether a referenced row is present
func (a *ReportingAdapter) Exists(ctx context.Context, kind repositories.ReferenceKind, id string) (bool, error) {
	defer a.observe(ctx, "reports.exists", time.Now())

	query, args, err := a.db.From(string(kind)).
		Prepared(true).
		Select(goqu.L("1")).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build exists query", err)
	}

	var one int
	err = a.client.X().GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeError("failed to look up "+string(kind), err)
	}
	return true, nil
}

// CountByStatus counts bookings at a location in the given status
func (a *ReportingAdapter) CountByStatus(ctx context.Context, locationID string, status entities.BookingStatus) (int64, error) {
	defer a.observe(ctx, "reports.count_by_status", time.Now())

	ds := a.db.From("bookings").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"location_id": locationID, "status": string(status)})
	return a.count(ctx, ds)
}

// CountStarted counts bookings at a location whose start_time falls in window
func (a *ReportingAdapter) CountStarted(ctx context.Context, locationID string, window repositories.TimeWindow) (int64, error) {
	defer a.observe(ctx, "reports.count_started", time.Now())

	ds := a.db.From("bookings").
		Select(goqu.COUNT("*")).
		Where(
			goqu.Ex{"location_id": locationID},
			goqu.C("start_time").Gte(window.From),
			goqu.C("start_time").Lt(window.To),
		)
	return a.count(ctx, ds)
}

// Revenue sums payments of bookings at a location started in window
func (a *ReportingAdapter) Revenue(ctx context.Context, locationID string, window repositories.TimeWindow) (float64, error) {
	defer a.observe(ctx, "reports.revenue", time.Now())

	query, args, err := a.db.From(goqu.T("payments").As("p")).
		Prepared(true).
		Join(goqu.T("bookings").As("b"), goqu.On(goqu.I("p.booking_id").Eq(goqu.I("b.id")))).
		Select(goqu.COALESCE(goqu.SUM("p.amount"), goqu.L("0")).As("revenue")).
		Where(
			goqu.I("b.location_id").Eq(locationID),
			goqu.I("b.start_time").Gte(window.From),
			goqu.I("b.start_time").Lt(window.To),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build revenue query", err)
	}

	var revenue float64
	if err := a.client.X().GetContext(ctx, &revenue, query, args...); err != nil {
		return 0, storeError("failed to sum revenue", err)
	}
	return revenue, nil
}

// ListByUser returns a user's bookings newest first; limit <= 0 means all
func (a *ReportingAdapter) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Booking, error) {
	defer a.observe(ctx, "reports.list_by_user", time.Now())

	ds := a.db.From("bookings").
		Select(bookingColumns...).
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("start_time").Desc().NullsLast(), goqu.I("id").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return a.bookings(ctx, ds)
}

// ListWithVehicleByUser returns a user's bookings joined with location and vehicle
func (a *ReportingAdapter) ListWithVehicleByUser(ctx context.Context, userID string) ([]*entities.BookingWithVehicle, error) {
	defer a.observe(ctx, "reports.list_with_vehicle", time.Now())

	query, args, err := a.db.From(goqu.T("bookings").As("b")).
		Prepared(true).
		Join(goqu.T("parking_locations").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("b.location_id")))).
		LeftJoin(goqu.T("vehicles").As("v"), goqu.On(goqu.I("v.user_id").Eq(goqu.I("b.user_id")))).
		Select(
			goqu.I("b.id").As("booking_id"),
			goqu.I("b.start_time"),
			goqu.I("b.status"),
			goqu.I("l.name").As("location_name"),
			goqu.I("l.address"),
			goqu.I("v.vehicle_number"),
			goqu.I("v.type").As("vehicle_type"),
		).
		Where(goqu.I("b.user_id").Eq(userID)).
		Order(goqu.I("b.start_time").Desc().NullsLast(), goqu.I("b.id").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows := []*entities.BookingWithVehicle{}
	if err := a.client.X().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeError("failed to list bookings with vehicle", err)
	}
	return rows, nil
}

// ListPaymentsByUser returns payments linked to the user's bookings
func (a *ReportingAdapter) ListPaymentsByUser(ctx context.Context, userID string) ([]*entities.Payment, error) {
	defer a.observe(ctx, "reports.list_payments", time.Now())

	query, args, err := a.db.From(goqu.T("payments").As("p")).
		Prepared(true).
		Join(goqu.T("bookings").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("p.booking_id")))).
		Select("p.id", "p.booking_id", "p.amount", "p.created_at").
		Where(goqu.I("b.user_id").Eq(userID)).
		Order(goqu.I("p.created_at").Desc().NullsLast(), goqu.I("p.id").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	payments := []*entities.Payment{}
	if err := a.client.X().SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, storeError("failed to list payments", err)
	}
	return payments, nil
}

// ManagerStats aggregates bookings and revenue over a manager's locations.
// Bookings are counted once even when they carry several payments.
func (a *ReportingAdapter) ManagerStats(ctx context.Context, managerID string) (*entities.ManagerStats, error) {
	defer a.observe(ctx, "reports.manager_stats", time.Now())

	query, args, err := a.db.From(goqu.T("bookings").As("b")).
		Prepared(true).
		Join(goqu.T("payments").As("p"), goqu.On(goqu.I("p.booking_id").Eq(goqu.I("b.id")))).
		Join(goqu.T("parking_locations").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("b.location_id")))).
		Select(
			goqu.COUNT(goqu.DISTINCT("b.id")).As("total_bookings"),
			goqu.COALESCE(goqu.SUM("p.amount"), goqu.L("0")).As("total_revenue"),
		).
		Where(goqu.I("l.manager_id").Eq(managerID)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	stats := &entities.ManagerStats{}
	if err := a.client.X().GetContext(ctx, stats, query, args...); err != nil {
		return nil, storeError("failed to compute manager stats", err)
	}
	return stats, nil
}

// ListLocations returns all locations, or those of one manager when managerID is set
func (a *ReportingAdapter) ListLocations(ctx context.Context, managerID string) ([]*entities.ParkingLocation, error) {
	defer a.observe(ctx, "reports.list_locations", time.Now())

	ds := a.db.From("parking_locations").
		Prepared(true).
		Select("id", "name", "address", "manager_id").
		Order(goqu.I("name").Asc(), goqu.I("id").Asc())
	if managerID != "" {
		ds = ds.Where(goqu.Ex{"manager_id": managerID})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	locations := []*entities.ParkingLocation{}
	if err := a.client.X().SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, storeError("failed to list locations", err)
	}
	return locations, nil
}

// CurrentForDriver returns the driver's in-progress booking, or nil when none
func (a *ReportingAdapter) CurrentForDriver(ctx context.Context, driverID string) (*entities.DriverCurrentBooking, error) {
	defer a.observe(ctx, "reports.driver_current", time.Now())

	query, args, err := a.db.From(goqu.T("bookings").As("b")).
		Prepared(true).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("b.user_id")))).
		Join(goqu.T("parking_locations").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("b.location_id")))).
		LeftJoin(goqu.T("vehicles").As("v"), goqu.On(goqu.I("v.user_id").Eq(goqu.I("b.user_id")))).
		Select(
			goqu.I("b.id"),
			goqu.I("v.vehicle_number"),
			goqu.I("u.name").As("customer_name"),
			goqu.I("l.name").As("location_name"),
			goqu.I("b.status"),
			goqu.I("b.slot"),
		).
		Where(
			goqu.I("b.driver_id").Eq(driverID),
			goqu.I("b.status").In(
				string(entities.BookingStatusActive),
				string(entities.BookingStatusParked),
				string(entities.BookingStatusRetrieving),
			),
		).
		Order(goqu.I("b.start_time").Desc().NullsFirst(), goqu.I("b.id").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	current := &entities.DriverCurrentBooking{}
	err = a.client.X().GetContext(ctx, current, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("failed to get current driver booking", err)
	}
	return current, nil
}

// ListByDriver returns a driver's bookings in any of statuses, newest first
func (a *ReportingAdapter) ListByDriver(ctx context.Context, driverID string, statuses []string) ([]*entities.Booking, error) {
	defer a.observe(ctx, "reports.list_by_driver", time.Now())

	ds := a.db.From("bookings").
		Select(bookingColumns...).
		Where(goqu.Ex{"driver_id": driverID, "status": statuses}).
		Order(goqu.I("start_time").Desc().NullsLast(), goqu.I("id").Desc())
	return a.bookings(ctx, ds)
}

func (a *ReportingAdapter) count(ctx context.Context, ds *goqu.SelectDataset) (int64, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var n int64
	if err := a.client.X().GetContext(ctx, &n, query, args...); err != nil {
		return 0, storeError("failed to count bookings", err)
	}
	return n, nil
}

func (a *ReportingAdapter) bookings(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Booking, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	bookings := []*entities.Booking{}
	if err := a.client.X().SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, storeError("failed to list bookings", err)
	}
	for _, b := range bookings {
		if err := checkStatus(b); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

func (a *ReportingAdapter) observe(ctx context.Context, operation string, start time.Time) {
	if a.metrics != nil {
		observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
	}
}
