package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tempah/infras/otel"
	"tempah/infras/postgres"
	"tempah/internal/domains/booking/model"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	"tempah/shared/logger"
	gRepo "tempah/shared/repository"
)

// selectColumns enumerates the booking columns read back by the FOR UPDATE
// and overlap queries. Timestamp columns managed by the database are not
// mapped on the struct, so the queries must not use SELECT *.
const selectColumns = "id, customer_id, provider_id, service_listing_id, slot_id, status, " +
	"scheduled_start, scheduled_end, actual_start, actual_end, duration_minutes, actual_duration_minutes, " +
	"total_price, price_adjustment, start_status, start_delay_minutes, completion_status, " +
	"notes, completion_notes, cancellation_reason, requested_at, confirmed_at, transition_seq, " +
	"created_by, modified_by"

type Booking interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, model model.Booking) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, mod map[string]any, filter gDto.FilterGroup) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, bookingID string) (model.Booking, error)
	FindOverlappingActiveTx(ctx context.Context, tx *sqlx.Tx, providerID string, start, end time.Time) (model.Booking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// GetForUpdateTx loads the booking under a row lock. Concurrent lifecycle
// operations on the same booking serialize here.
func (repo *repositoryImpl) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, bookingID string) (booking model.Booking, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.GetForUpdateTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 FOR UPDATE", selectColumns, model.TableName, model.FieldID)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = tx.GetContext(ctx, &booking, query, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, nil
	}

	if err != nil {
		logger.ErrorWithStack(err)

		return model.Booking{}, fmt.Errorf("failed to get booking for update: %w", err)
	}

	return booking, nil
}

// FindOverlappingActiveTx scans the provider's committed non-cancelled
// bookings for one whose scheduled interval intersects [start, end). Runs
// inside the claiming transaction so a racing create cannot slip between the
// check and the claim.
func (repo *repositoryImpl) FindOverlappingActiveTx(ctx context.Context, tx *sqlx.Tx, providerID string, start, end time.Time) (booking model.Booking, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindOverlappingActiveTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE provider_id = $1 AND status != '%s' AND scheduled_start < $2 AND scheduled_end > $3 LIMIT 1",
		selectColumns, model.TableName, model.StatusCancelled,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = tx.GetContext(ctx, &booking, query, providerID, end, start)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, nil
	}

	if err != nil {
		logger.ErrorWithStack(err)

		return model.Booking{}, fmt.Errorf("failed to scan overlapping bookings: %w", err)
	}

	return booking, nil
}
