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
	"tempah/internal/domains/availability/model"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	"tempah/shared/logger"
	gRepo "tempah/shared/repository"
	"tempah/shared/timezone"
)

// selectColumns enumerates the slot columns read back under FOR UPDATE. The
// database-managed timestamp columns are not mapped on the struct, so the
// query must not use SELECT *.
const selectColumns = "id, provider_id, service_listing_id, slot_date, start_time, end_time, " +
	"is_available, is_booked, booking_ref, created_by, modified_by"

type Availability interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, model model.Slot) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Slot, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Slot, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, slotID string) (model.Slot, error)
	ClaimTx(ctx context.Context, tx *sqlx.Tx, slotID, bookingID string) (bool, error)
	ReleaseTx(ctx context.Context, tx *sqlx.Tx, slotID string) error
	LockProviderTx(ctx context.Context, tx *sqlx.Tx, providerID string) error
	OverlappingOpenExistsTx(ctx context.Context, tx *sqlx.Tx, providerID string, start, end time.Time) (bool, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Slot]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Availability {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Slot](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// GetForUpdateTx loads the slot under a row lock so concurrent claims on the
// same slot serialize at the database.
func (repo *repositoryImpl) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, slotID string) (slot model.Slot, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".slot.GetForUpdateTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 FOR UPDATE", selectColumns, model.TableName, model.FieldID)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = tx.GetContext(ctx, &slot, query, slotID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Slot{}, nil
	}

	if err != nil {
		logger.ErrorWithStack(err)

		return model.Slot{}, fmt.Errorf("failed to get slot for update: %w", err)
	}

	return slot, nil
}

// ClaimTx atomically flips one open slot to booked and attaches the booking
// reference. It reports false when the slot was not claimable, which is the
// losing side of a claim race.
func (repo *repositoryImpl) ClaimTx(ctx context.Context, tx *sqlx.Tx, slotID, bookingID string) (claimed bool, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".slot.ClaimTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(
		"UPDATE %s SET is_booked = TRUE, booking_ref = $1, modified_at = $2 WHERE id = $3 AND is_available AND NOT is_booked",
		model.TableName,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := tx.ExecContext(ctx, query, bookingID, timezone.Now(), slotID)
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to claim slot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to read claim result: %w", err)
	}

	return affected == 1, nil
}

// ReleaseTx reverts a claimed slot to free. Invoked only when cancelling the
// booking that holds it.
func (repo *repositoryImpl) ReleaseTx(ctx context.Context, tx *sqlx.Tx, slotID string) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".slot.ReleaseTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(
		"UPDATE %s SET is_booked = FALSE, booking_ref = NULL, modified_at = $1 WHERE id = $2",
		model.TableName,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if _, err = tx.ExecContext(ctx, query, timezone.Now(), slotID); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to release slot: %w", err)
	}

	return nil
}

// LockProviderTx serializes every interval writer for one provider on a
// transaction-scoped advisory lock. Slot creation and booking creation both
// take it before their overlap scans, so two concurrent writers cannot each
// pass the scan before the other's insert commits.
func (repo *repositoryImpl) LockProviderTx(ctx context.Context, tx *sqlx.Tx, providerID string) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".slot.LockProviderTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext('provider:' || $1))", providerID); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to lock provider: %w", err)
	}

	return nil
}

// OverlappingOpenExistsTx reports whether the provider already has a bookable
// slot intersecting [start, end). Runs inside the slot-creating transaction,
// after the provider lock, so the verdict stays true until commit.
func (repo *repositoryImpl) OverlappingOpenExistsTx(ctx context.Context, tx *sqlx.Tx, providerID string, start, end time.Time) (exists bool, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".slot.OverlappingOpenExistsTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE provider_id = $1 AND is_available AND start_time < $2 AND end_time > $3)",
		model.TableName,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = tx.GetContext(ctx, &exists, query, providerID, end, start)
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to check overlapping slots: %w", err)
	}

	return exists, nil
}
