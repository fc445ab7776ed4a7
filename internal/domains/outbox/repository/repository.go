package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"tempah/infras/otel"
	"tempah/infras/postgres"
	"tempah/internal/domains/outbox/model"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	"tempah/shared/logger"
	gRepo "tempah/shared/repository"
	"tempah/shared/timezone"
)

type Outbox interface {
	EnqueueTx(ctx context.Context, tx *sqlx.Tx, entry model.Entry) error
	Lease(ctx context.Context, owner string, batchSize int, leaseFor time.Duration) ([]model.Entry, error)
	MarkDelivered(ctx context.Context, id string) error
	ReleaseLease(ctx context.Context, id string) error
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Entry]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Outbox {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Entry](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// EnqueueTx records the entry in the same transaction as the booking mutation
// it announces.
func (repo *repositoryImpl) EnqueueTx(ctx context.Context, tx *sqlx.Tx, entry model.Entry) error {
	return repo.InsertTx(ctx, tx, entry) //nolint:wrapcheck
}

// leaseLockQuery serializes concurrent Lease transactions. Without it two
// workers could each pass the partition anti-join before either lease commits
// and split one partition between them.
const leaseLockQuery = "SELECT pg_advisory_xact_lock(hashtext('outbox:lease'))"

var leaseQuery = fmt.Sprintf(`
	UPDATE %s SET lease_owner = $1, leased_until = $2
	WHERE id IN (
		SELECT id FROM %s
		WHERE status = '%s'
		AND (leased_until IS NULL OR leased_until < $3)
		AND partition_key NOT IN (
			SELECT partition_key FROM %s
			WHERE status = '%s' AND lease_owner IS NOT NULL AND lease_owner != $1 AND leased_until >= $3
		)
		ORDER BY created_at
		LIMIT $4
		FOR UPDATE SKIP LOCKED
	)
	RETURNING *`,
	model.TableName, model.TableName, model.StatusPending, model.TableName, model.StatusPending,
)

// Lease claims a batch of pending entries for one relay worker. Lease
// transactions run one at a time under an advisory lock, and a partition whose
// entries are already leased by another live worker is skipped entirely, so at
// most one worker publishes a given partition at a time and per-provider order
// survives worker crashes. Entries come back in commit order.
func (repo *repositoryImpl) Lease(ctx context.Context, owner string, batchSize int, leaseFor time.Duration) (entries []model.Entry, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".outbox.Lease")
	defer scope.End()
	defer scope.TraceIfError(err)

	now := timezone.Now()

	scope.SetAttribute(constant.OtelQueryAttributeKey, leaseQuery)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to begin lease transaction: %w", err)
	}

	if _, err = tx.ExecContext(ctx, leaseLockQuery); err != nil {
		logger.ErrorWithStack(err)
		_ = tx.Rollback()

		return nil, fmt.Errorf("failed to lock outbox lease: %w", err)
	}

	err = tx.SelectContext(ctx, &entries, leaseQuery, owner, now.Add(leaseFor), now, batchSize)
	if err != nil {
		logger.ErrorWithStack(err)
		_ = tx.Rollback()

		return nil, fmt.Errorf("failed to lease outbox entries: %w", err)
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to commit lease transaction: %w", err)
	}

	// RETURNING does not guarantee order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}

// MarkDelivered finalizes one published entry. Publish happens before this
// mark, so a crash in between redelivers: at-least-once, never at-most-once.
func (repo *repositoryImpl) MarkDelivered(ctx context.Context, id string) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".outbox.MarkDelivered")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(
		"UPDATE %s SET status = '%s', delivered_at = $1, lease_owner = NULL, leased_until = NULL WHERE id = $2",
		model.TableName, model.StatusDelivered,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if _, err = repo.db.Write.ExecContext(ctx, query, timezone.Now(), id); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to mark outbox entry delivered: %w", err)
	}

	return nil
}

// ReleaseLease hands a failed entry back to the pool and bumps its attempt
// counter.
func (repo *repositoryImpl) ReleaseLease(ctx context.Context, id string) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".outbox.ReleaseLease")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(
		"UPDATE %s SET lease_owner = NULL, leased_until = NULL, attempts = attempts + 1 WHERE id = $1",
		model.TableName,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if _, err = repo.db.Write.ExecContext(ctx, query, id); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to release outbox lease: %w", err)
	}

	return nil
}
