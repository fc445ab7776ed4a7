package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"github.com/jmoiron/sqlx"

	"tempah/infras/otel"
	"tempah/infras/postgres"
	"tempah/internal/domains/audit/model"
	gDto "tempah/shared/dto"
	gRepo "tempah/shared/repository"
)

// Audit exposes an insert-only write path. There is deliberately no update or
// delete: the trail is append-only.
type Audit interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, model model.Audit) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Audit, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Audit, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Audit]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Audit {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Audit](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
