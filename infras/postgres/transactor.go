package postgres

//go:generate go run go.uber.org/mock/mockgen -source=./transactor.go -destination=./mocks/transactor_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// TxFunc runs inside a single write transaction. Returning an error rolls the
// whole unit back.
type TxFunc func(tx *sqlx.Tx) error

// Transactor scopes a function to one atomic unit against the write
// connection. Lifecycle operations use it to commit booking mutation, audit
// record, and outbox entry together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

type transactorImpl struct {
	conn *Connection
}

func NewTransactor(conn *Connection) Transactor {
	return &transactorImpl{conn: conn}
}

func (t *transactorImpl) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := t.conn.Write.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Error().Err(rollbackErr).Msg("failed to rollback transaction after panic")
			}

			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			log.Error().Err(rollbackErr).Msg("failed to rollback transaction")
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
