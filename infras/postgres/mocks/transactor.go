package mocks

import (
	"context"

	"tempah/infras/postgres"
)

type transactorImpl struct {
}

// WithinTx implements postgres.Transactor. The callback runs with a nil
// transaction handle; repository mocks under test never touch it.
func (t *transactorImpl) WithinTx(_ context.Context, fn postgres.TxFunc) error {
	return fn(nil)
}

func NewTransactor() postgres.Transactor {
	return &transactorImpl{}
}
