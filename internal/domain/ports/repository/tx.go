package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres). Repositories must gracefully accept nil (the
// non-transactional path).
type Tx interface{}

// NoTX is the explicit "no transaction" handle.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via tx. Keeping the handle opaque keeps
// use-case signatures free of storage types while still letting repository
// methods run tx-bound queries (SELECT ... FOR UPDATE, advisory locks).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
