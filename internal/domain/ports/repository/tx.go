package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is the opaque transaction handle threaded through repository calls.
// The concrete type is infra-defined (pgx.Tx for Postgres). Repositories
// MUST accept a nil handle and fall back to their non-transactional path.
type Tx interface{}

// TransactionManager executes a function inside one database transaction.
// Repositories called with the provided handle run their reads with
// SELECT ... FOR UPDATE semantics, which is the engine's entire concurrency
// discipline: acquire the row lock first, re-check preconditions after.
// If fn returns an error the transaction rolls back; no partial state is
// ever committed.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
