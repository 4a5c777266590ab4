package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque, infra-defined transaction handle (pgx.Tx for Postgres).
type Tx interface{}

// NoTX selects the non-transactional path; repositories fall back to the pool.
var NoTX interface{}

// TransactionManager runs fn inside one database transaction. The handle is
// passed to fn and must be forwarded to every repository call that belongs to
// the unit of work. A non-nil error from fn rolls the transaction back.
//
// Repositories MUST gracefully accept a nil Tx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
