package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("repository: not found")

// Transactor runs fn atomically. If fn returns an error, every write made
// through repositories of the same store inside fn is discarded. A nested
// call runs in a savepoint: its failure discards only its own writes, and
// they still depend on the outer transaction committing.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories holding a contract deployment's state.
type Store struct {
	Tickets TicketRepository
	Staff   StaffRepository
	Tx      Transactor
}

type txActiveKey struct{}

// InTransaction reports whether ctx carries an open store transaction.
func InTransaction(ctx context.Context) bool {
	return ctx.Value(txActiveKey{}) != nil
}

// NewPostgresStore builds a store backed by pgx.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return Store{
		Tickets: NewTicketRepository(pool),
		Staff:   NewStaffRepository(pool),
		Tx:      NewPostgresTransactor(pool),
	}
}
