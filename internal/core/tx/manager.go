// Package tx defines the transaction contract posting services depend
// on. Every document posts through one RunInTransaction call: number,
// header, lines, balance deltas and the audit entry commit together or
// not at all. Services see only this interface; the pgx implementation
// lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs functions inside a database transaction.
type Manager interface {
	// RunInTransaction executes fn within a transaction: commit when fn
	// returns nil, rollback otherwise. A nested call joins the
	// transaction already in ctx, so a posting service can call another
	// service (the consumption run posting an adjustment) without
	// splitting the atomicity of the outer posting.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for multi-query reads
// that need a consistent snapshot but no row locks.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction; writes fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
