package tx

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "reguard/pkg/domain-errors"
)

// Runner executes a unit of work atomically. Services run every mutation and
// its paired audit entry inside one RunInTx unit so the two can never
// diverge; reads that must observe one consistent snapshot across several
// statements use RunInSnapshot instead.
type Runner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
	RunInSnapshot(ctx context.Context, fn func(txCtx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// SQLRunner wraps units of work in a database transaction carried in the
// context; stores pick it up via From(ctx).
//
// Mutation units run at the database default isolation (read committed on
// PostgreSQL): concurrent writers to the same row queue on the row lock and
// the later one wins, instead of aborting with a serialization error the way
// repeatable read would. Snapshot units are read-only and get repeatable
// read, so every statement inside sees the same database state.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLRunner constructs a database-backed Runner.
func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.run(ctx, nil, fn)
}

func (r *SQLRunner) RunInSnapshot(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (r *SQLRunner) run(ctx context.Context, opts *sql.TxOptions, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dbTx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	ctx, hooks := withCommitHooks(WithTx(ctx, dbTx))
	if err := fn(ctx); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	hooks.run()
	return nil
}

// MemoryRunner serializes units of work behind one mutex. With in-memory
// stores this makes mutation+audit atomic with respect to each other and
// gives readers a stable snapshot, matching what SQLRunner provides.
type MemoryRunner struct {
	mu sync.Mutex
}

// NewMemoryRunner constructs the in-memory Runner used by tests and dev mode.
func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	ctx, hooks := withCommitHooks(ctx)
	if err := fn(ctx); err != nil {
		return err
	}
	hooks.run()
	return nil
}

// RunInSnapshot takes the same mutex as RunInTx; a read behind it cannot
// interleave with any mutation unit.
func (r *MemoryRunner) RunInSnapshot(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.RunInTx(ctx, fn)
}
