package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}

var (
	txKey    = ctxKey{}
	hooksKey = hooksCtxKey{}
)

type hooksCtxKey struct{}

// WithTx stores a SQL transaction in context for downstream store usage.
// Stores that find a transaction here must run all reads and writes on it so
// a service-level unit of work commits or rolls back as a whole.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// commitHooks collects callbacks to run once the surrounding unit of work
// has committed. A failed or rolled-back unit never runs them.
type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

func withCommitHooks(ctx context.Context) (context.Context, *commitHooks) {
	h := &commitHooks{}
	return context.WithValue(ctx, hooksKey, h), h
}

func (h *commitHooks) run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// OnCommit defers fn until the unit of work carried in ctx commits. Side
// effects that must not leak from an uncommitted transaction (notifying a
// worker, for one) go through here. Outside a unit of work fn runs
// immediately.
func OnCommit(ctx context.Context, fn func()) {
	h, ok := ctx.Value(hooksKey).(*commitHooks)
	if !ok {
		fn()
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}
