package auditlog

import (
	"context"
	"errors"
	"log/slog"

	"reguard/internal/access"
	dErrors "reguard/pkg/domain-errors"
	"reguard/pkg/platform/sentinel"
	"reguard/pkg/platform/tx"
	"reguard/pkg/requestcontext"
)

// Service is the audit log and its rollback engine. Record is a side-effect
// sink for already-authorized mutations; List and Rollback are gated
// operations in their own right.
type Service struct {
	store    Store
	registry *Registry
	gate     *access.Gate
	tx       tx.Runner
	logger   *slog.Logger
	sink     chan<- Entry
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTxRunner sets the transaction runner; defaults to the in-memory runner.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) { s.tx = runner }
}

// WithSink attaches a post-commit channel consumed by the ops worker.
// Emission is non-blocking; a full sink drops rather than stalls the request.
func WithSink(sink chan<- Entry) Option {
	return func(s *Service) { s.sink = sink }
}

// NewService constructs the audit service.
func NewService(store Store, registry *Registry, gate *access.Gate, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: registry,
		gate:     gate,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryRunner()
	}
	return s
}

// Record appends an entry describing a mutation the caller already performed
// (and already authorized). It participates in any transaction carried in
// ctx, so the entry commits atomically with the mutation.
func (s *Service) Record(ctx context.Context, actx access.Context, rec Record) (EntryID, error) {
	if actx.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if rec.EventType == "" || rec.ResourceType == "" || rec.ResourceID == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "event type, resource type and resource id are required")
	}

	entry := &Entry{
		TenantID:     actx.TenantID(),
		ActorID:      actx.UserID(),
		EventType:    rec.EventType,
		ResourceType: rec.ResourceType,
		ResourceID:   rec.ResourceID,
		Changes:      rec.Changes,
		Metadata: Metadata{
			IP:        requestcontext.ClientIP(ctx),
			Client:    requestcontext.ClientLabel(ctx),
			RequestID: requestcontext.RequestID(ctx),
		},
		CreatedAt: requestcontext.Now(ctx),
	}

	entryID, err := s.store.Append(ctx, entry)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	entry.ID = entryID

	// The entry reaches the sink only once the caller's unit of work
	// commits; a rolled-back mutation must not surface downstream.
	committed := *entry
	tx.OnCommit(ctx, func() { s.emit(committed) })
	return entryID, nil
}

// List returns the tenant's audit trail in reverse chronological order.
func (s *Service) List(ctx context.Context, actx access.Context, limit int) ([]*Entry, error) {
	if err := s.gate.Require(actx, access.PermissionAuditView); err != nil {
		return nil, err
	}
	entries, err := s.store.List(ctx, actx.TenantID(), limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	return entries, nil
}

// Rollback restores the pre-mutation state captured by one entry.
//
// It is at-most-once per entry: the reverted marker is claimed with a
// compare-and-set before the inverse is applied, and both happen in one
// transaction with the new rollback entry. The boolean result is false only
// for the benign case where the touched resource no longer exists — the
// marker is still consumed so the entry cannot be replayed later against a
// recreated resource.
func (s *Service) Rollback(ctx context.Context, actx access.Context, entryID EntryID) (bool, error) {
	if err := s.gate.Require(actx, access.PermissionAuditRollback); err != nil {
		return false, err
	}
	if entryID <= 0 {
		return false, dErrors.New(dErrors.CodeValidation, "log entry id is required")
	}

	restored := false
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.store.FindByID(txCtx, actx.TenantID(), entryID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "audit entry not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit entry")
		}

		applier, ok := s.registry.lookup(entry.ResourceType)
		if !ok {
			return dErrors.Newf(dErrors.CodeInternal, "no inverse applier for resource type %q", entry.ResourceType)
		}

		// Claim the entry before touching the resource; a concurrent
		// rollback of the same entry loses here with Conflict.
		if err := s.store.MarkReverted(txCtx, actx.TenantID(), entryID, requestcontext.Now(txCtx)); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrConflict):
				return dErrors.New(dErrors.CodeConflict, "audit entry already reverted")
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "audit entry not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark audit entry reverted")
		}

		result, err := applier.Restore(txCtx, entry)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply inverse mutation")
		}
		if !result.Restored {
			// Nothing to restore; the marker stays consumed but there was
			// no state change to audit.
			return nil
		}

		rollbackEntry := &Entry{
			TenantID:     actx.TenantID(),
			ActorID:      actx.UserID(),
			EventType:    EventRollback,
			ResourceType: entry.ResourceType,
			ResourceID:   entry.ResourceID,
			Changes:      result.Changes,
			Metadata: Metadata{
				IP:        requestcontext.ClientIP(txCtx),
				Client:    requestcontext.ClientLabel(txCtx),
				RequestID: requestcontext.RequestID(txCtx),
			},
			CreatedAt: requestcontext.Now(txCtx),
		}
		newID, err := s.store.Append(txCtx, rollbackEntry)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record rollback entry")
		}
		rollbackEntry.ID = newID
		restored = true
		committed := *rollbackEntry
		tx.OnCommit(txCtx, func() { s.emit(committed) })
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.InfoContext(ctx, "rollback completed",
		"tenant_id", actx.TenantID(),
		"entry_id", int64(entryID),
		"restored", restored,
	)
	return restored, nil
}

// emit forwards a committed entry to the ops sink without blocking.
func (s *Service) emit(entry Entry) {
	if s.sink == nil {
		return
	}
	select {
	case s.sink <- entry:
	default:
	}
}
