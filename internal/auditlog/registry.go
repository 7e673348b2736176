package auditlog

import (
	"context"
	"sync"
)

// RestoreResult is what an inverse applier reports back.
//
// Restored=false is the benign "nothing to restore" outcome: the resource the
// original mutation touched no longer exists, so there is no state to write
// back. Changes carries the (state-before-rollback -> restored-state) pairs
// for the rollback's own audit entry and is empty when Restored is false.
type RestoreResult struct {
	Restored bool
	Changes  []FieldChange
}

// InverseApplier reconstructs and applies the inverse of a logged mutation.
// Implementations write the entry's prior values back through their own store
// and must honor the transaction carried in ctx.
type InverseApplier interface {
	Restore(ctx context.Context, entry *Entry) (RestoreResult, error)
}

// Registry maps resource types to inverse appliers. Each service that writes
// through the audit log registers an applier for the resource kinds it owns,
// so the rollback engine stays generic over mutation kinds.
type Registry struct {
	mu       sync.RWMutex
	appliers map[ResourceType]InverseApplier
}

// NewRegistry constructs an empty applier registry.
func NewRegistry() *Registry {
	return &Registry{appliers: make(map[ResourceType]InverseApplier)}
}

// Register installs the applier for a resource type, replacing any prior one.
func (r *Registry) Register(resourceType ResourceType, applier InverseApplier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appliers[resourceType] = applier
}

func (r *Registry) lookup(resourceType ResourceType) (InverseApplier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	applier, ok := r.appliers[resourceType]
	return applier, ok
}
