package mapping

import (
	"context"
	"sync"

	"reguard/internal/applicability/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
)

type pairKey struct {
	requirementID  id.RequirementID
	organizationID id.OrganizationID
}

// InMemory keeps manual overrides in a mutex-guarded map keyed by the
// (requirement, organization) pair. Used in tests and when the service runs
// without PostgreSQL.
type InMemory struct {
	mu       sync.RWMutex
	mappings map[pairKey]*models.Mapping
}

// NewInMemory constructs an empty in-memory mapping store.
func NewInMemory() *InMemory {
	return &InMemory{mappings: make(map[pairKey]*models.Mapping)}
}

// Upsert stores the mapping, replacing any prior mapping for the pair, and
// returns the replaced mapping (nil when none existed). A pair already held
// by another tenant is ErrConflict, never overwritten.
func (s *InMemory) Upsert(_ context.Context, m *models.Mapping) (*models.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{m.RequirementID, m.OrganizationID}
	var prior *models.Mapping
	if existing, ok := s.mappings[key]; ok {
		if existing.TenantID != m.TenantID {
			return nil, sentinel.ErrConflict
		}
		clone := *existing
		prior = &clone
		m.CreatedAt = existing.CreatedAt
	}
	clone := *m
	s.mappings[key] = &clone
	return prior, nil
}

// Get returns the pair's manual mapping, or ErrNotFound when none exists.
func (s *InMemory) Get(_ context.Context, tenantID id.TenantID, reqID id.RequirementID, orgID id.OrganizationID) (*models.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mappings[pairKey{reqID, orgID}]
	if !ok || m.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

// Delete removes the pair's mapping and returns it; ErrNotFound when none
// was stored.
func (s *InMemory) Delete(_ context.Context, tenantID id.TenantID, reqID id.RequirementID, orgID id.OrganizationID) (*models.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{reqID, orgID}
	m, ok := s.mappings[key]
	if !ok || m.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	delete(s.mappings, key)
	return m, nil
}

// ListByRequirement returns all manual mappings for the requirement.
func (s *InMemory) ListByRequirement(_ context.Context, tenantID id.TenantID, reqID id.RequirementID) ([]*models.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Mapping
	for key, m := range s.mappings {
		if key.requirementID != reqID || m.TenantID != tenantID {
			continue
		}
		clone := *m
		result = append(result, &clone)
	}
	return result, nil
}
