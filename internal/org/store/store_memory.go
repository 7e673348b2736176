// Package store persists organizations. Both implementations scope every
// read and write by tenant id; there is no unscoped accessor.
package store

import (
	"context"
	"sync"
	"time"

	"reguard/internal/org/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
)

// InMemory is the test and dev implementation.
type InMemory struct {
	mu   sync.RWMutex
	orgs map[id.OrganizationID]*models.Organization
}

// NewInMemory constructs an empty in-memory organization store.
func NewInMemory() *InMemory {
	return &InMemory{orgs: make(map[id.OrganizationID]*models.Organization)}
}

func (s *InMemory) Create(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orgs[org.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	cloned := *org
	s.orgs[org.ID] = &cloned
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, orgID id.OrganizationID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok || org.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	cloned := *org
	return &cloned, nil
}

func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Organization
	for _, org := range s.orgs {
		if org.TenantID == tenantID {
			cloned := *org
			out = append(out, &cloned)
		}
	}
	return out, nil
}

// UpdateAttributes replaces the attribute profile and returns the previous
// one so the caller can audit the change.
func (s *InMemory) UpdateAttributes(_ context.Context, tenantID id.TenantID, orgID id.OrganizationID, attrs models.Attributes, now time.Time) (models.Attributes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok || org.TenantID != tenantID {
		return models.Attributes{}, sentinel.ErrNotFound
	}
	prior := org.Attributes
	org.Attributes = attrs
	org.UpdatedAt = now
	return prior, nil
}
