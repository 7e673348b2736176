package store

import (
	"context"
	"sync"

	"reguard/internal/requirement/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
)

// InMemory keeps requirements in a mutex-guarded map. Used in tests and
// when the service runs without PostgreSQL.
type InMemory struct {
	mu           sync.RWMutex
	requirements map[id.RequirementID]*models.Requirement
}

// NewInMemory constructs an empty in-memory requirement store.
func NewInMemory() *InMemory {
	return &InMemory{requirements: make(map[id.RequirementID]*models.Requirement)}
}

func (s *InMemory) Create(_ context.Context, req *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requirements[req.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	for _, existing := range s.requirements {
		if existing.TenantID == req.TenantID && existing.Code == req.Code {
			return sentinel.ErrAlreadyUsed
		}
	}
	clone := *req
	s.requirements[req.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, reqID id.RequirementID) (*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requirements[reqID]
	if !ok || req.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Requirement
	for _, req := range s.requirements {
		if req.TenantID != tenantID {
			continue
		}
		clone := *req
		result = append(result, &clone)
	}
	return result, nil
}
