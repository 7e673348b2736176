package rule

import (
	"context"
	"sync"

	"reguard/internal/applicability/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
)

// InMemory keeps automatic rules in a mutex-guarded map keyed by
// requirement. Used in tests and when the service runs without PostgreSQL.
type InMemory struct {
	mu    sync.RWMutex
	rules map[id.RequirementID]*models.Rule
}

// NewInMemory constructs an empty in-memory rule store.
func NewInMemory() *InMemory {
	return &InMemory{rules: make(map[id.RequirementID]*models.Rule)}
}

// Upsert stores the rule, replacing any prior rule for the requirement, and
// returns the replaced rule (nil when none existed). A requirement whose
// rule belongs to another tenant is ErrConflict, never overwritten.
func (s *InMemory) Upsert(_ context.Context, rule *models.Rule) (*models.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prior *models.Rule
	if existing, ok := s.rules[rule.RequirementID]; ok {
		if existing.TenantID != rule.TenantID {
			return nil, sentinel.ErrConflict
		}
		prior = cloneRule(existing)
		rule.CreatedAt = existing.CreatedAt
	}
	s.rules[rule.RequirementID] = cloneRule(rule)
	return prior, nil
}

// Get returns the requirement's automatic rule, or ErrNotFound when the
// requirement has none (the applies-to-all default).
func (s *InMemory) Get(_ context.Context, tenantID id.TenantID, reqID id.RequirementID) (*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[reqID]
	if !ok || rule.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return cloneRule(rule), nil
}

// Delete removes the requirement's rule and returns it; ErrNotFound when no
// rule was stored.
func (s *InMemory) Delete(_ context.Context, tenantID id.TenantID, reqID id.RequirementID) (*models.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[reqID]
	if !ok || rule.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	delete(s.rules, reqID)
	return rule, nil
}

func cloneRule(r *models.Rule) *models.Rule {
	clone := *r
	clone.Filter.KIICategories = append([]int(nil), r.Filter.KIICategories...)
	clone.Filter.PDNLevels = append([]int(nil), r.Filter.PDNLevels...)
	return &clone
}
