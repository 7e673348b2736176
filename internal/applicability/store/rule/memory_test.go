package rule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reguard/internal/applicability/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
)

type RuleStoreSuite struct {
	suite.Suite
	store    *InMemory
	ctx      context.Context
	tenantID id.TenantID
}

func (s *RuleStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.tenantID = id.NewTenantID()
}

func TestRuleStoreSuite(t *testing.T) {
	suite.Run(t, new(RuleStoreSuite))
}

func (s *RuleStoreSuite) newRule(reqID id.RequirementID, categories ...int) *models.Rule {
	now := time.Now()
	return &models.Rule{
		RequirementID: reqID,
		TenantID:      s.tenantID,
		Filter:        models.FilterRule{KIICategories: categories},
		UpdatedBy:     id.NewUserID(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *RuleStoreSuite) TestUpsert() {
	reqID := id.NewRequirementID()

	s.Run("first upsert reports no prior rule", func() {
		prior, err := s.store.Upsert(s.ctx, s.newRule(reqID, 1, 2))
		s.Require().NoError(err)
		s.Nil(prior)
	})

	s.Run("second upsert replaces and returns the prior rule", func() {
		prior, err := s.store.Upsert(s.ctx, s.newRule(reqID, 3))
		s.Require().NoError(err)
		s.Require().NotNil(prior)
		s.Equal([]int{1, 2}, prior.Filter.KIICategories)

		current, err := s.store.Get(s.ctx, s.tenantID, reqID)
		s.Require().NoError(err)
		s.Equal([]int{3}, current.Filter.KIICategories)
	})
}

func (s *RuleStoreSuite) TestUpsertForeignTenantConflict() {
	reqID := id.NewRequirementID()
	_, err := s.store.Upsert(s.ctx, s.newRule(reqID, 1))
	s.Require().NoError(err)

	foreign := s.newRule(reqID, 3)
	foreign.TenantID = id.NewTenantID()
	_, err = s.store.Upsert(s.ctx, foreign)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	current, err := s.store.Get(s.ctx, s.tenantID, reqID)
	s.Require().NoError(err)
	s.Equal([]int{1}, current.Filter.KIICategories)
}

func (s *RuleStoreSuite) TestGetAndDelete() {
	reqID := id.NewRequirementID()

	s.Run("absent rule reports not found", func() {
		_, err := s.store.Get(s.ctx, s.tenantID, reqID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("delete returns the removed rule", func() {
		_, err := s.store.Upsert(s.ctx, s.newRule(reqID, 2))
		s.Require().NoError(err)

		deleted, err := s.store.Delete(s.ctx, s.tenantID, reqID)
		s.Require().NoError(err)
		s.Equal([]int{2}, deleted.Filter.KIICategories)

		_, err = s.store.Get(s.ctx, s.tenantID, reqID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("deleting an absent rule reports not found", func() {
		_, err := s.store.Delete(s.ctx, s.tenantID, reqID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RuleStoreSuite) TestTenantScoping() {
	reqID := id.NewRequirementID()
	_, err := s.store.Upsert(s.ctx, s.newRule(reqID, 1))
	s.Require().NoError(err)

	_, err = s.store.Get(s.ctx, id.NewTenantID(), reqID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Delete(s.ctx, id.NewTenantID(), reqID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RuleStoreSuite) TestStoredCopiesAreIsolated() {
	reqID := id.NewRequirementID()
	rule := s.newRule(reqID, 1)
	_, err := s.store.Upsert(s.ctx, rule)
	s.Require().NoError(err)

	rule.Filter.KIICategories[0] = 3
	stored, err := s.store.Get(s.ctx, s.tenantID, reqID)
	s.Require().NoError(err)
	s.Equal([]int{1}, stored.Filter.KIICategories)
}
