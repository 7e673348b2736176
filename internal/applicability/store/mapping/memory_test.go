package mapping

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reguard/internal/applicability/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
)

type MappingStoreSuite struct {
	suite.Suite
	store    *InMemory
	ctx      context.Context
	tenantID id.TenantID
	reqID    id.RequirementID
	orgID    id.OrganizationID
}

func (s *MappingStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.tenantID = id.NewTenantID()
	s.reqID = id.NewRequirementID()
	s.orgID = id.NewOrganizationID()
}

func TestMappingStoreSuite(t *testing.T) {
	suite.Run(t, new(MappingStoreSuite))
}

func (s *MappingStoreSuite) newMapping(kind models.MappingKind, reason string) *models.Mapping {
	now := time.Now()
	return &models.Mapping{
		RequirementID:  s.reqID,
		OrganizationID: s.orgID,
		TenantID:       s.tenantID,
		Kind:           kind,
		Reason:         reason,
		CreatedBy:      id.NewUserID(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *MappingStoreSuite) TestUpsertReplacesByPair() {
	prior, err := s.store.Upsert(s.ctx, s.newMapping(models.KindManualExclude, "pilot scope"))
	s.Require().NoError(err)
	s.Nil(prior)

	prior, err = s.store.Upsert(s.ctx, s.newMapping(models.KindManualInclude, "regulator directive"))
	s.Require().NoError(err)
	s.Require().NotNil(prior)
	s.Equal(models.KindManualExclude, prior.Kind)
	s.Equal("pilot scope", prior.Reason)

	current, err := s.store.Get(s.ctx, s.tenantID, s.reqID, s.orgID)
	s.Require().NoError(err)
	s.Equal(models.KindManualInclude, current.Kind)
}

func (s *MappingStoreSuite) TestUpsertForeignTenantConflict() {
	_, err := s.store.Upsert(s.ctx, s.newMapping(models.KindManualInclude, "regulator directive"))
	s.Require().NoError(err)

	foreign := s.newMapping(models.KindManualExclude, "hijack attempt")
	foreign.TenantID = id.NewTenantID()
	_, err = s.store.Upsert(s.ctx, foreign)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	current, err := s.store.Get(s.ctx, s.tenantID, s.reqID, s.orgID)
	s.Require().NoError(err)
	s.Equal(models.KindManualInclude, current.Kind)
	s.Equal("regulator directive", current.Reason)
}

func (s *MappingStoreSuite) TestDelete() {
	s.Run("deleting an absent mapping reports not found", func() {
		_, err := s.store.Delete(s.ctx, s.tenantID, s.reqID, s.orgID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("delete returns the removed mapping", func() {
		_, err := s.store.Upsert(s.ctx, s.newMapping(models.KindManualInclude, "audit finding"))
		s.Require().NoError(err)

		deleted, err := s.store.Delete(s.ctx, s.tenantID, s.reqID, s.orgID)
		s.Require().NoError(err)
		s.Equal("audit finding", deleted.Reason)

		_, err = s.store.Get(s.ctx, s.tenantID, s.reqID, s.orgID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MappingStoreSuite) TestListByRequirement() {
	_, err := s.store.Upsert(s.ctx, s.newMapping(models.KindManualInclude, ""))
	s.Require().NoError(err)

	other := s.newMapping(models.KindManualExclude, "")
	other.OrganizationID = id.NewOrganizationID()
	_, err = s.store.Upsert(s.ctx, other)
	s.Require().NoError(err)

	unrelated := s.newMapping(models.KindManualExclude, "")
	unrelated.RequirementID = id.NewRequirementID()
	unrelated.OrganizationID = id.NewOrganizationID()
	_, err = s.store.Upsert(s.ctx, unrelated)
	s.Require().NoError(err)

	mappings, err := s.store.ListByRequirement(s.ctx, s.tenantID, s.reqID)
	s.Require().NoError(err)
	s.Len(mappings, 2)
}

func (s *MappingStoreSuite) TestTenantScoping() {
	_, err := s.store.Upsert(s.ctx, s.newMapping(models.KindManualInclude, ""))
	s.Require().NoError(err)

	foreign := id.NewTenantID()
	_, err = s.store.Get(s.ctx, foreign, s.reqID, s.orgID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Delete(s.ctx, foreign, s.reqID, s.orgID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	mappings, err := s.store.ListByRequirement(s.ctx, foreign, s.reqID)
	s.Require().NoError(err)
	s.Empty(mappings)
}
