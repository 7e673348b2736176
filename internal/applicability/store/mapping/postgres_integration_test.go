//go:build integration

package mapping_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reguard/internal/applicability/models"
	"reguard/internal/applicability/store/mapping"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
	"reguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *mapping.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), mapping.Schema)
	s.store = mapping.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background(), "applicability_mappings"))
}

func newTestMapping(tenantID id.TenantID, reqID id.RequirementID, orgID id.OrganizationID, kind models.MappingKind, reason string) *models.Mapping {
	now := time.Now().UTC()
	return &models.Mapping{
		RequirementID:  reqID,
		OrganizationID: orgID,
		TenantID:       tenantID,
		Kind:           kind,
		Reason:         reason,
		CreatedBy:      id.NewUserID(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *PostgresStoreSuite) TestUpsertCapturesPrior() {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	reqID := id.NewRequirementID()
	orgID := id.NewOrganizationID()

	prior, err := s.store.Upsert(ctx, newTestMapping(tenantID, reqID, orgID, models.KindManualInclude, "regulator letter"))
	s.Require().NoError(err)
	s.Nil(prior)

	prior, err = s.store.Upsert(ctx, newTestMapping(tenantID, reqID, orgID, models.KindManualExclude, "scope narrowed"))
	s.Require().NoError(err)
	s.Require().NotNil(prior)
	s.Equal(models.KindManualInclude, prior.Kind)
	s.Equal("regulator letter", prior.Reason)

	current, err := s.store.Get(ctx, tenantID, reqID, orgID)
	s.Require().NoError(err)
	s.Equal(models.KindManualExclude, current.Kind)
	s.Equal("scope narrowed", current.Reason)
}

func (s *PostgresStoreSuite) TestUpsertForeignTenantConflict() {
	ctx := context.Background()
	reqID := id.NewRequirementID()
	orgID := id.NewOrganizationID()

	_, err := s.store.Upsert(ctx, newTestMapping(id.NewTenantID(), reqID, orgID, models.KindManualInclude, ""))
	s.Require().NoError(err)

	_, err = s.store.Upsert(ctx, newTestMapping(id.NewTenantID(), reqID, orgID, models.KindManualExclude, ""))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestDeleteReturnsRemovedMapping() {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	reqID := id.NewRequirementID()
	orgID := id.NewOrganizationID()

	_, err := s.store.Upsert(ctx, newTestMapping(tenantID, reqID, orgID, models.KindManualInclude, "audit finding"))
	s.Require().NoError(err)

	removed, err := s.store.Delete(ctx, tenantID, reqID, orgID)
	s.Require().NoError(err)
	s.Equal(models.KindManualInclude, removed.Kind)
	s.Equal("audit finding", removed.Reason)

	_, err = s.store.Delete(ctx, tenantID, reqID, orgID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByRequirementTenantScoped() {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	reqID := id.NewRequirementID()

	for range 3 {
		_, err := s.store.Upsert(ctx, newTestMapping(tenantID, reqID, id.NewOrganizationID(), models.KindManualInclude, ""))
		s.Require().NoError(err)
	}
	_, err := s.store.Upsert(ctx, newTestMapping(tenantID, id.NewRequirementID(), id.NewOrganizationID(), models.KindManualInclude, ""))
	s.Require().NoError(err)

	listed, err := s.store.ListByRequirement(ctx, tenantID, reqID)
	s.Require().NoError(err)
	s.Len(listed, 3)

	listed, err = s.store.ListByRequirement(ctx, id.NewTenantID(), reqID)
	s.Require().NoError(err)
	s.Empty(listed)
}
