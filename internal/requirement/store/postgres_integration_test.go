//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reguard/internal/requirement/models"
	"reguard/internal/requirement/store"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
	"reguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), store.Schema)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background(), "requirements"))
}

func newTestRequirement(s *PostgresStoreSuite, tenantID id.TenantID, code string) *models.Requirement {
	req, err := models.NewRequirement(tenantID, code, "Requirement "+code, "", time.Now().UTC())
	s.Require().NoError(err)
	return req
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	req := newTestRequirement(s, tenantID, "152-FZ-18")

	s.Require().NoError(s.store.Create(ctx, req))

	found, err := s.store.FindByID(ctx, tenantID, req.ID)
	s.Require().NoError(err)
	s.Equal(req.Code, found.Code)
	s.Equal(req.Title, found.Title)
}

func (s *PostgresStoreSuite) TestDuplicateCodeWithinTenant() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	s.Require().NoError(s.store.Create(ctx, newTestRequirement(s, tenantID, "152-FZ-18")))
	err := s.store.Create(ctx, newTestRequirement(s, tenantID, "152-FZ-18"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	// The same code in another tenant is fine.
	s.NoError(s.store.Create(ctx, newTestRequirement(s, id.NewTenantID(), "152-FZ-18")))
}

func (s *PostgresStoreSuite) TestTenantScoping() {
	ctx := context.Background()
	tenantA := id.NewTenantID()
	req := newTestRequirement(s, tenantA, "187-FZ-12")
	s.Require().NoError(s.store.Create(ctx, req))

	_, err := s.store.FindByID(ctx, id.NewTenantID(), req.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	listed, err := s.store.ListByTenant(ctx, tenantA)
	s.Require().NoError(err)
	s.Len(listed, 1)
}
