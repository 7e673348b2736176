package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reguard/internal/requirement/models"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
)

type RequirementStoreSuite struct {
	suite.Suite
	store    *InMemory
	ctx      context.Context
	tenantID id.TenantID
}

func (s *RequirementStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.tenantID = id.NewTenantID()
}

func TestRequirementStoreSuite(t *testing.T) {
	suite.Run(t, new(RequirementStoreSuite))
}

func (s *RequirementStoreSuite) newRequirement(code string) *models.Requirement {
	req, err := models.NewRequirement(s.tenantID, code, "Requirement "+code, "", time.Now())
	s.Require().NoError(err)
	return req
}

func (s *RequirementStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds requirement by ID", func() {
		req := s.newRequirement("152-FZ")
		s.Require().NoError(s.store.Create(s.ctx, req))

		found, err := s.store.FindByID(s.ctx, s.tenantID, req.ID)
		s.Require().NoError(err)
		s.Equal("152-FZ", found.Code)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, s.tenantID, id.NewRequirementID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate code within a tenant", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRequirement("187-FZ")))
		s.Require().ErrorIs(s.store.Create(s.ctx, s.newRequirement("187-FZ")), sentinel.ErrAlreadyUsed)
	})
}

func (s *RequirementStoreSuite) TestTenantScoping() {
	req := s.newRequirement("PCI-DSS")
	s.Require().NoError(s.store.Create(s.ctx, req))

	s.Run("lookup under another tenant reports not found", func() {
		_, err := s.store.FindByID(s.ctx, id.NewTenantID(), req.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("list only returns own tenant", func() {
		reqs, err := s.store.ListByTenant(s.ctx, id.NewTenantID())
		s.Require().NoError(err)
		s.Empty(reqs)

		reqs, err = s.store.ListByTenant(s.ctx, s.tenantID)
		s.Require().NoError(err)
		s.Len(reqs, 1)
	})
}

func (s *RequirementStoreSuite) TestStoredCopiesAreIsolated() {
	req := s.newRequirement("ISO-27001")
	s.Require().NoError(s.store.Create(s.ctx, req))

	req.Title = "Mutated After Create"
	found, err := s.store.FindByID(s.ctx, s.tenantID, req.ID)
	s.Require().NoError(err)
	s.Equal("Requirement ISO-27001", found.Title)
}
