//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reguard/internal/auditlog"
	"reguard/internal/auditlog/store/postgres"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/sentinel"
	"reguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), postgres.Schema)
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background(), "audit_entries"))
}

func newTestEntry(tenantID id.TenantID) *auditlog.Entry {
	return &auditlog.Entry{
		TenantID:     tenantID,
		ActorID:      id.NewUserID(),
		EventType:    auditlog.EventRuleUpdated,
		ResourceType: auditlog.ResourceApplicabilityRule,
		ResourceID:   id.NewRequirementID().String(),
		Changes: []auditlog.FieldChange{
			{Field: "filter", Prior: "none", New: `{"kii_categories":[1]}`},
		},
		Metadata:  auditlog.Metadata{IP: "10.0.0.1", Client: "curl", RequestID: "req-1"},
		CreatedAt: time.Now().UTC(),
	}
}

func (s *PostgresStoreSuite) TestAppendAssignsMonotonicIDs() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	first, err := s.store.Append(ctx, newTestEntry(tenantID))
	s.Require().NoError(err)
	second, err := s.store.Append(ctx, newTestEntry(tenantID))
	s.Require().NoError(err)
	s.Greater(second, first)
}

func (s *PostgresStoreSuite) TestFindByIDRoundTrip() {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	entry := newTestEntry(tenantID)

	entryID, err := s.store.Append(ctx, entry)
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, tenantID, entryID)
	s.Require().NoError(err)
	s.Equal(entry.EventType, found.EventType)
	s.Equal(entry.ResourceID, found.ResourceID)
	s.Equal(entry.Changes, found.Changes)
	s.Equal(entry.Metadata, found.Metadata)
	s.Nil(found.RevertedAt)

	_, err = s.store.FindByID(ctx, id.NewTenantID(), entryID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListNewestFirstWithLimit() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	var last auditlog.EntryID
	for range 5 {
		entryID, err := s.store.Append(ctx, newTestEntry(tenantID))
		s.Require().NoError(err)
		last = entryID
	}
	_, err := s.store.Append(ctx, newTestEntry(id.NewTenantID()))
	s.Require().NoError(err)

	entries, err := s.store.List(ctx, tenantID, 3)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(last, entries[0].ID)

	all, err := s.store.List(ctx, tenantID, 0)
	s.Require().NoError(err)
	s.Len(all, 5)
}

func (s *PostgresStoreSuite) TestMarkRevertedIsCompareAndSet() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	entryID, err := s.store.Append(ctx, newTestEntry(tenantID))
	s.Require().NoError(err)

	now := time.Now().UTC()
	s.Require().NoError(s.store.MarkReverted(ctx, tenantID, entryID, now))

	// Second attempt hits the consumed marker.
	s.ErrorIs(s.store.MarkReverted(ctx, tenantID, entryID, now), sentinel.ErrConflict)

	// Foreign tenant and unknown entry are indistinguishable.
	s.ErrorIs(s.store.MarkReverted(ctx, id.NewTenantID(), entryID, now), sentinel.ErrNotFound)
	s.ErrorIs(s.store.MarkReverted(ctx, tenantID, entryID+1000, now), sentinel.ErrNotFound)

	found, err := s.store.FindByID(ctx, tenantID, entryID)
	s.Require().NoError(err)
	s.NotNil(found.RevertedAt)
}
