package handler

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"reguard/internal/access"
	"reguard/internal/auditlog"
	"reguard/internal/auditlog/handler/mocks"
	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
	"reguard/pkg/testutil"
)

type AuditHandlerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	svc    *mocks.MockService
	router chi.Router
	actx   access.Context
}

func (s *AuditHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.svc = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.svc, slog.Default()).Register(s.router)
	s.actx = testutil.NewAccessContext(s.T(), access.PermissionAuditView, access.PermissionAuditRollback)
}

func (s *AuditHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestAuditHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuditHandlerSuite))
}

func (s *AuditHandlerSuite) TestList() {
	entries := []*auditlog.Entry{
		{
			ID:           7,
			ActorID:      id.NewUserID(),
			EventType:    auditlog.EventRuleUpdated,
			ResourceType: auditlog.ResourceApplicabilityRule,
			ResourceID:   id.NewRequirementID().String(),
			Changes:      []auditlog.FieldChange{{Field: "filter", Prior: "none", New: `{"pdn_levels":[1]}`}},
			CreatedAt:    time.Now(),
		},
	}
	s.svc.EXPECT().List(gomock.Any(), s.actx, 100).Return(entries, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/audit/entries")
	rr := testutil.DoRequest(s.router, testutil.WithAccessContext(req, s.actx))

	s.Equal(http.StatusOK, rr.Code)
	var resp []struct {
		ID        int64  `json:"id"`
		EventType string `json:"event_type"`
		Category  string `json:"category"`
	}
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.Require().Len(resp, 1)
	s.Equal(int64(7), resp[0].ID)
	s.Equal("applicability_rule_updated", resp[0].EventType)
	s.Equal("compliance", resp[0].Category)
}

func (s *AuditHandlerSuite) TestListLimit() {
	s.Run("custom limit is passed through", func() {
		s.svc.EXPECT().List(gomock.Any(), s.actx, 5).Return(nil, nil)

		req := testutil.NewRequest(s.T(), http.MethodGet, "/audit/entries?limit=5")
		rr := testutil.DoRequest(s.router, testutil.WithAccessContext(req, s.actx))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("invalid limit yields 400", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/audit/entries?limit=-3")
		rr := testutil.DoRequest(s.router, testutil.WithAccessContext(req, s.actx))
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *AuditHandlerSuite) TestRollback() {
	s.Run("restored result", func() {
		s.svc.EXPECT().Rollback(gomock.Any(), s.actx, auditlog.EntryID(42)).Return(true, nil)

		req := testutil.NewRequest(s.T(), http.MethodPost, "/audit/entries/42/rollback")
		rr := testutil.DoRequest(s.router, testutil.WithAccessContext(req, s.actx))

		s.Equal(http.StatusOK, rr.Code)
		var resp struct {
			Restored bool `json:"restored"`
		}
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.True(resp.Restored)
	})

	s.Run("benign no-op result", func() {
		s.svc.EXPECT().Rollback(gomock.Any(), s.actx, auditlog.EntryID(43)).Return(false, nil)

		req := testutil.NewRequest(s.T(), http.MethodPost, "/audit/entries/43/rollback")
		rr := testutil.DoRequest(s.router, testutil.WithAccessContext(req, s.actx))

		s.Equal(http.StatusOK, rr.Code)
		var resp struct {
			Restored bool `json:"restored"`
		}
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.False(resp.Restored)
	})

	s.Run("repeated rollback maps to 409", func() {
		s.svc.EXPECT().Rollback(gomock.Any(), s.actx, auditlog.EntryID(42)).
			Return(false, dErrors.New(dErrors.CodeConflict, "audit entry already reverted"))

		req := testutil.NewRequest(s.T(), http.MethodPost, "/audit/entries/42/rollback")
		rr := testutil.DoRequest(s.router, testutil.WithAccessContext(req, s.actx))
		s.Equal(http.StatusConflict, rr.Code)
	})

	s.Run("malformed entry id yields 400", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/audit/entries/zero/rollback")
		rr := testutil.DoRequest(s.router, testutil.WithAccessContext(req, s.actx))
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("missing access context yields 401", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/audit/entries/42/rollback")
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})
}
