package service

import (
	"context"
	"errors"
	"log/slog"

	"reguard/internal/access"
	"reguard/internal/requirement/models"
	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
	"reguard/pkg/platform/sentinel"
	"reguard/pkg/requestcontext"
)

// Store persists the requirement dictionary.
type Store interface {
	Create(ctx context.Context, req *models.Requirement) error
	FindByID(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID) (*models.Requirement, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Requirement, error)
}

// Service manages the requirement dictionary. Plain CRUD; which
// organizations a requirement applies to is the applicability service's
// concern.
type Service struct {
	gate   *access.Gate
	store  Store
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs the requirement service.
func NewService(gate *access.Gate, store Store, opts ...Option) *Service {
	s := &Service{gate: gate, store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new requirement in the caller's tenant.
func (s *Service) Create(ctx context.Context, actx access.Context, code, title, description string) (*models.Requirement, error) {
	if err := s.gate.Require(actx, access.PermissionRequirementsManage); err != nil {
		return nil, err
	}

	req, err := models.NewRequirement(actx.TenantID(), code, title, description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "requirement with code %q already exists", req.Code)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create requirement")
	}

	s.logger.InfoContext(ctx, "requirement created",
		"tenant_id", actx.TenantID(),
		"requirement_id", req.ID,
		"code", req.Code,
	)
	return req, nil
}

// Get returns one requirement in the caller's tenant.
func (s *Service) Get(ctx context.Context, actx access.Context, reqID id.RequirementID) (*models.Requirement, error) {
	if err := s.gate.RequireAuthenticated(actx); err != nil {
		return nil, err
	}
	req, err := s.store.FindByID(ctx, actx.TenantID(), reqID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "requirement not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load requirement")
	}
	return req, nil
}

// List returns every requirement in the caller's tenant.
func (s *Service) List(ctx context.Context, actx access.Context) ([]*models.Requirement, error) {
	if err := s.gate.RequireAuthenticated(actx); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListByTenant(ctx, actx.TenantID())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requirements")
	}
	return reqs, nil
}
