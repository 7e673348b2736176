package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reguard/internal/access"
	"reguard/internal/org/models"
	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
	"reguard/pkg/platform/httputil"
	"reguard/pkg/requestcontext"
)

// Service defines the organization operations the HTTP layer exposes.
type Service interface {
	Create(ctx context.Context, actx access.Context, name string, attrs models.Attributes) (*models.Organization, error)
	Get(ctx context.Context, actx access.Context, orgID id.OrganizationID) (*models.Organization, error)
	List(ctx context.Context, actx access.Context) ([]*models.Organization, error)
	UpdateAttributes(ctx context.Context, actx access.Context, orgID id.OrganizationID, attrs models.Attributes) error
}

// Handler exposes the organization dictionary over HTTP.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

// New creates a new organization Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Register mounts the organization routes. The surrounding router is
// expected to run the auth middleware first.
func (h *Handler) Register(r chi.Router) {
	r.Post("/organizations", h.handleCreate)
	r.Get("/organizations", h.handleList)
	r.Get("/organizations/{organizationID}", h.handleGet)
	r.Put("/organizations/{organizationID}/attributes", h.handleUpdateAttributes)
}

type createRequest struct {
	Name       string            `json:"name"`
	Attributes models.Attributes `json:"attributes"`
}

type organizationResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Attributes models.Attributes `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func toResponse(org *models.Organization) organizationResponse {
	return organizationResponse{
		ID:         org.ID.String(),
		Name:       org.Name,
		Attributes: org.Attributes,
		CreatedAt:  org.CreatedAt,
		UpdatedAt:  org.UpdatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, ok := access.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[createRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	org, err := h.svc.Create(ctx, actx, req.Name, req.Attributes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(org))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, ok := access.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	orgs, err := h.svc.List(ctx, actx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := make([]organizationResponse, 0, len(orgs))
	for _, org := range orgs {
		resp = append(resp, toResponse(org))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, ok := access.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organization id"))
		return
	}

	org, err := h.svc.Get(ctx, actx, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(org))
}

func (h *Handler) handleUpdateAttributes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, ok := access.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organization id"))
		return
	}
	attrs, ok := httputil.DecodeAndPrepare[models.Attributes](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if err := h.svc.UpdateAttributes(ctx, actx, orgID, attrs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
