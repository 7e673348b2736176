package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reguard/internal/access"
	"reguard/internal/requirement/models"
	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
	"reguard/pkg/platform/httputil"
	"reguard/pkg/requestcontext"
)

// Service defines the requirement operations the HTTP layer exposes.
type Service interface {
	Create(ctx context.Context, actx access.Context, code, title, description string) (*models.Requirement, error)
	Get(ctx context.Context, actx access.Context, reqID id.RequirementID) (*models.Requirement, error)
	List(ctx context.Context, actx access.Context) ([]*models.Requirement, error)
}

// Handler exposes the requirement dictionary over HTTP.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

// New creates a new requirement Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Register mounts the requirement routes. The surrounding router is expected
// to run the auth middleware first.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requirements", h.handleCreate)
	r.Get("/requirements", h.handleList)
	r.Get("/requirements/{requirementID}", h.handleGet)
}

type createRequest struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type requirementResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(req *models.Requirement) requirementResponse {
	return requirementResponse{
		ID:          req.ID.String(),
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
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

	created, err := h.svc.Create(ctx, actx, req.Code, req.Title, req.Description)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, ok := access.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	reqs, err := h.svc.List(ctx, actx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := make([]requirementResponse, 0, len(reqs))
	for _, req := range reqs {
		resp = append(resp, toResponse(req))
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
	reqID, err := id.ParseRequirementID(chi.URLParam(r, "requirementID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid requirement id"))
		return
	}

	req, err := h.svc.Get(ctx, actx, reqID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(req))
}
