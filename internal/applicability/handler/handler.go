package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reguard/internal/access"
	"reguard/internal/applicability/models"
	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
	"reguard/pkg/platform/httputil"
	"reguard/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the applicability operations the HTTP layer exposes.
type Service interface {
	SetAutomaticRule(ctx context.Context, actx access.Context, reqID id.RequirementID, filter models.FilterRule) error
	DeleteAutomaticRule(ctx context.Context, actx access.Context, reqID id.RequirementID) error
	AddManualOverride(ctx context.Context, actx access.Context, reqID id.RequirementID, orgID id.OrganizationID, kind models.MappingKind, reason string) error
	RemoveManualOverride(ctx context.Context, actx access.Context, reqID id.RequirementID, orgID id.OrganizationID) error
	Resolve(ctx context.Context, actx access.Context, reqID id.RequirementID) (*models.Result, error)
}

// Handler exposes applicability rules, overrides and resolution over HTTP.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

// New creates a new applicability Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Register mounts the applicability routes. The surrounding router is
// expected to run the auth middleware first.
func (h *Handler) Register(r chi.Router) {
	r.Get("/requirements/{requirementID}/applicability", h.handleResolve)
	r.Put("/requirements/{requirementID}/applicability/rule", h.handleSetRule)
	r.Delete("/requirements/{requirementID}/applicability/rule", h.handleDeleteRule)
	r.Put("/requirements/{requirementID}/applicability/overrides/{organizationID}", h.handleAddOverride)
	r.Delete("/requirements/{requirementID}/applicability/overrides/{organizationID}", h.handleRemoveOverride)
}

type ruleRequest struct {
	KIICategories        []int `json:"kii_categories,omitempty"`
	PDNLevels            []int `json:"pdn_levels,omitempty"`
	IsFinancial          *bool `json:"is_financial,omitempty"`
	IsHealthcare         *bool `json:"is_healthcare,omitempty"`
	IsGovernment         *bool `json:"is_government,omitempty"`
	ProcessesForeignData *bool `json:"processes_foreign_data,omitempty"`
	MinEmployees         *int  `json:"min_employees,omitempty"`
	MaxEmployees         *int  `json:"max_employees,omitempty"`
}

type overrideRequest struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

type verdictResponse struct {
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Kind             string `json:"kind"`
	Reason           string `json:"reason,omitempty"`
	Applies          bool   `json:"applies"`
}

type totalsResponse struct {
	Organizations    int `json:"organizations"`
	Applicable       int `json:"applicable"`
	AutomaticInclude int `json:"automatic_include"`
	AutomaticExclude int `json:"automatic_exclude"`
	ManualInclude    int `json:"manual_include"`
	ManualExclude    int `json:"manual_exclude"`
}

type resolveResponse struct {
	RequirementID string            `json:"requirement_id"`
	Verdicts      []verdictResponse `json:"verdicts"`
	Totals        totalsResponse    `json:"totals"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, reqID, ok := h.prepare(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Resolve(ctx, actx, reqID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to resolve applicability", err)
		return
	}

	resp := resolveResponse{
		RequirementID: result.RequirementID.String(),
		Verdicts:      make([]verdictResponse, 0, len(result.Verdicts)),
		Totals: totalsResponse{
			Organizations:    result.Totals.Organizations,
			Applicable:       result.Totals.Applicable,
			AutomaticInclude: result.Totals.AutomaticInclude,
			AutomaticExclude: result.Totals.AutomaticExclude,
			ManualInclude:    result.Totals.ManualInclude,
			ManualExclude:    result.Totals.ManualExclude,
		},
	}
	for _, v := range result.Verdicts {
		resp.Verdicts = append(resp.Verdicts, verdictResponse{
			OrganizationID:   v.OrganizationID.String(),
			OrganizationName: v.OrganizationName,
			Kind:             string(v.Kind),
			Reason:           v.Reason,
			Applies:          v.Applies(),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSetRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, reqID, ok := h.prepare(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ruleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	filter := models.FilterRule{
		KIICategories:        req.KIICategories,
		PDNLevels:            req.PDNLevels,
		IsFinancial:          req.IsFinancial,
		IsHealthcare:         req.IsHealthcare,
		IsGovernment:         req.IsGovernment,
		ProcessesForeignData: req.ProcessesForeignData,
		MinEmployees:         req.MinEmployees,
		MaxEmployees:         req.MaxEmployees,
	}
	if err := h.svc.SetAutomaticRule(ctx, actx, reqID, filter); err != nil {
		h.writeServiceError(ctx, w, "failed to set automatic rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, reqID, ok := h.prepare(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteAutomaticRule(ctx, actx, reqID); err != nil {
		h.writeServiceError(ctx, w, "failed to delete automatic rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, reqID, ok := h.prepare(w, r)
	if !ok {
		return
	}
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organization id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[overrideRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	kind, err := models.ParseOverrideKind(req.Kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.AddManualOverride(ctx, actx, reqID, orgID, kind, req.Reason); err != nil {
		h.writeServiceError(ctx, w, "failed to add manual override", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, reqID, ok := h.prepare(w, r)
	if !ok {
		return
	}
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organization id"))
		return
	}

	if err := h.svc.RemoveManualOverride(ctx, actx, reqID, orgID); err != nil {
		h.writeServiceError(ctx, w, "failed to remove manual override", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// prepare pulls the access context and requirement id every route needs.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) (access.Context, id.RequirementID, bool) {
	actx, ok := access.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return access.Context{}, id.RequirementID{}, false
	}
	reqID, err := id.ParseRequirementID(chi.URLParam(r, "requirementID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid requirement id"))
		return access.Context{}, id.RequirementID{}, false
	}
	return actx, reqID, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
