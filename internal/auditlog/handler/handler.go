package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"reguard/internal/access"
	"reguard/internal/auditlog"
	dErrors "reguard/pkg/domain-errors"
	"reguard/pkg/platform/httputil"
	"reguard/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const defaultListLimit = 100

// Service defines the audit operations the HTTP layer exposes.
type Service interface {
	List(ctx context.Context, actx access.Context, limit int) ([]*auditlog.Entry, error)
	Rollback(ctx context.Context, actx access.Context, entryID auditlog.EntryID) (bool, error)
}

// Handler exposes the audit trail and rollback over HTTP.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

// New creates a new audit Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Register mounts the audit routes. The surrounding router is expected to run
// the auth middleware first.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/entries", h.handleList)
	r.Post("/audit/entries/{entryID}/rollback", h.handleRollback)
}

type changeResponse struct {
	Field string `json:"field"`
	Prior string `json:"prior"`
	New   string `json:"new"`
}

type entryResponse struct {
	ID           int64            `json:"id"`
	ActorID      string           `json:"actor_id"`
	EventType    string           `json:"event_type"`
	Category     string           `json:"category"`
	ResourceType string           `json:"resource_type"`
	ResourceID   string           `json:"resource_id"`
	Changes      []changeResponse `json:"changes"`
	IP           string           `json:"ip,omitempty"`
	Client       string           `json:"client,omitempty"`
	RequestID    string           `json:"request_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	RevertedAt   *time.Time       `json:"reverted_at,omitempty"`
}

type rollbackResponse struct {
	Restored bool `json:"restored"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, ok := access.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = parsed
	}

	entries, err := h.svc.List(ctx, actx, limit)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list audit entries", err)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		item := entryResponse{
			ID:           int64(entry.ID),
			ActorID:      entry.ActorID.String(),
			EventType:    string(entry.EventType),
			Category:     string(entry.EventType.Category()),
			ResourceType: string(entry.ResourceType),
			ResourceID:   entry.ResourceID,
			Changes:      make([]changeResponse, 0, len(entry.Changes)),
			IP:           entry.Metadata.IP,
			Client:       entry.Metadata.Client,
			RequestID:    entry.Metadata.RequestID,
			CreatedAt:    entry.CreatedAt,
			RevertedAt:   entry.RevertedAt,
		}
		for _, c := range entry.Changes {
			item.Changes = append(item.Changes, changeResponse(c))
		}
		resp = append(resp, item)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRollback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actx, ok := access.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil || entryID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid audit entry id"))
		return
	}

	restored, err := h.svc.Rollback(ctx, actx, auditlog.EntryID(entryID))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to roll back audit entry", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rollbackResponse{Restored: restored})
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
