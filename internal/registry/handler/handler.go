// Package handler exposes the identity registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stakeport/internal/registry/models"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/platform/httputil"
	"stakeport/pkg/requestcontext"
)

// Service defines the registry operations the handler needs. Registration
// itself is not here: new entities only enter through governance proposals.
type Service interface {
	Get(ctx context.Context, id domain.ID) (*models.Entity, error)
	SetController(ctx context.Context, id domain.ID, newController domain.Address) error
	SetMaintainer(ctx context.Context, id domain.ID, newMaintainer domain.Address) error
	MarkInitiated(ctx context.Context, id domain.ID) error
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterQueries mounts the read-only endpoints.
func (h *Handler) RegisterQueries(r chi.Router) {
	r.Get("/entities/{id}", h.HandleGetEntity)
}

// RegisterMutations mounts the authenticated, state-changing endpoints.
func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/entities/{id}/controller", h.HandleSetController)
	r.Post("/entities/{id}/maintainer", h.HandleSetMaintainer)
	r.Post("/entities/{id}/initiate", h.HandleInitiate)
}

// HandleGetEntity handles GET /entities/{id}.
func (h *Handler) HandleGetEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entity, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entity)
}

// HandleSetController handles POST /entities/{id}/controller.
func (h *Handler) HandleSetController(w http.ResponseWriter, r *http.Request) {
	h.handleAddressChange(w, r, "controller changed", h.service.SetController)
}

// HandleSetMaintainer handles POST /entities/{id}/maintainer.
func (h *Handler) HandleSetMaintainer(w http.ResponseWriter, r *http.Request) {
	h.handleAddressChange(w, r, "maintainer changed", h.service.SetMaintainer)
}

func (h *Handler) handleAddressChange(w http.ResponseWriter, r *http.Request, action string, apply func(context.Context, domain.ID, domain.Address) error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetAddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := apply(ctx, id, req.ParsedAddress()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, action,
		"request_id", requestID,
		"entity_id", id.String(),
		"address", req.ParsedAddress().String(),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleInitiate handles POST /entities/{id}/initiate.
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.MarkInitiated(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "entity initiated",
		"request_id", requestcontext.RequestID(ctx),
		"entity_id", id.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses the {id} path parameter, writing the error response itself.
func pathID(w http.ResponseWriter, r *http.Request) (domain.ID, bool) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid id"))
		return domain.ID{}, false
	}
	return id, true
}
