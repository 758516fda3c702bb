// Package handler exposes the governance registry and proposal ledger over
// HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"cosmossdk.io/math"
	"github.com/go-chi/chi/v5"

	governanceModels "stakeport/internal/governance/models"
	"stakeport/internal/governance/service"
	proposalModels "stakeport/internal/proposal/models"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/platform/httputil"
	"stakeport/pkg/requestcontext"
)

// Service defines the governance operations the handler needs.
type Service interface {
	Params(ctx context.Context) (*governanceModels.GovernanceParams, error)
	Proposal(ctx context.Context, id domain.ID) (*proposalModels.Proposal, error)
	SubmitProposal(ctx context.Context, name string, t domain.EntityType, proposedController domain.Address) (*proposalModels.Proposal, error)
	ApproveProposal(ctx context.Context, id domain.ID) (*service.ApprovalOutcome, error)
	RejectOrExpire(ctx context.Context, id domain.ID) error
	SetGovernanceFee(ctx context.Context, fee math.LegacyDec) error
}

// Handler wires governance endpoints to the governance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a governance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterQueries mounts the read-only endpoints.
func (h *Handler) RegisterQueries(r chi.Router) {
	r.Get("/proposals/{id}", h.HandleGetProposal)
	r.Get("/params/governance", h.HandleGetParams)
}

// RegisterMutations mounts the authenticated, state-changing endpoints.
func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/proposals", h.HandleSubmitProposal)
	r.Post("/proposals/{id}/approve", h.HandleApproveProposal)
	r.Post("/proposals/{id}/expire", h.HandleExpireProposal)
	r.Post("/params/governance/fee", h.HandleSetGovernanceFee)
}

// HandleGetParams handles GET /params/governance.
func (h *Handler) HandleGetParams(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.Params(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, params)
}

// HandleGetProposal handles GET /proposals/{id}.
func (h *Handler) HandleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Proposal(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleSubmitProposal handles POST /proposals.
func (h *Handler) HandleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitProposalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.SubmitProposal(ctx, req.Name, req.ParsedType(), req.ParsedController())
	if err != nil {
		h.logger.WarnContext(ctx, "proposal submission rejected",
			"request_id", requestID,
			"name", req.Name,
			"type", req.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "proposal created",
		"request_id", requestID,
		"proposal_id", p.ID.String(),
		"type", req.Type,
	)
	httputil.WriteJSON(w, http.StatusCreated, p)
}

// HandleApproveProposal handles POST /proposals/{id}/approve.
func (h *Handler) HandleApproveProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.ApproveProposal(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "proposal approval processed",
		"request_id", requestcontext.RequestID(ctx),
		"proposal_id", id.String(),
		"status", outcome.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, outcome)
}

// HandleExpireProposal handles POST /proposals/{id}/expire.
func (h *Handler) HandleExpireProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.RejectOrExpire(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "expired"})
}

// HandleSetGovernanceFee handles POST /params/governance/fee.
func (h *Handler) HandleSetGovernanceFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetGovernanceFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetGovernanceFee(ctx, req.ParsedFee()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "governance fee updated",
		"request_id", requestID,
		"fee", req.Fee,
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
