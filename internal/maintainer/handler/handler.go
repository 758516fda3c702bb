// Package handler exposes fee management and validator activation over HTTP.
package handler

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"

	"cosmossdk.io/math"
	"github.com/go-chi/chi/v5"

	"stakeport/internal/maintainer/service"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/platform/httputil"
	"stakeport/pkg/requestcontext"
)

// Service defines the maintainer operations the handler needs.
type Service interface {
	SwitchFee(ctx context.Context, id domain.ID, fee math.LegacyDec) error
	ActivatePendingFee(ctx context.Context, id domain.ID) (bool, error)
	EffectiveFee(ctx context.Context, id domain.ID) (math.LegacyDec, error)
	ActivateValidator(ctx context.Context, act service.ValidatorActivation) ([32]byte, error)
}

// Handler wires maintainer endpoints to the maintainer service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a maintainer handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterQueries mounts the read-only endpoints.
func (h *Handler) RegisterQueries(r chi.Router) {
	r.Get("/entities/{id}/fee", h.HandleEffectiveFee)
}

// RegisterMutations mounts the authenticated, state-changing endpoints.
func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/entities/{id}/fee", h.HandleSwitchFee)
	r.Post("/entities/{id}/fee/activate", h.HandleActivateFee)
	r.Post("/validators", h.HandleActivateValidator)
}

// HandleEffectiveFee handles GET /entities/{id}/fee.
func (h *Handler) HandleEffectiveFee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	fee, err := h.service.EffectiveFee(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"fee": fee.String()})
}

// HandleSwitchFee handles POST /entities/{id}/fee.
func (h *Handler) HandleSwitchFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SwitchFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SwitchFee(ctx, id, req.ParsedFee()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "fee switch queued",
		"request_id", requestID,
		"entity_id", id.String(),
		"fee", req.Fee,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "queued"})
}

// HandleActivateFee handles POST /entities/{id}/fee/activate.
func (h *Handler) HandleActivateFee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	activated, err := h.service.ActivatePendingFee(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := "noop"
	if activated {
		status = "activated"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}

// HandleActivateValidator handles POST /validators.
func (h *Handler) HandleActivateValidator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ActivateValidatorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	root, err := h.service.ActivateValidator(ctx, service.ValidatorActivation{
		OperatorID:            req.ParsedOperatorID(),
		PoolID:                req.ParsedPoolID(),
		Pubkey:                req.ParsedPubkey(),
		WithdrawalCredentials: req.ParsedWC(),
		Signature:             req.ParsedSignature(),
		AmountGwei:            req.AmountGwei,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "validator activation rejected",
			"request_id", requestID,
			"operator_id", req.OperatorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "validator activated",
		"request_id", requestID,
		"operator_id", req.OperatorID,
		"pool_id", req.PoolID,
	)
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"deposit_data_root": "0x" + hex.EncodeToString(root[:]),
	})
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
