// Package handler exposes the oracle price engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"cosmossdk.io/math"
	"github.com/go-chi/chi/v5"

	oracleModels "stakeport/internal/oracle/models"
	"stakeport/internal/oracle/service"
	"stakeport/pkg/domain"
	dErrors "stakeport/pkg/domain-errors"
	"stakeport/pkg/platform/httputil"
	"stakeport/pkg/requestcontext"
)

// Service defines the oracle operations the handler needs.
type Service interface {
	Params(ctx context.Context) (*oracleModels.OracleParams, error)
	SetParams(ctx context.Context, params *oracleModels.OracleParams) error
	PoolPrice(ctx context.Context, poolID domain.ID) (math.LegacyDec, error)
	ReportPrice(ctx context.Context, report service.Report) (*oracleModels.PricePoint, error)
}

// Handler wires oracle endpoints to the oracle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an oracle handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterQueries mounts the read-only endpoints.
func (h *Handler) RegisterQueries(r chi.Router) {
	r.Get("/pools/{id}/price", h.HandlePoolPrice)
	r.Get("/params/oracle", h.HandleGetParams)
}

// RegisterMutations mounts the authenticated, state-changing endpoints.
func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/oracle/report", h.HandleReportPrice)
	r.Post("/params/oracle", h.HandleSetParams)
}

// HandlePoolPrice handles GET /pools/{id}/price.
func (h *Handler) HandlePoolPrice(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid id"))
		return
	}
	price, err := h.service.PoolPrice(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"price": price.String()})
}

// HandleGetParams handles GET /params/oracle.
func (h *Handler) HandleGetParams(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.Params(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, params)
}

// HandleReportPrice handles POST /oracle/report.
func (h *Handler) HandleReportPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ReportPriceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	point, err := h.service.ReportPrice(ctx, service.Report{
		PoolID:     req.ParsedPoolID(),
		OperatorID: req.ParsedOperatorID(),
		Price:      req.ParsedPrice(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "price report rejected",
			"request_id", requestID,
			"pool_id", req.PoolID,
			"price", req.Price,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "price report accepted",
		"request_id", requestID,
		"pool_id", req.PoolID,
		"price", req.Price,
	)
	httputil.WriteJSON(w, http.StatusOK, point)
}

// HandleSetParams handles POST /params/oracle.
func (h *Handler) HandleSetParams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetParamsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetParams(ctx, req.ParsedParams()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "oracle params updated", "request_id", requestID)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
