package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/pkg/httpcontext"
	"github.com/fastygo/tisabrain/usecase/analytics"
)

type AnalyticsHandler struct {
	baseHandler
	uc *analytics.UseCase
}

func NewAnalyticsHandler(uc *analytics.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Ledger analytics and balance warnings
// @Tags analytics
// @Router /api/v1/analytics [get]
func (h *AnalyticsHandler) Report(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	report, err := h.uc.Report(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}
