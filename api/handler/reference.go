package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/internal/reference"
	"github.com/fastygo/tisabrain/pkg/httpcontext"
)

type ReferenceHandler struct {
	baseHandler
	catalog *reference.Catalog
}

func NewReferenceHandler(catalog *reference.Catalog, adapter *httpcontext.Adapter, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		catalog:     catalog,
	}
}

// @Summary Static taxonomies
// @Tags reference
// @Router /api/v1/reference [get]
func (h *ReferenceHandler) Get(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"pillars":  h.catalog.Pillars(),
		"profiles": h.catalog.Profiles(),
		"channels": h.catalog.Channels(),
		"drivers":  h.catalog.Drivers(),
		"kinds":    domain.Kinds(),
		"statuses": []domain.EventStatus{domain.StatusPlanned, domain.StatusDrafted, domain.StatusPublished},
	})
}
