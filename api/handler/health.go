package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/api/transport"
	"github.com/fastygo/tisabrain/internal/infrastructure/monitor"
	"github.com/fastygo/tisabrain/pkg/httpcontext"
)

// StatusSource reports the persistence layer state.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
	remote  bool
}

// NewHealthHandler builds the health endpoint. With a remote primary store the service
// stays healthy while the pending buffer is usable.
func NewHealthHandler(mon StatusSource, remote bool, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		remote:      remote,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"services": map[string]interface{}{
			"store": map[string]interface{}{
				"driver": status.Driver,
				"online": status.Primary,
			},
			"buffer": map[string]interface{}{
				"online": status.Buffer,
				"size":   status.BufferSize,
			},
		},
	}

	healthy := status.Primary
	if h.remote {
		healthy = status.Primary || status.Buffer
	}
	if healthy {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
