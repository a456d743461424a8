package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/api/transport"
	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/pkg/httpcontext"
	appLogger "github.com/fastygo/tisabrain/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

// respondResult answers with data unless err is a real failure. A persistence warning
// is reported in meta alongside the data.
func (h baseHandler) respondResult(reqCtx context.Context, ctx *fasthttp.RequestCtx, status int, data interface{}, err error) {
	var meta transport.Meta
	if err != nil {
		if !domain.IsWarning(err) {
			h.respondError(ctx, err)
			return
		}
		appLogger.WithRequestID(reqCtx, h.logger).Warn("responding with persistence warning", zap.Error(err))
		meta.Warning = err.Error()
	}
	h.respondWithMeta(ctx, status, data, meta)
}

// respondMutation answers a mutation on an existing-or-not item.
func (h baseHandler) respondMutation(reqCtx context.Context, ctx *fasthttp.RequestCtx, data interface{}, found bool, err error) {
	if err != nil && !domain.IsWarning(err) {
		h.respondError(ctx, err)
		return
	}
	meta := transport.Meta{Matched: &found}
	if err != nil {
		appLogger.WithRequestID(reqCtx, h.logger).Warn("responding with persistence warning", zap.Error(err))
		meta.Warning = err.Error()
	}
	if !found {
		data = nil
	}
	h.respondWithMeta(ctx, http.StatusOK, data, meta)
}

func (h baseHandler) respondWithMeta(ctx *fasthttp.RequestCtx, status int, data interface{}, meta transport.Meta) {
	if meta.Empty() {
		h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
		return
	}
	h.respondJSON(ctx, status, transport.NewSuccess(data, meta))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.ByteString("path", ctx.Path()), zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondInvalid(ctx, domain.ErrInvalidPayload.Error())
		return false
	}
	return true
}

func (h baseHandler) pathParam(ctx *fasthttp.RequestCtx, name string) (string, bool) {
	value, _ := ctx.UserValue(name).(string)
	if value == "" {
		h.respondInvalid(ctx, "missing "+name)
		return "", false
	}
	return value, true
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.IsDomainError(err, domain.ErrCodeUnavailable):
		return http.StatusServiceUnavailable, string(domain.ErrCodeUnavailable)
	case domain.IsDomainError(err, domain.ErrCodeUpstream):
		return http.StatusBadGateway, string(domain.ErrCodeUpstream)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

// queryInt parses a non-negative integer query argument.
func queryInt(ctx *fasthttp.RequestCtx, name string, fallback int) (int, error) {
	raw := string(ctx.QueryArgs().Peek(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, domain.Invalid("%s must be a non-negative integer", name)
	}
	return v, nil
}
