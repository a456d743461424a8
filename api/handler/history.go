package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/api/transport"
	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/pkg/httpcontext"
	"github.com/fastygo/tisabrain/usecase/history"
)

type HistoryHandler struct {
	baseHandler
	ledger *history.Ledger
}

func NewHistoryHandler(ledger *history.Ledger, adapter *httpcontext.Adapter, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		baseHandler: newBaseHandler(adapter, logger),
		ledger:      ledger,
	}
}

// List answers one page of matching records; meta.total counts every match.
// @Summary List history records
// @Tags history
// @Router /api/v1/history [get]
func (h *HistoryHandler) List(ctx *fasthttp.RequestCtx) {
	filter, err := parseHistoryFilter(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	records, total := h.ledger.Page(filter)
	h.respondWithMeta(ctx, http.StatusOK, records, transport.Meta{Total: &total})
}

// @Summary Add a record
// @Tags history
// @Router /api/v1/history [post]
func (h *HistoryHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.RecordRequest
	if !h.decode(ctx, &req) {
		return
	}
	draft, err := draftFromRequest(req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rec, err := h.ledger.Add(stdCtx, draft)
	h.respondResult(stdCtx, ctx, http.StatusCreated, rec, err)
}

// @Summary Get a record
// @Tags history
// @Router /api/v1/history/{id} [get]
func (h *HistoryHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	rec, found := h.ledger.Get(id)
	if !found {
		h.respondError(ctx, domain.ErrRecordNotFound)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, rec)
}

// @Summary Toggle the starred flag
// @Tags history
// @Router /api/v1/history/{id}/star [post]
func (h *HistoryHandler) ToggleStar(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, h.ledger.ToggleStar)
}

// @Summary Like a record
// @Tags history
// @Router /api/v1/history/{id}/like [post]
func (h *HistoryHandler) AddLike(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, h.ledger.AddLike)
}

// @Summary Remove a like
// @Tags history
// @Router /api/v1/history/{id}/like [delete]
func (h *HistoryHandler) RemoveLike(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, h.ledger.RemoveLike)
}

// @Summary Delete a record
// @Tags history
// @Router /api/v1/history/{id} [delete]
func (h *HistoryHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	deleted, err := h.ledger.Delete(stdCtx, id)
	h.respondMutation(stdCtx, ctx, nil, deleted, err)
}

type recordMutation func(ctx context.Context, id string) (domain.Record, bool, error)

func (h *HistoryHandler) mutate(ctx *fasthttp.RequestCtx, fn recordMutation) {
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rec, found, err := fn(stdCtx, id)
	h.respondMutation(stdCtx, ctx, rec, found, err)
}

func parseHistoryFilter(ctx *fasthttp.RequestCtx) (history.Filter, error) {
	args := ctx.QueryArgs()
	filter := history.Filter{
		Query:   string(args.Peek("q")),
		Pillar:  string(args.Peek("pillar")),
		Profile: string(args.Peek("profile")),
	}

	if raw := string(args.Peek("kind")); raw != "" {
		kind, ok := domain.ParseKind(raw)
		if !ok {
			return filter, domain.Invalid("unknown kind %q", raw)
		}
		filter.Kind = kind
	}
	if raw := string(args.Peek("psychology")); raw != "" {
		driver, ok := domain.ParseDriver(raw)
		if !ok {
			return filter, domain.Invalid("unknown psychology driver %q", raw)
		}
		filter.Psychology = driver
	}
	if raw := string(args.Peek("starred")); raw != "" {
		starred, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, domain.Invalid("starred must be a boolean")
		}
		filter.StarredOnly = starred
	}

	var err error
	if filter.Limit, err = queryInt(ctx, "limit", 0); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(ctx, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}

func draftFromRequest(req transport.RecordRequest) (domain.Draft, error) {
	kind, ok := domain.ParseKind(req.Kind)
	if !ok {
		return domain.Draft{}, domain.Invalid("unknown kind %q", req.Kind)
	}
	draft := domain.Draft{
		Kind:          kind,
		Content:       req.Content,
		SourcePillar:  req.SourcePillar,
		SourceProfile: req.SourceProfile,
		OriginalInput: req.OriginalInput,
		Tags:          req.Tags,
	}
	if req.PsychologyDriver != "" {
		driver, ok := domain.ParseDriver(req.PsychologyDriver)
		if !ok {
			return domain.Draft{}, domain.Invalid("unknown psychology driver %q", req.PsychologyDriver)
		}
		draft.PsychologyDriver = driver
	}
	return draft, draft.Validate()
}
