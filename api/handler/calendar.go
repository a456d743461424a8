package handler

import (
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/api/transport"
	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/pkg/httpcontext"
	"github.com/fastygo/tisabrain/usecase/calendar"
)

type CalendarHandler struct {
	baseHandler
	store *calendar.Store
}

func NewCalendarHandler(store *calendar.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
	}
}

// @Summary List calendar events
// @Tags calendar
// @Router /api/v1/calendar [get]
func (h *CalendarHandler) List(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	filter := calendar.Filter{
		Pillar:  string(args.Peek("pillar")),
		Status:  domain.EventStatus(args.Peek("status")),
		Channel: string(args.Peek("channel")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		h.respondInvalid(ctx, "unknown status "+string(filter.Status))
		return
	}

	var err error
	if filter.From, err = queryDate(ctx, "from"); err != nil {
		h.respondError(ctx, err)
		return
	}
	if filter.To, err = queryDate(ctx, "to"); err != nil {
		h.respondError(ctx, err)
		return
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		h.respondInvalid(ctx, "to must not be before from")
		return
	}

	h.respondSuccess(ctx, http.StatusOK, h.store.List(filter))
}

// @Summary Events on one day
// @Tags calendar
// @Router /api/v1/calendar/day/{date} [get]
func (h *CalendarHandler) Day(ctx *fasthttp.RequestCtx) {
	raw, ok := h.pathParam(ctx, "date")
	if !ok {
		return
	}
	date, err := civil.ParseDate(raw)
	if err != nil {
		h.respondInvalid(ctx, "date must be YYYY-MM-DD")
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.store.EventsOn(date))
}

// @Summary Get a calendar event
// @Tags calendar
// @Router /api/v1/calendar/{id} [get]
func (h *CalendarHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	ev, found := h.store.Get(id)
	if !found {
		h.respondError(ctx, domain.ErrEventNotFound)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, ev)
}

// @Summary Create a calendar event
// @Tags calendar
// @Router /api/v1/calendar [post]
func (h *CalendarHandler) Create(ctx *fasthttp.RequestCtx) {
	draft, ok := h.parseEvent(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ev, err := h.store.Create(stdCtx, draft)
	h.respondResult(stdCtx, ctx, http.StatusCreated, ev, err)
}

// @Summary Replace a calendar event
// @Tags calendar
// @Router /api/v1/calendar/{id} [put]
func (h *CalendarHandler) Update(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}
	draft, ok := h.parseEvent(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ev, found, err := h.store.Update(stdCtx, id, draft)
	h.respondMutation(stdCtx, ctx, ev, found, err)
}

// @Summary Delete a calendar event
// @Tags calendar
// @Router /api/v1/calendar/{id} [delete]
func (h *CalendarHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathParam(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	deleted, err := h.store.Delete(stdCtx, id)
	h.respondMutation(stdCtx, ctx, nil, deleted, err)
}

func (h *CalendarHandler) parseEvent(ctx *fasthttp.RequestCtx) (domain.EventDraft, bool) {
	var req transport.EventRequest
	if !h.decode(ctx, &req) {
		return domain.EventDraft{}, false
	}
	date, err := civil.ParseDate(req.Date)
	if err != nil {
		h.respondInvalid(ctx, "date must be YYYY-MM-DD")
		return domain.EventDraft{}, false
	}
	// Validation happens in the store; ParseDriver only normalizes case.
	driver, _ := domain.ParseDriver(req.PsychologyDriver)
	return domain.EventDraft{
		Date:             date,
		Title:            req.Title,
		Pillar:           req.Pillar,
		Profile:          req.Profile,
		PsychologyDriver: driver,
		Channel:          req.Channel,
		Notes:            req.Notes,
		Status:           domain.EventStatus(req.Status),
	}, true
}

func queryDate(ctx *fasthttp.RequestCtx, name string) (*civil.Date, error) {
	raw := string(ctx.QueryArgs().Peek(name))
	if raw == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return nil, domain.Invalid("%s must be YYYY-MM-DD", name)
	}
	return &d, nil
}
