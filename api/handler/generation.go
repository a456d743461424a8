package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/api/transport"
	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/pkg/httpcontext"
	"github.com/fastygo/tisabrain/usecase/generation"
)

type GenerationHandler struct {
	baseHandler
	uc *generation.UseCase
}

func NewGenerationHandler(uc *generation.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Generate content from an assembled prompt
// @Tags generation
// @Router /api/v1/generate [post]
func (h *GenerationHandler) Generate(ctx *fasthttp.RequestCtx) {
	var req transport.GenerateRequest
	if !h.decode(ctx, &req) {
		return
	}

	kind, ok := domain.ParseKind(req.Kind)
	if !ok {
		h.respondInvalid(ctx, "unknown kind "+req.Kind)
		return
	}
	driver, _ := domain.ParseDriver(req.PsychologyDriver)

	turns := make([]domain.Message, 0, len(req.History))
	for _, m := range req.History {
		turns = append(turns, domain.Message{Role: domain.Role(m.Role), Content: m.Content})
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.Generate(stdCtx, generation.Request{
		Kind:        kind,
		Prompt:      req.Prompt,
		Input:       req.Input,
		Pillar:      req.Pillar,
		Profile:     req.Profile,
		Psychology:  driver,
		Tags:        req.Tags,
		History:     turns,
		System:      req.System,
		SkipHistory: req.SkipHistory,
	})
	h.respondResult(stdCtx, ctx, http.StatusOK, res, err)
}
