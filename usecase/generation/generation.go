// Package generation forwards finished prompts to the content generator and records the
// returned text in the history ledger.
package generation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/internal/metrics"
	"github.com/fastygo/tisabrain/usecase"
)

// Request is an already assembled prompt plus the tags the result is recorded with.
type Request struct {
	Kind        domain.Kind      `json:"kind"`
	Prompt      string           `json:"prompt"`
	Input       string           `json:"input,omitempty"`
	Pillar      string           `json:"pillar,omitempty"`
	Profile     string           `json:"profile,omitempty"`
	Psychology  domain.Driver    `json:"psychology_driver,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	History     []domain.Message `json:"history,omitempty"`
	System      string           `json:"system,omitempty"`
	SkipHistory bool             `json:"skip_history,omitempty"`
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return domain.Invalid("prompt is required")
	}
	if !r.Kind.Valid() {
		return domain.Invalid("unknown kind %q", r.Kind)
	}
	if r.Psychology != "" && !r.Psychology.Valid() {
		return domain.Invalid("unknown psychology driver %q", r.Psychology)
	}
	for i, m := range r.History {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return domain.Invalid("history[%d]: unknown role %q", i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return domain.Invalid("history[%d]: content is required", i)
		}
	}
	return nil
}

// Result carries the generated text and, unless skipped, the ledger record.
type Result struct {
	Content string         `json:"content"`
	Record  *domain.Record `json:"record,omitempty"`
}

type UseCase struct {
	generator usecase.ContentGenerator
	recorder  usecase.HistoryRecorder
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// New wires the use case. A nil generator disables generation.
func New(generator usecase.ContentGenerator, recorder usecase.HistoryRecorder, m *metrics.Metrics, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		generator: generator,
		recorder:  recorder,
		metrics:   m,
		logger:    logger,
	}
}

// Enabled reports whether a generator is configured.
func (uc *UseCase) Enabled() bool {
	return uc.generator != nil
}

// Generate runs req through the generator. When the text was produced but could not be
// persisted, the result is returned together with a persistence warning.
func (uc *UseCase) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		uc.metrics.Generation("invalid")
		return Result{}, err
	}
	if uc.generator == nil {
		uc.metrics.Generation("disabled")
		return Result{}, domain.ErrGeneratorDisabled
	}

	text, err := uc.generator.Generate(ctx, domain.Prompt{
		System:  req.System,
		History: req.History,
		Text:    req.Prompt,
	})
	if err != nil {
		uc.metrics.Generation("error")
		uc.logger.Error("content generation failed", zap.String("kind", string(req.Kind)), zap.Error(err))
		if domain.IsDomainError(err, domain.ErrCodeUpstream) {
			return Result{}, err
		}
		return Result{}, domain.WrapError(domain.ErrCodeUpstream, "content generation failed", err)
	}
	if strings.TrimSpace(text) == "" {
		uc.metrics.Generation("empty")
		return Result{}, domain.ErrEmptyGeneration
	}
	uc.metrics.Generation("ok")

	res := Result{Content: text}
	if req.SkipHistory || uc.recorder == nil {
		return res, nil
	}

	input := req.Input
	if input == "" {
		input = req.Prompt
	}
	rec, err := uc.recorder.Add(ctx, domain.Draft{
		Kind:             req.Kind,
		Content:          text,
		SourcePillar:     req.Pillar,
		SourceProfile:    req.Profile,
		PsychologyDriver: req.Psychology,
		OriginalInput:    input,
		Tags:             req.Tags,
	})
	res.Record = &rec
	return res, err
}
