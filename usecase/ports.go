package usecase

import (
	"context"

	"github.com/fastygo/tisabrain/domain"
)

// ContentGenerator turns a prompt into generated text.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt domain.Prompt) (string, error)
}

// HistoryRecorder stores finished content in the history ledger.
type HistoryRecorder interface {
	Add(ctx context.Context, draft domain.Draft) (domain.Record, error)
}
