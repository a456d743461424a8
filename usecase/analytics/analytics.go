package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/internal/reference"
)

// Source provides a consistent copy of the ledger.
type Source interface {
	Snapshot() []domain.Record
}

type UseCase struct {
	source  Source
	catalog *reference.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

func New(source Source, catalog *reference.Catalog, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = reference.Default()
	}
	return &UseCase{
		source:  source,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// Report computes analytics over the current ledger contents.
func (uc *UseCase) Report(ctx context.Context) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	records := uc.source.Snapshot()
	report := ComputeStats(records, uc.catalog, uc.now())
	if len(report.Warnings) > 0 {
		uc.logger.Debug("analytics warnings", zap.Int("records", report.Total), zap.Int("warnings", len(report.Warnings)))
	}
	return report, nil
}
