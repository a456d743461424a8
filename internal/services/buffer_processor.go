package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/internal/infrastructure/buffer"
	"github.com/fastygo/tisabrain/internal/metrics"
)

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval  time.Duration
	BatchSize int
	// MaxRetries is the failure count after which a stuck snapshot is reported as an error.
	// Snapshots are never dropped.
	MaxRetries int
}

// BufferProcessor moves pending snapshots into the primary store while it is online.
type BufferProcessor struct {
	store   *DurableStore
	monitor ConnectionHealth
	metrics *metrics.Metrics
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewBufferProcessor(
	store *DurableStore,
	monitor ConnectionHealth,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	})

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain flushes one batch of pending snapshots synchronously.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.buffer.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := bp.store.flush(ctx, item); err != nil {
			bp.failed(item, err)
			continue
		}
		bp.metrics.BufferFlush("flushed")
		bp.logger.Info("pending snapshot flushed", zap.String("key", item.Key))
	}

	bp.metrics.SetBufferPending(bp.store.Pending())
	return nil
}

func (bp *BufferProcessor) failed(item buffer.Item, cause error) {
	bp.metrics.BufferFlush("failed")
	retries, err := bp.store.buffer.MarkFailed(item)
	if err != nil {
		bp.logger.Error("failed to record flush failure", zap.String("key", item.Key), zap.Error(err))
		return
	}
	fields := []zap.Field{
		zap.String("key", item.Key),
		zap.Int("retries", retries),
		zap.Error(cause),
	}
	if retries >= bp.cfg.MaxRetries {
		bp.logger.Error("pending snapshot keeps failing", fields...)
		return
	}
	bp.logger.Warn("pending snapshot flush failed", fields...)
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	return bp.store.Pending()
}
