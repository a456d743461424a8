package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tisabrain/api/handler"
	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/internal/config"
	"github.com/fastygo/tisabrain/internal/infrastructure/buffer"
	"github.com/fastygo/tisabrain/internal/infrastructure/llm"
	"github.com/fastygo/tisabrain/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/tisabrain/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/tisabrain/internal/infrastructure/redis"
	"github.com/fastygo/tisabrain/internal/metrics"
	"github.com/fastygo/tisabrain/internal/middleware"
	"github.com/fastygo/tisabrain/internal/reference"
	"github.com/fastygo/tisabrain/internal/router"
	"github.com/fastygo/tisabrain/internal/services"
	"github.com/fastygo/tisabrain/internal/services/lifecycle"
	"github.com/fastygo/tisabrain/pkg/httpcontext"
	"github.com/fastygo/tisabrain/pkg/logger"
	"github.com/fastygo/tisabrain/repository"
	boltRepo "github.com/fastygo/tisabrain/repository/bolt"
	"github.com/fastygo/tisabrain/repository/postgres"
	redisRepo "github.com/fastygo/tisabrain/repository/redis"
	"github.com/fastygo/tisabrain/usecase"
	"github.com/fastygo/tisabrain/usecase/analytics"
	"github.com/fastygo/tisabrain/usecase/calendar"
	"github.com/fastygo/tisabrain/usecase/generation"
	"github.com/fastygo/tisabrain/usecase/history"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	catalog, err := reference.Load(cfg.Reference.Path)
	if err != nil {
		zapLogger.Fatal("reference catalog invalid", zap.Error(err))
	}

	var appMetrics *metrics.Metrics
	if cfg.HTTP.EnableMetrics {
		appMetrics = metrics.New()
	}

	store, mon, err := openStore(appCtx, cfg, appMetrics, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("document store unavailable", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}

	ledger := history.New(store, zapLogger.Named("history"),
		history.WithKey(cfg.Storage.HistoryKey),
		history.WithMetrics(appMetrics),
	)
	if err := ledger.Load(appCtx); err != nil {
		zapLogger.Warn("history starts empty", zap.Error(err))
	}

	events := calendar.New(store, catalog, zapLogger.Named("calendar"),
		calendar.WithKey(cfg.Storage.CalendarKey),
		calendar.WithMetrics(appMetrics),
	)
	if err := events.Load(appCtx); err != nil {
		zapLogger.Warn("calendar starts empty", zap.Error(err))
	}

	generator, err := newGenerator(cfg.LLM, zapLogger.Named("llm"))
	if err != nil {
		zapLogger.Fatal("content generator misconfigured", zap.Error(err))
	}
	generationUseCase := generation.New(generator, ledger, appMetrics, zapLogger.Named("generation"))
	if !generationUseCase.Enabled() {
		zapLogger.Warn("ANTHROPIC_API_KEY is empty, generation disabled")
	}
	analyticsUseCase := analytics.New(ledger, catalog, zapLogger.Named("analytics"))

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Health:     apiHandler.NewHealthHandler(mon, cfg.Remote(), ctxAdapter, zapLogger),
		Reference:  apiHandler.NewReferenceHandler(catalog, ctxAdapter, zapLogger),
		History:    apiHandler.NewHistoryHandler(ledger, ctxAdapter, zapLogger),
		Calendar:   apiHandler.NewCalendarHandler(events, ctxAdapter, zapLogger),
		Analytics:  apiHandler.NewAnalyticsHandler(analyticsUseCase, ctxAdapter, zapLogger),
		Generation: apiHandler.NewGenerationHandler(generationUseCase, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware, router.Options{
		Metrics: appMetrics.Registry(),
		Pprof:   cfg.HTTP.EnablePprof,
	})

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("driver", cfg.Storage.Driver),
			zap.Int("history", ledger.Len()),
			zap.Int("calendar", events.Len()),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openStore builds the document store for the configured driver. Remote drivers are
// wrapped so writes fall back to the local buffer while the primary is unreachable.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	m *metrics.Metrics,
	manager *lifecycle.Manager,
	zapLogger *zap.Logger,
) (repository.DocumentStore, *monitor.Monitor, error) {
	db, err := buffer.OpenDB(cfg.Buffer.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.Buffer.Path, err)
	}
	manager.RegisterCloser("bolt", db)

	var primary repository.DocumentStore
	switch cfg.Storage.Driver {
	case config.DriverBolt:
		local, err := boltRepo.NewDocumentRepository(db, "")
		if err != nil {
			return nil, nil, err
		}
		mon := monitor.New(local, cfg.Storage.Driver, nil, m, cfg.Buffer.CheckInterval, zapLogger.Named("monitor"))
		mon.Start()
		manager.Register("monitor", func(context.Context) error {
			mon.Stop()
			return nil
		})
		return local, mon, nil

	case config.DriverRedis:
		client, err := redisInfra.Open(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			// Start buffered; the monitor picks the primary up once it answers.
			zapLogger.Warn("redis unreachable at startup", zap.Error(err))
		}
		manager.RegisterCloser("redis", client)
		primary = redisRepo.NewDocumentRepository(client, cfg.Redis.KeyPrefix)

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, nil, err
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		primary = postgres.NewDocumentRepository(pool)

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	pending, err := buffer.New(db, "pending")
	if err != nil {
		return nil, nil, err
	}

	mon := monitor.New(primary, cfg.Storage.Driver, pending, m, cfg.Buffer.CheckInterval, zapLogger.Named("monitor"))
	mon.Start()
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	durable := services.NewDurableStore(primary, pending, mon, zapLogger.Named("store"))
	processor := services.NewBufferProcessor(durable, mon, m, zapLogger.Named("buffer"), services.ProcessorConfig{
		Interval:   cfg.Buffer.SyncInterval,
		BatchSize:  cfg.Buffer.BatchSize,
		MaxRetries: cfg.Buffer.MaxRetry,
	})
	processor.Start()
	// Runs before the monitor and bolt hooks, so the last drain still has both.
	manager.Register("buffer_processor", func(ctx context.Context) error {
		processor.Stop(ctx)
		return processor.Drain(ctx)
	})

	return durable, mon, nil
}

// newGenerator returns a nil interface, not a typed nil, when generation is disabled.
func newGenerator(cfg config.LLMConfig, zapLogger *zap.Logger) (usecase.ContentGenerator, error) {
	client, err := llm.New(llm.Config{
		APIKey:           cfg.APIKey,
		Model:            cfg.Model,
		MaxTokens:        int64(cfg.MaxTokens),
		BaseURL:          cfg.BaseURL,
		SystemPromptPath: cfg.SystemPromptPath,
		MaxRetries:       cfg.MaxRetries,
		Timeout:          cfg.Timeout,
	}, zapLogger)
	if errors.Is(err, domain.ErrGeneratorDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
