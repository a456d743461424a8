package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/fastygo/tisabrain/api/handler"
)

type Handlers struct {
	Health     *apiHandler.HealthHandler
	Reference  *apiHandler.ReferenceHandler
	History    *apiHandler.HistoryHandler
	Calendar   *apiHandler.CalendarHandler
	Analytics  *apiHandler.AnalyticsHandler
	Generation *apiHandler.GenerationHandler
}

// Options toggles the operational endpoints.
type Options struct {
	// Metrics is served on /metrics when non-nil.
	Metrics *prometheus.Registry
	Pprof   bool
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	r := router.New()
	if authMiddleware == nil {
		authMiddleware = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	r.GET("/health", handlers.Health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{})))
	}
	if opts.Pprof {
		r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	api := r.Group("/api/v1")

	api.GET("/reference", authMiddleware(handlers.Reference.Get))

	api.GET("/history", authMiddleware(handlers.History.List))
	api.POST("/history", authMiddleware(handlers.History.Create))
	api.GET("/history/{id}", authMiddleware(handlers.History.Get))
	api.DELETE("/history/{id}", authMiddleware(handlers.History.Delete))
	api.POST("/history/{id}/star", authMiddleware(handlers.History.ToggleStar))
	api.POST("/history/{id}/like", authMiddleware(handlers.History.AddLike))
	api.DELETE("/history/{id}/like", authMiddleware(handlers.History.RemoveLike))

	api.GET("/calendar", authMiddleware(handlers.Calendar.List))
	api.POST("/calendar", authMiddleware(handlers.Calendar.Create))
	api.GET("/calendar/day/{date}", authMiddleware(handlers.Calendar.Day))
	api.GET("/calendar/{id}", authMiddleware(handlers.Calendar.Get))
	api.PUT("/calendar/{id}", authMiddleware(handlers.Calendar.Update))
	api.DELETE("/calendar/{id}", authMiddleware(handlers.Calendar.Delete))

	api.GET("/analytics", authMiddleware(handlers.Analytics.Report))

	api.POST("/generate", authMiddleware(handlers.Generation.Generate))

	return r
}
