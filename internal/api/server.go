// Package api serves the HTTP control surface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"YieldSentinel/internal/decision"
	"YieldSentinel/internal/metrics"
	"YieldSentinel/internal/scheduler"
	"YieldSentinel/internal/settings"
	"YieldSentinel/internal/store"
	"YieldSentinel/internal/strategy"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SchedulerControl is the part of the scheduler the API drives.
type SchedulerControl interface {
	Start(ctx context.Context) bool
	Stop() bool
	Nudge() bool
	Status() scheduler.Status
}

// Deps are the components behind the handlers.
type Deps struct {
	Store      store.Store
	Settings   *settings.Service
	Strategies *strategy.Registry
	Decisions  *decision.Engine
	Scheduler  SchedulerControl
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Log        *zap.Logger
}

// Server owns the gin engine.
type Server struct {
	deps Deps
	// base outlives requests; the scheduler loop started over HTTP runs on it.
	base context.Context
	log  *zap.Logger
	now  func() time.Time
}

// NewServer creates a Server. base bounds the lifetime of anything started
// by a request, such as the scheduler loop.
func NewServer(base context.Context, deps Deps) *Server {
	return &Server{deps: deps, base: base, log: deps.Log.Named("api"), now: time.Now}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware())
	}

	r.GET("/healthz", s.health)
	if s.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/totals", s.totals)
		v1.GET("/earnings", s.earnings)
		v1.GET("/balances", s.balances)

		v1.GET("/decisions", s.listDecisions)
		v1.GET("/decisions/:id", s.getDecision)
		v1.POST("/decisions/:id/approve", s.approve)
		v1.POST("/decisions/:id/reject", s.reject)

		v1.GET("/settings", s.getSettings)
		v1.PUT("/settings/wallet", s.putWallet)
		v1.PUT("/settings/auto-approve", s.putAutoApprove)
		v1.PUT("/settings/proposal-threshold", s.putProposalThreshold)

		v1.GET("/strategies", s.listStrategies)
		v1.PUT("/strategies/:key", s.putStrategy)

		v1.GET("/scheduler", s.schedulerStatus)
		v1.POST("/scheduler/start", s.schedulerStart)
		v1.POST("/scheduler/stop", s.schedulerStop)
		v1.POST("/scheduler/scan", s.schedulerScan)
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("http server stopped")
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
