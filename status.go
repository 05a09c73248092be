package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"vhours/internal/config"
	"vhours/internal/observability"
)

// StatusServer publishes the backend status page, the rules and metrics
// over HTTP. The report is refreshed by a background poller.
type StatusServer struct {
	health  *HealthChecker
	metrics *observability.Prom
	gather  prometheus.Gatherer
	log     *slog.Logger

	mu        sync.RWMutex
	page      StatusPage
	refreshed time.Time
}

func NewStatusServer(health *HealthChecker, metrics *observability.Prom, gather prometheus.Gatherer, log *slog.Logger) *StatusServer {
	return &StatusServer{health: health, metrics: metrics, gather: gather, log: log}
}

// Router builds the gin engine. Cross-origin GETs are allowed from
// cfg.StatusOrigins so the parish site can embed the status page.
func (s *StatusServer) Router(cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	if len(cfg.StatusOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.StatusOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Accept", "Cache-Control"},
			MaxAge:       12 * time.Hour,
		}))
	}
	r.Use(otelgin.Middleware("vhours-status"))
	if s.metrics != nil {
		r.Use(s.metrics.GinHandleMiddleware())
	}

	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)
	r.GET("/status", s.status)
	r.GET("/rules", s.rules)
	if s.gather != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{})))
	}
	return r
}

// Refresh fetches a new status page and keeps it for /status.
func (s *StatusServer) Refresh(ctx context.Context) {
	page := s.health.StatusPage(ctx)

	s.mu.Lock()
	s.page = page
	s.refreshed = time.Now()
	s.mu.Unlock()

	s.log.DebugContext(ctx, "status page refreshed", "status", page.Report.Status, "reachable", page.Reachable)
}

func (s *StatusServer) snapshot() (StatusPage, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page, s.refreshed
}

// Run serves on addr and polls the backend every interval until ctx is
// cancelled, then shuts down gracefully.
func (s *StatusServer) Run(ctx context.Context, cfg config.Config) error {
	srv := &http.Server{
		Addr:              cfg.StatusAddr,
		Handler:           s.Router(cfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	go s.health.Watch(pollCtx, cfg.StatusPageInterval, s.Refresh)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("status server starting", "addr", cfg.StatusAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("status server shutting down")
	stopPolling()

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("graceful shutdown failed", "err", err)
		return err
	}
	s.log.Info("shutdown complete")
	return nil
}

func (s *StatusServer) healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyz is ready once the first status page has been fetched.
func (s *StatusServer) readyz(ctx *gin.Context) {
	if _, at := s.snapshot(); at.IsZero() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *StatusServer) status(ctx *gin.Context) {
	page, at := s.snapshot()
	if at.IsZero() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "status not fetched yet"})
		return
	}

	ctx.Header("Cache-Control", "no-cache")
	ctx.JSON(http.StatusOK, gin.H{
		"refreshed_at": at.UTC().Format(time.RFC3339),
		"page":         page,
	})
}

func (s *StatusServer) rules(ctx *gin.Context) {
	html, err := RulesHTML()
	if err != nil {
		s.log.ErrorContext(ctx.Request.Context(), "render rules", "err", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render rules"})
		return
	}
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", html)
}
