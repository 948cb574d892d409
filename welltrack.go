// Package welltrack embeds the well workover tracker: load a configuration,
// build an App and mount its handler.
package welltrack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/welltrack/internal/auth"
	cfg "github.com/loykin/welltrack/internal/config"
	"github.com/loykin/welltrack/internal/confirm"
	"github.com/loykin/welltrack/internal/history"
	hfactory "github.com/loykin/welltrack/internal/history/factory"
	"github.com/loykin/welltrack/internal/kpi"
	"github.com/loykin/welltrack/internal/metrics"
	iapi "github.com/loykin/welltrack/internal/server"
	sfactory "github.com/loykin/welltrack/internal/store/factory"
	itls "github.com/loykin/welltrack/internal/tls"
	"github.com/loykin/welltrack/internal/tracker"
)

// Re-export core types for external consumers.

type Config = cfg.Config

type WellReport = kpi.WellReport

type Dashboard = kpi.Dashboard

type HistorySink = history.Sink

func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

func DefaultConfig() Config { return cfg.Default() }

// App is a fully wired tracker: store, pending deletions, audit sink,
// auth, metrics and the HTTP router.
type App struct {
	conf     Config
	log      *slog.Logger
	svc      *tracker.Service
	auth     *auth.AuthService
	router   *iapi.Router
	handler  http.Handler
	registry *prometheus.Registry
}

// New opens every backend named by c. The caller owns the App and must
// Close it.
func New(c Config, logger *slog.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	as, err := auth.NewAuthService(c.Auth)
	if err != nil {
		return nil, err
	}
	if c.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret not set, sessions end when the daemon restarts")
	}

	st, err := sfactory.NewFromDSN(c.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := st.EnsureSchema(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ensure store schema: %w", err)
	}

	var sink history.Sink = history.Discard{}
	if c.History.DSN != "" {
		if sink, err = hfactory.NewSinkFromDSN(c.History.DSN); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("open history sink: %w", err)
		}
	}

	pending, err := newPendingStore(ctx, c.Confirm)
	if err != nil {
		_ = st.Close()
		closeSink(sink)
		return nil, err
	}

	svc, err := tracker.New(tracker.Options{
		Store:           st,
		Wells:           c.Tracker.Wells,
		Workflows:       c.Workflows(),
		DefaultWorkflow: c.Tracker.DefaultWorkflow,
		Policy:          c.Policy(),
		Confirm:         confirm.NewManager(pending, c.Confirm.TTL),
		History:         sink,
		Logger:          logger,
	})
	if err != nil {
		_ = pending.Close()
		_ = st.Close()
		closeSink(sink)
		return nil, err
	}

	app := &App{conf: c, log: logger, svc: svc, auth: as}
	opts := iapi.Options{Tracker: svc, Auth: as, BasePath: c.Server.BasePath, Logger: logger}
	if c.Metrics.Enabled {
		app.registry = prometheus.NewRegistry()
		if err := metrics.Register(app.registry); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		if err := metrics.RegisterWellCollector(app.registry, svc, logger); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("register well collector: %w", err)
		}
		if c.Metrics.Listen == "" {
			opts.Metrics = app.MetricsHandler()
			opts.MetricsPath = c.Metrics.Path
		}
	}
	app.router = iapi.NewRouter(opts)
	app.handler = app.router.Handler()
	return app, nil
}

func closeSink(s history.Sink) {
	if c, ok := s.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

func newPendingStore(ctx context.Context, c cfg.ConfirmConfig) (confirm.Store, error) {
	if c.RedisAddr == "" {
		return confirm.NewMemoryStore(), nil
	}
	rs := confirm.NewRedisStore(c.RedisAddr, c.RedisPassword, c.RedisDB)
	if err := rs.Ping(ctx); err != nil {
		_ = rs.Close()
		return nil, fmt.Errorf("connect redis %s: %w", c.RedisAddr, err)
	}
	return rs, nil
}

// Handler serves the JSON API under the configured base path.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Tracker() *tracker.Service { return a.svc }

// MetricsHandler exposes the App's registry, or nil with metrics disabled.
func (a *App) MetricsHandler() http.Handler {
	if a.registry == nil {
		return nil
	}
	return metrics.HandlerFor(a.registry)
}

// Server builds the API server for the configured listener, with TLS when
// a certificate is configured.
func (a *App) Server() (*http.Server, error) {
	tlsCfg, err := itls.Setup(a.conf.Server.TLSCertFile, a.conf.Server.TLSKeyFile, a.conf.Server.TLSMinVersion)
	if err != nil {
		return nil, err
	}
	return iapi.NewServer(a.conf.Server.Listen, a.handler, tlsCfg), nil
}

// MetricsServer builds the dedicated metrics listener, or nil when metrics
// are disabled or share the API listener.
func (a *App) MetricsServer() *http.Server {
	if a.registry == nil || a.conf.Metrics.Listen == "" {
		return nil
	}
	mux := http.NewServeMux()
	path := a.conf.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, a.MetricsHandler())
	return iapi.NewServer(a.conf.Metrics.Listen, mux, nil)
}

// RegisterGin adds the API routes to an existing gin group. The group's
// own prefix replaces the configured base path.
func (a *App) RegisterGin(group *gin.RouterGroup) { a.router.Register(group) }

// MountEcho serves the API inside an existing echo instance.
func (a *App) MountEcho(e *echo.Echo) { iapi.MountEcho(e, a.conf.Server.BasePath, a.handler) }

func (a *App) Close() error {
	if a.svc == nil {
		return errors.New("welltrack: app not initialised")
	}
	return a.svc.Close()
}
