package server

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/welltrack/internal/auth"
	"github.com/loykin/welltrack/internal/metrics"
	"github.com/loykin/welltrack/internal/tracker"
)

// Router exposes the tracker as JSON over HTTP.
// Endpoints (relative to basePath):
//
//	POST   /login                                 body: {"username": "..."}
//	GET    /healthz
//	GET    /wells                                 query: today=YYYY-MM-DD (optional)
//	GET    /wells/:well                           query: today
//	GET    /wells/:well/records
//	GET    /wells/:well/records/:process
//	PUT    /wells/:well/records/:process          body: {"start_date", "end_date"}
//	PUT    /wells/:well/anchor                    body: {"date"}
//	POST   /wells/:well/records/:process/delete   returns a pending confirmation
//	POST   /deletions/:token/confirm
//	DELETE /deletions/:token
//	GET    /wells/:well/workflow
//	PUT    /wells/:well/workflow                  body: {"workflow"}
//	GET    /dashboard                              query: today
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	svc         *tracker.Service
	auth        *auth.AuthService
	mw          *auth.Middleware
	basePath    string
	log         *slog.Logger
	metrics     http.Handler
	metricsPath string
}

type Options struct {
	Tracker  *tracker.Service
	Auth     *auth.AuthService
	BasePath string
	Logger   *slog.Logger
	// Metrics, when set, is served without authentication at MetricsPath
	// (default /metrics) outside the base path.
	Metrics     http.Handler
	MetricsPath string
}

func NewRouter(opts Options) *Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	mp := sanitizeBase(opts.MetricsPath)
	if mp == "" {
		mp = "/metrics"
	}
	return &Router{
		svc:         opts.Tracker,
		auth:        opts.Auth,
		mw:          auth.NewMiddleware(opts.Auth, metrics.IncAuthFailure),
		basePath:    sanitizeBase(opts.BasePath),
		log:         log,
		metrics:     opts.Metrics,
		metricsPath: mp,
	}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery(), requestLogger(r.log))
	if r.metrics != nil {
		g.GET(r.metricsPath, gin.WrapH(r.metrics))
	}
	r.Register(g.Group(r.basePath))
	return g
}

// Register adds every endpoint to group, for embedding into an existing gin engine.
func (r *Router) Register(group *gin.RouterGroup) {
	group.POST("/login", r.handleLogin)
	group.GET("/healthz", r.handleHealth)

	api := group.Group("", r.mw.GinAuth())

	readRecords := r.mw.GinRequirePermission(auth.ResourceRecord, auth.ActionRead)
	writeRecords := r.mw.GinRequirePermission(auth.ResourceRecord, auth.ActionWrite)
	deleteRecords := r.mw.GinRequirePermission(auth.ResourceRecord, auth.ActionDelete)
	readWorkflow := r.mw.GinRequirePermission(auth.ResourceWorkflow, auth.ActionRead)
	writeWorkflow := r.mw.GinRequirePermission(auth.ResourceWorkflow, auth.ActionWrite)

	api.GET("/wells", readRecords, r.handleListWells)
	api.GET("/wells/:well", readRecords, r.handleWellReport)
	api.GET("/wells/:well/records", readRecords, r.handleListRecords)
	api.GET("/wells/:well/records/:process", readRecords, r.handleGetRecord)
	api.PUT("/wells/:well/records/:process", writeRecords, r.handlePutRecord)
	api.PUT("/wells/:well/anchor", writeRecords, r.handlePutAnchor)
	api.POST("/wells/:well/records/:process/delete", deleteRecords, r.handleRequestDelete)
	api.POST("/deletions/:token/confirm", deleteRecords, r.handleConfirmDelete)
	api.DELETE("/deletions/:token", deleteRecords, r.handleCancelDelete)
	api.GET("/wells/:well/workflow", readWorkflow, r.handleGetWorkflow)
	api.PUT("/wells/:well/workflow", writeWorkflow, r.handlePutWorkflow)
	api.GET("/dashboard", readRecords, r.handleDashboard)
}

// NewServer wraps h in an http.Server with conservative timeouts. When
// tlsCfg is non-nil the caller should use ListenAndServeTLS("", "").
func NewServer(addr string, h http.Handler, tlsCfg *tls.Config) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
