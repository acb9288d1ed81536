// Package server exposes the analysis engine and per-session applied state
// over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/remote"
	"github.com/romuloroldao/precivox/internal/store"
	"github.com/romuloroldao/precivox/internal/suggest"
	"github.com/romuloroldao/precivox/internal/tracker"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 5 * time.Second
	defaultListName = "session"
)

// Options configures a Server. Advisor and History are optional.
type Options struct {
	Version        string
	AllowedOrigins []string
	SessionTTL     time.Duration
	Advisor        *remote.Advisor
	History        *store.DB
	Logger         *slog.Logger
}

// Server is the precivox HTTP API.
type Server struct {
	engine   *suggest.Engine
	opts     Options
	sessions *Registry
	metrics  *Metrics
	router   *gin.Engine
	log      *slog.Logger
}

// New builds the router. The engine's configuration is the default for every
// request that does not override it.
func New(engine *suggest.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}

	s := &Server{
		engine:   engine,
		opts:     opts,
		sessions: NewRegistry(),
		metrics:  NewMetrics(),
		log:      opts.Logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session registry.
func (s *Server) Sessions() *Registry {
	return s.sessions
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(s.opts.AllowedOrigins))
	r.Use(requestLogger(s.log))
	r.Use(s.metrics.Middleware())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)

		v1.POST("/sessions", s.handleCreateSession)
		v1.GET("/sessions/:id", s.handleGetSession)
		v1.DELETE("/sessions/:id", s.handleCloseSession)
		v1.GET("/sessions/:id/list", s.handleSessionList)
		v1.POST("/sessions/:id/toggle/:suggestionID", s.handleToggle)
		v1.POST("/sessions/:id/apply-all", s.handleApplyAll)
		v1.POST("/sessions/:id/revert", s.handleRevert)
		v1.DELETE("/sessions/:id/applied/:suggestionID", s.handleRemoveApplied)
	}
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}

// analyze runs the advisor when one is configured, or the local engine.
// A config override always runs locally.
func (s *Server) analyze(ctx context.Context, items []list.Item, override *suggest.Config) suggest.Result {
	var res suggest.Result
	switch {
	case override != nil:
		res = suggest.NewEngine(*override).Analyze(items)
	case s.opts.Advisor != nil:
		res = s.opts.Advisor.Analyze(ctx, items)
	default:
		res = s.engine.Analyze(items)
	}
	s.metrics.observeAnalysis(res)
	return res
}

// Run serves on addr until ctx is cancelled, expiring idle sessions in the
// background. Open sessions are closed on shutdown.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				err := srv.Shutdown(shutdownCtx)
				s.closeAll()
				return err
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	})

	return g.Wait()
}

// Sweep closes sessions idle for longer than the session TTL.
func (s *Server) Sweep(now time.Time) int {
	expired := s.sessions.Expire(now, s.opts.SessionTTL)
	for _, sess := range expired {
		s.closeSession(sess, "expired")
	}
	s.metrics.sessions.Set(float64(s.sessions.Len()))
	return len(expired)
}

func (s *Server) closeAll() {
	s.Sweep(time.Now().Add(s.opts.SessionTTL + time.Second))
}

// closeSession records the session to the history store, when one is
// configured, and returns the run id (0 when nothing was recorded).
func (s *Server) closeSession(sess *Session, reason string) int64 {
	if s.opts.History == nil {
		s.log.Debug("session closed", "session", sess.ID, "reason", reason)
		return 0
	}

	var (
		res     = sess.Result
		applied []string
		savings = map[string]float64{}
	)
	sess.With(func(t *tracker.Tracker) {
		res.Suggestions = t.Suggestions()
		applied = t.AppliedIDs()
		for _, id := range applied {
			if sg, ok := t.Lookup(id); ok {
				savings[id] = sg.Savings
			}
		}
	})

	runID, err := s.opts.History.RecordRun(sess.ListName, "serve", s.opts.Version, res)
	if err != nil {
		s.log.Error("recording session", "session", sess.ID, "error", err)
		return 0
	}
	for _, id := range applied {
		if err := s.opts.History.RecordEvent(runID, id, store.ActionApply, savings[id]); err != nil {
			s.log.Error("recording applied event", "session", sess.ID, "suggestion", id, "error", err)
		}
	}
	s.log.Info("session closed", "session", sess.ID, "reason", reason, "run", runID, "applied", len(applied))
	return runID
}
