package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/romuloroldao/precivox/internal/server"
	"github.com/romuloroldao/precivox/internal/store"
	"github.com/romuloroldao/precivox/internal/suggest"
)

var (
	serveAddr      string
	serveRemote    string
	serveNoHistory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the analysis engine over HTTP for a frontend.

  POST   /api/v1/analyze                              One-off analysis
  POST   /api/v1/sessions                             Analyze and open a session
  GET    /api/v1/sessions/:id                         Session state
  GET    /api/v1/sessions/:id/list                    List with applied suggestions
  POST   /api/v1/sessions/:id/toggle/:suggestionID    Apply or revert one suggestion
  POST   /api/v1/sessions/:id/apply-all               Apply every suggestion
  POST   /api/v1/sessions/:id/revert                  Revert everything
  DELETE /api/v1/sessions/:id/applied/:suggestionID   Un-apply one suggestion
  DELETE /api/v1/sessions/:id                         Close a session
  GET    /health, /metrics

Closed and expired sessions are recorded in the history database unless
--no-history is set. Variables from a .env file in the working directory
are loaded before the configuration.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveRemote, "remote", "", "Analysis service URL (overrides remote.url)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Do not record sessions in the history database")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !flagVerbose {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := suggest.NewEngine(cfg.Analysis)
	opts := server.Options{
		Version:        appVersion,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SessionTTL:     time.Duration(cfg.Server.SessionTTL) * time.Minute,
		Advisor:        newAdvisor(cfg, engine, serveRemote),
		Logger:         slog.Default(),
	}

	if !serveNoHistory {
		db, err := store.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() { _ = db.Close() }()
		opts.History = db
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, shutdownSignals...)
	defer stop()

	srv := server.New(engine, opts)
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
