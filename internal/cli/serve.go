package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/metrics"
	"github.com/ppiankov/realcheck/internal/pipeline"
	"github.com/ppiankov/realcheck/internal/server"
	"github.com/ppiankov/realcheck/internal/store"
)

var (
	serveHost string
	servePort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the analysis pipeline over HTTP:

  GET  /              banner and health
  GET  /health        liveness probe
  POST /analyze       {"url": "...", "manual_text": "...", "description": "..."}
  GET  /reports       recent saved reports (when a store is configured)
  GET  /reports/:id   one saved report
  GET  /metrics       Prometheus metrics

Example:
  realcheck serve
  realcheck serve --port 9000 --search serpapi`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default: server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: server.port)")
	addRunFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	metrics.Init()

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	reports, err := store.New(cfg)
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}
	if reports != nil {
		defer func() { _ = reports.Close() }()
	}

	srv := server.New(cfg.Server, p, reports)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	logger.Info("Server shutting down gracefully...")
	if err := srv.Shutdown(); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}
