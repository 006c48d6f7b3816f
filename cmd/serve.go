package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docverify/internal/config"
	"docverify/internal/logger"
	"docverify/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document verification HTTP service",
	Long: `Start the HTTP server exposing the verification pipeline.

Endpoints:
  POST /extract-text  - verify an uploaded file (multipart field "image")
                        or a JSON body {"url": "...", "category": "..."}
  GET  /health        - liveness check

Required environment variables for the cloud-backed stages:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Serve on the configured port (default 8080)
  docverify serve

  # Serve on a different port
  PORT=9090 docverify serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()
	pipe, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Port, server.NewHandler(pipe))

	// Serve until interrupted, then drain.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
			return err
		}
		return nil
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received interrupt signal, shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
			return err
		}
		return nil
	}
}
