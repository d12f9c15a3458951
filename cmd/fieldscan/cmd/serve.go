package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/fieldscan/internal/batch"
	"github.com/MeKo-Tech/fieldscan/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for detection and evaluation",
	Long: `Start an HTTP server exposing field detection and evaluation.

Endpoints:
  POST /detect    - Detect form fields in an uploaded page image
  POST /evaluate  - Score a prediction document against ground truth
  GET  /health    - Health check
  GET  /metrics   - Prometheus metrics
  WS   /ws/batch  - Dataset evaluation with streamed progress

Examples:
  fieldscan serve
  fieldscan serve --port 8080
  fieldscan serve --host 0.0.0.0 --port 3000`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}
		maxUploadMB := cfg.Server.MaxUploadMB
		if cmd.Flags().Changed("max-upload-size") {
			maxUploadMB, _ = cmd.Flags().GetInt("max-upload-size")
		}
		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serverConfig := server.Config{
			Host:            host,
			Port:            port,
			CORSOrigin:      corsOrigin,
			MaxUploadMB:     int64(maxUploadMB),
			TimeoutSec:      timeout,
			Scale:           cfg.Scale,
			DetectorOptions: cfg.Detector,
			IoUThreshold:    cfg.Evaluation.IoUThreshold,
			Batch: batch.Config{
				IoUThreshold:    cfg.Evaluation.IoUThreshold,
				Workers:         cfg.Batch.Workers,
				ContinueOnError: cfg.Batch.ContinueOnError,
				Recursive:       cfg.Batch.Recursive,
			},
		}

		srv, err := server.NewServer(serverConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		httpServer := srv.HTTPServer(fmt.Sprintf("%s:%d", host, port))

		go func() {
			slog.Info("starting fieldscan server", "host", host, "port", port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("context cancelled, initiating shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
			return err
		}
		slog.Info("graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
}
