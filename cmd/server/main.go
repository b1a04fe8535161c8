package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/memberdesk/internal/app"
	"github.com/JonMunkholm/memberdesk/internal/config"
	"github.com/JonMunkholm/memberdesk/internal/logging"
	"github.com/JonMunkholm/memberdesk/internal/web"
)

func main() {
	// Overload lets a local .env win over inherited variables.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"import_max_rows", cfg.Import.MaxRows,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, a.Service, a.Photos, a.Metrics)

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Running imports finish their batch before the stores close.
		limiter := a.Service.ImportLimiter()
		if st := limiter.Status(); st.Active > 0 {
			logger.Info("waiting for imports to complete", "active", st.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				logger.Warn("imports did not complete in time", "error", err)
			} else {
				logger.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		if err := a.Close(shutdownCtx); err != nil {
			logger.Error("close error", "error", err)
		}
	}()

	if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		a.Close(context.Background())
		os.Exit(1)
	}
	<-done
	logger.Info("server stopped")
}
