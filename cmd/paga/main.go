package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paga/internal/amqp"
	"paga/internal/auth"
	"paga/internal/backend"
	"paga/internal/cli"
	apphttp "paga/internal/http"
	"paga/internal/log"
	"paga/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap()

	result, err := backend.NewFactory(logger).Open(cfg)
	if err != nil {
		logger.Error("Failed to open data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	// The broker is optional: without it verification codes are only
	// logged and spreadsheet exports are skipped.
	var broker *amqp.Client
	if cfg.AMQPURL != "" {
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("Failed to connect to AMQP, continuing without broker", log.FieldError, err)
		} else {
			defer broker.Close()
			logger.Info("Connected to AMQP broker", "exchange", cfg.AMQPExchange)
		}
	}

	pending := auth.NewPendingTable(cfg.PendingTTL)
	authService := services.NewAuthService(result.Repo, pending, broker, cfg.AdminUsername, []byte(cfg.JWTSecret), cfg.TokenTTL, logger)
	adminService := services.NewAdminService(result.Repo, logger)
	profileService := services.NewProfileService(result.Repo, broker, logger)
	sessions := services.NewSessionManager(profileService, logger, cfg.SessionTTL)
	defer sessions.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if broker != nil {
		scheduler := services.NewExportScheduler(result.Repo, profileService, services.MonthlyChecker{}, cfg.ExportCheckInterval, logger)
		go func() {
			if err := scheduler.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("Export scheduler stopped", log.FieldError, err)
			}
		}()
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:         authService,
		Admin:        adminService,
		Sessions:     sessions,
		Profiles:     profileService,
		ExchangeRate: cfg.ExchangeRate,
		Logger:       logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting paga server", "port", cfg.Port, "backend", cfg.DataBackend, "amqp_enabled", broker != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
