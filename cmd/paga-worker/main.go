package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"paga/internal/amqp"
	"paga/internal/backend"
	"paga/internal/cli"
	"paga/internal/log"
	"paga/internal/mailer"
	"paga/internal/sheets"
	gsheet "paga/internal/sheets/google"
	sheetsmem "paga/internal/sheets/memory"
	"paga/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()

	logger.Info("Starting paga-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).Open(cfg)
	if err != nil {
		logger.Error("Failed to open data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	var sender mailer.Sender
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.OperatorEmail)
		logger.Info("SMTP mailer initialized", "host", cfg.SMTPHost, "operator", cfg.OperatorEmail)
	} else {
		sender = &mailer.LogSender{Logger: logger}
		logger.Info("No SMTP relay configured, verification codes go to the log")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var appender sheets.SummaryAppender
	if cfg.GoogleSpreadsheetID != "" {
		appender, err = gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		appender = sheetsmem.New()
		logger.Info("No spreadsheet configured, summaries stay in memory")
	}

	mailWorker := worker.NewMailWorker(sender, logger)
	exportWorker := worker.NewExportWorker(result.Repo, appender, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, amqp.MailQueue, func(body []byte) error {
			return mailWorker.Handle(ctx, body)
		})
	})
	g.Go(func() error {
		return amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, amqp.ExportQueue, func(body []byte) error {
			return exportWorker.Handle(ctx, body)
		})
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
