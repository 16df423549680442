package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/doideposit/internal/api"
	"github.com/dgallion1/doideposit/internal/config"
	"github.com/dgallion1/doideposit/internal/crossref"
	"github.com/dgallion1/doideposit/internal/sink"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AllowPlaceholderIdentity {
		if fields := cfg.PlaceholderFields(); len(fields) > 0 {
			log.Warn("identity uses placeholder values; deposits will be rejected", "fields", fields)
		}
	}

	// Initialize clients.
	stats := crossref.NewLatencyStats(cfg.StatsWindow)
	validator := crossref.NewValidator(cfg.ValidateURL, cfg.HTTPTimeout, stats)
	depositor := crossref.NewDepositor(cfg.DepositURL, cfg.DepositLogin, cfg.DepositPassword, cfg.HTTPTimeout, stats)

	var archive sink.Sink
	if cfg.ArchiveDir != "" {
		if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
			log.Error("create archive dir", "dir", cfg.ArchiveDir, "error", err)
			os.Exit(1)
		}
		archive = sink.NewFile(cfg.ArchiveDir)
	}

	// Initialize HTTP server.
	srv := api.NewServer(validator, depositor, archive, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		validator.Close()
		depositor.Close()
	}()

	log.Info("starting doideposit", "port", cfg.Port, "archive_dir", cfg.ArchiveDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
