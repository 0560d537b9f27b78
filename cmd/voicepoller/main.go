package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"capturebridge/internal/cloudcli"
	"capturebridge/internal/config"
	"capturebridge/internal/dedup"
	"capturebridge/internal/fingerprint"
	"capturebridge/internal/ledger"
	"capturebridge/internal/pollcycle"
	"capturebridge/internal/runner"
	"capturebridge/internal/scanner"
	"capturebridge/internal/status"
)

func main() {
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(jsonHandler)
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		slog.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	dedupAddr := fmt.Sprintf("%s:%d", cfg.ValkeyHost, cfg.ValkeyPort)
	dedupService, err := dedup.NewService(ctx, dedupAddr, cfg.FingerprintSetKey)
	if err != nil {
		slog.Error("failed to connect to dedup service", "error", err)
		os.Exit(1)
	}
	defer dedupService.Close()

	adapter := cloudcli.New(cfg.CloudCheckCommand, cfg.CloudDownloadCommand, cfg.CloudRetryCount)
	orchestrator := cloudcli.NewOrchestrator(adapter, cfg.DownloadWaitTimeout)

	statusServer := status.New(cfg.StatusAddr)
	statusServer.MarkReady()

	cycle := &pollcycle.Cycle{
		Scanner:      scanner.New(cfg.FolderPath, cfg.AudioExtension),
		Materializer: orchestrator,
		Fingerprint:  fingerprint.Compute,
		Dedup:        dedupService,
		Stager:       ledger.NewCaptureStager(store),
		Watermark:    ledger.NewWatermarkStore(store),
		WatermarkKey: cfg.WatermarkKey,
		Logger:       logger,
	}

	r := runner.New(
		runner.CycleFunc(func(ctx context.Context) (any, error) {
			return cycle.Run(ctx)
		}),
		cfg.PollInterval,
		logger,
		func(result any, err error) {
			statusServer.Publish(result)
		},
	)

	go func() {
		if err := statusServer.Start(); err != nil {
			slog.Error("status server exited", "error", err)
		}
	}()

	r.Start(ctx)
	slog.Info("voice poller started", "folder", cfg.FolderPath, "interval", cfg.PollInterval)

	sig := <-sigChan
	slog.Info("received signal, shutting down gracefully", "signal", sig)
	cancel()
	r.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := statusServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("status server shutdown failed", "error", err)
	}
}
