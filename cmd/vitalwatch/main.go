package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vitalwatch/vitalwatch/internal/assessment"
	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/metrics"
	"github.com/vitalwatch/vitalwatch/internal/triage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	runID := uuid.NewString()
	slog.Info("vitalwatch starting", "config", *configPath, "run_id", runID)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, runID); err != nil {
		slog.Error("run failed", "run_id", runID, "err", err)
		os.Exit(1)
	}
	slog.Info("vitalwatch done", "run_id", runID)
}

// run executes one assessment: fetch every patient page, classify, submit,
// and optionally leave run metrics behind. Strictly sequential.
func run(ctx context.Context, cfg *config.Config, runID string) error {
	start := time.Now()
	var stats metrics.Run

	fetcher := assessment.NewFetcher(cfg.API, cfg.Fetch)
	records, outcomes, err := fetcher.FetchAll(ctx)
	if err != nil {
		return err
	}

	for _, o := range outcomes {
		stats.PageRequests += o.Attempts
		stats.Retries += o.Attempts - 1
		if o.Exhausted {
			stats.PagesExhausted++
		} else {
			stats.PagesFetched++
		}
	}

	if stats.PagesExhausted > 0 {
		slog.Warn("pages exhausted their retry budget",
			"pages", stats.PagesExhausted, "policy", cfg.Fetch.OnExhausted)
		if cfg.Fetch.OnExhausted == config.OnExhaustedFail {
			return fmt.Errorf("%d page(s) could not be fetched", stats.PagesExhausted)
		}
	}

	slog.Info("fetch complete",
		"patients", len(records),
		"pages", stats.PagesFetched,
		"requests", stats.PageRequests,
	)

	report := triage.Classify(records)
	stats.PatientsSeen = len(records) - report.Skipped
	stats.PatientsSkipped = report.Skipped
	stats.HighRisk = len(report.HighRisk)
	stats.Fever = len(report.Fever)
	stats.DataQuality = len(report.DataQuality)

	slog.Info("classification complete",
		"high_risk", stats.HighRisk,
		"fever", stats.Fever,
		"data_quality", stats.DataQuality,
		"skipped", stats.PatientsSkipped,
	)

	submitter := assessment.NewSubmitter(cfg.API)
	ack, err := submitter.Submit(ctx, report)
	if err != nil {
		return err
	}
	slog.Info("assessment submitted", "run_id", runID, "ack", string(ack))

	stats.Duration = time.Since(start)
	if cfg.Metrics.Textfile != "" {
		if err := stats.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Error("failed to write metrics textfile",
				"path", cfg.Metrics.Textfile, "err", err)
		} else {
			slog.Info("run metrics written", "path", cfg.Metrics.Textfile)
		}
	}

	return nil
}
