package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/bars"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/config"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/export"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/ingest"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/platform/sqlite"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/provider/alpaca"
	barrepo "github.com/Cole-Dylewski/market-data-pipeline/internal/repository/bars"
	rosterrepo "github.com/Cole-Dylewski/market-data-pipeline/internal/repository/roster"
	runrepo "github.com/Cole-Dylewski/market-data-pipeline/internal/repository/run"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/scraper/stockanalysis"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		dateStr    = flag.String("date", "", "session date YYYY-MM-DD (default: yesterday)")
		symbolsCSV = flag.String("symbols", "", "comma-separated symbols, skips the roster scrape")
		force      = flag.Bool("force", false, "rerun even if the session date is already completed")
		dryRun     = flag.Bool("dry-run", false, "fetch without storing or exporting")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	})))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var date time.Time
	if *dateStr != "" {
		date, err = time.Parse("2006-01-02", *dateStr)
		if err != nil {
			slog.Error("invalid -date, expected YYYY-MM-DD", "error", err)
			os.Exit(1)
		}
	}

	saver, err := export.NewSaver(cfg.Export.Format)
	if err != nil {
		slog.Error("invalid export config", "error", err)
		os.Exit(1)
	}

	// Root context: cancelled on SIGINT/SIGTERM so in-flight fetches stop
	// promptly and the run is recorded as failed rather than left pending.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Repositories
	barRepo := barrepo.NewRepository(db.DB)
	rosterRepo := rosterrepo.NewRepository(db.DB)
	runRepo := runrepo.NewRepository(db.DB)

	// Bar provider
	providerOpts := []alpaca.Option{alpaca.WithFeed(cfg.Alpaca.Feed)}
	if cfg.Alpaca.BaseURL != "" {
		providerOpts = append(providerOpts, alpaca.WithBaseURL(cfg.Alpaca.BaseURL))
	}
	provider := alpaca.New(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, providerOpts...)

	// Roster scraper
	var scraperOpts []stockanalysis.Option
	if cfg.Roster.URL != "" {
		scraperOpts = append(scraperOpts, stockanalysis.WithListURL(cfg.Roster.URL))
	}
	roster := stockanalysis.New(scraperOpts...)

	fetcher := bars.NewFetcher(provider, bars.WithWorkers(cfg.Fetch.Workers))

	opts := []ingest.Option{
		ingest.WithSnapshotFallback(cfg.Roster.SnapshotFallback),
		ingest.WithDryRun(*dryRun),
	}
	if saver != nil {
		opts = append(opts, ingest.WithSaver(saver, cfg.Export.Dir))
	}

	// The -symbols flag beats the config list; either skips the scrape.
	static := cfg.Roster.Symbols
	if *symbolsCSV != "" {
		static = strings.Split(*symbolsCSV, ",")
	}
	if len(static) > 0 {
		opts = append(opts, ingest.WithStaticSymbols(static))
	}

	svc := ingest.NewService(roster, fetcher, barRepo, rosterRepo, runRepo, opts...)

	report, err := svc.Run(ctx, date, *force)
	if err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	if report.Skipped {
		slog.Info("session already completed, use -force to rerun",
			"date", report.SessionDate.Format("2006-01-02"))
		return
	}
	slog.Info("done",
		"date", report.SessionDate.Format("2006-01-02"),
		"symbols", report.Symbols,
		"bars", report.BarsFetched,
		"empty", len(report.EmptySymbols),
		"elapsed", report.Elapsed.Round(time.Millisecond),
	)
}
