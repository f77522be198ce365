// Package ingest orchestrates one pipeline run: resolve the symbol universe,
// fetch the session's bars, persist them, and optionally export a per-run
// file. Each run is recorded so an already ingested session is skipped.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/apperror"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/bars"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/export"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/symbols"
)

const dateFormat = "2006-01-02"

// Report summarizes one pipeline run.
type Report struct {
	SessionDate  time.Time
	Window       bars.Window
	Symbols      int
	BarsFetched  int
	BarsStored   int64
	EmptySymbols []string
	ExportPath   string
	Elapsed      time.Duration
	Skipped      bool
}

type Service struct {
	roster     RosterSource
	fetcher    *bars.Fetcher
	barRepo    BarRepository
	rosterRepo RosterRepository
	runRepo    RunRepository

	saver            export.Saver
	exportDir        string
	staticSymbols    []string
	snapshotFallback bool
	dryRun           bool
	now              func() time.Time
}

func NewService(roster RosterSource, fetcher *bars.Fetcher, barRepo BarRepository,
	rosterRepo RosterRepository, runRepo RunRepository, opts ...Option) *Service {
	s := &Service{
		roster:     roster,
		fetcher:    fetcher,
		barRepo:    barRepo,
		rosterRepo: rosterRepo,
		runRepo:    runRepo,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Option configures a Service.
type Option func(*Service)

// WithSaver enables per-run file export into dir.
func WithSaver(saver export.Saver, dir string) Option {
	return func(s *Service) {
		s.saver = saver
		s.exportDir = dir
	}
}

// WithStaticSymbols bypasses the roster scrape and uses the given universe.
func WithStaticSymbols(syms []string) Option {
	return func(s *Service) { s.staticSymbols = syms }
}

// WithSnapshotFallback falls back to the last stored universe when the
// roster page cannot be fetched.
func WithSnapshotFallback(enabled bool) Option {
	return func(s *Service) { s.snapshotFallback = enabled }
}

// WithDryRun fetches bars but skips every write: no snapshot, no run record,
// no stored bars, no export.
func WithDryRun(enabled bool) Option {
	return func(s *Service) { s.dryRun = enabled }
}

func withNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Run executes one ingest for the session on date. A zero date means the
// previous calendar day (weekends and holidays are not special-cased; such
// runs complete with zero bars). force reruns a session that is already
// recorded as completed.
func (s *Service) Run(ctx context.Context, date time.Time, force bool) (*Report, error) {
	start := s.now()

	if date.IsZero() {
		date = s.now().AddDate(0, 0, -1)
	}
	window := bars.SessionWindow(date)

	if !force && !s.dryRun {
		prev, err := s.runRepo.LatestByDate(ctx, date)
		if err != nil && apperror.CodeOf(err) != apperror.NotFound {
			return nil, fmt.Errorf("check run history: %w", err)
		}
		if prev != nil && prev.Status == StatusCompleted {
			slog.Info("session already ingested", "date", date.Format(dateFormat), "run", prev.ID)
			return &Report{SessionDate: date, Window: window, Skipped: true}, nil
		}
	}

	universe, err := s.universe(ctx)
	if err != nil {
		return nil, err
	}

	run := &Run{SessionDate: date, Status: StatusPending, SymbolsCount: len(universe)}
	if !s.dryRun {
		if _, err := s.rosterRepo.SaveSnapshot(ctx, date, universe); err != nil {
			return nil, fmt.Errorf("save roster snapshot: %w", err)
		}
		if err := s.runRepo.Create(ctx, run); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
	}

	batch, err := s.fetcher.SessionBars(ctx, universe, date)
	if err != nil {
		return nil, s.failRun(ctx, run, err)
	}

	flat, empty := flatten(universe, batch)

	var stored int64
	if !s.dryRun {
		stored, err = s.barRepo.SaveBars(ctx, flat)
		if err != nil {
			return nil, s.failRun(ctx, run, fmt.Errorf("save bars: %w", err))
		}
	}

	var exportPath string
	if s.saver != nil && !s.dryRun {
		if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
			return nil, s.failRun(ctx, run, fmt.Errorf("create export dir: %w", err))
		}
		exportPath = filepath.Join(s.exportDir,
			fmt.Sprintf("bars_%s.%s", date.Format(dateFormat), s.saver.Extension()))
		if err := s.saver.Save(flat, exportPath); err != nil {
			return nil, s.failRun(ctx, run, fmt.Errorf("export bars: %w", err))
		}
	}

	if !s.dryRun {
		run.Status = StatusCompleted
		run.BarsCount = stored
		_ = s.runRepo.Update(ctx, run)
	}

	report := &Report{
		SessionDate:  date,
		Window:       window,
		Symbols:      len(universe),
		BarsFetched:  len(flat),
		BarsStored:   stored,
		EmptySymbols: empty,
		ExportPath:   exportPath,
		Elapsed:      s.now().Sub(start),
	}

	slog.Info("ingest complete",
		"date", date.Format(dateFormat),
		"symbols", report.Symbols,
		"fetched", report.BarsFetched,
		"stored", report.BarsStored,
		"empty", len(report.EmptySymbols),
		"elapsed", report.Elapsed.Round(time.Millisecond))

	return report, nil
}

// universe resolves the symbol set for this run: the configured static list
// if present, otherwise a live roster scrape, optionally falling back to the
// last stored snapshot when the page is unreachable.
func (s *Service) universe(ctx context.Context) ([]string, error) {
	if len(s.staticSymbols) > 0 {
		cleaned := make([]string, 0, len(s.staticSymbols))
		for _, sym := range s.staticSymbols {
			sym = strings.ToUpper(strings.TrimSpace(sym))
			if !symbols.IsValid(sym) {
				return nil, apperror.New(apperror.InvalidInput, fmt.Sprintf("invalid symbol %q", sym))
			}
			cleaned = append(cleaned, sym)
		}
		return symbols.Normalize(cleaned), nil
	}

	universe, err := s.roster.FetchSymbols(ctx)
	if err == nil {
		return universe, nil
	}

	if s.snapshotFallback && apperror.CodeOf(err) == apperror.FetchFailed {
		snap, snapErr := s.rosterRepo.LatestSnapshot(ctx)
		if snapErr == nil {
			slog.Warn("roster fetch failed, using last stored snapshot",
				"symbols", len(snap), "error", err)
			return snap, nil
		}
	}

	return nil, err
}

func (s *Service) failRun(ctx context.Context, run *Run, err error) error {
	if s.dryRun || run.ID == 0 {
		return err
	}
	run.Status = StatusFailed
	run.Error = err.Error()
	_ = s.runRepo.Update(ctx, run)
	return err
}

// flatten orders the batch result by input symbol and collects the symbols
// that yielded no bars.
func flatten(universe []string, batch map[string][]bars.Bar) ([]bars.Bar, []string) {
	var flat []bars.Bar
	var empty []string
	for _, sym := range universe {
		b := batch[sym]
		if len(b) == 0 {
			empty = append(empty, sym)
			continue
		}
		flat = append(flat, b...)
	}
	return flat, empty
}
