package analyzer

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/penwyp/go-mc-playtime/internal/core/model"
	"github.com/penwyp/go-mc-playtime/internal/core/session"
	"github.com/penwyp/go-mc-playtime/internal/data/cache"
	"github.com/penwyp/go-mc-playtime/internal/data/parser"
	"github.com/penwyp/go-mc-playtime/internal/data/scanner"
	"github.com/penwyp/go-mc-playtime/internal/presentation/formatter"
	"github.com/penwyp/go-mc-playtime/internal/util"
)

type Config struct {
	LogDir string
	// CacheDir holds extracted events of rotated logs. Empty disables caching.
	CacheDir      string
	ResetCache    bool
	SkipMalformed bool
	MarkOnline    bool
	Limit         int
	// Output receives the report table; defaults to os.Stdout.
	Output io.Writer
	// Clock defaults to the global time provider.
	Clock util.Clock
}

type Analyzer struct {
	config  *Config
	clock   util.Clock
	cache   cache.Cache
	scanner *scanner.LogScanner
	parser  *parser.Parser
}

func New(config *Config) (*Analyzer, error) {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	clock := config.Clock
	if clock == nil {
		clock = util.GetTimeProvider()
	}

	var fileCache cache.Cache
	if config.CacheDir != "" {
		fc, err := cache.NewFileCache(config.CacheDir)
		if err != nil {
			// The cache only saves time; run without it.
			util.LogWarnf("Cache disabled, cannot create %s: %v", config.CacheDir, err)
		} else {
			fileCache = fc
		}
	}

	if config.ResetCache && fileCache != nil {
		if err := fileCache.Clear(); err != nil {
			util.LogErrorf("Failed to clear cache %s: %v", config.CacheDir, err)
			return nil, fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}

	return &Analyzer{
		config:  config,
		clock:   clock,
		cache:   fileCache,
		scanner: scanner.NewLogScanner(config.LogDir),
		parser: parser.NewParser(parser.Options{
			Clock:         clock,
			SkipMalformed: config.SkipMalformed,
			Cache:         fileCache,
		}),
	}, nil
}

// Run computes the totals and renders the report. Nothing is written to the
// output when any phase fails.
func (a *Analyzer) Run() error {
	startTime := time.Now()
	util.LogInfof("Starting playtime analysis of %s", a.config.LogDir)

	totals, err := a.Totals()
	if err != nil {
		util.LogError("Playtime analysis failed", util.F("dir", a.config.LogDir), util.F("error", err.Error()))
		return err
	}

	outputStart := time.Now()
	err = formatter.NewTableFormatter(a.config.Output).
		WithOnlineMarker(a.config.MarkOnline).
		WithLimit(a.config.Limit).
		Format(totals)
	util.LogDebugf("Formatting and output duration: %v", time.Since(outputStart))
	util.LogDebugf("Total duration: %v", time.Since(startTime))

	return err
}

// Totals scans the log directory and folds every file, oldest first, into
// per-player playtime.
func (a *Analyzer) Totals() (model.Totals, error) {
	if a.cache != nil {
		if err := a.cache.Preload(); err != nil {
			util.LogWarnf("Cache preload failed: %v", err)
		}
	}

	scanStart := time.Now()
	files, err := a.scanner.Scan()
	if err != nil {
		return model.Totals{}, err
	}
	util.LogDebugf("Phase 1 - File scan duration: %v, found %d files", time.Since(scanStart), len(files))
	if len(files) == 0 {
		util.LogWarnf("No log files found in %s", a.config.LogDir)
	}

	parseStart := time.Now()
	stats := NewCacheStats()
	agg := session.NewAggregator()

	// Files are folded one at a time and dropped, so memory stays bounded by
	// the largest single log.
	for _, file := range files {
		events, err := a.parser.ParseFile(file)
		if err != nil {
			return model.Totals{}, err
		}

		stats.IncrementTotal()
		stats.AddSkipped(events.Skipped)
		switch {
		case a.cache == nil:
		case scanner.IsCurrentLog(file):
			stats.IncrementUncached()
		case events.Cached:
			stats.IncrementHit()
		default:
			stats.IncrementMiss()
		}

		agg.Fold(events.Events...)
	}
	util.LogDebugf("Phase 2 - Parsing and folding duration: %v", time.Since(parseStart))
	stats.PrintFinalStats()
	if fc, ok := a.cache.(*cache.FileCache); ok {
		memoryCount, fileCount := fc.GetCacheStats()
		util.LogDebugf("Cache holds %d entries in memory, %d on disk", memoryCount, fileCount)
	}

	now := a.clock.Now()
	for _, player := range agg.OpenPlayers() {
		since, _ := agg.OpenSince(player)
		util.LogDebugf("Player still online: %s, connected for %s", player, util.FormatDuration(now.Sub(since)))
	}

	totals := agg.Finalize(now)
	s := agg.Stats()
	util.LogInfof("Aggregated %d events into %d players: %d sessions, %d still online, %d unmatched disconnects, %d repeated connects",
		s.Events, totals.Len(), s.Sessions, s.StillOnline, s.UnmatchedDisconnects, s.IgnoredConnects)
	if s.NegativeSessions > 0 {
		util.LogWarnf("%d sessions ended before they started and were counted as zero", s.NegativeSessions)
	}

	return totals, nil
}
