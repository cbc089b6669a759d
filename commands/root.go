package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/penwyp/go-mc-playtime/internal/analyzer"
	"github.com/penwyp/go-mc-playtime/internal/core/model"
	"github.com/penwyp/go-mc-playtime/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Parsing
	timezone      string
	skipMalformed bool

	// Cache
	cacheDir string
	noCache  bool
	reset    bool

	// Output related
	limit      int
	markOnline bool

	rootCmd = &cobra.Command{
		Use:   "go-mc-playtime [flags] <log-dir>",
		Short: "Minecraft server playtime report",
		Long: `go-mc-playtime totals how long each player has been connected to a Minecraft server.

It reads every dated log (plain or .gz) and the current latest.log in the given
directory, pairs each login with the following disconnect, and prints one row per
player, longest playtime first.

Defaults can be set in the environment or in a .env file:
  PLAYTIME_TIMEZONE        time zone the logs were written in
  PLAYTIME_CACHE_DIR       where extracted events of rotated logs are cached
  PLAYTIME_SKIP_MALFORMED  skip unparseable event lines instead of failing

Examples:
  go-mc-playtime ./logs                          # Report playtime for ./logs
  go-mc-playtime --timezone Europe/Berlin ./logs # Logs were written in Berlin time
  go-mc-playtime --limit 10 --mark-online ./logs # Top 10, marking players still online
  go-mc-playtime --skip-malformed --reset ./logs # Tolerate broken lines, rebuild the cache`,
		Args:          exactlyOneLogDir,
		RunE:          runReport,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

const (
	defaultLogFile  = "~/.go-mc-playtime/logs/app.log"
	defaultCacheDir = "~/.go-mc-playtime/cache"

	envTimezone      = "PLAYTIME_TIMEZONE"
	envCacheDir      = "PLAYTIME_CACHE_DIR"
	envSkipMalformed = "PLAYTIME_SKIP_MALFORMED"
)

func init() {
	// A .env file is optional.
	_ = godotenv.Load()

	// Parsing
	rootCmd.Flags().StringVar(&timezone, "timezone", getenv(envTimezone, "Local"),
		"Timezone the logs were written in (e.g., Europe/Berlin, UTC)")
	rootCmd.Flags().BoolVar(&skipMalformed, "skip-malformed", getenvBool(envSkipMalformed, false),
		"Skip malformed event lines with a warning instead of failing")

	// Cache
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", getenv(envCacheDir, defaultCacheDir),
		"Directory for cached events of rotated logs")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"Parse every log without reading or writing the cache")
	rootCmd.Flags().BoolVarP(&reset, "reset", "r", false,
		"Clear cache before analysis")

	// Output configuration
	rootCmd.Flags().IntVar(&limit, "limit", 0,
		"Limit result count (0 = unlimited)")
	rootCmd.Flags().BoolVar(&markOnline, "mark-online", false,
		"Mark players still connected with a trailing *")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func exactlyOneLogDir(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected exactly one log directory, got %d arguments", model.ErrArgument, len(args))
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	// Determine log level based on debug flag
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	// Initialize logging
	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(logLevel, logFile, debug); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer util.CloseLogger()

	if err := util.InitializeTimeProvider(timezone); err != nil {
		return fmt.Errorf("%w: %v", model.ErrArgument, err)
	}
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", model.ErrArgument)
	}

	config := &analyzer.Config{
		LogDir:        filepath.Clean(args[0]),
		ResetCache:    reset,
		SkipMalformed: skipMalformed,
		MarkOnline:    markOnline,
		Limit:         limit,
		Output:        cmd.OutOrStdout(),
		Clock:         util.GetTimeProvider(),
	}
	if !noCache {
		config.CacheDir = expandPath(cacheDir)
	}

	a, err := analyzer.New(config)
	if err != nil {
		return err
	}
	return a.Run()
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
