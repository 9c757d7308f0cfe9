package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"image-index/internal/database"
	"image-index/internal/dedup"
	"image-index/internal/fingerprint"
	"image-index/internal/indexer"
	"image-index/internal/logging"
	"image-index/internal/mediatypes"
	"image-index/internal/scanner"
	"image-index/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

const (
	// DefaultTable is the table synchronized when none is given.
	DefaultTable = "myntra_combined"
	// DefaultBatchSize is the number of records per store call.
	DefaultBatchSize = 500
	// MaxBatchSize bounds the records held in one store transaction.
	MaxBatchSize = 10000
	// HomeDirName holds the default database and config file.
	HomeDirName = ".imgindex"
	// ConfigFileName is looked up in HomeDirName when --config is not given.
	ConfigFileName = "config.yaml"
)

// Config holds all application configuration
type Config struct {
	DatabasePath  string        `mapstructure:"database"`
	Table         string        `mapstructure:"table"`
	Root          string        `mapstructure:"root"`
	Force         bool          `mapstructure:"force"`
	Extensions    []string      `mapstructure:"ext"`
	CaseSensitive bool          `mapstructure:"case-sensitive"`
	SkipHidden    bool          `mapstructure:"skip-hidden"`
	Exclude       []string      `mapstructure:"exclude"`
	Workers       int           `mapstructure:"workers"`
	HashAlgorithm string        `mapstructure:"hash"`
	KeepPolicy    string        `mapstructure:"keep"`
	BatchSize     int           `mapstructure:"batch-size"`
	LogLevel      string        `mapstructure:"log-level"`
	LogFile       string        `mapstructure:"log-file"`
	MetricsFile   string        `mapstructure:"metrics-file"`
	MemoryLimit   string        `mapstructure:"memory-limit"`
	Interval      time.Duration `mapstructure:"interval"`
}

// HomeDir returns ~/.imgindex, or .imgindex in the working directory when
// the home directory cannot be determined.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return HomeDirName
	}
	return filepath.Join(home, HomeDirName)
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		DatabasePath:  filepath.Join(HomeDir(), database.DefaultFileName),
		Table:         DefaultTable,
		Extensions:    []string{mediatypes.DefaultExtension},
		CaseSensitive: true,
		HashAlgorithm: string(fingerprint.SHA256),
		KeepPolicy:    string(dedup.KeepNewest),
		BatchSize:     DefaultBatchSize,
		LogLevel:      "info",
	}
}

// IsMemoryStore reports whether the database location selects the in-memory store.
func (c *Config) IsMemoryStore() bool {
	return c.DatabasePath == "memory:" || c.DatabasePath == ":memory:"
}

// Validate checks values and resolves paths. requireRoot is false for
// commands that do not scan.
func (c *Config) Validate(requireRoot bool) error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database location is required")
	}
	if !c.IsMemoryStore() {
		path, err := database.ResolveLocation(c.DatabasePath)
		if err != nil {
			return err
		}
		c.DatabasePath = path
	}

	if err := database.ValidateTableName(c.Table); err != nil {
		return fmt.Errorf("invalid table: %w", err)
	}

	if requireRoot {
		if c.Root == "" {
			return fmt.Errorf("root directory is required")
		}
		root, err := filepath.Abs(c.Root)
		if err != nil {
			return fmt.Errorf("failed to resolve root directory path: %w", err)
		}
		c.Root = root
	}

	if _, err := mediatypes.NewMatcher(c.Extensions, c.CaseSensitive); err != nil {
		return err
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	if _, err := fingerprint.ParseAlgorithm(c.HashAlgorithm); err != nil {
		return err
	}
	if _, err := dedup.ParsePolicy(c.KeepPolicy); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			return fmt.Errorf("invalid log level %q", c.LogLevel)
		}
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch size must be between 1 and %d, got %d", MaxBatchSize, c.BatchSize)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %v", c.Interval)
	}
	return nil
}

// LockPath is the flock file guarding the database, empty for the memory store.
func (c *Config) LockPath() string {
	if c.IsMemoryStore() {
		return ""
	}
	return c.DatabasePath + ".lock"
}

// IndexerOptions builds orchestrator options from a validated Config.
func (c *Config) IndexerOptions(reporter indexer.Reporter) (indexer.Options, error) {
	matcher, err := mediatypes.NewMatcher(c.Extensions, c.CaseSensitive)
	if err != nil {
		return indexer.Options{}, err
	}
	alg, err := fingerprint.ParseAlgorithm(c.HashAlgorithm)
	if err != nil {
		return indexer.Options{}, err
	}
	policy, err := dedup.ParsePolicy(c.KeepPolicy)
	if err != nil {
		return indexer.Options{}, err
	}

	return indexer.Options{
		Table:      c.Table,
		Root:       c.Root,
		Force:      c.Force,
		KeepPolicy: policy,
		BatchSize:  c.BatchSize,
		Scanner: scanner.Options{
			Matcher:    matcher,
			SkipHidden: c.SkipHidden,
			Exclude:    c.Exclude,
			Workers:    c.Workers,
			Hasher:     fingerprint.New(alg),
		},
		Reporter: reporter,
		LockPath: c.LockPath(),
	}, nil
}

// LogConfig prints the banner, system information and the effective configuration.
func LogConfig(c *Config) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Database:        %s", c.DatabasePath)
	logging.Info("  Table:           %s", c.Table)
	if c.Root != "" {
		logging.Info("  Root:            %s", c.Root)
	}
	logging.Info("  Force rebuild:   %v", c.Force)
	logging.Info("  Extensions:      %s", strings.Join(c.Extensions, ", "))
	logging.Info("  Case sensitive:  %v", c.CaseSensitive)
	logging.Info("  Skip hidden:     %v", c.SkipHidden)
	if len(c.Exclude) > 0 {
		logging.Info("  Exclude:         %s", strings.Join(c.Exclude, ", "))
	}
	if c.Workers > 0 {
		logging.Info("  Workers:         %d", c.Workers)
	} else {
		logging.Info("  Workers:         auto (%s overrides)", workers.EnvOverride)
	}
	logging.Info("  Hash:            %s", c.HashAlgorithm)
	logging.Info("  Keep policy:     %s", c.KeepPolicy)
	logging.Info("  Batch size:      %d", c.BatchSize)
	logging.Info("  Log level:       %s", logging.GetLevel())
	if c.LogFile != "" {
		logging.Info("  Log file:        %s", c.LogFile)
	}
	if c.MetricsFile != "" {
		logging.Info("  Metrics file:    %s", c.MetricsFile)
	}
	if c.Interval > 0 {
		logging.Info("  Interval:        %v", c.Interval)
	}
	logging.Info("")
}

// LogScheduleStarted logs the start of periodic synchronization
func LogScheduleStarted(interval time.Duration) {
	logging.Info("------------------------------------------------------------")
	logging.Info("PERIODIC SYNC")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Interval: %v", interval)
	logging.Info("  Press Ctrl+C to stop")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
    _                    _           _
   (_)_ __ ___   __ _   (_)_ __   __| | _____  __
   | | '_ ' _ \ / _' |  | | '_ \ / _' |/ _ \ \/ /
   | | | | | | | (_| |  | | | | | (_| |  __/>  <
   |_|_| |_| |_|\__, |  |_|_| |_|\__,_|\___/_/\_\
                |___/
------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}
