package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete parplan configuration
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AnalysisConfig carries the analyzer thresholds
type AnalysisConfig struct {
	// ImplicitThreshold is the minimum confidence for a textual ordering hint
	// to become a dependency edge (0..1)
	ImplicitThreshold float64 `mapstructure:"implicit_threshold"`
	// DuplicateThreshold is the minimum edit similarity for flagging a pair
	// of tasks as duplicates (0..1)
	DuplicateThreshold float64 `mapstructure:"duplicate_threshold"`
	// SemanticThreshold is the minimum token overlap for a semantic conflict (0..1)
	SemanticThreshold float64 `mapstructure:"semantic_threshold"`
	// OrderingHintFloor is the minimum confidence for a sub-threshold ordering
	// hint to surface as a conflict (0..1)
	OrderingHintFloor float64 `mapstructure:"ordering_hint_floor"`
	// SpeedupThreshold is the estimated speedup above which parallel execution
	// is recommended (> 1)
	SpeedupThreshold float64 `mapstructure:"speedup_threshold"`
	// MaxBatchSize caps how many tasks share a batch (0 = unlimited)
	MaxBatchSize int `mapstructure:"max_batch_size"`
	// AppendOnlyPatterns are glob patterns for paths that tolerate concurrent
	// edits; file conflicts confined to them are downgraded
	AppendOnlyPatterns []string `mapstructure:"append_only_patterns"`
}

// OutputConfig controls how analysis results are rendered
type OutputConfig struct {
	// Format is the default report format
	// Options: "text", "json"
	Format string `mapstructure:"format"`
	// Color enables styled terminal output (default: true)
	Color bool `mapstructure:"color"`
}

// WatchConfig controls the watch command
type WatchConfig struct {
	// DebounceMs is how long to wait after a file event before re-running the
	// analysis, coalescing editor write bursts (in milliseconds)
	DebounceMs int `mapstructure:"debounce_ms"`
}

// LoggingConfig controls debug logging
type LoggingConfig struct {
	// Enabled turns debug logging on
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum severity to log
	// Options: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// File is the log destination; empty means stderr
	File string `mapstructure:"file"`
	// MaxSizeMB rotates the log file when it exceeds this size (0 = no rotation)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files
	Compress bool `mapstructure:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			ImplicitThreshold:  0.6,
			DuplicateThreshold: 0.8,
			SemanticThreshold:  0.5,
			OrderingHintFloor:  0.3,
			SpeedupThreshold:   1.3,
			MaxBatchSize:       0, // No cap by default
			AppendOnlyPatterns: []string{"**.log", "**CHANGELOG*", "**changelog*"},
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Watch: WatchConfig{
			DebounceMs: 50,
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Debounce returns the watch debounce as a time.Duration
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Analysis defaults
	viper.SetDefault("analysis.implicit_threshold", defaults.Analysis.ImplicitThreshold)
	viper.SetDefault("analysis.duplicate_threshold", defaults.Analysis.DuplicateThreshold)
	viper.SetDefault("analysis.semantic_threshold", defaults.Analysis.SemanticThreshold)
	viper.SetDefault("analysis.ordering_hint_floor", defaults.Analysis.OrderingHintFloor)
	viper.SetDefault("analysis.speedup_threshold", defaults.Analysis.SpeedupThreshold)
	viper.SetDefault("analysis.max_batch_size", defaults.Analysis.MaxBatchSize)
	viper.SetDefault("analysis.append_only_patterns", defaults.Analysis.AppendOnlyPatterns)

	// Output defaults
	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.color", defaults.Output.Color)

	// Watch defaults
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "parplan")
	}
	// Fall back to ~/.config/parplan
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parplan"
	}
	return filepath.Join(home, ".config", "parplan")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidOutputFormats returns the list of valid output format values
func ValidOutputFormats() []string {
	return []string{"text", "json"}
}

// IsValidOutputFormat checks if the given format is valid
func IsValidOutputFormat(format string) bool {
	for _, valid := range ValidOutputFormats() {
		if format == valid {
			return true
		}
	}
	return false
}
