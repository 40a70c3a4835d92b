package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "analysis.duplicate_threshold")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateAnalysis()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateWatch()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func (c *Config) validateAnalysis() []ValidationError {
	var errors []ValidationError

	unitThresholds := []struct {
		field string
		value float64
	}{
		{"analysis.implicit_threshold", c.Analysis.ImplicitThreshold},
		{"analysis.duplicate_threshold", c.Analysis.DuplicateThreshold},
		{"analysis.semantic_threshold", c.Analysis.SemanticThreshold},
		{"analysis.ordering_hint_floor", c.Analysis.OrderingHintFloor},
	}
	for _, t := range unitThresholds {
		if t.value < 0 || t.value > 1 {
			errors = append(errors, ValidationError{
				Field:   t.field,
				Value:   t.value,
				Message: "must be between 0 and 1",
			})
		}
	}

	if c.Analysis.OrderingHintFloor > c.Analysis.ImplicitThreshold {
		errors = append(errors, ValidationError{
			Field:   "analysis.ordering_hint_floor",
			Value:   c.Analysis.OrderingHintFloor,
			Message: "must not exceed analysis.implicit_threshold",
		})
	}

	if c.Analysis.SpeedupThreshold < 1 {
		errors = append(errors, ValidationError{
			Field:   "analysis.speedup_threshold",
			Value:   c.Analysis.SpeedupThreshold,
			Message: "must be at least 1",
		})
	}

	if c.Analysis.MaxBatchSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "analysis.max_batch_size",
			Value:   c.Analysis.MaxBatchSize,
			Message: "must be 0 (unlimited) or positive",
		})
	}

	for _, pattern := range c.Analysis.AppendOnlyPatterns {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errors = append(errors, ValidationError{
				Field:   "analysis.append_only_patterns",
				Value:   pattern,
				Message: "must be a valid glob pattern",
			})
		}
	}

	return errors
}

func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError
	if !IsValidOutputFormat(c.Output.Format) {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOutputFormats(), ", ")),
		})
	}
	return errors
}

func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError
	if c.Watch.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must not be negative",
		})
	}
	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be 0 (no rotation) or positive",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must not be negative",
		})
	}
	return errors
}
