package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/sparcli/internal/errors"
	"github.com/Iron-Ham/sparcli/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "display.series_size")
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

// Is lets callers match any configuration failure with errors.ErrInvalidInput.
func (e ValidationErrors) Is(target error) bool {
	return target == errors.ErrInvalidInput
}

// Bounds for display settings.
const (
	minPollInterval = time.Millisecond
	maxPollInterval = time.Minute
	maxSeriesSize   = 4096
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	levels := logging.ValidLevels()
	for i, l := range levels {
		levels[i] = strings.ToLower(l)
	}
	return levels
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	errs = append(errs, c.validateDisplay()...)
	errs = append(errs, c.validateCapture()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

// validateDisplay validates the DisplayConfig
func (c *Config) validateDisplay() []ValidationError {
	var errs []ValidationError
	d := c.Display

	if d.PollInterval < minPollInterval || d.PollInterval > maxPollInterval {
		errs = append(errs, ValidationError{
			Field:   "display.poll_interval",
			Value:   d.PollInterval,
			Message: fmt.Sprintf("must be between %s and %s", minPollInterval, maxPollInterval),
		})
	}

	// The series halves itself when full, so the size has to split evenly.
	if d.SeriesSize < 2 || d.SeriesSize%2 != 0 {
		errs = append(errs, ValidationError{
			Field:   "display.series_size",
			Value:   d.SeriesSize,
			Message: "must be a positive multiple of 2",
		})
	} else if d.SeriesSize > maxSeriesSize {
		errs = append(errs, ValidationError{
			Field:   "display.series_size",
			Value:   d.SeriesSize,
			Message: fmt.Sprintf("exceeds maximum of %d", maxSeriesSize),
		})
	}

	if d.MaxScale < 0 {
		errs = append(errs, ValidationError{
			Field:   "display.max_scale",
			Value:   d.MaxScale,
			Message: "must be non-negative",
		})
	}

	if d.MaxNameWidth < 0 {
		errs = append(errs, ValidationError{
			Field:   "display.max_name_width",
			Value:   d.MaxNameWidth,
			Message: "must be non-negative",
		})
	} else if d.MaxNameWidth > 0 && d.MaxNameWidth < 2 {
		// Room for at least one character and the ellipsis.
		errs = append(errs, ValidationError{
			Field:   "display.max_name_width",
			Value:   d.MaxNameWidth,
			Message: "must be 0 or at least 2",
		})
	}

	return errs
}

// validateCapture validates the CaptureConfig
func (c *Config) validateCapture() []ValidationError {
	var errs []ValidationError

	fields := []struct {
		name  string
		value string
	}{
		{"capture.stdout", c.Capture.Stdout},
		{"capture.stderr", c.Capture.Stderr},
	}
	for _, f := range fields {
		if !IsValidCaptureMethod(f.value) {
			errs = append(errs, ValidationError{
				Field:   f.name,
				Value:   f.value,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidCaptureMethods(), ", ")),
			})
		}
	}

	return errs
}

// IsValidCaptureMethod checks if the given capture method name is valid
func IsValidCaptureMethod(name string) bool {
	return slices.Contains(ValidCaptureMethods(), strings.ToLower(strings.TrimSpace(name)))
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errs
}
