package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

// hasFieldError reports whether errs contains a failure for field.
func hasFieldError(errs []ValidationError, field string) bool {
	for _, err := range errs {
		if err.Field == field {
			return true
		}
	}
	return false
}

func TestConfig_Validate_Display(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Config)
		field    string
		hasError bool
	}{
		{"series size 2", func(c *Config) { c.Display.SeriesSize = 2 }, "display.series_size", false},
		{"series size 128", func(c *Config) { c.Display.SeriesSize = 128 }, "display.series_size", false},
		{"odd series size", func(c *Config) { c.Display.SeriesSize = 31 }, "display.series_size", true},
		{"zero series size", func(c *Config) { c.Display.SeriesSize = 0 }, "display.series_size", true},
		{"negative series size", func(c *Config) { c.Display.SeriesSize = -4 }, "display.series_size", true},
		{"huge series size", func(c *Config) { c.Display.SeriesSize = 8192 }, "display.series_size", true},
		{"max scale zero", func(c *Config) { c.Display.MaxScale = 0 }, "display.max_scale", false},
		{"negative max scale", func(c *Config) { c.Display.MaxScale = -1 }, "display.max_scale", true},
		{"poll interval 1s", func(c *Config) { c.Display.PollInterval = time.Second }, "display.poll_interval", false},
		{"zero poll interval", func(c *Config) { c.Display.PollInterval = 0 }, "display.poll_interval", true},
		{"poll interval too long", func(c *Config) { c.Display.PollInterval = time.Hour }, "display.poll_interval", true},
		{"name width disabled", func(c *Config) { c.Display.MaxNameWidth = 0 }, "display.max_name_width", false},
		{"name width 1", func(c *Config) { c.Display.MaxNameWidth = 1 }, "display.max_name_width", true},
		{"negative name width", func(c *Config) { c.Display.MaxNameWidth = -2 }, "display.max_name_width", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			if got := hasFieldError(cfg.Validate(), tt.field); got != tt.hasError {
				t.Errorf("Validate() error on %s = %v, want %v", tt.field, got, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Capture(t *testing.T) {
	tests := []struct {
		method   string
		hasError bool
	}{
		{"auto", false},
		{"pipe", false},
		{"none", false},
		{"Pipe", false},
		{"pty", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			cfg := Default()
			cfg.Capture.Stderr = tt.method

			errs := cfg.Validate()
			if got := hasFieldError(errs, "capture.stderr"); got != tt.hasError {
				t.Errorf("Validate() for stderr=%q: hasError=%v, want %v", tt.method, got, tt.hasError)
			}
			if hasFieldError(errs, "capture.stdout") {
				t.Error("unexpected error for capture.stdout")
			}
		})
	}
}

func TestConfig_Validate_Logging(t *testing.T) {
	tests := []struct {
		level    string
		hasError bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"DEBUG", false},
		{"", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Default()
			cfg.Logging.Level = tt.level

			if got := hasFieldError(cfg.Validate(), "logging.level"); got != tt.hasError {
				t.Errorf("Validate() for level=%q: hasError=%v, want %v", tt.level, got, tt.hasError)
			}
		})
	}
}

func TestValidLogLevels(t *testing.T) {
	levels := ValidLogLevels()
	expected := []string{"debug", "info", "warn", "error"}

	if len(levels) != len(expected) {
		t.Fatalf("ValidLogLevels() returned %d levels, want %d", len(levels), len(expected))
	}
	for i, level := range expected {
		if levels[i] != level {
			t.Errorf("ValidLogLevels()[%d] = %q, want %q", i, levels[i], level)
		}
	}
}

func TestValidCaptureMethods(t *testing.T) {
	got := strings.Join(ValidCaptureMethods(), ",")
	if got != "auto,pipe,none" {
		t.Errorf("ValidCaptureMethods() = %q, want %q", got, "auto,pipe,none")
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Display.SeriesSize = 3
	cfg.Capture.Stdout = "tty"
	cfg.Logging.Level = "loud"

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Errorf("Validate() returned %d errors, want 3: %v", len(errs), errs)
	}
}
