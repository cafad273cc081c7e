package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/sparcli/internal/capture"
	"github.com/Iron-Ham/sparcli/internal/errors"
)

// Config represents the complete sparcli configuration
type Config struct {
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// DisplayConfig controls how variables are sampled and drawn
type DisplayConfig struct {
	// PollInterval is how long the controller waits for an event before
	// redrawing (default: 100ms)
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// SeriesSize is the number of points kept per variable. Must be a
	// positive multiple of 2 (default: 30)
	SeriesSize int `mapstructure:"series_size" yaml:"series_size"`
	// MaxScale stops compaction after this many doublings and drops the
	// oldest point instead (default: 0, compaction never stops)
	MaxScale int `mapstructure:"max_scale" yaml:"max_scale"`
	// MaxNameWidth truncates variable names longer than this (0 = never)
	MaxNameWidth int `mapstructure:"max_name_width" yaml:"max_name_width"`
	// BoldNames renders variable names in bold (default: true)
	BoldNames bool `mapstructure:"bold_names" yaml:"bold_names"`
}

// CaptureConfig selects how stdout and stderr are intercepted.
// Options: "auto", "pipe", "none"
type CaptureConfig struct {
	Stdout string `mapstructure:"stdout" yaml:"stdout"`
	Stderr string `mapstructure:"stderr" yaml:"stderr"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled turns on structured logging (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where sparcli.log is written. Empty logs to stderr, which is
	// itself captured and replayed above the chart.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// MethodAuto picks pipe capture when the stream is a terminal and no
// capture otherwise.
const MethodAuto = "auto"

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			PollInterval: 100 * time.Millisecond,
			SeriesSize:   30,
			MaxScale:     0,
			MaxNameWidth: 24,
			BoldNames:    true,
		},
		Capture: CaptureConfig{
			Stdout: MethodAuto,
			Stderr: MethodAuto,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
			Dir:     "",
		},
	}
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("display.poll_interval", defaults.Display.PollInterval)
	v.SetDefault("display.series_size", defaults.Display.SeriesSize)
	v.SetDefault("display.max_scale", defaults.Display.MaxScale)
	v.SetDefault("display.max_name_width", defaults.Display.MaxNameWidth)
	v.SetDefault("display.bold_names", defaults.Display.BoldNames)

	v.SetDefault("capture.stdout", defaults.Capture.Stdout)
	v.SetDefault("capture.stderr", defaults.Capture.Stderr)

	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
}

// EnvPrefix is prepended to environment overrides, e.g.
// SPARCLI_DISPLAY_SERIES_SIZE for display.series_size.
const EnvPrefix = "SPARCLI"

// BindEnv makes v read SPARCLI_* environment variables
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance into a Config
// struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v and validates it
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when it
// cannot be loaded
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sparcli")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sparcli"
	}
	return filepath.Join(home, ".config", "sparcli")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// SearchPaths lists the directories searched for config.yaml, in order
func SearchPaths() []string {
	paths := []string{ConfigDir()}
	if home, err := os.UserHomeDir(); err == nil {
		if p := filepath.Join(home, ".config", "sparcli"); p != paths[0] {
			paths = append(paths, p)
		}
	}
	return append(paths, ".")
}

// ValidCaptureMethods returns the list of valid capture method values
func ValidCaptureMethods() []string {
	methods := []string{MethodAuto}
	for _, m := range capture.Methods() {
		methods = append(methods, string(m))
	}
	return methods
}

// ResolveMethod turns a configured method name into a capture.Method.
// "auto" resolves against fd: pipe capture for a terminal, none otherwise.
func ResolveMethod(name string, fd uintptr) (capture.Method, error) {
	if strings.EqualFold(strings.TrimSpace(name), MethodAuto) {
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return capture.MethodPipe, nil
		}
		return capture.MethodNone, nil
	}
	return capture.ParseMethod(name)
}

// Methods resolves the stdout and stderr capture methods against the real
// process streams.
func (c *CaptureConfig) Methods() (stdout, stderr capture.Method, err error) {
	if stdout, err = ResolveMethod(c.Stdout, os.Stdout.Fd()); err != nil {
		return "", "", err
	}
	if stderr, err = ResolveMethod(c.Stderr, os.Stderr.Fd()); err != nil {
		return "", "", err
	}
	return stdout, stderr, nil
}
