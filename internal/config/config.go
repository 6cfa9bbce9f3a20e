package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/vango-dev/skellyview/internal/errors"
)

const (
	// FileName is the name of the configuration file.
	FileName = "skellyview.json"

	// DefaultAddr is the default inspector listen address. It sits next to
	// the front-end dev server's port.
	DefaultAddr = "localhost:5174"

	// DefaultFPS is the default playback rate.
	DefaultFPS = 30.0

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "skellyview"

	// DefaultServiceName is the default OpenTelemetry service name.
	DefaultServiceName = "skellyview"
)

// Config represents the complete skellyview.json configuration.
type Config struct {
	// Inspector contains the debug HTTP server settings.
	Inspector InspectorConfig `json:"inspector"`

	// Animation contains the initial playback settings.
	Animation AnimationConfig `json:"animation"`

	// Log contains logging settings.
	Log LogConfig `json:"log"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// InspectorConfig contains the inspector server settings.
type InspectorConfig struct {
	// Addr is the host:port to listen on.
	Addr string `json:"addr,omitempty"`

	// AllowedOrigins lists websocket origins accepted besides same-origin.
	// "*" accepts any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// AnimationConfig contains the initial animation store values.
type AnimationConfig struct {
	// FPS is the initial playback rate.
	FPS float64 `json:"fps,omitempty"`

	// Autoplay starts playback as soon as frames are known.
	Autoplay bool `json:"autoplay,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// JSON switches the handler from text to JSON output.
	JSON bool `json:"json,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics on the inspector.
	Enabled bool `json:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	Endpoint string `json:"endpoint,omitempty"`

	// ServiceName is reported as service.name.
	ServiceName string `json:"serviceName,omitempty"`
}

// envOverrides mirrors the settings that may come from the environment.
// Pointer fields stay nil when the variable is unset.
type envOverrides struct {
	Addr      *string  `env:"SKELLYVIEW_ADDR"`
	FPS       *float64 `env:"SKELLYVIEW_FPS"`
	Autoplay  *bool    `env:"SKELLYVIEW_AUTOPLAY"`
	LogLevel  *string  `env:"SKELLYVIEW_LOG_LEVEL"`
	LogJSON   *bool    `env:"SKELLYVIEW_LOG_JSON"`
	Metrics   *bool    `env:"SKELLYVIEW_METRICS"`
	Namespace *string  `env:"SKELLYVIEW_METRICS_NAMESPACE"`
	Origins   []string `env:"SKELLYVIEW_ALLOWED_ORIGINS" envSeparator:","`
	Endpoint  *string  `env:"SKELLYVIEW_OTEL_ENDPOINT"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Inspector: InspectorConfig{
			Addr: DefaultAddr,
		},
		Animation: AnimationConfig{
			FPS: DefaultFPS,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			ServiceName: DefaultServiceName,
		},
	}
}

// Load reads skellyview.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigRead).
			WithDetail(path).
			Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail("failed to parse " + path + ": " + err.Error()).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOptional reads path when it is non-empty and exists, and returns the
// defaults otherwise. An explicitly named file that is missing is an error.
func LoadOptional(path string, explicit bool) (*Config, error) {
	if path == "" {
		return New(), nil
	}
	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) && !explicit {
		return New(), nil
	}
	return LoadFile(path)
}

// ApplyEnv overlays SKELLYVIEW_* variables from environ. A nil environ
// reads the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	var o envOverrides
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return errors.New(errors.CodeConfigEnv).Wrap(err)
	}

	if o.Addr != nil {
		c.Inspector.Addr = *o.Addr
	}
	if o.FPS != nil {
		c.Animation.FPS = *o.FPS
	}
	if o.Autoplay != nil {
		c.Animation.Autoplay = *o.Autoplay
	}
	if o.LogLevel != nil {
		c.Log.Level = *o.LogLevel
	}
	if o.LogJSON != nil {
		c.Log.JSON = *o.LogJSON
	}
	if o.Metrics != nil {
		c.Metrics.Enabled = *o.Metrics
	}
	if o.Namespace != nil {
		c.Metrics.Namespace = *o.Namespace
	}
	if len(o.Origins) > 0 {
		c.Inspector.AllowedOrigins = o.Origins
	}
	if o.Endpoint != nil {
		c.Tracing.Endpoint = *o.Endpoint
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigParse).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigWrite).WithDetail(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = DefaultAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !(c.Animation.FPS > 0) || math.IsInf(c.Animation.FPS, 1) {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("animation.fps must be a finite number greater than zero, got %v", c.Animation.FPS).
			WithSuggestion(`Set "animation": {"fps": 30} or unset SKELLYVIEW_FPS.`)
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Inspector.Addr == "" {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("inspector.addr must not be empty")
	}
	return nil
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.Log.Level)
	return lvl
}

// NewLogger builds the process logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Log.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
