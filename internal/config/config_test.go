package config

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/vango-dev/skellyview/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Inspector.Addr != DefaultAddr {
		t.Errorf("Inspector.Addr = %q, want %q", cfg.Inspector.Addr, DefaultAddr)
	}
	if cfg.Animation.FPS != DefaultFPS {
		t.Errorf("Animation.FPS = %v, want %v", cfg.Animation.FPS, DefaultFPS)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, `{
  "inspector": {"addr": ":9090"},
  "animation": {"fps": 60, "autoplay": true},
  "log": {"level": "debug"},
  "metrics": {"enabled": false}
}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Inspector.Addr != ":9090" {
		t.Errorf("Inspector.Addr = %q", cfg.Inspector.Addr)
	}
	if cfg.Animation.FPS != 60 || !cfg.Animation.Autoplay {
		t.Errorf("Animation = %+v", cfg.Animation)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be false")
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want default", cfg.Metrics.Namespace)
	}
	if cfg.Path() != filepath.Join(dir, FileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"log": {"json": true}}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Animation.FPS != DefaultFPS || cfg.Inspector.Addr != DefaultAddr || !cfg.Metrics.Enabled {
		t.Errorf("partial file lost defaults: %+v", cfg)
	}
	if !cfg.Log.JSON {
		t.Error("Log.JSON not applied")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Load(t.TempDir())
		if !errors.HasCode(err, errors.CodeConfigRead) {
			t.Errorf("err = %v, want %s", err, errors.CodeConfigRead)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"animation": `))
		if !errors.HasCode(err, errors.CodeConfigParse) {
			t.Errorf("err = %v, want %s", err, errors.CodeConfigParse)
		}
	})
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), FileName)

	cfg, err := LoadOptional(missing, false)
	if err != nil || cfg.Animation.FPS != DefaultFPS {
		t.Errorf("implicit missing file: cfg=%+v err=%v", cfg, err)
	}

	if _, err := LoadOptional(missing, true); err == nil {
		t.Error("explicit missing file should fail")
	}

	if cfg, err := LoadOptional("", true); err != nil || cfg == nil {
		t.Errorf("empty path: cfg=%v err=%v", cfg, err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	err := cfg.ApplyEnv(map[string]string{
		"SKELLYVIEW_ADDR":            "0.0.0.0:7000",
		"SKELLYVIEW_FPS":             "120",
		"SKELLYVIEW_LOG_LEVEL":       "warn",
		"SKELLYVIEW_METRICS":         "false",
		"SKELLYVIEW_ALLOWED_ORIGINS": "http://localhost:5173,http://127.0.0.1:5173",
		"SKELLYVIEW_OTEL_ENDPOINT":   "http://localhost:4318",
	})
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Inspector.Addr != "0.0.0.0:7000" {
		t.Errorf("Addr = %q", cfg.Inspector.Addr)
	}
	if cfg.Animation.FPS != 120 {
		t.Errorf("FPS = %v", cfg.Animation.FPS)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics should be disabled")
	}
	if len(cfg.Inspector.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.Inspector.AllowedOrigins)
	}
	if cfg.Tracing.Endpoint != "http://localhost:4318" {
		t.Errorf("Tracing.Endpoint = %q", cfg.Tracing.Endpoint)
	}
	if cfg.Log.JSON || cfg.Animation.Autoplay {
		t.Error("unset variables changed the config")
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	err := New().ApplyEnv(map[string]string{"SKELLYVIEW_FPS": "fast"})
	if !errors.HasCode(err, errors.CodeConfigEnv) {
		t.Errorf("err = %v, want %s", err, errors.CodeConfigEnv)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero fps", func(c *Config) { c.Animation.FPS = 0 }, true},
		{"negative fps", func(c *Config) { c.Animation.FPS = -24 }, true},
		{"NaN fps", func(c *Config) { c.Animation.FPS = math.NaN() }, true},
		{"infinite fps", func(c *Config) { c.Animation.FPS = math.Inf(1) }, true},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"upper level", func(c *Config) { c.Log.Level = "ERROR" }, false},
		{"empty addr", func(c *Config) { c.Inspector.Addr = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.CodeConfigInvalid) {
				t.Errorf("err = %v, want %s", err, errors.CodeConfigInvalid)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := New()
	cfg.Animation.FPS = 24
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Animation.FPS != 24 {
		t.Errorf("FPS = %v, want 24", loaded.Animation.FPS)
	}

	loaded.Log.Level = "error"
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}
}

func TestSaveToMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", FileName)

	err := New().SaveTo(path)
	if !errors.HasCode(err, errors.CodeConfigWrite) {
		t.Errorf("err = %v, want %s", err, errors.CodeConfigWrite)
	}
}
