package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stepform.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults changed by Load (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address != ":8080" {
		t.Errorf("Address = %q", cfg.Address)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeFile(t, `
address: ":9000"
codec: MsgPack
mobile_breakpoint: 768
allowed_origins: ["https://a.example"]
read_timeout: 90s
title: "Iscriviti <script>x</script>"
colors:
  primary: "#0b5fff"
subtitle: "Solo <strong>tre</strong> passi<img src=x onerror=alert(1)>"
`)
	t.Setenv("STEPFORM_ADDRESS", ":9100")
	t.Setenv("STEPFORM_ALLOWED_ORIGINS", "https://b.example,https://c.example")
	t.Setenv("STEPFORM_COLORS", "primary:#112233,error:#f00")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Address != ":9100" {
		t.Errorf("Address = %q, env should win", cfg.Address)
	}
	if cfg.Codec != "msgpack" {
		t.Errorf("Codec = %q", cfg.Codec)
	}
	if cfg.MobileBreakpoint != 768 {
		t.Errorf("MobileBreakpoint = %d", cfg.MobileBreakpoint)
	}
	if cfg.ReadTimeout != 90*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.ReadTimeout)
	}
	if diff := cmp.Diff([]string{"https://b.example", "https://c.example"}, cfg.AllowedOrigins); diff != "" {
		t.Errorf("AllowedOrigins (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"primary": "#112233", "error": "#f00"}, cfg.Colors); diff != "" {
		t.Errorf("Colors (-want +got):\n%s", diff)
	}
	if cfg.Title != "Iscriviti" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Subtitle != "Solo <strong>tre</strong> passi" {
		t.Errorf("Subtitle = %q", cfg.Subtitle)
	}
}

func TestLoad_DebugRaisesLogLevel(t *testing.T) {
	t.Setenv("STEPFORM_DEBUG", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeFile(t, "address: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("STEPFORM_MOBILE_BREAKPOINT", "wide")
	if _, err := Load(""); err == nil {
		t.Error("expected env parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"ok", func(*Config) {}, nil},
		{"empty address", func(c *Config) { c.Address = " " }, ErrEmptyAddress},
		{"zero breakpoint", func(c *Config) { c.MobileBreakpoint = 0 }, ErrInvalidBreakpoint},
		{"negative breakpoint", func(c *Config) { c.MobileBreakpoint = -1 }, ErrInvalidBreakpoint},
		{"unknown codec", func(c *Config) { c.Codec = "xml" }, ErrUnknownCodec},
		{"zero timeout", func(c *Config) { c.WriteTimeout = 0 }, ErrInvalidTimeout},
		{"negative event rate", func(c *Config) { c.EventRate = -1 }, ErrNegativeLimit},
		{"negative per ip", func(c *Config) { c.MaxConnsPerIP = -1 }, ErrNegativeLimit},
		{"hex color", func(c *Config) { c.Colors = map[string]string{"primary": "#0b5fff"} }, nil},
		{"css in color", func(c *Config) { c.Colors = map[string]string{"primary": "red;}body{display:none"} }, ErrInvalidColor},
		{"bad color name", func(c *Config) { c.Colors = map[string]string{"Primary:": "#fff"} }, ErrInvalidColor},
		{"limits disabled", func(c *Config) { c.EventRate, c.MaxConnsPerIP, c.MaxSessions = 0, 0, 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
