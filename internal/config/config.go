// Package config loads the server configuration from defaults, an optional
// YAML file and STEPFORM_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/gabrielmiguelok/stepform/pkg/security"
	"github.com/gabrielmiguelok/stepform/pkg/stepform"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STEPFORM_"

// Validation errors.
var (
	ErrEmptyAddress      = errors.New("address must not be empty")
	ErrInvalidBreakpoint = errors.New("mobile_breakpoint must be positive")
	ErrUnknownCodec      = errors.New("codec must be one of phoenix, json, msgpack")
	ErrInvalidTimeout    = errors.New("timeouts must be positive")
	ErrNegativeLimit     = errors.New("limits must not be negative")
	ErrInvalidColor      = errors.New("colors must map a palette name to a hex color")
)

var (
	colorName  = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	colorValue = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
)

// Config is the server configuration.
type Config struct {
	Address  string `yaml:"address" env:"ADDRESS"`
	Debug    bool   `yaml:"debug" env:"DEBUG"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"LOG_JSON"`

	// AllowedOrigins lists extra origins allowed to open the live socket.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	// Codec is the wire format used when the client does not pick one.
	Codec       string `yaml:"codec" env:"CODEC"`
	MaxSessions int    `yaml:"max_sessions" env:"MAX_SESSIONS"`

	// MaxConnsPerIP caps live connections per client address; 0 disables.
	MaxConnsPerIP int `yaml:"max_conns_per_ip" env:"MAX_CONNS_PER_IP"`

	// EventRate is the sustained events per second one connection may
	// send, EventBurst the bucket size. A zero rate disables the limit.
	EventRate  float64 `yaml:"event_rate" env:"EVENT_RATE"`
	EventBurst int     `yaml:"event_burst" env:"EVENT_BURST"`

	MobileBreakpoint int `yaml:"mobile_breakpoint" env:"MOBILE_BREAKPOINT"`

	// Title is plain text. Subtitle may carry inline formatting.
	Title    string `yaml:"title" env:"TITLE"`
	Subtitle string `yaml:"subtitle" env:"SUBTITLE"`

	// Colors overrides palette entries, e.g. primary: "#0b5fff".
	Colors map[string]string `yaml:"colors" env:"COLORS"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	PingInterval    time.Duration `yaml:"ping_interval" env:"PING_INTERVAL"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Address:          ":8080",
		LogLevel:         "info",
		Codec:            "phoenix",
		MaxSessions:      10000,
		MaxConnsPerIP:    20,
		EventRate:        30,
		EventBurst:       60,
		MobileBreakpoint: stepform.DefaultBreakpoint,
		Title:            "Registrazione",
		Subtitle:         "Completa i tre passaggi per creare il tuo profilo",
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
		ShutdownTimeout:  15 * time.Second,
	}
}

// Load builds the configuration. An empty path or a missing file leaves the
// defaults in place before environment overrides are applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv applies STEPFORM_* environment variables to target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Codec = strings.ToLower(strings.TrimSpace(c.Codec))
	c.Title = security.StripTags(c.Title)
	c.Subtitle = security.SanitizeInline(c.Subtitle)
	if c.Debug {
		c.LogLevel = "debug"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return ErrEmptyAddress
	}
	if c.MobileBreakpoint <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBreakpoint, c.MobileBreakpoint)
	}
	switch c.Codec {
	case "phoenix", "json", "msgpack":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCodec, c.Codec)
	}
	if c.MaxSessions < 0 || c.MaxConnsPerIP < 0 || c.EventRate < 0 || c.EventBurst < 0 {
		return ErrNegativeLimit
	}
	for name, value := range c.Colors {
		if !colorName.MatchString(name) || !colorValue.MatchString(value) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidColor, name, value)
		}
	}
	for _, d := range []time.Duration{c.ReadTimeout, c.WriteTimeout, c.PingInterval, c.ShutdownTimeout} {
		if d <= 0 {
			return ErrInvalidTimeout
		}
	}
	return nil
}
