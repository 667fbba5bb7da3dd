// Package config loads the server configuration from a YAML file with
// environment variable overrides. Everything has a usable default so a
// bare `warden serve` works on a fresh machine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`
	// ScansDir is the folder the scanner drops CSV exports into; empty
	// disables the folder watcher.
	ScansDir string `yaml:"scans_dir"`
	// DefaultKingdom applies to scan files whose name carries no
	// kingdom number.
	DefaultKingdom int `yaml:"default_kingdom"`

	Auth   AuthConfig   `yaml:"auth"`
	Agent  AgentConfig  `yaml:"agent"`
	Titles TitlesConfig `yaml:"titles"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// AuthConfig holds the shared-secret header keys. Empty keys disable
// the corresponding check (useful for local development only).
type AuthConfig struct {
	BotKey   string `yaml:"bot_key"`
	OwnerKey string `yaml:"owner_key"`
}

// AgentConfig tunes agent liveness tracking.
type AgentConfig struct {
	// StalenessWindow is how long without a heartbeat before the agent
	// reports offline.
	StalenessWindow time.Duration `yaml:"-"`
}

// UnmarshalYAML decodes duration strings like "30s". Absent fields
// keep their defaults.
func (a *AgentConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		StalenessWindow string `yaml:"staleness_window"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return setDuration(&a.StalenessWindow, raw.StalenessWindow, "agent.staleness_window")
}

// TitlesConfig tunes the title queue.
type TitlesConfig struct {
	// RecycleAfter is how long an assignment may sit without an
	// outcome before take-next re-offers it.
	RecycleAfter time.Duration `yaml:"-"`
	// NotifyOnBanSkip surfaces auto-cancelled (banned mid-queue)
	// requests in the agent's take-next response so the requester can
	// be told why they were skipped.
	NotifyOnBanSkip bool `yaml:"notify_on_ban_skip"`
}

// UnmarshalYAML decodes duration strings like "5m". Absent fields
// keep their defaults.
func (t *TitlesConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		RecycleAfter    string `yaml:"recycle_after"`
		NotifyOnBanSkip *bool  `yaml:"notify_on_ban_skip"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.NotifyOnBanSkip != nil {
		t.NotifyOnBanSkip = *raw.NotifyOnBanSkip
	}
	return setDuration(&t.RecycleAfter, raw.RecycleAfter, "titles.recycle_after")
}

func setDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	*dst = d
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		DBPath:     "warden.db",
		LogLevel:   "info",
		Agent: AgentConfig{
			StalenessWindow: 15 * time.Second,
		},
		Titles: TitlesConfig{
			RecycleAfter: 180 * time.Second,
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides. A missing file at an explicitly given path is
// an error; the default path is allowed to be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WARDEN_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("WARDEN_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WARDEN_SCANS_DIR"); v != "" {
		cfg.ScansDir = v
	}
	if v := os.Getenv("WARDEN_DEFAULT_KINGDOM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultKingdom = n
		}
	}
	if v := os.Getenv("WARDEN_BOT_KEY"); v != "" {
		cfg.Auth.BotKey = v
	}
	if v := os.Getenv("WARDEN_OWNER_KEY"); v != "" {
		cfg.Auth.OwnerKey = v
	}
	if v := os.Getenv("WARDEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Agent.StalenessWindow <= 0 {
		return fmt.Errorf("agent.staleness_window must be positive")
	}
	if c.Titles.RecycleAfter <= 0 {
		return fmt.Errorf("titles.recycle_after must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
