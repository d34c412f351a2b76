// Package config loads catalog client settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abelbrown/catalog/internal/debounce"
)

// Config holds application configuration.
type Config struct {
	APIURL           string  `mapstructure:"api_url" json:"api_url"`
	Language         string  `mapstructure:"language" json:"language"`
	BasePath         string  `mapstructure:"base_path" json:"base_path"` // empty means /{language}/tool
	DebounceMs       int     `mapstructure:"debounce_ms" json:"debounce_ms"`
	RateLimitPerSec  float64 `mapstructure:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	RequestTimeoutMs int     `mapstructure:"request_timeout_ms" json:"request_timeout_ms"` // 0 means none
	HistoryDB        string  `mapstructure:"history_db" json:"history_db"`
	EventLog         string  `mapstructure:"event_log" json:"event_log"`
	MetricsAddr      string  `mapstructure:"metrics_addr" json:"metrics_addr"` // empty disables /metrics
}

// Dir returns the per-user state directory, ~/.catalog.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".catalog")
}

// Path returns the config file location. CATALOG_CONFIG overrides it.
func Path() string {
	if p := os.Getenv("CATALOG_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.json")
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("api_url", "http://localhost:8000/api")
	v.SetDefault("language", "en")
	v.SetDefault("base_path", "")
	v.SetDefault("debounce_ms", int(debounce.DefaultDelay/time.Millisecond))
	v.SetDefault("rate_limit_per_sec", 5.0)
	v.SetDefault("request_timeout_ms", 0)
	v.SetDefault("history_db", filepath.Join(Dir(), "history.db"))
	v.SetDefault("event_log", filepath.Join(Dir(), "events.jsonl"))
	v.SetDefault("metrics_addr", "")

	v.SetConfigType("json")
	v.SetEnvPrefix("CATALOG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads defaults, then the config file if present, then CATALOG_*
// environment variables. The result is validated.
func Load() (Config, error) {
	v := newViper()
	v.SetConfigFile(Path())

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c.Validate()
}

// Validate fills derived defaults, clamps tunables, and rejects settings
// the client cannot run with.
func (c Config) Validate() (Config, error) {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid api_url %q", c.APIURL)
	}

	c.Language = strings.TrimSpace(c.Language)
	if c.Language == "" {
		c.Language = "en"
	}
	if c.BasePath == "" {
		c.BasePath = "/" + c.Language + "/tool"
	}
	if c.HistoryDB == "" {
		c.HistoryDB = filepath.Join(Dir(), "history.db")
	}
	if c.EventLog == "" {
		c.EventLog = filepath.Join(Dir(), "events.jsonl")
	}

	c.DebounceMs = int(debounce.ClampDelay(time.Duration(c.DebounceMs)*time.Millisecond) / time.Millisecond)

	if c.RateLimitPerSec < 0 {
		c.RateLimitPerSec = 0
	}
	if c.RequestTimeoutMs < 0 {
		c.RequestTimeoutMs = 0
	}
	return c, nil
}

// Debounce returns the search input quiet period.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// RequestTimeout returns the HTTP client timeout; zero means none.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// Save writes cfg to Path, creating the directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("api_url", cfg.APIURL)
	v.Set("language", cfg.Language)
	v.Set("base_path", cfg.BasePath)
	v.Set("debounce_ms", cfg.DebounceMs)
	v.Set("rate_limit_per_sec", cfg.RateLimitPerSec)
	v.Set("request_timeout_ms", cfg.RequestTimeoutMs)
	v.Set("history_db", cfg.HistoryDB)
	v.Set("event_log", cfg.EventLog)
	v.Set("metrics_addr", cfg.MetricsAddr)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
