// Package config loads the agent configuration from defaults, an optional
// YAML file and BIBLY_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HendryAvila/bibly/internal/logging"
)

// EnvPrefix is prepended to every environment override, e.g.
// BIBLY_SERVER_PORT.
const EnvPrefix = "BIBLY"

// Config is the complete agent configuration.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Agent   AgentConfig    `mapstructure:"agent"`
	Source  SourceConfig   `mapstructure:"source"`
	Cache   CacheConfig    `mapstructure:"cache"`
	Logging logging.Config `mapstructure:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// CORSOrigin is the allowed browser origin ("*" for any).
	CORSOrigin string `mapstructure:"cors_origin"`
	// PublicURL is advertised in the agent card. Empty derives it from Port.
	PublicURL string `mapstructure:"public_url"`
}

// AgentConfig controls parsing and plan behaviour.
type AgentConfig struct {
	Name         string        `mapstructure:"name"`
	Version      string        `mapstructure:"version"`
	MaxDays      int           `mapstructure:"max_days"`
	DefaultDays  int           `mapstructure:"default_days"`
	DefaultTopic string        `mapstructure:"default_topic"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// NoPlanStyle is "completed" or "error".
	NoPlanStyle string `mapstructure:"no_plan_style"`
}

// SourceConfig controls the upstream verse search.
type SourceConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Bible         string        `mapstructure:"bible"`
	WholeWord     bool          `mapstructure:"whole_word"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// CacheConfig controls the on-disk content cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// DataDir holds the cache database. Empty keeps the cache in memory.
	DataDir string        `mapstructure:"data_dir"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigin:   "*",
		},
		Agent: AgentConfig{
			Name:         "Bibly",
			Version:      "1.0.0",
			MaxDays:      10,
			DefaultDays:  5,
			DefaultTopic: "faith",
			FetchTimeout: 15 * time.Second,
			NoPlanStyle:  "completed",
		},
		Source: SourceConfig{
			BaseURL:       "https://api.biblesupersearch.com",
			Bible:         "kjv",
			WholeWord:     true,
			Timeout:       10 * time.Second,
			RatePerSecond: 5,
			Burst:         5,
		},
		Cache: CacheConfig{
			Enabled: true,
			DataDir: DataDir(),
			TTL:     24 * time.Hour,
		},
		Logging: logging.Config{
			Level:  logging.LevelInfo,
			Format: logging.FormatJSON,
		},
	}
}

// SetDefaults registers every default on v so that env overrides and
// config files only need to name the keys they change.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	v.SetDefault("server.public_url", d.Server.PublicURL)

	v.SetDefault("agent.name", d.Agent.Name)
	v.SetDefault("agent.version", d.Agent.Version)
	v.SetDefault("agent.max_days", d.Agent.MaxDays)
	v.SetDefault("agent.default_days", d.Agent.DefaultDays)
	v.SetDefault("agent.default_topic", d.Agent.DefaultTopic)
	v.SetDefault("agent.fetch_timeout", d.Agent.FetchTimeout)
	v.SetDefault("agent.no_plan_style", d.Agent.NoPlanStyle)

	v.SetDefault("source.base_url", d.Source.BaseURL)
	v.SetDefault("source.bible", d.Source.Bible)
	v.SetDefault("source.whole_word", d.Source.WholeWord)
	v.SetDefault("source.timeout", d.Source.Timeout)
	v.SetDefault("source.rate_per_second", d.Source.RatePerSecond)
	v.SetDefault("source.burst", d.Source.Burst)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.data_dir", d.Cache.DataDir)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// BindEnv wires BIBLY_* overrides, plus the bare PORT variable hosting
// platforms set.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
}

// Load unmarshals v and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the configuration directory, honouring
// XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bibly")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bibly"
	}
	return filepath.Join(home, ".config", "bibly")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the default data directory (~/.bibly).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bibly"
	}
	return filepath.Join(home, ".bibly")
}
