// Package config loads application settings from an optional YAML file and
// MEDIZ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/mediz/internal/stars"
	"github.com/abhisek/mediz/internal/tutor"
)

// Config holds the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Tutor    TutorConfig    `mapstructure:"tutor"`
	Stars    StarsConfig    `mapstructure:"stars"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	// Path to the SQLite file. Empty means the XDG data directory.
	Path string `mapstructure:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Mode string `mapstructure:"mode"` // development, production
}

// TutorConfig holds consultation settings.
type TutorConfig struct {
	HistoryWindow int    `mapstructure:"history_window"`
	FinalFeedback bool   `mapstructure:"final_feedback"`
	Locale        string `mapstructure:"locale"` // fr, en
}

// StarsConfig holds the star award policy.
type StarsConfig struct {
	CleanTurn      int `mapstructure:"clean_turn"`
	ErrorTurn      int `mapstructure:"error_turn"`
	Min            int `mapstructure:"min"`
	Max            int `mapstructure:"max"`
	LevelThreshold int `mapstructure:"level_threshold"`
}

// CacheConfig selects the session history cache.
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"` // memory, redis, none
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	p := stars.DefaultPolicy()
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Mode: "development"},
		Tutor: TutorConfig{
			HistoryWindow: tutor.DefaultConfig().HistoryWindow,
			FinalFeedback: true,
			Locale:        "fr",
		},
		Stars: StarsConfig{
			CleanTurn:      p.CleanTurnStars,
			ErrorTurn:      p.ErrorTurnStars,
			Min:            p.Min,
			Max:            p.Max,
			LevelThreshold: p.LevelThreshold,
		},
		Cache: CacheConfig{
			Backend:  "memory",
			RedisURL: "redis://localhost:6379/0",
			TTL:      time.Hour,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("tutor.history_window", d.Tutor.HistoryWindow)
	v.SetDefault("tutor.final_feedback", d.Tutor.FinalFeedback)
	v.SetDefault("tutor.locale", d.Tutor.Locale)
	v.SetDefault("stars.clean_turn", d.Stars.CleanTurn)
	v.SetDefault("stars.error_turn", d.Stars.ErrorTurn)
	v.SetDefault("stars.min", d.Stars.Min)
	v.SetDefault("stars.max", d.Stars.Max)
	v.SetDefault("stars.level_threshold", d.Stars.LevelThreshold)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("cache.ttl", d.Cache.TTL)
}

// Load reads configuration from configPath (optional) and the environment.
// Environment variables use the MEDIZ_ prefix with dots replaced by
// underscores, e.g. MEDIZ_SERVER_ADDR. MEDIZ_DB sets the database path.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MEDIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("database.path", "MEDIZ_DB", "MEDIZ_DATABASE_PATH")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("mediz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mediz")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("invalid cache backend: %s (must be memory, redis or none)", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url is required for the redis backend")
	}
	switch c.Tutor.Locale {
	case "fr", "en":
	default:
		return fmt.Errorf("invalid locale: %s (must be fr or en)", c.Tutor.Locale)
	}
	if c.Tutor.HistoryWindow <= 0 || c.Tutor.HistoryWindow > tutor.MaxHistoryWindow {
		return fmt.Errorf("tutor.history_window must be between 1 and %d, got %d",
			tutor.MaxHistoryWindow, c.Tutor.HistoryWindow)
	}
	if err := c.StarPolicy().Validate(); err != nil {
		return fmt.Errorf("stars: %w", err)
	}
	return nil
}

// StarPolicy returns the configured award policy.
func (c *Config) StarPolicy() stars.Policy {
	return stars.Policy{
		CleanTurnStars: c.Stars.CleanTurn,
		ErrorTurnStars: c.Stars.ErrorTurn,
		Min:            c.Stars.Min,
		Max:            c.Stars.Max,
		LevelThreshold: c.Stars.LevelThreshold,
	}
}

// TutorSettings returns the responder settings.
func (c *Config) TutorSettings() tutor.Config {
	cfg := tutor.DefaultConfig()
	cfg.ClosingKeywords = tutor.KeywordsForLocale(c.Tutor.Locale)
	cfg.HistoryWindow = c.Tutor.HistoryWindow
	return cfg
}
