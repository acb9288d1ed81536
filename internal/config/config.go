package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/romuloroldao/precivox/internal/suggest"
)

// Config is the top-level precivox configuration.
type Config struct {
	Analysis suggest.Config `mapstructure:"analysis"`
	Staging  Staging        `mapstructure:"staging"`
	Remote   Remote         `mapstructure:"remote"`
	Server   Server         `mapstructure:"server"`
	Database Database       `mapstructure:"database"`
	Output   Output         `mapstructure:"output"`
	LogLevel string         `mapstructure:"log_level"`
}

// Staging controls the progress phases shown while a list is analyzed.
type Staging struct {
	Enabled     bool `mapstructure:"enabled"`
	PhaseMillis int  `mapstructure:"phase_millis"`
}

// PhaseDuration returns the configured length of one phase.
func (s Staging) PhaseDuration() time.Duration {
	return time.Duration(s.PhaseMillis) * time.Millisecond
}

// Remote configures the optional external analysis service. An empty URL
// disables it.
type Remote struct {
	URL            string `mapstructure:"url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the request timeout.
func (r Remote) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// Server configures the HTTP API.
type Server struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// SessionTTL is the idle time in minutes after which a session is closed.
	SessionTTL int `mapstructure:"session_ttl_minutes"`
}

// Database configures the history store.
type Database struct {
	Path string `mapstructure:"path"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies PRECIVOX_* environment overrides, and returns a Config with all
// defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	a := DefaultAnalysis
	v.SetDefault("analysis.min_savings_threshold", a.MinSavingsThreshold)
	v.SetDefault("analysis.max_suggestions", a.MaxSuggestions)
	v.SetDefault("analysis.max_store_switches", a.MaxStoreSwitches)
	v.SetDefault("analysis.max_quantity_changes", a.MaxQuantityChanges)
	v.SetDefault("analysis.max_complements", a.MaxComplements)
	v.SetDefault("analysis.cheap_price_ratio", a.CheapPriceRatio)
	v.SetDefault("analysis.keep_stores", a.KeepStores)
	v.SetDefault("analysis.minutes_per_store", a.MinutesPerStore)
	v.SetDefault("analysis.fuel_cost_per_store", a.FuelCostPerStore)
	v.SetDefault("analysis.fuel_cost_per_km", a.FuelCostPerKm)
	v.SetDefault("analysis.route_distance_factor", a.RouteDistanceFactor)
	v.SetDefault("staging.enabled", DefaultStaging.Enabled)
	v.SetDefault("staging.phase_millis", DefaultStaging.PhaseMillis)
	v.SetDefault("remote.url", DefaultRemote.URL)
	v.SetDefault("remote.api_key", DefaultRemote.APIKey)
	v.SetDefault("remote.timeout_seconds", DefaultRemote.TimeoutSeconds)
	v.SetDefault("server.addr", DefaultServer.Addr)
	v.SetDefault("server.allowed_origins", DefaultServer.AllowedOrigins)
	v.SetDefault("server.session_ttl_minutes", DefaultServer.SessionTTL)
	v.SetDefault("database.path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// A missing config file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Tables are only replaced as a whole.
	if len(cfg.Analysis.AlternativeStores) == 0 {
		cfg.Analysis.AlternativeStores = append([]suggest.StoreProfile(nil), suggest.DefaultStores...)
	}
	if len(cfg.Analysis.ComplementCatalog) == 0 {
		cfg.Analysis.ComplementCatalog = append([]suggest.Complement(nil), suggest.DefaultComplements...)
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot work with.
func (c *Config) Validate() error {
	a := c.Analysis
	switch {
	case a.MinSavingsThreshold < 0:
		return fmt.Errorf("analysis.min_savings_threshold must not be negative")
	case a.MaxSuggestions < 1:
		return fmt.Errorf("analysis.max_suggestions must be at least 1")
	case a.KeepStores < 1:
		return fmt.Errorf("analysis.keep_stores must be at least 1")
	case a.CheapPriceRatio <= 0 || a.CheapPriceRatio > 1:
		return fmt.Errorf("analysis.cheap_price_ratio must be in (0, 1]")
	}
	for _, s := range a.AlternativeStores {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("analysis.alternative_stores: store without a name")
		}
		if s.BulkRate < 0 || s.BulkRate >= 1 || s.GeneralRate < 0 || s.GeneralRate >= 1 {
			return fmt.Errorf("analysis.alternative_stores: %s: rates must be in [0, 1)", s.Name)
		}
	}
	return nil
}

// DBPath returns the default full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
