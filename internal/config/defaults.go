// Package config provides configuration loading and defaults for precivox.
package config

import "github.com/romuloroldao/precivox/internal/suggest"

// DefaultConfigDir is the default location for precivox configuration.
const DefaultConfigDir = "~/.config/precivox"

// DefaultDBName is the filename for the SQLite history database.
const DefaultDBName = "precivox.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. PRECIVOX_REMOTE_URL.
const EnvPrefix = "PRECIVOX"

// DefaultAnalysis holds the default engine thresholds and tables.
var DefaultAnalysis = suggest.DefaultConfig()

// DefaultStaging holds the default progress display settings.
var DefaultStaging = Staging{
	Enabled:     true,
	PhaseMillis: 1200,
}

// DefaultRemote leaves the remote service disabled.
var DefaultRemote = Remote{
	TimeoutSeconds: 15,
}

// DefaultServer holds the default HTTP API settings.
var DefaultServer = Server{
	Addr:           ":8080",
	AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
	SessionTTL:     60,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultLogLevel is used when neither the config nor LOG_LEVEL sets one.
const DefaultLogLevel = "info"

// Default returns a Config with every default applied, as Load returns it
// when no file or environment override is present.
func Default() *Config {
	server := DefaultServer
	server.AllowedOrigins = append([]string(nil), DefaultServer.AllowedOrigins...)
	return &Config{
		Analysis: suggest.DefaultConfig(),
		Staging:  DefaultStaging,
		Remote:   DefaultRemote,
		Server:   server,
		Database: Database{Path: DBPath()},
		Output:   DefaultOutput,
		LogLevel: DefaultLogLevel,
	}
}
