// Package config loads and merges the server configuration from environment
// variables, command-line flags, an optional JSON file, and built-in
// defaults.
package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the moonsync
// server. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, an optional JSON
// file, and defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the credential hash cost
	// and the application version.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for all persistence backends: the account
	// database and the archive file store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address, timeout, and rate-limit settings for
	// the HTTP server.
	Server Server `envPrefix:"SERVER_"`

	// Sync holds settings of the synchronization engine itself.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged under the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// BcryptCost is the bcrypt cost factor applied when hashing account
	// credentials. Higher is slower and stronger.
	// Env: APP_BCRYPT_COST
	BcryptCost int `env:"BCRYPT_COST"`

	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// DB holds the account database connection settings.
	DB DB `envPrefix:"DB_"`

	// Archives holds the file-system settings for persisted archives.
	Archives Archives `envPrefix:"ARCHIVES_"`
}

// DB holds connection settings for the account database backend.
type DB struct {
	// DSN selects the backend: a "postgres://" URI connects through pgx,
	// anything else is treated as a SQLite file path.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Archives holds file-system settings for the archive store.
type Archives struct {
	// Dir is the directory where account archive containers are stored,
	// one file per account.
	// Env: STORAGE_ARCHIVES_DIR
	Dir string `env:"DIR"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens,
	// in "host:port" format.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// RateLimitRPS is the per-client request rate allowed on credential
	// endpoints, in requests per second.
	// Env: SERVER_RATE_LIMIT_RPS
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS"`

	// RateLimitBurst is the burst size of the per-client rate limiter.
	// Env: SERVER_RATE_LIMIT_BURST
	RateLimitBurst int `env:"RATE_LIMIT_BURST"`
}

// Sync holds settings of the synchronization engine.
type Sync struct {
	// MaxDeltaSize is the maximum accepted size, in bytes, of an uploaded
	// delta container (encoded and decoded). Zero disables the cap.
	// Env: SYNC_MAX_DELTA_SIZE
	MaxDeltaSize int64 `env:"MAX_DELTA_SIZE"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (first source wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}

// defaults returns the built-in fallback configuration, merged in with the
// lowest priority.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			BcryptCost: 11,
		},
		Storage: Storage{
			DB:       DB{DSN: "accounts.db"},
			Archives: Archives{Dir: "userfiles"},
		},
		Server: Server{
			HTTPAddress:    ":39999",
			RequestTimeout: 60 * time.Second,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Sync: Sync{
			MaxDeltaSize: 64 << 20,
		},
	}
}
