// Package daemon manages the AgentPay daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Node      NodeConfig      `toml:"node"`
	API       APIConfig       `toml:"api"`
	Ledger    LedgerConfig    `toml:"ledger"`
	Events    EventsConfig    `toml:"events"`
	Sweeper   SweeperConfig   `toml:"sweeper"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// NodeConfig identifies this daemon instance.
type NodeConfig struct {
	// ID overrides the generated instance identity when set.
	ID string `toml:"id"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LedgerConfig controls the escrow ledger.
type LedgerConfig struct {
	Admin              string `toml:"admin"`
	DefaultTimeoutSecs int64  `toml:"default_timeout_secs"`
	MinTaskAmount      int64  `toml:"min_task_amount"`
	MaxTaskAmount      int64  `toml:"max_task_amount"`
}

// EventsConfig controls the Redis event relay.
type EventsConfig struct {
	RedisEnabled  bool   `toml:"redis_enabled"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Channel       string `toml:"channel"`
}

// SweeperConfig controls background timeout claims.
type SweeperConfig struct {
	Enabled      bool  `toml:"enabled"`
	IntervalSecs int64 `toml:"interval_secs"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7780,
		},
		Ledger: LedgerConfig{
			Admin:              "admin",
			DefaultTimeoutSecs: 86400,
			MinTaskAmount:      1,
			MaxTaskAmount:      1_000_000_000,
		},
		Events: EventsConfig{
			RedisEnabled: false,
			RedisAddr:    "127.0.0.1:6379",
			Channel:      "agentpay.events",
		},
		Sweeper: SweeperConfig{
			Enabled:      true,
			IntervalSecs: 30,
		},
		Telemetry: TelemetryConfig{
			Prometheus: false,
		},
	}
}

// LoadConfig reads config from $AGENTPAY_HOME/config.toml, falling
// back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(agentpayHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config to $AGENTPAY_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(agentpayHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// agentpayHome returns the AgentPay data directory.
func agentpayHome() string {
	if env := os.Getenv("AGENTPAY_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".agentpay")
}

// Home is exported for use by other packages.
func Home() string {
	return agentpayHome()
}
