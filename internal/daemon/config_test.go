package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 7780 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 7780)
	}
	if cfg.Ledger.Admin != "admin" {
		t.Errorf("Ledger.Admin = %q, want %q", cfg.Ledger.Admin, "admin")
	}
	if cfg.Ledger.DefaultTimeoutSecs != 86400 {
		t.Errorf("Ledger.DefaultTimeoutSecs = %d, want %d", cfg.Ledger.DefaultTimeoutSecs, 86400)
	}
	if !cfg.Sweeper.Enabled {
		t.Error("Sweeper.Enabled should default to true")
	}
	if cfg.Events.RedisEnabled {
		t.Error("Events.RedisEnabled should default to false")
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("AGENTPAY_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 7780 {
		t.Errorf("API.Port = %d, want default 7780", cfg.API.Port)
	}
}

func TestLoadConfig_PartialFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("AGENTPAY_HOME", home)

	raw := "[api]\nport = 9000\n\n[ledger]\nadmin = \"operator\"\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(raw), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.Ledger.Admin != "operator" {
		t.Errorf("Ledger.Admin = %q, want \"operator\"", cfg.Ledger.Admin)
	}
	// Untouched sections keep their defaults.
	if cfg.Ledger.DefaultTimeoutSecs != 86400 {
		t.Errorf("Ledger.DefaultTimeoutSecs = %d, want 86400", cfg.Ledger.DefaultTimeoutSecs)
	}
	if !cfg.Sweeper.Enabled {
		t.Error("Sweeper.Enabled should keep its default")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("AGENTPAY_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.Port = 8123
	cfg.Events.RedisEnabled = true
	cfg.Events.Channel = "escrow.live"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.API.Port != 8123 {
		t.Errorf("API.Port = %d, want 8123", loaded.API.Port)
	}
	if !loaded.Events.RedisEnabled {
		t.Error("Events.RedisEnabled should round-trip as true")
	}
	if loaded.Events.Channel != "escrow.live" {
		t.Errorf("Events.Channel = %q, want \"escrow.live\"", loaded.Events.Channel)
	}
}

func TestHome_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGENTPAY_HOME", dir)

	if got := Home(); got != dir {
		t.Errorf("Home() = %q, want %q", got, dir)
	}
}
