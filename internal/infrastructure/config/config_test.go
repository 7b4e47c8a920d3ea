package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

const validConfig = `
bridge:
  name: "Test Bridge"
vesync:
  username: "user@example.com"
  password: "hunter2"
  login_freshness: 120
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
sync:
  interval: 30
  batch_size: 2
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.VeSync.Username != "user@example.com" {
		t.Errorf("VeSync.Username = %q, want %q", cfg.VeSync.Username, "user@example.com")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Sync.Interval != 30 {
		t.Errorf("Sync.Interval = %d, want 30", cfg.Sync.Interval)
	}
	// Defaults survive a partial file
	if cfg.Sync.MaxRetries != 3 {
		t.Errorf("Sync.MaxRetries = %d, want default 3", cfg.Sync.MaxRetries)
	}
	if cfg.VeSync.Backoff.Base != 5 {
		t.Errorf("VeSync.Backoff.Base = %d, want default 5", cfg.VeSync.Backoff.Base)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for missing credentials, got nil")
	}
}

func TestLoad_SimulateSkipsCredentials(t *testing.T) {
	content := `
vesync:
  simulate: true

database:
  path: "/tmp/test.db"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() with simulate = %v, credentials should not be required", err)
	}
	if !cfg.VeSync.Simulate {
		t.Error("VeSync.Simulate should be true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VESYNC_ACCOUNT_PASSWORD", "env-password")
	t.Setenv("VESYNC_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("VESYNC_SYNC_INTERVAL", "45")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.VeSync.Password != "env-password" {
		t.Errorf("VeSync.Password = %q, want env override", cfg.VeSync.Password)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Sync.Interval != 45 {
		t.Errorf("Sync.Interval = %d, want env override 45", cfg.Sync.Interval)
	}
}

func TestValidate_BackoffOrdering(t *testing.T) {
	tests := []struct {
		name    string
		backoff BackoffConfig
		wantErr bool
	}{
		{"valid", BackoffConfig{Base: 5, Max: 300, AuthMax: 30}, false},
		{"max below base", BackoffConfig{Base: 60, Max: 30, AuthMax: 60}, true},
		{"auth max below base", BackoffConfig{Base: 60, Max: 300, AuthMax: 5}, true},
		{"zero base", BackoffConfig{Base: 0, Max: 300, AuthMax: 30}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.VeSync.Username = "u"
			cfg.VeSync.Password = "p"
			cfg.VeSync.Backoff = tt.backoff

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InfluxRequiresTokenWhenEnabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.VeSync.Username = "u"
	cfg.VeSync.Password = "p"
	cfg.InfluxDB.Enabled = true
	cfg.InfluxDB.URL = "http://localhost:8086"

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for enabled influxdb without token, got nil")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := defaultConfig()
	cfg.VeSync.LoginFreshness = 120
	cfg.Sync.Interval = 30
	cfg.Sync.BatchDelay = 250
	cfg.Sync.SettleDelay = 750

	if got := cfg.LoginFreshness(); got != 120*time.Second {
		t.Errorf("LoginFreshness() = %v, want 120s", got)
	}
	if got := cfg.SyncInterval(); got != 30*time.Second {
		t.Errorf("SyncInterval() = %v, want 30s", got)
	}
	if got := cfg.BatchDelay(); got != 250*time.Millisecond {
		t.Errorf("BatchDelay() = %v, want 250ms", got)
	}
	if got := cfg.SettleDelay(); got != 750*time.Millisecond {
		t.Errorf("SettleDelay() = %v, want 750ms", got)
	}
}
