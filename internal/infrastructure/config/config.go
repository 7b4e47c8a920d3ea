package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the VeSync bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bridge   BridgeConfig   `yaml:"bridge"`
	VeSync   VeSyncConfig   `yaml:"vesync"`
	Sync     SyncConfig     `yaml:"sync"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BridgeConfig contains bridge identity settings.
type BridgeConfig struct {
	// Name is the human-readable bridge name shown in logs and the status API.
	Name string `yaml:"name"`

	// Namespace seeds the deterministic accessory UUID derivation.
	// Changing it changes every accessory identity; leave it alone on a
	// paired installation.
	Namespace string `yaml:"namespace"`
}

// VeSyncConfig contains vendor cloud account and session settings.
type VeSyncConfig struct {
	// Simulate replaces the vendor cloud with the in-memory simulated
	// fleet. No credentials are required and no network calls are made.
	Simulate bool `yaml:"simulate"`

	// Username is the VeSync account email.
	Username string `yaml:"username"`

	// Password is the VeSync account password.
	Password string `yaml:"password"`

	// LoginFreshness is how long a successful login is trusted before
	// EnsureLogin performs a fresh network login (seconds).
	LoginFreshness int `yaml:"login_freshness"`

	// Backoff controls the login retry backoff window.
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig contains login backoff settings (seconds).
type BackoffConfig struct {
	// Base is the initial backoff after the first failed login.
	Base int `yaml:"base"`

	// Max is the hard ceiling for network-class failures.
	Max int `yaml:"max"`

	// AuthMax is the short ceiling applied to authentication-class
	// failures so recovery after a password fix is fast.
	AuthMax int `yaml:"auth_max"`
}

// SyncConfig contains polling and write-path settings.
type SyncConfig struct {
	// Interval is the periodic sync interval (seconds).
	Interval int `yaml:"interval"`

	// BatchSize is how many accessories sync concurrently per batch.
	BatchSize int `yaml:"batch_size"`

	// BatchDelay is the fixed pause between batches (milliseconds).
	BatchDelay int `yaml:"batch_delay"`

	// SettleDelay is the wait after power-on before a speed command is
	// issued (milliseconds). Several device families reject speed
	// commands until power is confirmed on.
	SettleDelay int `yaml:"settle_delay"`

	// MaxRetries is the per-call retry budget for transient failures.
	MaxRetries int `yaml:"max_retries"`
}

// DatabaseConfig contains SQLite accessory-context store settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
// The broker is optional; state eventing is skipped when disabled.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
// Telemetry is optional; sample writes are skipped when disabled.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains status API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: VESYNC_SECTION_KEY
// For example: VESYNC_ACCOUNT_PASSWORD, VESYNC_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Name:      "VeSync Bridge",
			Namespace: "vesync-bridge",
		},
		VeSync: VeSyncConfig{
			LoginFreshness: 300,
			Backoff: BackoffConfig{
				Base:    5,
				Max:     300,
				AuthMax: 30,
			},
		},
		Sync: SyncConfig{
			Interval:    60,
			BatchSize:   2,
			BatchDelay:  500,
			SettleDelay: 750,
			MaxRetries:  3,
		},
		Database: DatabaseConfig{
			Path:        "./data/vesyncbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "vesync-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8522,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: VESYNC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Account credentials (the usual way to keep them out of the file)
	if v := os.Getenv("VESYNC_ACCOUNT_USERNAME"); v != "" {
		cfg.VeSync.Username = v
	}
	if v := os.Getenv("VESYNC_ACCOUNT_PASSWORD"); v != "" {
		cfg.VeSync.Password = v
	}

	// Database
	if v := os.Getenv("VESYNC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Sync
	if v := os.Getenv("VESYNC_SYNC_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sync.Interval = n
		}
	}

	// MQTT
	if v := os.Getenv("VESYNC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("VESYNC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("VESYNC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("VESYNC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("VESYNC_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Account validation - without credentials the session manager can
	// never log in, so fail at startup rather than at the first tick.
	// The simulated fleet needs no account.
	if !c.VeSync.Simulate {
		if c.VeSync.Username == "" {
			errs = append(errs, "vesync.username is required (set VESYNC_ACCOUNT_USERNAME environment variable)")
		}
		if c.VeSync.Password == "" {
			errs = append(errs, "vesync.password is required (set VESYNC_ACCOUNT_PASSWORD environment variable)")
		}
	}

	// Backoff validation
	if c.VeSync.Backoff.Base < 1 {
		errs = append(errs, "vesync.backoff.base must be at least 1 second")
	}
	if c.VeSync.Backoff.Max < c.VeSync.Backoff.Base {
		errs = append(errs, "vesync.backoff.max must not be below vesync.backoff.base")
	}
	if c.VeSync.Backoff.AuthMax < c.VeSync.Backoff.Base {
		errs = append(errs, "vesync.backoff.auth_max must not be below vesync.backoff.base")
	}

	// Sync validation
	if c.Sync.Interval < 10 {
		errs = append(errs, "sync.interval must be at least 10 seconds (the vendor API rate-limits aggressive pollers)")
	}
	if c.Sync.BatchSize < 1 {
		errs = append(errs, "sync.batch_size must be at least 1")
	}
	if c.Sync.MaxRetries < 1 {
		errs = append(errs, "sync.max_retries must be at least 1")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set VESYNC_INFLUXDB_TOKEN environment variable)")
		}
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LoginFreshness returns the session freshness window as a Duration.
func (c *Config) LoginFreshness() time.Duration {
	return time.Duration(c.VeSync.LoginFreshness) * time.Second
}

// BackoffBase returns the initial login backoff as a Duration.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.VeSync.Backoff.Base) * time.Second
}

// BackoffMaxDuration returns the network-failure backoff ceiling as a Duration.
func (c *Config) BackoffMaxDuration() time.Duration {
	return time.Duration(c.VeSync.Backoff.Max) * time.Second
}

// BackoffAuthMaxDuration returns the auth-failure backoff ceiling as a Duration.
func (c *Config) BackoffAuthMaxDuration() time.Duration {
	return time.Duration(c.VeSync.Backoff.AuthMax) * time.Second
}

// SyncInterval returns the periodic sync interval as a Duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.Interval) * time.Second
}

// BatchDelay returns the inter-batch pause as a Duration.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Sync.BatchDelay) * time.Millisecond
}

// SettleDelay returns the post-power-on settle delay as a Duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Sync.SettleDelay) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
