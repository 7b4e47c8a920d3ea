// VeSync Bridge - Device State Synchronization Layer
//
// This is the main entry point for the VeSync bridge. It mirrors a
// fleet of VeSync smart-home devices (air purifiers, humidifiers, fans,
// bulbs, outlets, switches) into a uniform accessory/characteristic
// model, publishes retained state over MQTT, records telemetry history
// in InfluxDB, and serves a read-only status API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ashvale/vesync-bridge/migrations"

	"github.com/ashvale/vesync-bridge/internal/accessory"
	"github.com/ashvale/vesync-bridge/internal/api"
	"github.com/ashvale/vesync-bridge/internal/bridge"
	"github.com/ashvale/vesync-bridge/internal/classify"
	"github.com/ashvale/vesync-bridge/internal/infrastructure/config"
	"github.com/ashvale/vesync-bridge/internal/infrastructure/database"
	"github.com/ashvale/vesync-bridge/internal/infrastructure/influxdb"
	"github.com/ashvale/vesync-bridge/internal/infrastructure/logging"
	"github.com/ashvale/vesync-bridge/internal/infrastructure/mqtt"
	"github.com/ashvale/vesync-bridge/internal/session"
	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting VeSync bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the accessory-context database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Vendor client
	client, err := buildVendorClient(cfg, log)
	if err != nil {
		return err
	}

	// Session manager owns login state and backoff
	sess := session.New(client, session.Config{
		Freshness:      cfg.LoginFreshness(),
		BackoffBase:    cfg.BackoffBase(),
		BackoffMax:     cfg.BackoffMaxDuration(),
		BackoffAuthMax: cfg.BackoffAuthMaxDuration(),
	}, log)

	// Accessory model: classifier, registry, persistent context store
	classifier := classify.NewClassifier(log)
	registry := accessory.NewRegistry()
	store := accessory.NewSQLiteStore(db)
	ns := accessory.Namespace(cfg.Bridge.Namespace)

	reconciler := bridge.NewReconciler(ns, classifier, registry, store, log)

	// Optional eventing surfaces
	var messages bridge.MessageSink
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		messages = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	var telemetry bridge.TelemetrySink
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		telemetry = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	events := bridge.NewEvents(messages, telemetry, log)

	// Sync engine and platform loop
	retry := bridge.NewRetryPolicy(cfg.Sync.MaxRetries, log)
	syncer := bridge.NewSynchronizer(sess, retry, cfg.SettleDelay(), events, log)

	platform := bridge.NewPlatform(bridge.PlatformConfig{
		SyncInterval: cfg.SyncInterval(),
		BatchSize:    cfg.Sync.BatchSize,
		BatchDelay:   cfg.BatchDelay(),
	}, client, sess, reconciler, syncer, registry, store, log)

	// Inbound MQTT commands drive characteristic writes
	if mqttClient != nil {
		if err := subscribeCommands(ctx, mqttClient, platform, log); err != nil {
			return fmt.Errorf("subscribing to command topics: %w", err)
		}
	}

	// Status API (optional)
	if cfg.API.Enabled {
		checks := map[string]api.HealthChecker{"database": db}
		if mqttClient != nil {
			checks["mqtt"] = mqttClient
		}
		if influxClient != nil {
			checks["influxdb"] = influxClient
		}

		apiServer, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			Logger:     log,
			Platform:   platform,
			BridgeName: cfg.Bridge.Name,
			Version:    version,
			Checks:     checks,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("status API disabled")
	}

	// Run the platform loop; it performs the initial login, inventory
	// fetch, reconciliation, and first sync pass before ticking.
	errCh := make(chan error, 1)
	go func() {
		errCh <- platform.Run(ctx)
	}()

	if err := platform.WaitReady(ctx); err != nil {
		return fmt.Errorf("platform initialisation: %w", err)
	}
	log.Info("initialisation complete, bridge running",
		"accessories", len(platform.Bindings()),
	)

	// Wait for shutdown signal or a platform failure
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("platform stopped: %w", err)
		}
		log.Info("platform loop stopped, cleaning up")
	}

	log.Info("VeSync bridge stopped")
	return nil
}

// buildVendorClient selects the vendor cloud client implementation.
//
// The simulated fleet is the only transport shipped in this repository;
// the real cloud transport is an external collaborator wired in through
// the vesync.Client interface.
func buildVendorClient(cfg *config.Config, log *logging.Logger) (vesync.Client, error) {
	if cfg.VeSync.Simulate {
		log.Info("using simulated vendor fleet")
		return vesync.NewSimClient(), nil
	}
	return nil, fmt.Errorf("no vendor transport available: set vesync.simulate or link a vesync.Client implementation")
}

// subscribeCommands routes inbound MQTT command messages to accessory
// characteristic writes. The payload is a bare JSON value: booleans for
// on, numbers for rotation speed and brightness.
func subscribeCommands(ctx context.Context, mqttClient *mqtt.Client, platform *bridge.Platform, log *logging.Logger) error {
	return mqttClient.SubscribeCommands(func(id, characteristic string, payload []byte) error {
		var value any
		if err := json.Unmarshal(payload, &value); err != nil {
			return fmt.Errorf("decoding command payload for %s/%s: %w", id, characteristic, err)
		}

		for _, b := range platform.Bindings() {
			if b.UUID != id {
				continue
			}
			c, ok := b.Accessory.Characteristic(accessory.Type(characteristic))
			if !ok {
				return fmt.Errorf("accessory %s has no characteristic %q", id, characteristic)
			}
			if err := c.Set(ctx, value); err != nil {
				log.Warn("command failed",
					"accessory", id,
					"characteristic", characteristic,
					"error", err,
				)
				return err
			}
			return nil
		}
		return fmt.Errorf("no accessory with id %s", id)
	})
}

// getConfigPath returns the configuration file path.
// Uses VESYNC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("VESYNC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
