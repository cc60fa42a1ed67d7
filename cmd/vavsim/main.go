// VAV Simulator - Virtual Field Device
//
// This is the main entry point for the VAV simulator. It stands up a
// virtual variable-air-volume terminal unit: a typed point set with
// priority-array command arbitration, a tick-based behaviour engine with a
// coupled thermal model, and MQTT/REST/WebSocket surfaces for bench tooling
// to observe and command it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/vav-sim-core/migrations"

	"github.com/nerrad567/vav-sim-core/internal/api"
	"github.com/nerrad567/vav-sim-core/internal/bridge"
	"github.com/nerrad567/vav-sim-core/internal/infrastructure/config"
	"github.com/nerrad567/vav-sim-core/internal/infrastructure/database"
	"github.com/nerrad567/vav-sim-core/internal/infrastructure/logging"
	"github.com/nerrad567/vav-sim-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vav-sim-core/internal/ingest"
	"github.com/nerrad567/vav-sim-core/internal/point"
	"github.com/nerrad567/vav-sim-core/internal/sim"
	"github.com/nerrad567/vav-sim-core/internal/store"
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
	rollback := flag.Bool("rollback", false, "roll back the most recent database migration and exit")
	flag.Parse()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *rollback {
		if err := rollbackMigration(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rollbackMigration reverts the most recently applied migration. It is a
// maintenance entry point: open the database, roll back, report, exit.
func rollbackMigration(ctx context.Context) error {
	log := logging.Default()

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read path is done once rollback returns

	if err := db.MigrateDown(ctx); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	log.Info("migration rolled back",
		"path", cfg.Database.Path,
		"applied", len(applied),
		"pending", len(pending),
	)
	return nil
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting VAV simulator",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration. A missing file is fine: the simulator runs on
	// defaults plus environment overrides.
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

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database", "open_connections", db.Stats().OpenConnections)
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	applied, pending, statusErr := db.GetMigrationStatus(ctx)
	if statusErr != nil {
		return fmt.Errorf("reading migration status: %w", statusErr)
	}
	log.Info("database migrations complete",
		"applied", len(applied),
		"pending", len(pending),
	)

	repo := store.NewSQLiteRepository(db)

	// Resolve the point set: CSV file, persisted definitions, or the
	// built-in VAV device.
	specs, err := resolveSpecs(ctx, cfg, repo, log)
	if err != nil {
		return fmt.Errorf("resolving point definitions: %w", err)
	}

	buildOpts := []point.BuildOption{point.WithLogger(log)}
	if !cfg.Points.Placeholders {
		buildOpts = append(buildOpts, point.WithoutPlaceholders())
	}
	registry, err := point.BuildRegistry(specs, buildOpts...)
	if err != nil {
		return fmt.Errorf("building point registry: %w", err)
	}
	stats := registry.GetStats()
	log.Info("point registry initialised",
		"points", stats.TotalPoints,
		"commandable", stats.Commandable,
		"placeholders", stats.Placeholders,
	)

	// With persistence on, resume each point from its last stored value so
	// a restart does not snap the simulation back to initial conditions.
	if cfg.Points.Persist {
		if restoreErr := restoreValues(ctx, repo, registry, log); restoreErr != nil {
			log.Warn("restoring persisted values failed", "error", restoreErr)
		}
	}

	// WebSocket hub is shared between the API server and the engine's
	// update fan-out, so REST clients see engine ticks and vice versa.
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Connect to MQTT broker (optional)
	var mqttBridge *bridge.Bridge
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		var connectErr error
		mqttClient, connectErr = mqtt.Connect(cfg.MQTT)
		if connectErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connectErr)
		}
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

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		mqttBridge = bridge.New(mqttClient, registry,
			bridge.WithLogger(log),
			bridge.WithQoS(byte(cfg.MQTT.QoS)),
		)
	} else {
		log.Info("MQTT disabled")
	}

	// propagate pushes an applied point change to MQTT and the store.
	// The API server broadcasts to its hub itself, so REST-driven changes
	// use propagate alone; engine ticks add the hub broadcast.
	propagate := func(snap point.Snapshot) {
		if mqttBridge != nil {
			if pubErr := mqttBridge.PublishUpdate(snap); pubErr != nil {
				log.Warn("state publish failed", "point", snap.Name, "error", pubErr)
			}
		}
		if cfg.Points.Persist {
			upErr := repo.UpsertValue(ctx, snap.Name, snap.Value.Float(), snap.ActiveSlot)
			// Synthesised placeholders are not part of the persisted spec
			// set, so a missing row is expected for them.
			if upErr != nil && !errors.Is(upErr, store.ErrPointNotFound) {
				log.Warn("value persistence failed", "point", snap.Name, "error", upErr)
			}
		}
	}

	engine := sim.New(cfg.Simulation, registry,
		sim.WithLogger(log),
		sim.WithOnUpdate(func(snap point.Snapshot) {
			propagate(snap)
			hub.Broadcast(api.ChannelPointState, snap)
		}),
	)

	// Dependency probes surfaced through /health.
	checks := []api.HealthProbe{
		{Name: "database", Check: db.HealthCheck},
	}
	if mqttClient != nil {
		checks = append(checks, api.HealthProbe{Name: "mqtt", Check: mqttClient.HealthCheck})
	}

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Registry:    registry,
		OnUpdate:    propagate,
		ExternalHub: hub,
		Checks:      checks,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Publish the inventory and subscribe to write commands
	if mqttBridge != nil {
		if startErr := mqttBridge.Start(); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
	}

	log.Info("initialisation complete, simulation running",
		"device_id", cfg.Device.ID,
		"device_name", cfg.Device.Name,
		"step", cfg.Step(),
	)

	// The engine runs in the foreground; it returns nil when the shutdown
	// signal cancels the context, and the deferred closes unwind in reverse
	// order (API server, MQTT, database).
	if runErr := engine.Run(ctx); runErr != nil {
		return fmt.Errorf("simulation: %w", runErr)
	}

	log.Info("VAV simulator stopped")
	return nil
}

// resolveSpecs determines the point definitions for this run.
//
// Precedence: an explicit CSV file always wins; otherwise persisted
// definitions from a previous run; otherwise the built-in 20-point VAV
// device. With persistence enabled the resolved set is written back so the
// next restart reproduces it and value upserts satisfy the schema's
// foreign key.
func resolveSpecs(ctx context.Context, cfg *config.Config, repo store.Repository, log *logging.Logger) ([]point.Spec, error) {
	var specs []point.Spec

	switch {
	case cfg.Points.CSVPath != "":
		loader := ingest.NewLoader(log)
		result, err := loader.LoadFile(cfg.Points.CSVPath)
		if err != nil {
			return nil, err
		}
		log.Info("point definitions ingested",
			"path", cfg.Points.CSVPath,
			"points", len(result.Specs),
			"rejected_rows", len(result.Failures),
		)
		specs = result.Specs

	case cfg.Points.Persist:
		has, err := repo.HasSpecs(ctx)
		if err != nil {
			return nil, err
		}
		if has {
			stored, err := repo.LoadSpecs(ctx)
			if err != nil {
				return nil, err
			}
			log.Info("point definitions loaded from store", "points", len(stored))
			return stored, nil
		}
		specs = sim.DefaultDeviceSpecs()
		log.Info("using built-in device points", "points", len(specs))

	default:
		specs = sim.DefaultDeviceSpecs()
		log.Info("using built-in device points", "points", len(specs))
	}

	if cfg.Points.Persist {
		if err := repo.SaveSpecs(ctx, specs); err != nil {
			return nil, err
		}
		log.Info("point definitions persisted", "points", len(specs))
	}

	return specs, nil
}

// restoreValues resumes points from the last persisted value of each.
// Command slots are not reconstructed; the stored value is applied at the
// simulation priority and arbitration resumes from there.
func restoreValues(ctx context.Context, repo store.Repository, registry *point.Registry, log *logging.Logger) error {
	values, err := repo.LoadValues(ctx)
	if err != nil {
		return err
	}

	restored := 0
	for name, stored := range values {
		p, getErr := registry.Get(name)
		if getErr != nil {
			continue // point set changed since last run
		}
		v := point.ValueForKind(p.Kind(), stored.Value)
		if forceErr := p.ForceSimulated(v); forceErr != nil {
			log.Warn("value restore skipped", "point", name, "error", forceErr)
			continue
		}
		restored++
	}
	if restored > 0 {
		log.Info("persisted values restored", "points", restored)
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses VAVSIM_CONFIG environment variable if set, otherwise the default,
// falling back to defaults-only when neither exists.
func getConfigPath() string {
	if path := os.Getenv("VAVSIM_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
