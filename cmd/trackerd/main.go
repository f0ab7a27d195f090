// BusTraveller tracking backend.
//
// trackerd serves the REST API used by the admin dashboard and the public
// tracking page. It stores vehicles, parcels and administrator credentials
// in SQLite, optionally announces changes over MQTT (and accepts device
// telemetry there) and optionally keeps location history in InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/bustraveller/tracker-core/migrations"

	"github.com/bustraveller/tracker-core/internal/api"
	"github.com/bustraveller/tracker-core/internal/audit"
	"github.com/bustraveller/tracker-core/internal/auth"
	"github.com/bustraveller/tracker-core/internal/infrastructure/config"
	"github.com/bustraveller/tracker-core/internal/infrastructure/database"
	"github.com/bustraveller/tracker-core/internal/infrastructure/influxdb"
	"github.com/bustraveller/tracker-core/internal/infrastructure/logging"
	"github.com/bustraveller/tracker-core/internal/infrastructure/mqtt"
	"github.com/bustraveller/tracker-core/internal/tracking"
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
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting BusTraveller tracker",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// A .env file is optional; real environment variables always win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("ignoring unreadable .env file", "error", err)
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

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

	// Credentials and sessions
	creds := auth.NewCredentialRepository(db.DB)
	if cfg.Security.Bootstrap.Enabled {
		if _, seedErr := auth.SeedDefaultAdmin(ctx, creds,
			cfg.Security.Bootstrap.Username, cfg.Security.Bootstrap.Password,
			log.Component("auth").Logger); seedErr != nil {
			return fmt.Errorf("seeding default admin: %w", seedErr)
		}
	}

	sessions := auth.NewMemorySessionStore(cfg.SessionTTL())
	go sessions.Run(ctx, cfg.SessionSweepInterval())
	authService := auth.NewService(creds, sessions, log.Component("auth").Logger)

	trackingDeps := tracking.Deps{
		Vehicles: tracking.NewVehicleRepository(db.DB),
		Parcels:  tracking.NewParcelRepository(db.DB),
		Logger:   log.Component("tracking").Logger,
	}

	// Connect to MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
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

		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		trackingDeps.Events = tracking.NewMQTTPublisher(mqttClient)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		trackingDeps.History = tracking.NewInfluxHistory(influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	trackingService := tracking.NewService(trackingDeps)

	if cfg.MQTT.IngestTelemetry {
		ingestor := tracking.NewTelemetryIngestor(trackingService, mqttClient, log.Component("telemetry").Logger)
		if startErr := ingestor.Start(ctx); startErr != nil {
			return fmt.Errorf("starting telemetry ingestion: %w", startErr)
		}
		defer func() {
			if stopErr := ingestor.Stop(); stopErr != nil {
				log.Warn("error stopping telemetry ingestion", "error", stopErr)
			}
		}()
		log.Info("telemetry ingestion started", "topic", mqtt.Topics{}.AllTelemetryLocations())
	}

	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		Logger:    log.Component("api"),
		Auth:      authService,
		Tracking:  trackingService,
		AuditRepo: audit.NewSQLiteRepository(db.DB),
		DB:        db,
		MQTT:      mqttClient,
		InfluxDB:  influxClient,
		Version:   version,
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

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API server, telemetry,
	// InfluxDB, MQTT, database.

	log.Info("BusTraveller tracker stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TRACKER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient are nil when disabled and are then skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
