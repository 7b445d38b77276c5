package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "time"    // time parses the hold and sweep durations
)

// Store backends selectable via STORE_BACKEND.
const (
    BackendMemory = "memory"
    BackendMySQL  = "mysql"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Database variables are only required when
// the MySQL backend is selected; the in-memory backend runs without
// external services.
type Config struct {
    Env           string        // application environment (e.g. "dev", "prod")
    Port          string        // HTTP port to listen on
    StoreBackend  string        // "memory" or "mysql"
    DBUser        string        // database username
    DBPass        string        // database password (optional)
    DBHost        string        // database host address
    DBPort        string        // database port number
    DBName        string        // database name
    AMQPURL       string        // RabbitMQ URL, empty disables event publishing
    HoldTTL       time.Duration // how long a reservation hold stays reservable
    SweepInterval time.Duration // how often the expiry sweep runs
    SweepLockTTL  time.Duration // lifetime of the redis sweep leader lock
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:           must("APP_ENV"),  // environment (dev/test/prod)
        Port:          must("APP_PORT"), // port to bind the HTTP server
        StoreBackend:  envStr("STORE_BACKEND", BackendMemory),
        AMQPURL:       os.Getenv("RABBITMQ_URL"), // empty allowed
        HoldTTL:       envDur("HOLD_TTL", 10*time.Minute),
        SweepInterval: envDur("SWEEP_INTERVAL", 30*time.Second),
        SweepLockTTL:  envDur("SWEEP_LOCK_TTL", 25*time.Second),
    }
    if cfg.AMQPURL == "" {
        cfg.AMQPURL = os.Getenv("AMQP_URL")
    }

    switch cfg.StoreBackend {
    case BackendMemory:
        // no external dependencies
    case BackendMySQL:
        cfg.DBUser = must("DB_USER")      // database user
        cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
        cfg.DBHost = must("DB_HOST")      // database host
        cfg.DBPort = must("DB_PORT")      // database port
        cfg.DBName = must("DB_NAME")      // database name
    default:
        log.Fatalf("invalid STORE_BACKEND: %q (want %q or %q)", cfg.StoreBackend, BackendMemory, BackendMySQL)
    }
    return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
