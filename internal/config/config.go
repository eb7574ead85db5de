// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "KARDEX"

// Config holds all runtime configuration. Every field is filled from
// KARDEX_* environment variables.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	DevMode  bool   `envconfig:"DEV_MODE" default:"false"`

	// JWTSecret verifies bearer tokens issued by the auth service.
	// When empty, requests are accepted anonymously.
	JWTSecret string `envconfig:"JWT_SECRET"`

	// StatementTimeout bounds every statement inside a transaction.
	StatementTimeout time.Duration `envconfig:"STATEMENT_TIMEOUT" default:"10s"`

	// LockTimeout bounds waiting on row locks; hitting it surfaces as a
	// retryable LOCK_TIMEOUT error.
	LockTimeout time.Duration `envconfig:"LOCK_TIMEOUT" default:"5s"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`

	DB          DBConfig
	Rules       RulesConfig
	Dropbox     DropboxConfig
	Consumption ConsumptionConfig
}

// DBConfig sizes the connection pool. MaxConns also bounds how many
// posting transactions can run at once, since each holds a connection
// for the whole transaction.
type DBConfig struct {
	MaxConns          int32         `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns          int32         `envconfig:"DB_MIN_CONNS" default:"5"`
	ConnMaxLifetime   time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime   time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// RulesConfig carries CEL posting guard expressions, evaluated before
// each posting. Empty expressions disable the corresponding guard.
type RulesConfig struct {
	// AdjustmentGuard example: "delta >= 0.0 || reason != ''"
	AdjustmentGuard string `envconfig:"RULE_ADJUSTMENT_GUARD" default:"delta >= 0.0 || reason != ''"`
}

// DropboxConfig configures the remote file store used by the
// production consumption job.
type DropboxConfig struct {
	AppKey       string `envconfig:"DROPBOX_APP_KEY"`
	AppSecret    string `envconfig:"DROPBOX_APP_SECRET"`
	RefreshToken string `envconfig:"DROPBOX_REFRESH_TOKEN"`
}

// ConsumptionConfig configures the scheduled production consumption run.
type ConsumptionConfig struct {
	Enabled bool `envconfig:"CONSUMPTION_ENABLED" default:"false"`

	// Times are local wall-clock run times, HH:MM.
	Times []string `envconfig:"CONSUMPTION_TIMES" default:"12:00,15:30"`

	// Warehouse is the warehouse whose default location absorbs the
	// consumption deltas.
	Warehouse string `envconfig:"CONSUMPTION_WAREHOUSE" default:"Producción"`

	// FileSettingKey is the app_settings key holding the report file
	// reference in the remote store.
	FileSettingKey string `envconfig:"CONSUMPTION_FILE_SETTING" default:"DROPBOX_PRODUCCION_FILE_ID"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
