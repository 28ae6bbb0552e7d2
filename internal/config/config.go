package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the ingester
type Config struct {
	Database        DatabaseConfig
	Sources         SourcesConfig
	Interval        time.Duration // Wait between the end of one cycle and the start of the next
	HTTPAddr        string        // Health and metrics listener, empty disables it
	ShutdownTimeout time.Duration
	Log             LogConfig
}

// DatabaseConfig holds store connection settings
type DatabaseConfig struct {
	Driver string // sqlite3 or postgres
	DSN    string // Used as-is when set

	// PostgreSQL connection parts, used when DSN is empty
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// SourcesConfig holds the locations of the raw feeds
type SourcesConfig struct {
	RunwayJSON string
	OutageCSV  string
	Bulletins  []string // Empty means the built-in legacy feed
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from .env, config file and environment variables
func Load() (*Config, error) {
	// A missing .env file is fine. Variables already set in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("sources.runway_json", "data/runway_data.json")
	v.SetDefault("sources.outage_csv", "data/outage_log.csv")
	v.SetDefault("sources.bulletins", []string{})
	v.SetDefault("ingest.interval", "60s")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Set config file name and type
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Set config file search paths
	v.AddConfigPath("/etc/flos")
	v.AddConfigPath(".")

	// Check for config file path from environment variable (also set by the -config flag)
	if configPath := os.Getenv("FLOS_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// Read config file (if it exists)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults + env vars
	}

	// Set environment variable prefix
	v.SetEnvPrefix("FLOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Deployments that share the read API's environment use its variable names
	legacyEnv := map[string][]string{
		"database.dsn":      {"FLOS_DATABASE_DSN", "DATABASE_URL"},
		"database.host":     {"FLOS_DATABASE_HOST", "POSTGRES_HOST"},
		"database.port":     {"FLOS_DATABASE_PORT", "POSTGRES_PORT"},
		"database.user":     {"FLOS_DATABASE_USER", "POSTGRES_USER"},
		"database.password": {"FLOS_DATABASE_PASSWORD", "POSTGRES_PASSWORD"},
		"database.name":     {"FLOS_DATABASE_NAME", "POSTGRES_DB"},
	}
	for key, envs := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	// Build config struct
	cfg := &Config{
		Database: DatabaseConfig{
			Driver:   v.GetString("database.driver"),
			DSN:      v.GetString("database.dsn"),
			Host:     v.GetString("database.host"),
			Port:     v.GetString("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Sources: SourcesConfig{
			RunwayJSON: v.GetString("sources.runway_json"),
			OutageCSV:  v.GetString("sources.outage_csv"),
			Bulletins:  v.GetStringSlice("sources.bulletins"),
		},
		Interval:        v.GetDuration("ingest.interval"),
		HTTPAddr:        v.GetString("http_addr"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	cfg.Database.applyDriverDefaults()

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDriverDefaults infers the driver from a postgres URL and assembles a
// DSN from its parts when none was given
func (d *DatabaseConfig) applyDriverDefaults() {
	if strings.HasPrefix(d.DSN, "postgres://") || strings.HasPrefix(d.DSN, "postgresql://") {
		d.Driver = "postgres"
	}
	if d.DSN == "" && d.Host != "" && d.User != "" && d.Name != "" {
		d.Driver = "postgres"
	}

	if d.DSN != "" {
		return
	}
	switch d.Driver {
	case "sqlite3":
		d.DSN = "flos.db"
	case "postgres":
		d.DSN = d.postgresURL()
	}
}

func (d *DatabaseConfig) postgresURL() string {
	if d.Host == "" || d.User == "" || d.Name == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// validate validates the configuration values
func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite3 or postgres)", cfg.Database.Driver)
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required (set database.dsn, DATABASE_URL or POSTGRES_HOST/USER/DB)")
	}

	if cfg.Sources.RunwayJSON == "" {
		return fmt.Errorf("sources.runway_json is required")
	}

	if cfg.Sources.OutageCSV == "" {
		return fmt.Errorf("sources.outage_csv is required")
	}

	if cfg.Interval <= 0 {
		return fmt.Errorf("ingest.interval must be greater than 0")
	}

	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
