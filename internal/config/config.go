package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration shared by the server and blogctl
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// CORSAllowOrigin is sent as Access-Control-Allow-Origin
	CORSAllowOrigin string
}

// DatabaseConfig holds the PostgreSQL connection and pool settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	// AutoMigrate applies the embedded schema on startup
	AutoMigrate bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables. A .env file in the
// working directory, when present, is loaded first and never overrides
// variables that are already set. Unparseable values keep their default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var env envReader
	cfg := &Config{
		Server: ServerConfig{
			Port:            env.getString("PORT", "8080"),
			ReadTimeout:     env.getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    env.getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: env.getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSAllowOrigin: env.getString("CORS_ALLOW_ORIGIN", "*"),
		},
		Database: DatabaseConfig{
			Host:         env.getString("DB_HOST", "localhost"),
			Port:         env.getString("DB_PORT", "5432"),
			User:         env.getString("DB_USER", "postgres"),
			Password:     env.getString("DB_PASSWORD", "postgres"),
			Name:         env.getString("DB_NAME", "blog"),
			SSLMode:      env.getString("DB_SSLMODE", "disable"),
			MaxOpenConns: env.getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: env.getInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  env.getDuration("DB_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:  env.getBool("DB_AUTO_MIGRATE", true),
		},
		Log: LogConfig{
			Level:  env.getString("LOG_LEVEL", "info"),
			Format: strings.ToLower(env.getString("LOG_FORMAT", "json")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	if _, err := strconv.ParseUint(c.Server.Port, 10, 16); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be a port number, got %q", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.Database.MaxOpenConns <= 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns))
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "pretty" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or pretty, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// GetDSN returns the lib/pq key/value connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// envReader looks up trimmed environment values; blank counts as unset
type envReader struct{}

func (envReader) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func (e envReader) getString(key, def string) string {
	if value, ok := e.lookup(key); ok {
		return value
	}
	return def
}

func (e envReader) getInt(key string, def int) int {
	return parseOr(e, key, def, strconv.Atoi)
}

func (e envReader) getDuration(key string, def time.Duration) time.Duration {
	return parseOr(e, key, def, time.ParseDuration)
}

func (e envReader) getBool(key string, def bool) bool {
	return parseOr(e, key, def, strconv.ParseBool)
}

func parseOr[T any](e envReader, key string, def T, parse func(string) (T, error)) T {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	parsed, err := parse(value)
	if err != nil {
		return def
	}
	return parsed
}
