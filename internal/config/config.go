// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/megannnn98/transport-catalogue/internal/router"
)

// ErrInvalidConfig indicates a configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Snapshot drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config is the root configuration.
type Config struct {
	Env       string           `yaml:"env" validate:"required,oneof=development test staging production"`
	Server    ServerConfig     `yaml:"server"`
	Routing   *router.Settings `yaml:"routing" validate:"-"`
	Snapshot  SnapshotConfig   `yaml:"snapshot"`
	Cache     CacheConfig      `yaml:"cache"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	// RouteRateLimit is the number of route queries allowed per client per minute.
	RouteRateLimit int `yaml:"route_rate_limit" validate:"gte=1"`
	// CORSOrigins lists the browser origins allowed to call the API. Empty disables CORS.
	CORSOrigins []string `yaml:"cors_origins" validate:"dive,required"`
}

// SnapshotConfig selects where the catalogue snapshot lives.
type SnapshotConfig struct {
	Driver string `yaml:"driver" validate:"oneof=file postgres"`
	File   string `yaml:"file" validate:"required_if=Driver file"`
}

// CacheConfig controls the route answer cache.
type CacheConfig struct {
	RouteTTL time.Duration `yaml:"route_ttl" validate:"gte=0"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint" validate:"required_if=Enabled true"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RouteRateLimit:  60,
		},
		Snapshot: SnapshotConfig{
			Driver: DriverFile,
			File:   "transport.db",
		},
		Cache: CacheConfig{
			RouteTTL: 5 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
		},
	}
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: APP_PORT: %v", ErrInvalidConfig, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("SNAPSHOT_DRIVER"); v != "" {
		cfg.Snapshot.Driver = v
	}
	if v := os.Getenv("SNAPSHOT_FILE"); v != "" {
		cfg.Snapshot.File = v
	}
	if v := os.Getenv("ROUTE_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: ROUTE_CACHE_TTL: %v", ErrInvalidConfig, err)
		}
		cfg.Cache.RouteTTL = ttl
	}
	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		cfg.Telemetry.Enabled = v == "true"
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	return nil
}

// Validate checks every section. Routing settings are optional here since a
// snapshot may carry them; when present they must be complete.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Routing != nil {
		if err := c.Routing.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}
