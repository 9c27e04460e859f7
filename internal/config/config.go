// Package config loads service settings from the environment, an optional .env file
// and an optional YAML overlay.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/voyago/travel-booking/internal/models"
)

type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the postgres connection string for the given database name.
func (c DBConfig) DSN(name string) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, name, c.Port, c.SSLMode,
	)
}

type RemoteConfig struct {
	CarURL    string        `yaml:"car_url"`
	HotelURL  string        `yaml:"hotel_url"`
	FlightURL string        `yaml:"flight_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// BaseURL returns the configured endpoint for an item's domain service.
func (r RemoteConfig) BaseURL(item models.ItemType) string {
	switch item {
	case models.ItemCar:
		return r.CarURL
	case models.ItemHotel:
		return r.HotelURL
	case models.ItemFlight:
		return r.FlightURL
	}
	return ""
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

type Config struct {
	Env      string
	LogLevel string
	LogFile  string
	Port     string

	// Domain is set for booking services only.
	Domain models.ItemType

	DB           DBConfig
	LedgerDBName string

	JWTSecret    string
	JWTAlgorithm string

	RedisURL        string
	RateLimit       int
	RateLimitWindow time.Duration

	Remote RemoteConfig `yaml:"remote"`

	ReconcileInterval    time.Duration `yaml:"reconcile_interval"`
	ReconcileGrace       time.Duration `yaml:"reconcile_grace"`
	SagaRecoveryInterval time.Duration `yaml:"saga_recovery_interval"`
	SagaStaleAfter       time.Duration `yaml:"saga_stale_after"`

	AWS       AWSConfig
	ReportDir string

	FirebaseServiceAccountPath string
}

// yamlOverlay is the subset of settings that may live in CONFIG_FILE.
type yamlOverlay struct {
	Remote struct {
		CarURL    string `yaml:"car_url"`
		HotelURL  string `yaml:"hotel_url"`
		FlightURL string `yaml:"flight_url"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"remote"`
	ReconcileInterval    string `yaml:"reconcile_interval"`
	ReconcileGrace       string `yaml:"reconcile_grace"`
	SagaRecoveryInterval string `yaml:"saga_recovery_interval"`
	SagaStaleAfter       string `yaml:"saga_stale_after"`
}

func defaults() Config {
	return Config{
		Env:  "development",
		Port: "8080",
		DB: DBConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			SSLMode:         "disable",
			MaxOpenConns:    100,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		},
		LedgerDBName:    "bookings",
		JWTAlgorithm:    "HS256",
		RateLimit:       100,
		RateLimitWindow: time.Minute,
		Remote: RemoteConfig{
			CarURL:    "http://localhost:8001",
			HotelURL:  "http://localhost:8002",
			FlightURL: "http://localhost:8003",
			Timeout:   30 * time.Second,
		},
		ReconcileInterval:    time.Minute,
		ReconcileGrace:       5 * time.Minute,
		SagaRecoveryInterval: time.Minute,
		SagaStaleAfter:       5 * time.Minute,
		ReportDir:            "reports",
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyYAML(&cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyYAML(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var overlay yamlOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&cfg.Remote.CarURL, overlay.Remote.CarURL)
	setString(&cfg.Remote.HotelURL, overlay.Remote.HotelURL)
	setString(&cfg.Remote.FlightURL, overlay.Remote.FlightURL)

	durations := []struct {
		dst *time.Duration
		raw string
		key string
	}{
		{&cfg.Remote.Timeout, overlay.Remote.Timeout, "remote.timeout"},
		{&cfg.ReconcileInterval, overlay.ReconcileInterval, "reconcile_interval"},
		{&cfg.ReconcileGrace, overlay.ReconcileGrace, "reconcile_grace"},
		{&cfg.SagaRecoveryInterval, overlay.SagaRecoveryInterval, "saga_recovery_interval"},
		{&cfg.SagaStaleAfter, overlay.SagaStaleAfter, "saga_stale_after"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Env, os.Getenv("ENV"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&cfg.LogFile, os.Getenv("LOG_FILE"))
	setString(&cfg.Port, os.Getenv("PORT"))

	if raw := os.Getenv("BOOKING_DOMAIN"); raw != "" {
		item, err := models.ParseItemType(raw)
		if err != nil {
			return fmt.Errorf("BOOKING_DOMAIN: %w", err)
		}
		cfg.Domain = item
	}

	setString(&cfg.DB.Host, os.Getenv("DB_HOST"))
	setString(&cfg.DB.Port, os.Getenv("DB_PORT"))
	setString(&cfg.DB.User, os.Getenv("DB_USER"))
	setString(&cfg.DB.Password, os.Getenv("DB_PASSWORD"))
	setString(&cfg.DB.Name, os.Getenv("DB_NAME"))
	setString(&cfg.DB.SSLMode, os.Getenv("DB_SSLMODE"))
	setString(&cfg.LedgerDBName, os.Getenv("LEDGER_DB_NAME"))

	setString(&cfg.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&cfg.JWTAlgorithm, os.Getenv("JWT_ALGORITHM"))
	setString(&cfg.RedisURL, os.Getenv("REDIS_URL"))

	setString(&cfg.Remote.CarURL, os.Getenv("CAR_SERVICE_URL"))
	setString(&cfg.Remote.HotelURL, os.Getenv("HOTEL_SERVICE_URL"))
	setString(&cfg.Remote.FlightURL, os.Getenv("FLIGHT_SERVICE_URL"))

	setString(&cfg.AWS.Region, os.Getenv("AWS_REGION"))
	setString(&cfg.AWS.AccessKeyID, os.Getenv("AWS_ACCESS_KEY_ID"))
	setString(&cfg.AWS.SecretAccessKey, os.Getenv("AWS_SECRET_ACCESS_KEY"))
	setString(&cfg.AWS.Bucket, os.Getenv("AWS_S3_BUCKET"))
	setString(&cfg.ReportDir, os.Getenv("REPORT_DIR"))
	setString(&cfg.FirebaseServiceAccountPath, os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"))

	ints := []struct {
		dst *int
		key string
	}{
		{&cfg.DB.MaxOpenConns, "DB_MAX_OPEN_CONNS"},
		{&cfg.DB.MaxIdleConns, "DB_MAX_IDLE_CONNS"},
		{&cfg.RateLimit, "RATE_LIMIT"},
	}
	for _, i := range ints {
		raw := os.Getenv(i.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", i.key, err)
		}
		*i.dst = n
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&cfg.DB.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME"},
		{&cfg.RateLimitWindow, "RATE_LIMIT_WINDOW"},
		{&cfg.Remote.Timeout, "REMOTE_TIMEOUT"},
		{&cfg.ReconcileInterval, "RECONCILE_INTERVAL"},
		{&cfg.ReconcileGrace, "RECONCILE_GRACE"},
		{&cfg.SagaRecoveryInterval, "SAGA_RECOVERY_INTERVAL"},
		{&cfg.SagaStaleAfter, "SAGA_STALE_AFTER"},
	}
	for _, d := range durations {
		raw := os.Getenv(d.key)
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !strings.EqualFold(c.JWTAlgorithm, "HS256") {
		return fmt.Errorf("JWT_ALGORITHM %q is not supported", c.JWTAlgorithm)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote timeout must be positive")
	}
	return nil
}

// IsProduction reports whether ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
