package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRemote   = "remote"
)

// Config is the service configuration. Values come from defaults, then an
// optional YAML file named by CONFIG_FILE, then environment variables.
type Config struct {
	Port             string `yaml:"port"`
	RepositoryDriver string `yaml:"repository_driver"`
	DBPath           string `yaml:"db_path"`
	DatabaseURL      string `yaml:"database_url"`
	BackendURL       string `yaml:"backend_url"`
	BackendToken     string `yaml:"backend_token"`
	SeedPath         string `yaml:"seed_path"`
	LogLevel         string `yaml:"log_level"`

	RedisAddr         string        `yaml:"redis_addr"`
	EventsStream      string        `yaml:"events_stream"`
	NATSURL           string        `yaml:"nats_url"`
	EventsSubject     string        `yaml:"events_subject"`
	EquipmentCacheTTL time.Duration `yaml:"equipment_cache_ttl"`

	PaymentTermsDays     int           `yaml:"payment_terms_days"`
	OverdueSweepInterval time.Duration `yaml:"overdue_sweep_interval"`
	SweepTenants         []string      `yaml:"sweep_tenants"`
	ReportTimezone       string        `yaml:"report_timezone"`
}

func Defaults() Config {
	return Config{
		Port:                 "8080",
		RepositoryDriver:     DriverSQLite,
		DBPath:               "data/app.db",
		SeedPath:             "data/seeds/loads.json",
		LogLevel:             "info",
		EventsStream:         "tms:load-events",
		EventsSubject:        "tms.loads.status_changed",
		EquipmentCacheTTL:    10 * time.Minute,
		PaymentTermsDays:     30,
		OverdueSweepInterval: time.Hour,
		ReportTimezone:       "UTC",
	}
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadDotEnv reads .env into the environment when present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the
// environment, in that order.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
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

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = Get("PORT", cfg.Port)
	cfg.RepositoryDriver = strings.ToLower(Get("REPOSITORY_DRIVER", cfg.RepositoryDriver))
	cfg.DBPath = Get("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = Get("DATABASE_URL", cfg.DatabaseURL)
	cfg.BackendURL = Get("BACKEND_URL", cfg.BackendURL)
	cfg.BackendToken = Get("BACKEND_TOKEN", cfg.BackendToken)
	cfg.SeedPath = Get("SEED_PATH", cfg.SeedPath)
	cfg.LogLevel = Get("LOG_LEVEL", cfg.LogLevel)
	cfg.RedisAddr = Get("REDIS_ADDR", cfg.RedisAddr)
	cfg.EventsStream = Get("EVENTS_STREAM", cfg.EventsStream)
	cfg.NATSURL = Get("NATS_URL", cfg.NATSURL)
	cfg.EventsSubject = Get("EVENTS_SUBJECT", cfg.EventsSubject)
	cfg.ReportTimezone = Get("REPORT_TIMEZONE", cfg.ReportTimezone)

	if v := os.Getenv("PAYMENT_TERMS_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PAYMENT_TERMS_DAYS: %w", err)
		}
		cfg.PaymentTermsDays = n
	}

	for key, dst := range map[string]*time.Duration{
		"OVERDUE_SWEEP_INTERVAL": &cfg.OverdueSweepInterval,
		"EQUIPMENT_CACHE_TTL":    &cfg.EquipmentCacheTTL,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("SWEEP_TENANTS"); v != "" {
		cfg.SweepTenants = splitList(v)
	}
	return nil
}

// Validate checks that the selected driver has what it needs.
func (c Config) Validate() error {
	var errs []error

	switch c.RepositoryDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverRemote:
		if strings.TrimSpace(c.BackendURL) == "" {
			errs = append(errs, errors.New("BACKEND_URL is required for the remote driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown REPOSITORY_DRIVER %q", c.RepositoryDriver))
	}

	if c.PaymentTermsDays < 0 {
		errs = append(errs, errors.New("PAYMENT_TERMS_DAYS must not be negative"))
	}
	if c.OverdueSweepInterval < 0 {
		errs = append(errs, errors.New("OVERDUE_SWEEP_INTERVAL must not be negative"))
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		errs = append(errs, fmt.Errorf("REPORT_TIMEZONE: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c Config) PaymentTerms() time.Duration {
	return time.Duration(c.PaymentTermsDays) * 24 * time.Hour
}

// Location returns the reporting timezone; UTC if it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
