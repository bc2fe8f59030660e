package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the analytics service.
type Config struct {
	Environment    string        `validate:"required"`
	Addr           string        `validate:"required"`
	DatabaseURL    string        `validate:"required"`
	MigrationsDir  string        `validate:"required"`
	RedisAddr      string        `validate:"required"`
	RedisPassword  string
	RedisDB        int
	TimeZone       string        `validate:"required"`
	QueryTimeout   time.Duration `validate:"required,min=1s"`
	AlertsDisabled bool
}

// Load constructs a Config from the environment. A .env file in the working
// directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:    GetString("APP_ENV", "development"),
		Addr:           GetString("LUNA_ADDR", ":8000"),
		DatabaseURL:    GetString("DATABASE_URL", "postgres://luna:luna@db:5432/luna?sslmode=disable"),
		MigrationsDir:  GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		RedisAddr:      GetString("REDIS_ADDR", "redis:6379"),
		RedisPassword:  GetString("REDIS_PASSWORD", ""),
		RedisDB:        GetInt("REDIS_DB", 0),
		TimeZone:       GetString("LUNA_TIMEZONE", "Asia/Jakarta"),
		QueryTimeout:   time.Duration(GetInt("QUERY_TIMEOUT_SECONDS", 30)) * time.Second,
		AlertsDisabled: GetBool("ALERT_EVALUATOR_DISABLED", false),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return Config{}, fmt.Errorf("invalid LUNA_TIMEZONE %q: %w", cfg.TimeZone, err)
	}
	return cfg, nil
}

// Location resolves the configured reporting time zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetString retrieves an environment variable or returns a fallback when unset.
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetInt retrieves an environment variable as integer or returns fallback.
func GetInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// GetBool retrieves an environment variable as bool or returns fallback.
func GetBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}
