package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	App   AppConfig
	Store StoreConfig
	Auth  AuthConfig
	Rules SessionConfig
}

type AppConfig struct {
	Port               string `env:"PORT" envDefault:"8080"`
	Environment        string `env:"APP_ENV" envDefault:"development"`
	LogFilePath        string `env:"LOG_FILE_PATH" envDefault:"logs/biteswipe.log"`
	CorsAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	NatsURL            string `env:"NATS_URL"`
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"biteswipe"`
	// Empty disables the session snapshot cache
	RedisURI string `env:"REDIS_URI"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" envDefault:"biteswipe-dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"`
}

type SessionConfig struct {
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	MatchingDuration time.Duration `env:"MATCHING_DURATION" envDefault:"10m"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	JoinCodeAttempts int           `env:"JOIN_CODE_ATTEMPTS" envDefault:"20"`
}

// Load reads .env when present, then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}
	return Parse()
}

// Parse builds the config from the process environment only
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Rules.SessionTTL <= 0 || c.Rules.MatchingDuration <= 0 || c.Rules.SweepInterval <= 0 {
		return fmt.Errorf("session durations must be positive")
	}
	if c.Rules.JoinCodeAttempts <= 0 {
		return fmt.Errorf("JOIN_CODE_ATTEMPTS must be positive")
	}
	return nil
}

// IsProduction reports whether APP_ENV selects production logging
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

// RedisAddr strips an optional redis:// prefix
func (c *Config) RedisAddr() string {
	return strings.TrimPrefix(c.Store.RedisURI, "redis://")
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.App.CorsAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
