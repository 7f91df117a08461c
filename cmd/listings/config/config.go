package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	// BackendFile keeps overrides in JSON document.
	BackendFile = "file"
	// BackendPostgres keeps overrides in Postgres table.
	BackendPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	CacheDir          string        `env:"LISTINGS_CACHE_DIR" envDefault:"data/cache"`
	OverridesFile     string        `env:"LISTINGS_OVERRIDES_FILE" envDefault:"data/overrides.json"`
	OverridesBackend  string        `env:"LISTINGS_OVERRIDES_BACKEND" envDefault:"file"`
	ImportOverrides   bool          `env:"LISTINGS_IMPORT_OVERRIDES" envDefault:"false"`
	WarmOnStart       bool          `env:"LISTINGS_WARM_ON_START" envDefault:"true"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"12s"`
	LiveCacheTTL      time.Duration `env:"LIVE_CACHE_TTL" envDefault:"60s"`
	MaxSnapshotAge    time.Duration `env:"MAX_SNAPSHOT_AGE" envDefault:"10m"`
	RateLimitCooldown time.Duration `env:"RATE_LIMIT_COOLDOWN" envDefault:"120s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	RedisURL          string        `env:"REDIS_URL"`

	CRM         CRM
	Marketplace Marketplace
	RabbitMQ    RabbitMQ
	Fluent      Fluent
}

// CRM holds CRM upstream configuration.
type CRM struct {
	BaseURL           string  `env:"CRM_BASE_URL" envDefault:"https://api.crm.example/v1"`
	APIKey            string  `env:"CRM_API_KEY"`
	BranchID          string  `env:"CRM_BRANCH_ID"`
	PageSize          int     `env:"CRM_PAGE_SIZE" envDefault:"100"`
	MaxPages          int     `env:"CRM_MAX_PAGES" envDefault:"20"`
	RequestsPerSecond float64 `env:"CRM_REQUESTS_PER_SECOND" envDefault:"0"`
}

// Marketplace holds marketplace upstream configuration.
type Marketplace struct {
	Endpoint          string  `env:"MARKETPLACE_ENDPOINT" envDefault:"https://api.marketplace.example/graphql"`
	Token             string  `env:"MARKETPLACE_TOKEN"`
	PageSize          int     `env:"MARKETPLACE_PAGE_SIZE" envDefault:"50"`
	MaxPages          int     `env:"MARKETPLACE_MAX_PAGES" envDefault:"20"`
	RequestsPerSecond float64 `env:"MARKETPLACE_REQUESTS_PER_SECOND" envDefault:"0"`
}

// RabbitMQ holds RabbitMQ configuration. Empty URL disables command consumer.
type RabbitMQ struct {
	URL        string `env:"RABBITMQ_URL"`
	Exchange   string `env:"RABBITMQ_EXCHANGE" envDefault:"listings-ex"`
	Queue      string `env:"RABBITMQ_QUEUE" envDefault:"listings.commands"`
	RoutingKey string `env:"RABBITMQ_ROUTING_KEY" envDefault:"listings.command"`
}

// Fluent holds Fluent Bit sink configuration.
type Fluent struct {
	Enabled bool   `env:"FLUENT_ENABLED" envDefault:"false"`
	Host    string `env:"FLUENT_HOST" envDefault:"localhost"`
	Port    int    `env:"FLUENT_PORT" envDefault:"24224"`
	Tag     string `env:"FLUENT_TAG" envDefault:"listings"`
}

// Load reads optional .env files and parses environment into Config.
// Variables already set in environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("can't load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("can't parse env variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks values env tags can't express.
func (c Config) Validate() error {
	switch c.OverridesBackend {
	case BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required by %s overrides backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown overrides backend %q", c.OverridesBackend)
	}

	if c.CRM.PageSize <= 0 || c.Marketplace.PageSize <= 0 {
		return errors.New("page sizes must be positive")
	}

	return nil
}
