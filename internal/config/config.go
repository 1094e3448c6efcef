package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OracleTimeout time.Duration `envconfig:"ORACLE_TIMEOUT" default:"60s"`

	PoolbrainAPIKey   string `envconfig:"POOLBRAIN_API_KEY"`
	PoolbrainBaseURL  string `envconfig:"POOLBRAIN_BASE_URL"`
	PoolbrainPageSize int    `envconfig:"POOLBRAIN_PAGE_SIZE" default:"100"`

	// SearchCacheTTL guards the AI-search path; BrowseCacheTTL the plain
	// product-browse path.
	SearchCacheTTL  time.Duration `envconfig:"SEARCH_CACHE_TTL" default:"15m"`
	BrowseCacheTTL  time.Duration `envconfig:"BROWSE_CACHE_TTL" default:"5m"`
	RefreshInterval time.Duration `envconfig:"CATALOG_REFRESH_INTERVAL" default:"5m"`

	SpecialtyPartsFile string `envconfig:"SPECIALTY_PARTS_FILE"`

	// APIKeys entries are "key:identity" pairs; a bare key gets the
	// identity "default".
	APIKeys []string `envconfig:"API_KEYS"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("POOLOPS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasPoolbrain() bool {
	return c.PoolbrainAPIKey != "" && c.PoolbrainBaseURL != ""
}
