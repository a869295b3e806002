package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string `koanf:"ENV"`
	Port string `koanf:"PORT"`

	// Database
	DBHost     string `koanf:"DB_HOST"`
	DBPort     string `koanf:"DB_PORT"`
	DBUser     string `koanf:"DB_USER"`
	DBPassword string `koanf:"DB_PASSWORD"`
	DBName     string `koanf:"DB_NAME"`
	DBSSLMode  string `koanf:"DB_SSLMODE"`

	// Plaid
	PlaidEnv       string `koanf:"PLAID_ENV"`
	PlaidClientID  string `koanf:"PLAID_CLIENT_ID"`
	PlaidSecret    string `koanf:"PLAID_SECRET"`
	PlaidBaseURL   string `koanf:"PLAID_BASE_URL"`
	PlaidPageSize  int    `koanf:"PLAID_SYNC_PAGE_SIZE"`
	PlaidRetries   uint   `koanf:"PLAID_MAX_RETRIES"`
	PlaidUserAgent string `koanf:"PLAID_CLIENT_NAME"`

	// Sync
	TokenEncryptionKey string        `koanf:"TOKEN_ENCRYPTION_KEY"`
	SyncLockTTL        time.Duration `koanf:"SYNC_LOCK_TTL"`
	SeedDefaults       bool          `koanf:"SEED_DEFAULTS"`
}

var appConfig *Config

// Default returns a Config populated with development defaults.
func Default() *Config {
	return &Config{
		Env:  "development",
		Port: "8080",

		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "pennywise",
		DBPassword: "pennywise",
		DBName:     "pennywise",
		DBSSLMode:  "disable",

		PlaidEnv:       "sandbox",
		PlaidPageSize:  500,
		PlaidRetries:   3,
		PlaidUserAgent: "Pennywise",

		SyncLockTTL:  10 * time.Minute,
		SeedDefaults: true,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appConfig = cfg
	return cfg, nil
}

// Validate rejects settings the sync engine cannot run with.
func (c *Config) Validate() error {
	if c.PlaidPageSize < 1 || c.PlaidPageSize > 500 {
		return fmt.Errorf("PLAID_SYNC_PAGE_SIZE must be between 1 and 500, got %d", c.PlaidPageSize)
	}
	if c.SyncLockTTL <= 0 {
		return fmt.Errorf("SYNC_LOCK_TTL must be positive, got %s", c.SyncLockTTL)
	}
	switch c.PlaidEnv {
	case "sandbox", "development", "production":
	default:
		return fmt.Errorf("PLAID_ENV must be sandbox, development or production, got %q", c.PlaidEnv)
	}
	return nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}
