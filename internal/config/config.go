package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"trade-ledger/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	// Storage
	StoreBackend  string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	MigrationsDir string

	// HTTP
	ServerPort     string
	AllowedOrigins string

	// Transactions
	TxMaxAttempts     int
	TxInitialInterval time.Duration

	// Business defaults, overridable through the settings collection
	TaxRate           decimal.Decimal
	LowStockThreshold int64

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		StoreBackend:   getEnv("STORE_BACKEND", BackendPostgres),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "trade_ledger"),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:      getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if config.TxMaxAttempts, err = strconv.Atoi(getEnv("TX_MAX_ATTEMPTS", "5")); err != nil {
		return nil, fmt.Errorf("invalid TX_MAX_ATTEMPTS: %w", err)
	}
	if config.TxInitialInterval, err = time.ParseDuration(getEnv("TX_INITIAL_INTERVAL", "10ms")); err != nil {
		return nil, fmt.Errorf("invalid TX_INITIAL_INTERVAL: %w", err)
	}
	if config.TaxRate, err = decimal.NewFromString(getEnv("TAX_RATE", "0.11")); err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	if config.LowStockThreshold, err = strconv.ParseInt(getEnv("LOW_STOCK_THRESHOLD", "10"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid LOW_STOCK_THRESHOLD: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", BackendPostgres)
		}
	case BackendMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DATABASE are required when STORE_BACKEND=%s", BackendMongo)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want memory, postgres or mongo)", c.StoreBackend)
	}
	if c.TxMaxAttempts < 1 {
		return fmt.Errorf("TX_MAX_ATTEMPTS must be at least 1")
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("TAX_RATE must be between 0 and 1")
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
