package config

import (
	"encoding/json"
	"os"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string        `json:"serverAddress"`
	DatabasePath  string        `json:"databasePath"`
	DatabaseURL   string        `json:"databaseUrl"`
	Security      Security      `json:"security"`
	Observability Observability `json:"observability"`
}

// Security configuration
type Security struct {
	APIKeyHeader string `json:"apiKeyHeader"`
}

// Observability configuration. An empty OTLP endpoint disables export.
type Observability struct {
	OTLPEndpoint string `json:"otlpEndpoint"`
	LogLevel     string `json:"logLevel"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":5000",
		DatabasePath:  "flowsync.db",
		Security: Security{
			APIKeyHeader: "X-API-Key",
		},
		Observability: Observability{
			LogLevel: "info",
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	// Try to load from config file
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if header := os.Getenv("API_KEY_HEADER"); header != "" {
		cfg.Security.APIKeyHeader = header
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Observability.OTLPEndpoint = endpoint
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Observability.LogLevel = level
	}

	return cfg, nil
}
