package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	SpotPrice SpotPriceConfig `yaml:"spot_price" envconfig:"SPOT_PRICE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"20"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// Storage backend names accepted by StorageConfig.Backend.
const (
	BackendCSV    = "csv"
	BackendSheets = "sheets"
)

// StorageConfig selects and configures the historical table backend.
// The two backends are interchangeable whole-table stores; "sheets"
// requires a spreadsheet ID and service account credentials, and the
// local CSV path doubles as the fallback target when a remote write
// fails.
type StorageConfig struct {
	Backend         string `yaml:"backend" envconfig:"BACKEND" default:"csv"`
	CSVPath         string `yaml:"csv_path" envconfig:"CSV_PATH" default:"data/derivative_data_db.csv"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	SheetName       string `yaml:"sheet_name" envconfig:"SHEET_NAME" default:"DerivativesDB"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// SpotPriceConfig configures the reference index price lookup
type SpotPriceConfig struct {
	Symbol   string        `yaml:"symbol" envconfig:"SYMBOL" default:"^NSEI"`
	BaseURL  string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://query1.finance.yahoo.com"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"10s"`
	RPS      float64       `yaml:"rps" envconfig:"RPS" default:"2"`
	Lookback int           `yaml:"lookback_days" envconfig:"LOOKBACK_DAYS" default:"5"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("OIPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Storage.Backend == "" {
		envConfig.Storage.Backend = fileConfig.Storage.Backend
	}
	if envConfig.Storage.SpreadsheetID == "" {
		envConfig.Storage.SpreadsheetID = fileConfig.Storage.SpreadsheetID
	}
	if envConfig.Storage.CredentialsFile == "" {
		envConfig.Storage.CredentialsFile = fileConfig.Storage.CredentialsFile
	}
	if envConfig.SpotPrice.Symbol == "" {
		envConfig.SpotPrice.Symbol = fileConfig.SpotPrice.Symbol
	}

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendCSV:
	case BackendSheets:
		if c.Storage.SpreadsheetID == "" {
			return fmt.Errorf("sheets backend requires a spreadsheet id")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxUploadBytes:  10 << 20,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    10,
			RateLimitBurst:  20,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Storage: StorageConfig{
			Backend:   "csv",
			CSVPath:   "data/derivative_data_db.csv",
			SheetName: "DerivativesDB",
		},
		SpotPrice: SpotPriceConfig{
			Symbol:   "^NSEI",
			BaseURL:  "https://query1.finance.yahoo.com",
			Timeout:  10 * time.Second,
			RPS:      2,
			Lookback: 5,
		},
	}
}
