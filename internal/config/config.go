package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Config holds user preferences
type Config struct {
	ConfirmDelete bool `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`
	LogFile    string `yaml:"log_file" json:"log_file"`
	LogConsole bool   `yaml:"log_console" json:"log_console"`

	Storage StorageConfig `yaml:"storage" json:"storage"`
	Sync    SyncConfig    `yaml:"sync" json:"sync"`
}

// StorageConfig selects where the local snapshot lives
type StorageConfig struct {
	Driver string `yaml:"driver" json:"driver" validate:"oneof=sqlite file"`
	Path   string `yaml:"path" json:"path" validate:"required"`
}

// SyncConfig configures the remote service. An empty ServerURL means local-only.
type SyncConfig struct {
	ServerURL     string        `yaml:"server_url" json:"server_url" validate:"omitempty,url"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`
	Debounce      time.Duration `yaml:"debounce" json:"debounce" validate:"gte=0"`
	ProbeInterval time.Duration `yaml:"probe_interval" json:"probe_interval" validate:"required_with=ServerURL,gte=0"`
}

// Dir returns the application directory (~/.taskdeck)
func Dir() (string, error) {
	if dir := os.Getenv("TASKDECK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskdeck"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir, _ := Dir()
	logPath := ""
	dbPath := "taskdeck.db"
	if dir != "" {
		logPath = filepath.Join(dir, "logs", "taskdeck.log")
		dbPath = filepath.Join(dir, "taskdeck.db")
	}

	return &Config{
		ConfirmDelete: true,
		LogLevel:      "INFO",
		LogFile:       logPath,
		LogConsole:    false,
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   dbPath,
		},
		Sync: SyncConfig{
			Timeout:       30 * time.Second,
			ProbeInterval: 15 * time.Second,
		},
	}
}

// applyEnv overrides settings from TASKDECK_* variables
func (c *Config) applyEnv() {
	c.LogLevel = getEnv("TASKDECK_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("TASKDECK_LOG_FILE", c.LogFile)
	if v, err := strconv.ParseBool(os.Getenv("TASKDECK_LOG_CONSOLE")); err == nil {
		c.LogConsole = v
	}
	c.Storage.Driver = getEnv("TASKDECK_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Path = getEnv("TASKDECK_STORAGE_PATH", c.Storage.Path)
	c.Sync.ServerURL = getEnv("TASKDECK_SERVER_URL", c.Sync.ServerURL)
	if d, err := time.ParseDuration(os.Getenv("TASKDECK_SYNC_TIMEOUT")); err == nil {
		c.Sync.Timeout = d
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Path returns the config file location
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from ~/.taskdeck/config.yaml, a local .env file and the environment
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile loads config from the given YAML file (defaults if it does not exist)
func LoadFile(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves config to ~/.taskdeck/config.yaml
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(configPath)
}

// SaveFile writes the config as YAML to the given path
func (c *Config) SaveFile(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
