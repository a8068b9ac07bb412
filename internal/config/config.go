package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the autorovers service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Compare  CompareConfig  `yaml:"compare"`
	Events   EventsConfig   `yaml:"events"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int  `yaml:"port"`
	ReadTimeoutSec  int  `yaml:"read_timeout_sec"`
	WriteTimeoutSec int  `yaml:"write_timeout_sec"`
	ShutdownSec     int  `yaml:"shutdown_timeout_sec"`
	SecureCookie    bool `yaml:"secure_cookie"` // mark the session cookie Secure (HTTPS only)
}

// Storage drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// DatabaseConfig holds key-value store connection settings.
type DatabaseConfig struct {
	Driver               string   `yaml:"driver"` // valkey, redis, file, memory (default: valkey)
	Addrs                []string `yaml:"addrs"`
	Username             string   `yaml:"username"`
	Password             string   `yaml:"password"`
	DB                   int      `yaml:"db"`
	ReadinessTimeout     int      `yaml:"readiness_timeout_sec"`
	EnableKeyspaceEvents bool     `yaml:"enable_keyspace_events"`
	FileDir              string   `yaml:"file_dir"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// CatalogConfig points at the upstream vehicle catalog API.
type CatalogConfig struct {
	BaseURL    string  `yaml:"base_url"`
	Token      string  `yaml:"token"`
	TimeoutSec int     `yaml:"timeout_sec"`
	RatePerSec float64 `yaml:"rate_per_sec"` // 0 = unlimited
	Burst      int     `yaml:"burst"`
	CacheSec   int     `yaml:"cache_sec"` // 0 = no detail cache
}

// Comparison policies.
const (
	ValidationStrict  = "strict"
	ValidationLenient = "lenient"

	FuelDefaultPetrol = "default-petrol"
	FuelReject        = "reject"
)

// CompareConfig selects the normalization policy for comparisons.
type CompareConfig struct {
	Validation      string `yaml:"validation"` // strict | lenient
	Fuel            string `yaml:"fuel"`       // default-petrol | reject
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec"`
}

// EventsConfig enables publishing of selection changes to NATS.
type EventsConfig struct {
	NATSURL       string `yaml:"nats_url"` // empty = disabled
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file next to the working directory is loaded first when present.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, expands env variables, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.Driver == DriverFile && c.Database.FileDir == "" {
		c.Database.FileDir = "data"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "autorovers:"
	}
	if c.Catalog.TimeoutSec <= 0 {
		c.Catalog.TimeoutSec = 10
	}
	if c.Catalog.RatePerSec > 0 && c.Catalog.Burst <= 0 {
		c.Catalog.Burst = 4
	}
	if c.Compare.Validation == "" {
		c.Compare.Validation = ValidationStrict
	}
	if c.Compare.Fuel == "" {
		c.Compare.Fuel = FuelDefaultPetrol
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = "autorovers"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverFile, DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, file, memory, got %q", c.Database.Driver)
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if c.Catalog.CacheSec < 0 {
		return fmt.Errorf("catalog.cache_sec must not be negative, got %d", c.Catalog.CacheSec)
	}
	if c.Catalog.RatePerSec < 0 {
		return fmt.Errorf("catalog.rate_per_sec must not be negative, got %v", c.Catalog.RatePerSec)
	}
	switch c.Compare.Validation {
	case ValidationStrict, ValidationLenient:
	default:
		return fmt.Errorf("compare.validation must be %q or %q, got %q",
			ValidationStrict, ValidationLenient, c.Compare.Validation)
	}
	switch c.Compare.Fuel {
	case FuelDefaultPetrol, FuelReject:
	default:
		return fmt.Errorf("compare.fuel must be %q or %q, got %q",
			FuelDefaultPetrol, FuelReject, c.Compare.Fuel)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
