package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment `yaml:"environment" validate:"oneof=development test ci production"`

	// Server configuration
	ServerHost string `yaml:"server_host"`
	ServerPort string `yaml:"server_port" validate:"required,numeric"`

	// Database configuration
	DBDriver      string `yaml:"db_driver" validate:"oneof=postgres sqlite"`
	DBHost        string `yaml:"db_host" validate:"required_if=DBDriver postgres"`
	DBPort        string `yaml:"db_port" validate:"required_if=DBDriver postgres"`
	DBUser        string `yaml:"db_user" validate:"required_if=DBDriver postgres"`
	DBPassword    string `yaml:"db_password"`
	DBName        string `yaml:"db_name" validate:"required_if=DBDriver postgres"`
	DBSSLMode     string `yaml:"db_ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	SQLitePath    string `yaml:"sqlite_path" validate:"required_if=DBDriver sqlite"`
	MigrationsDir string `yaml:"migrations_dir"`

	// Redis backs the rate limiter; empty disables it.
	RedisURL        string        `yaml:"redis_url" validate:"omitempty,url"`
	RateLimit       int           `yaml:"rate_limit" validate:"min=0"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" validate:"dive,url"`
	SeedDefaults       bool     `yaml:"seed_defaults"`
	LogLevel           string   `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Backups
	S3BucketName string `yaml:"s3_bucket_name"`
	AWSRegion    string `yaml:"aws_region"`
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// PostgresDSN builds a key/value connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	sslMode := c.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode,
	)
}

// LoadConfig builds the configuration for the current environment.
// Defaults are applied first, then the optional CONFIG_FILE, then
// environment variables; the result is validated.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := defaults(env)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	// Production passwords come from Docker secrets
	if cfg.DBPassword == "" {
		cfg.DBPassword = readSecret("db_password")
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaults(env Environment) *Config {
	cfg := &Config{
		Environment:        env,
		ServerPort:         "8080",
		DBDriver:           DriverSQLite,
		DBHost:             "localhost",
		DBPort:             "5432",
		DBSSLMode:          "disable",
		SQLitePath:         "recipes.db",
		RateLimit:          60,
		RateLimitWindow:    time.Minute,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		SeedDefaults:       true,
		LogLevel:           "debug",
	}

	if env == Production {
		cfg.DBDriver = DriverPostgres
		cfg.SeedDefaults = false
		cfg.LogLevel = "info"
	}

	return cfg
}

func loadFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	cfg.ServerHost = loadWithDefault("SERVER_HOST", cfg.ServerHost)
	cfg.ServerPort = loadWithDefault("SERVER_PORT", cfg.ServerPort)

	cfg.DBDriver = loadWithDefault("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = loadWithDefault("DB_HOST", cfg.DBHost)
	cfg.DBPort = loadWithDefault("DB_PORT", cfg.DBPort)
	cfg.DBUser = loadWithDefault("DB_USER", cfg.DBUser)
	cfg.DBPassword = loadWithDefault("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = loadWithDefault("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = loadWithDefault("DB_SSL_MODE", cfg.DBSSLMode)
	cfg.SQLitePath = loadWithDefault("SQLITE_PATH", cfg.SQLitePath)
	cfg.MigrationsDir = loadWithDefault("MIGRATIONS_DIR", cfg.MigrationsDir)

	cfg.RedisURL = loadWithDefault("REDIS_URL", cfg.RedisURL)
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT (%q): %w", v, err)
		}
		cfg.RateLimit = n
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_WINDOW (%q): %w", v, err)
		}
		cfg.RateLimitWindow = d
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SEED_DEFAULTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SEED_DEFAULTS (%q): %w", v, err)
		}
		cfg.SeedDefaults = b
	}
	cfg.LogLevel = strings.ToLower(loadWithDefault("LOG_LEVEL", cfg.LogLevel))

	cfg.S3BucketName = loadWithDefault("S3_BUCKET_NAME", cfg.S3BucketName)
	cfg.AWSRegion = loadWithDefault("AWS_REGION", cfg.AWSRegion)

	return nil
}

func loadWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
