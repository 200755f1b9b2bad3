package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultSessionSecret = "default-secret-key-change-me"

type Config struct {
	Port     string `yaml:"port"`
	GinMode  string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`

	DBDriver   string `yaml:"db_driver"` // mysql, postgres, sqlite
	DBDSN      string `yaml:"db_dsn"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`

	SessionStore  string `yaml:"session_store"` // cookie, redis
	SessionSecret string `yaml:"session_secret"`
	SessionMaxAge int    `yaml:"session_max_age"`
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`

	IdentityIssuer   string `yaml:"identity_issuer"`
	IdentityAudience string `yaml:"identity_audience"`
	IdentitySecret   string `yaml:"identity_secret"`

	CORSOrigins []string `yaml:"cors_origins"`

	SignInRPS   float64 `yaml:"sign_in_rps"`
	SignInBurst int     `yaml:"sign_in_burst"`

	OpenAIAPIKey string `yaml:"openai_api_key"`
}

// Load builds the configuration from, in increasing priority: defaults, the YAML
// file named by CONFIG_FILE, and environment variables (a local .env file is
// loaded into the environment first when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Port:             "8080",
		GinMode:          "debug",
		LogLevel:         "info",
		DBDriver:         "mysql",
		DBHost:           "localhost",
		DBPort:           "3306",
		DBUser:           "taskuser",
		DBPassword:       "taskpassword",
		DBName:           "task_management",
		SessionStore:     "redis",
		SessionSecret:    defaultSessionSecret,
		SessionMaxAge:    86400 * 7,
		RedisHost:        "localhost",
		RedisPort:        "6379",
		IdentityIssuer:   "",
		IdentityAudience: "team-tasks",
		IdentitySecret:   "",
		CORSOrigins:      []string{"http://localhost:3000"},
		SignInRPS:        1,
		SignInBurst:      5,
	}
}

func (c *Config) overrideFromEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBDSN = getEnv("DB_DSN", c.DBDSN)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)

	c.SessionStore = getEnv("SESSION_STORE", c.SessionStore)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	c.RedisPort = getEnv("REDIS_PORT", c.RedisPort)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)

	c.IdentityIssuer = getEnv("IDENTITY_ISSUER", c.IdentityIssuer)
	c.IdentityAudience = getEnv("IDENTITY_AUDIENCE", c.IdentityAudience)
	c.IdentitySecret = getEnv("IDENTITY_SECRET", c.IdentitySecret)

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}

	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)

	var err error
	if c.SessionMaxAge, err = getEnvInt("SESSION_MAX_AGE", c.SessionMaxAge); err != nil {
		return err
	}
	if c.SignInBurst, err = getEnvInt("SIGN_IN_BURST", c.SignInBurst); err != nil {
		return err
	}
	if v := os.Getenv("SIGN_IN_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SIGN_IN_RPS must be a number: %w", err)
		}
		c.SignInRPS = rps
	}
	return nil
}

// Validate checks values that cannot be defaulted safely.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be one of: mysql, postgres, sqlite (got: %s)", c.DBDriver)
	}
	switch c.SessionStore {
	case "cookie", "redis":
	default:
		return fmt.Errorf("SESSION_STORE must be one of: cookie, redis (got: %s)", c.SessionStore)
	}
	if c.IdentitySecret == "" {
		return fmt.Errorf("IDENTITY_SECRET is required")
	}
	if c.IsProduction() && c.SessionSecret == defaultSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be set in release mode")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
