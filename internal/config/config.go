package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
	Log      LogConfig      `toml:"log"`
	CORS     CORSConfig     `toml:"cors"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

type AuthConfig struct {
	MinPasswordLength int `toml:"min_password_length"`
	BcryptCost        int `toml:"bcrypt_cost"`
}

// DatabaseConfig selects one of the supported drivers: mysql, postgres or sqlite.
// Path is only read by the sqlite driver.
type DatabaseConfig struct {
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	Params   string `toml:"params"`
	Path     string `toml:"path"`

	WaitAttempts          int `toml:"wait_attempts"`
	WaitIntervalMillis    int `toml:"wait_interval_ms"`
	WaitMaxIntervalMillis int `toml:"wait_max_interval_ms"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// RabbitMQConfig leaves URL empty to disable contest audit events.
type RabbitMQConfig struct {
	URL             string `toml:"url"`
	AuditEventQueue string `toml:"audit_event_queue"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
	MaxAgeSeconds  int      `toml:"max_age_seconds"`
}

func Load() (*Config, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.MinPasswordLength <= 0 {
		return fmt.Errorf("auth.min_password_length must be positive, got %d", c.Auth.MinPasswordLength)
	}
	return nil
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DSN renders the connection string understood by the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverPostgres:
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.Name)
		if d.Params != "" {
			dsn += "?" + d.Params
		}
		return dsn
	case DriverSQLite:
		return d.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			d.User,
			d.Password,
			d.Host,
			d.Port,
			d.Name,
			d.Params,
		)
	}
}

func (d DatabaseConfig) WaitInterval() time.Duration {
	return time.Duration(d.WaitIntervalMillis) * time.Millisecond
}

func (d DatabaseConfig) WaitMaxInterval() time.Duration {
	return time.Duration(d.WaitMaxIntervalMillis) * time.Millisecond
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "contest-tracker",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8000,
			GinMode: "debug",
		},
		Auth: AuthConfig{
			MinPasswordLength: 5,
			BcryptCost:        10,
		},
		Database: DatabaseConfig{
			Driver:                DriverMySQL,
			Host:                  "127.0.0.1",
			Port:                  3306,
			User:                  "root",
			Password:              "",
			Name:                  "contest_tracker",
			Params:                "parseTime=true&loc=UTC&charset=utf8mb4",
			Path:                  "contest_tracker.db",
			WaitAttempts:          0,
			WaitIntervalMillis:    1000,
			WaitMaxIntervalMillis: 8000,
		},
		Redis: RedisConfig{
			Addr:     "127.0.0.1:6379",
			Password: "",
			DB:       0,
		},
		RabbitMQ: RabbitMQConfig{
			URL:             "",
			AuditEventQueue: "contest.audit.events",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"https://*", "http://*"},
			MaxAgeSeconds:  300,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.Auth.MinPasswordLength = getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", cfg.Auth.MinPasswordLength)
	cfg.Auth.BcryptCost = getEnvAsInt("AUTH_BCRYPT_COST", cfg.Auth.BcryptCost)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvAsInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.Params = getEnv("DB_PARAMS", cfg.Database.Params)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Database.WaitAttempts = getEnvAsInt("DB_WAIT_ATTEMPTS", cfg.Database.WaitAttempts)
	cfg.Database.WaitIntervalMillis = getEnvAsInt("DB_WAIT_INTERVAL_MS", cfg.Database.WaitIntervalMillis)
	cfg.Database.WaitMaxIntervalMillis = getEnvAsInt("DB_WAIT_MAX_INTERVAL_MS", cfg.Database.WaitMaxIntervalMillis)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.AuditEventQueue = getEnv("RABBITMQ_AUDIT_EVENT_QUEUE", cfg.RabbitMQ.AuditEventQueue)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	if raw := getEnv("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		cfg.CORS.AllowedOrigins = splitList(raw)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
