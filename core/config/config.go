package config

import (
	"fmt"
	"strings"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host     string `mapstructure:"SERVER_HOST"`
	Port     int    `mapstructure:"SERVER_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"DB_HOST"`
	Port     int    `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type JWTConfig struct {
	Secret          string `mapstructure:"JWT_SECRET"`
	AccessTTLHours  int    `mapstructure:"JWT_ACCESS_TTL_HOURS"`
	RefreshTTLHours int    `mapstructure:"JWT_REFRESH_TTL_HOURS"`
}

type PartyConfig struct {
	DefaultDurationMinutes int    `mapstructure:"PARTY_DEFAULT_DURATION_MINUTES"`
	RestoreGraceMinutes    int    `mapstructure:"PARTY_RESTORE_GRACE_MINUTES"`
	PruneIntervalSeconds   int    `mapstructure:"PARTY_PRUNE_INTERVAL_SECONDS"`
	LockWaitMillis         int    `mapstructure:"PARTY_LOCK_WAIT_MILLIS"`
	LiveBufferSize         int    `mapstructure:"PARTY_LIVE_BUFFER_SIZE"`
	LiveTransport          string `mapstructure:"PARTY_LIVE_TRANSPORT"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:",squash"`
	Database DatabaseConfig `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	JWT      JWTConfig      `mapstructure:",squash"`
	Party    PartyConfig    `mapstructure:",squash"`
}

// Load reads .env (when present) and the environment into a Config. The
// returned value is injected into constructors; there is no package-level
// config singleton.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("Config:Load:NoDotEnv", "reason", err.Error())
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 7070)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "meetriders")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL_HOURS", 24)
	v.SetDefault("JWT_REFRESH_TTL_HOURS", 168)

	v.SetDefault("PARTY_DEFAULT_DURATION_MINUTES", 30)
	v.SetDefault("PARTY_RESTORE_GRACE_MINUTES", 5)
	v.SetDefault("PARTY_PRUNE_INTERVAL_SECONDS", 45)
	v.SetDefault("PARTY_LOCK_WAIT_MILLIS", 2000)
	v.SetDefault("PARTY_LIVE_BUFFER_SIZE", 16)
	v.SetDefault("PARTY_LIVE_TRANSPORT", "memory")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &cfg, nil
}
