package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"

	StoreMemory   = "memory"
	StoreDatabase = "database"
	StoreRedis    = "redis"

	InboundSimulated = "simulated"
	InboundWebSocket = "websocket"
	InboundNone      = "none"
)

type Config struct {
	AppEnv    string
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	JWTSecret string
	JWTTTL    time.Duration

	StoreBackend          string
	DatabaseURL           string
	RedisURL              string
	ChatKeyPrefix         string
	NotificationKeyPrefix string

	InboundMode          string
	InboundWSURL         string
	SimulatorInterval    time.Duration
	SimulatorProbability float64

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins string
	SeedDefaultChats   bool

	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
}

// Load reads configuration from the environment, after applying a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("DATABASE_URL", "seswa.db")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("STORE_CHAT_PREFIX", "seswa_chats")
	v.SetDefault("STORE_NOTIFICATION_PREFIX", "seswa_notifications")
	v.SetDefault("INBOUND_MODE", InboundSimulated)
	v.SetDefault("INBOUND_WS_URL", "")
	v.SetDefault("SIMULATOR_INTERVAL", "30s")
	v.SetDefault("SIMULATOR_PROBABILITY", 0.3)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("SEED_DEFAULT_CHATS", true)
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")
	return v
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:                strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		HTTPAddr:              strings.TrimSpace(v.GetString("HTTP_ADDR")),
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFormat:             v.GetString("LOG_FORMAT"),
		JWTSecret:             strings.TrimSpace(v.GetString("JWT_SECRET")),
		StoreBackend:          strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		DatabaseURL:           strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisURL:              strings.TrimSpace(v.GetString("REDIS_URL")),
		ChatKeyPrefix:         strings.TrimSpace(v.GetString("STORE_CHAT_PREFIX")),
		NotificationKeyPrefix: strings.TrimSpace(v.GetString("STORE_NOTIFICATION_PREFIX")),
		InboundMode:           strings.ToLower(strings.TrimSpace(v.GetString("INBOUND_MODE"))),
		InboundWSURL:          strings.TrimSpace(v.GetString("INBOUND_WS_URL")),
		SimulatorProbability:  v.GetFloat64("SIMULATOR_PROBABILITY"),
		RateLimitRPS:          v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:        v.GetInt("RATE_LIMIT_BURST"),
		CORSAllowedOrigins:    v.GetString("CORS_ALLOWED_ORIGINS"),
		SeedDefaultChats:      v.GetBool("SEED_DEFAULT_CHATS"),
	}

	var err error
	if cfg.JWTTTL, err = parseDuration(v, "JWT_TTL"); err != nil {
		return nil, err
	}
	if cfg.SimulatorInterval, err = parseDuration(v, "SIMULATOR_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = parseDuration(v, "SESSION_IDLE_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = parseDuration(v, "SESSION_SWEEP_INTERVAL"); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be > 0")
	}
	if cfg.ChatKeyPrefix == "" || cfg.NotificationKeyPrefix == "" {
		return errors.New("STORE_CHAT_PREFIX and STORE_NOTIFICATION_PREFIX must not be empty")
	}
	if cfg.ChatKeyPrefix == cfg.NotificationKeyPrefix {
		return errors.New("STORE_CHAT_PREFIX and STORE_NOTIFICATION_PREFIX must differ")
	}

	switch cfg.StoreBackend {
	case StoreMemory:
	case StoreDatabase:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for STORE_BACKEND=database")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required for STORE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: memory, database, redis (got %q)", cfg.StoreBackend)
	}

	switch cfg.InboundMode {
	case InboundNone:
	case InboundSimulated:
		if cfg.SimulatorInterval <= 0 {
			return errors.New("SIMULATOR_INTERVAL must be > 0")
		}
		if cfg.SimulatorProbability < 0 || cfg.SimulatorProbability > 1 {
			return errors.New("SIMULATOR_PROBABILITY must be within [0, 1]")
		}
	case InboundWebSocket:
		if cfg.InboundWSURL == "" {
			return errors.New("INBOUND_WS_URL is required for INBOUND_MODE=websocket")
		}
	default:
		return fmt.Errorf("INBOUND_MODE must be one of: simulated, websocket, none (got %q)", cfg.InboundMode)
	}

	if cfg.SessionIdleTimeout <= 0 || cfg.SessionSweepInterval <= 0 {
		return errors.New("SESSION_IDLE_TIMEOUT and SESSION_SWEEP_INTERVAL must be > 0")
	}

	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}

	if isProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return errors.New("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

func isProdLike(env string) bool {
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(name))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}
