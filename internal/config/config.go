package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	GRPC      GRPCConfig
	DB        DatabaseConfig
	Logging   LoggingConfig
	Events    EventsConfig
	Sweep     SweepConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig

	// Location is the zone in which volunteer availability is evaluated.
	Location *time.Location
	timezone string
}

type GRPCConfig struct {
	Port int
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

type EventsConfig struct {
	Workers    int
	BufferSize int
}

type SweepConfig struct {
	Enabled  bool
	Interval time.Duration
}

type RateLimitConfig struct {
	RPS float64
}

type CORSConfig struct {
	Origins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/food-rescue.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Events: EventsConfig{
			Workers:    getEnvInt("EVENT_WORKERS", 2),
			BufferSize: getEnvInt("EVENT_BUFFER_SIZE", 256),
		},
		Sweep: SweepConfig{
			Enabled:  getEnvBool("SWEEP_ENABLED", true),
			Interval: getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RPS: getEnvFloat("RATE_LIMIT_RPS", 20),
		},
		CORS: CORSConfig{
			Origins: getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		timezone: getEnv("TIMEZONE", "UTC"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Events.Workers < 1 {
		return fmt.Errorf("event workers must be at least 1")
	}
	if c.Events.BufferSize < 1 {
		return fmt.Errorf("event buffer size must be at least 1")
	}
	if c.Sweep.Enabled && c.Sweep.Interval < time.Second {
		return fmt.Errorf("sweep interval must be at least 1 second")
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	loc, err := time.LoadLocation(c.timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.timezone, err)
	}
	c.Location = loc

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
