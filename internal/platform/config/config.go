package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process level configuration.
type Config struct {
	DatabaseURL string
	Redis       RedisConfig
	CacheTTL    time.Duration
	LogLevel    string
	LogFormat   string
}

// RedisConfig configures the optional read cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		DatabaseURL: os.Getenv("FLOWCARE_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("FLOWCARE_REDIS_URL"),
			PoolSize:     intEnv("FLOWCARE_REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("FLOWCARE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationEnv("FLOWCARE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("FLOWCARE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("FLOWCARE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		CacheTTL:  durationEnv("FLOWCARE_CACHE_TTL", 5*time.Minute),
		LogLevel:  stringEnv("FLOWCARE_LOG_LEVEL", "info"),
		LogFormat: stringEnv("FLOWCARE_LOG_FORMAT", "text"),
	}
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
