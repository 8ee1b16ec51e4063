package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	ProviderProxy = "proxy"
	ProviderMock  = "mock"
)

type AppConfig struct {
	// WeatherEndpoint is the proxy that fronts the weather API.
	WeatherEndpoint string        `mapstructure:"WEATHER_ENDPOINT"`
	WeatherProvider string        `mapstructure:"WEATHER_PROVIDER"`
	HTTPTimeout     time.Duration `mapstructure:"HTTP_TIMEOUT"`
	MaxRetries      uint          `mapstructure:"WEATHER_MAX_RETRIES"`

	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"`
	ForecastDays int           `mapstructure:"FORECAST_DAYS"`

	StoreBackend string `mapstructure:"STORE_BACKEND"`
	RedisURL     string `mapstructure:"REDIS_URL"`
	RedisPrefix  string `mapstructure:"REDIS_PREFIX"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`

	// RefreshInterval controls how often saved locations are refreshed (0 = never).
	RefreshInterval time.Duration `mapstructure:"REFRESH_INTERVAL"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogDevelopment bool   `mapstructure:"LOG_DEVELOPMENT"`

	Port string `mapstructure:"PORT"`
}

// Default returns the configuration used when nothing is set.
func Default() *AppConfig {
	return &AppConfig{
		WeatherEndpoint: "http://localhost:8787/weather",
		WeatherProvider: ProviderProxy,
		HTTPTimeout:     10 * time.Second,
		MaxRetries:      0,
		CacheTTL:        30 * time.Minute,
		ForecastDays:    weather.DefaultForecastDays,
		StoreBackend:    store.BackendMemory,
		RedisURL:        "redis://localhost:6379/0",
		RedisPrefix:     store.DefaultRedisPrefix,
		RefreshInterval: 15 * time.Minute,
		KafkaTopic:      "weather.snapshots",
		LogLevel:        "info",
		Port:            "8080",
	}
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := FromEnv(os.Environ())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv decodes KEY=VALUE pairs over the defaults. Empty values are ignored.
func FromEnv(environ []string) (*AppConfig, error) {
	cfg := Default()

	input := make(map[string]interface{})
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		input[key] = strings.TrimSpace(value)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("config decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	brokers := cfg.KafkaBrokers[:0]
	for _, b := range cfg.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	cfg.KafkaBrokers = brokers
	cfg.WeatherProvider = strings.ToLower(cfg.WeatherProvider)
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)

	return cfg, nil
}

// Validate rejects unknown enum values and out-of-range numbers.
func (c *AppConfig) Validate() error {
	switch c.WeatherProvider {
	case ProviderProxy:
		u, err := url.Parse(c.WeatherEndpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid WEATHER_ENDPOINT %q", c.WeatherEndpoint)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown WEATHER_PROVIDER %q", c.WeatherProvider)
	}

	switch c.StoreBackend {
	case store.BackendMemory, store.BackendRedis:
	case store.BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.ForecastDays < 1 || c.ForecastDays > weather.MaxForecastDays {
		return fmt.Errorf("FORECAST_DAYS must be between 1 and %d", weather.MaxForecastDays)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL must not be negative")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}
