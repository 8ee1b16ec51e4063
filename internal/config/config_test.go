package config

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(nil)
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.MaxRetries != 0 || cfg.CacheTTL != 30*time.Minute || cfg.ForecastDays != 5 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv([]string{
		"WEATHER_PROVIDER=Mock",
		"HTTP_TIMEOUT=3s",
		"WEATHER_MAX_RETRIES=2",
		"CACHE_TTL=5m",
		"FORECAST_DAYS=7",
		"STORE_BACKEND=redis",
		"REFRESH_INTERVAL=0",
		"KAFKA_BROKERS=kafka-1:9092, kafka-2:9092,",
		"LOG_DEVELOPMENT=true",
		"PORT=9090",
		"UNRELATED=x",
		"CACHE_TTL_EMPTY=",
	})
	if err != nil {
		t.Fatalf("from env: %v", err)
	}

	if cfg.WeatherProvider != ProviderMock {
		t.Fatalf("expected mock provider, got %q", cfg.WeatherProvider)
	}
	if cfg.HTTPTimeout != 3*time.Second || cfg.MaxRetries != 2 || cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected timing overrides %+v", cfg)
	}
	if cfg.ForecastDays != 7 || cfg.StoreBackend != "redis" || cfg.RefreshInterval != 0 {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"kafka-1:9092", "kafka-2:9092"}) {
		t.Fatalf("unexpected brokers %q", cfg.KafkaBrokers)
	}
	if !cfg.LogDevelopment || cfg.Port != "9090" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestFromEnvRejectsBadDuration(t *testing.T) {
	if _, err := FromEnv([]string{"CACHE_TTL=soon"}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"unknown provider", func(c *AppConfig) { c.WeatherProvider = "openweather" }},
		{"bad endpoint", func(c *AppConfig) { c.WeatherEndpoint = "not a url" }},
		{"unknown backend", func(c *AppConfig) { c.StoreBackend = "sqlite" }},
		{"postgres without url", func(c *AppConfig) { c.StoreBackend = "postgres" }},
		{"zero timeout", func(c *AppConfig) { c.HTTPTimeout = 0 }},
		{"zero ttl", func(c *AppConfig) { c.CacheTTL = 0 }},
		{"too many days", func(c *AppConfig) { c.ForecastDays = 8 }},
		{"zero days", func(c *AppConfig) { c.ForecastDays = 0 }},
		{"negative interval", func(c *AppConfig) { c.RefreshInterval = -time.Minute }},
		{"brokers without topic", func(c *AppConfig) { c.KafkaBrokers = []string{"k:9092"}; c.KafkaTopic = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadReadsProcessEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://weather@localhost:5432/weather")
	t.Setenv("REFRESH_INTERVAL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != "postgres" || cfg.RefreshInterval != time.Hour {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
