package weather

import (
	"context"
)

// MaxForecastDays is the most days the endpoint serves in one forecast.
const MaxForecastDays = 7

// DefaultForecastDays is used when a caller does not ask for a specific length.
const DefaultForecastDays = 5

// Client abstracts the weather endpoint (the passthrough proxy, or a mock).
type Client interface {
	GetCurrentWeather(ctx context.Context, city string) (WeatherSnapshot, error)
	GetForecast(ctx context.Context, city string, days int) ([]ForecastDay, error)
}

// LocalStore is the durable key-value store supplied by the host.
// Values are opaque strings; callers serialize their own data.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
	RemoveMany(ctx context.Context, keys []string) error
}
