package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	// DefaultTTL is how long a cached reading stays valid.
	DefaultTTL = 30 * time.Minute

	// DefaultPrefix namespaces cache entries inside the LocalStore.
	DefaultPrefix = "weather_cached_data_"
)

// Entry is the persisted form of one cached value.
// ExpiresAtMs is always WrittenAtMs + TTL.
type Entry[T any] struct {
	Payload     T     `json:"payload"`
	WrittenAtMs int64 `json:"writtenAtMs"`
	ExpiresAtMs int64 `json:"expiresAtMs"`
}

// Config configures a Layer. Zero values fall back to the defaults.
type Config struct {
	TTL    time.Duration
	Prefix string
	Now    func() time.Time
	Logger *zap.Logger
}

// Layer keeps per-city values in a LocalStore with passive, read-time expiry.
type Layer[T any] struct {
	store  weather.LocalStore
	ttl    time.Duration
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

func New[T any](store weather.LocalStore, cfg Config) *Layer[T] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Layer[T]{
		store:  store,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
		now:    cfg.Now,
		logger: cfg.Logger.Named("cache"),
	}
}

// TTL returns the configured time-to-live.
func (l *Layer[T]) TTL() time.Duration {
	return l.ttl
}

func (l *Layer[T]) key(city string) string {
	return l.prefix + common.NormalizeCity(city)
}

// Write stores payload for city, replacing any earlier entry.
func (l *Layer[T]) Write(ctx context.Context, city string, payload T) error {
	const op = "cache.write"

	if common.IsBlank(city) {
		return weather.NewError(weather.KindInvalidInput, op, "city must not be blank", nil)
	}

	now := l.now().UnixMilli()
	raw, err := json.Marshal(Entry[T]{
		Payload:     payload,
		WrittenAtMs: now,
		ExpiresAtMs: now + l.ttl.Milliseconds(),
	})
	if err != nil {
		return weather.NewError(weather.KindStorageFailure, op, "failed to encode cache entry", err)
	}

	if err := l.store.Set(ctx, l.key(city), string(raw)); err != nil {
		return weather.NewError(weather.KindStorageFailure, op, "failed to write cache entry", err)
	}
	return nil
}

// Read returns the cached value for city if one exists and has not expired.
// Expired entries are removed best-effort.
func (l *Layer[T]) Read(ctx context.Context, city string) (T, bool, error) {
	const op = "cache.read"
	var zero T

	if common.IsBlank(city) {
		return zero, false, weather.NewError(weather.KindInvalidInput, op, "city must not be blank", nil)
	}

	key := l.key(city)
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return zero, false, weather.NewError(weather.KindStorageFailure, op, "failed to read cache entry", err)
	}
	if !ok {
		return zero, false, nil
	}

	var entry Entry[T]
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return zero, false, weather.NewError(weather.KindStorageFailure, op, "corrupted cache entry", err)
	}

	if entry.ExpiresAtMs <= l.now().UnixMilli() {
		if err := l.store.Remove(ctx, key); err != nil {
			l.logger.Warn("failed to purge expired entry", zap.String("key", key), zap.Error(err))
		}
		return zero, false, nil
	}

	return entry.Payload, true, nil
}

// Invalidate drops the entry for one city.
func (l *Layer[T]) Invalidate(ctx context.Context, city string) error {
	if err := l.store.Remove(ctx, l.key(city)); err != nil {
		return weather.NewError(weather.KindStorageFailure, "cache.invalidate", "failed to remove cache entry", err)
	}
	return nil
}

// InvalidateAll removes every entry under the cache prefix. Other keys in the
// store are left alone.
func (l *Layer[T]) InvalidateAll(ctx context.Context) error {
	const op = "cache.invalidate_all"

	keys, err := l.store.ListKeys(ctx)
	if err != nil {
		return weather.NewError(weather.KindStorageFailure, op, "failed to list keys", err)
	}

	var ours []string
	for _, k := range keys {
		if strings.HasPrefix(k, l.prefix) {
			ours = append(ours, k)
		}
	}
	if len(ours) == 0 {
		return nil
	}

	if err := l.store.RemoveMany(ctx, ours); err != nil {
		return weather.NewError(weather.KindStorageFailure, op, "failed to remove cache entries", err)
	}
	l.logger.Debug("cache invalidated", zap.Int("entries", len(ours)))
	return nil
}
