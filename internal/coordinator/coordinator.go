package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/events"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// SnapshotCache is the subset of cache.Layer the coordinator needs.
type SnapshotCache interface {
	Read(ctx context.Context, city string) (weather.WeatherSnapshot, bool, error)
	Write(ctx context.Context, city string, snap weather.WeatherSnapshot) error
	Invalidate(ctx context.Context, city string) error
	InvalidateAll(ctx context.Context) error
}

// LocationStore is the subset of locations.Store the coordinator needs.
type LocationStore interface {
	List(ctx context.Context) ([]weather.SavedLocation, error)
	Add(ctx context.Context, loc weather.SavedLocation) error
	Remove(ctx context.Context, id string) error
	Update(ctx context.Context, id string, patch weather.LocationPatch) error
}

// State is a copy of the coordinator's view state.
type State struct {
	Current   *weather.WeatherSnapshot
	Forecast  []weather.ForecastDay
	Loading   bool
	LastError error
	Saved     []weather.SavedLocation
}

// RefreshFailure records one saved city whose refresh did not apply.
type RefreshFailure struct {
	ID   string
	City string
	Err  error
}

// RefreshReport is the per-city outcome of RefreshAll.
type RefreshReport struct {
	Updated []string
	Failed  []RefreshFailure
}

// Coordinator resolves weather through cache then network, manages the saved
// list, and holds the view state the presentation layer reads.
type Coordinator struct {
	client    weather.Client
	cache     SnapshotCache
	saved     LocationStore
	publisher events.Publisher
	logger    *zap.Logger

	forecastDays int
	newID        func() string

	mu    sync.RWMutex
	state State
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithForecastDays sets how many days FetchForecast asks for.
func WithForecastDays(days int) Option {
	return func(c *Coordinator) {
		c.forecastDays = days
	}
}

// WithIDGenerator replaces the UUID generator used for new saved locations.
func WithIDGenerator(gen func() string) Option {
	return func(c *Coordinator) {
		c.newID = gen
	}
}

// WithPublisher announces every network-fetched snapshot.
func WithPublisher(p events.Publisher) Option {
	return func(c *Coordinator) {
		c.publisher = p
	}
}

func New(client weather.Client, cache SnapshotCache, saved LocationStore, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		client:       client,
		cache:        cache,
		saved:        saved,
		publisher:    events.Nop{},
		logger:       logger.Named("coordinator"),
		forecastDays: weather.DefaultForecastDays,
		newID:        uuid.NewString,
		state: State{
			Forecast: []weather.ForecastDay{},
			Saved:    []weather.SavedLocation{},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// beginRequest moves the view into Loading and clears the previous outcome.
func (c *Coordinator) beginRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = true
	c.state.LastError = nil
}

// endRequest is the single exit path of a fetch; it always clears Loading.
func (c *Coordinator) endRequest(err *error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if *err != nil {
		c.state.LastError = *err
	}
}

// FetchCurrent returns the current weather for city, from cache when fresh.
// On failure the previously shown snapshot stays in place and the error is
// available from LastError.
func (c *Coordinator) FetchCurrent(ctx context.Context, city string) (snap weather.WeatherSnapshot, err error) {
	const op = "coordinator.fetch_current"

	c.beginRequest()
	defer c.endRequest(&err)

	city = strings.TrimSpace(city)
	if city == "" {
		return weather.WeatherSnapshot{}, weather.NewError(weather.KindInvalidInput, op, "city must not be blank", nil)
	}

	cached, ok, cerr := c.cache.Read(ctx, city)
	switch {
	case cerr != nil:
		c.logger.Warn("cache read failed; falling back to network", zap.String("city", city), zap.Error(cerr))
	case ok:
		c.logger.Debug("cache hit", zap.String("city", city))
		c.setCurrent(cached)
		return cached, nil
	}

	snap, err = c.client.GetCurrentWeather(ctx, city)
	if err != nil {
		c.logger.Warn("current weather fetch failed", zap.String("city", city), zap.Error(err))
		return weather.WeatherSnapshot{}, err
	}

	if werr := c.cache.Write(ctx, city, snap); werr != nil {
		c.logger.Warn("cache write failed", zap.String("city", city), zap.Error(werr))
	}
	c.publisher.PublishSnapshot(ctx, snap, events.SourceFetch)
	c.setCurrent(snap)
	return snap, nil
}

// FetchForecast always goes to the network; forecasts are not cached.
func (c *Coordinator) FetchForecast(ctx context.Context, city string) ([]weather.ForecastDay, error) {
	return c.FetchForecastDays(ctx, city, c.forecastDays)
}

// FetchForecastDays is FetchForecast with an explicit day count.
func (c *Coordinator) FetchForecastDays(ctx context.Context, city string, n int) (days []weather.ForecastDay, err error) {
	const op = "coordinator.fetch_forecast"

	c.beginRequest()
	defer c.endRequest(&err)

	city = strings.TrimSpace(city)
	if city == "" {
		return nil, weather.NewError(weather.KindInvalidInput, op, "city must not be blank", nil)
	}

	days, err = c.client.GetForecast(ctx, city, n)
	if err != nil {
		c.logger.Warn("forecast fetch failed", zap.String("city", city), zap.Error(err))
		return nil, err
	}

	c.mu.Lock()
	c.state.Forecast = append([]weather.ForecastDay(nil), days...)
	c.mu.Unlock()
	return days, nil
}

// RefreshAll fetches current weather for every saved city concurrently and
// applies each success independently. A failed city keeps its stored data and
// is reported in the result; only failing to list the saved set is an error.
func (c *Coordinator) RefreshAll(ctx context.Context) (RefreshReport, error) {
	report := RefreshReport{Updated: []string{}, Failed: []RefreshFailure{}}

	saved, err := c.saved.List(ctx)
	if err != nil {
		return report, fmt.Errorf("coordinator: list saved locations: %w", err)
	}
	if len(saved) == 0 {
		return report, nil
	}

	type result struct {
		loc  weather.SavedLocation
		snap weather.WeatherSnapshot
		err  error
	}

	results := make([]result, len(saved))
	var wg sync.WaitGroup
	for i, loc := range saved {
		i, loc := i, loc
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := c.client.GetCurrentWeather(ctx, loc.City)
			results[i] = result{loc: loc, snap: snap, err: err}
		}()
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			c.logger.Warn("refresh failed; keeping stored data", zap.String("city", r.loc.City), zap.Error(r.err))
			report.Failed = append(report.Failed, RefreshFailure{ID: r.loc.ID, City: r.loc.City, Err: r.err})
			continue
		}
		if err := c.saved.Update(ctx, r.loc.ID, weather.PatchFromSnapshot(r.snap)); err != nil {
			c.logger.Warn("failed to store refreshed reading", zap.String("city", r.loc.City), zap.Error(err))
			report.Failed = append(report.Failed, RefreshFailure{ID: r.loc.ID, City: r.loc.City, Err: err})
			continue
		}
		c.publisher.PublishSnapshot(ctx, r.snap, events.SourceRefresh)
		report.Updated = append(report.Updated, r.loc.ID)
	}

	if _, err := c.LoadSavedLocations(ctx); err != nil {
		c.logger.Warn("failed to reload saved locations after refresh", zap.Error(err))
	}

	c.logger.Info("refresh completed",
		zap.Int("updated", len(report.Updated)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// AddLocation confirms city with the weather endpoint and saves it under the
// endpoint's canonical name. Nothing is stored if any step fails.
func (c *Coordinator) AddLocation(ctx context.Context, city string) (weather.SavedLocation, error) {
	const op = "coordinator.add_location"

	city = strings.TrimSpace(city)
	if city == "" {
		return weather.SavedLocation{}, weather.NewError(weather.KindInvalidInput, op, "city must not be blank", nil)
	}

	current, err := c.saved.List(ctx)
	if err != nil {
		return weather.SavedLocation{}, err
	}
	for _, existing := range current {
		if common.SameCity(existing.City, city) {
			return weather.SavedLocation{}, weather.NewError(weather.KindDuplicateCity, op, fmt.Sprintf("%s is already saved", existing.City), nil)
		}
	}

	snap, err := c.client.GetCurrentWeather(ctx, city)
	if err != nil {
		return weather.SavedLocation{}, err
	}

	loc := weather.NewSavedLocation(c.newID(), snap)
	if err := c.saved.Add(ctx, loc); err != nil {
		return weather.SavedLocation{}, err
	}

	if _, err := c.LoadSavedLocations(ctx); err != nil {
		c.logger.Warn("failed to reload saved locations after add", zap.Error(err))
	}
	c.logger.Info("location added", zap.String("id", loc.ID), zap.String("city", loc.City))
	return loc, nil
}

// RemoveLocation deletes id and returns the list as stored afterwards.
func (c *Coordinator) RemoveLocation(ctx context.Context, id string) ([]weather.SavedLocation, error) {
	if err := c.saved.Remove(ctx, id); err != nil {
		return nil, err
	}
	return c.LoadSavedLocations(ctx)
}

// LoadSavedLocations re-reads the saved list into the view state.
func (c *Coordinator) LoadSavedLocations(ctx context.Context) ([]weather.SavedLocation, error) {
	list, err := c.saved.List(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.state.Saved = append([]weather.SavedLocation(nil), list...)
	c.mu.Unlock()
	return list, nil
}

// RefreshCity drops city's cached reading and fetches current weather and
// forecast again.
func (c *Coordinator) RefreshCity(ctx context.Context, city string) (weather.WeatherSnapshot, []weather.ForecastDay, error) {
	if !common.IsBlank(city) {
		if err := c.cache.Invalidate(ctx, city); err != nil {
			c.logger.Warn("cache invalidate failed", zap.String("city", city), zap.Error(err))
		}
	}

	snap, err := c.FetchCurrent(ctx, city)
	days, ferr := c.FetchForecast(ctx, city)
	return snap, days, errors.Join(err, ferr)
}

// InvalidateCache removes all cached readings. Saved locations are untouched.
func (c *Coordinator) InvalidateCache(ctx context.Context) error {
	return c.cache.InvalidateAll(ctx)
}

// ClearWeatherData resets the displayed weather, forecast and error.
func (c *Coordinator) ClearWeatherData() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Current = nil
	c.state.Forecast = []weather.ForecastDay{}
	c.state.LastError = nil
}

func (c *Coordinator) setCurrent(snap weather.WeatherSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Current = &snap
}

// Current returns the displayed snapshot, if any.
func (c *Coordinator) Current() (weather.WeatherSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Current == nil {
		return weather.WeatherSnapshot{}, false
	}
	return *c.state.Current, true
}

func (c *Coordinator) Forecast() []weather.ForecastDay {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]weather.ForecastDay{}, c.state.Forecast...)
}

func (c *Coordinator) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Loading
}

func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.LastError
}

func (c *Coordinator) SavedLocations() []weather.SavedLocation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]weather.SavedLocation{}, c.state.Saved...)
}

// State returns a copy of the whole view state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := State{
		Loading:   c.state.Loading,
		LastError: c.state.LastError,
		Forecast:  append([]weather.ForecastDay{}, c.state.Forecast...),
		Saved:     append([]weather.SavedLocation{}, c.state.Saved...),
	}
	if c.state.Current != nil {
		cur := *c.state.Current
		s.Current = &cur
	}
	return s
}
