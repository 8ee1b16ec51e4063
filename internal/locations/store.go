package locations

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultKey is the LocalStore key holding the whole saved list.
const DefaultKey = "weather_saved_locations"

// Store keeps the saved list as a single JSON array under one key. Each
// mutation reads the list, changes it, and writes it back with one Set, so a
// reader sees either the old list or the new one.
//
// Mutations through the same Store are serialized. Separate processes sharing
// one backend are still last-write-wins.
type Store struct {
	mu    sync.Mutex
	local weather.LocalStore
	key   string
}

func NewStore(local weather.LocalStore) *Store {
	return &Store{local: local, key: DefaultKey}
}

// List returns the saved locations in insertion order.
func (s *Store) List(ctx context.Context) ([]weather.SavedLocation, error) {
	return s.load(ctx, "locations.list")
}

// Add appends loc. A city already present (case-insensitive) is rejected with
// KindDuplicateCity.
func (s *Store) Add(ctx context.Context, loc weather.SavedLocation) error {
	const op = "locations.add"

	if common.IsBlank(loc.ID) || common.IsBlank(loc.City) {
		return weather.NewError(weather.KindInvalidInput, op, "location needs an id and a city", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx, op)
	if err != nil {
		return err
	}

	for _, existing := range current {
		if common.SameCity(existing.City, loc.City) {
			return weather.NewError(weather.KindDuplicateCity, op, fmt.Sprintf("%s is already saved", existing.City), nil)
		}
		if existing.ID == loc.ID {
			return weather.NewError(weather.KindInvalidInput, op, fmt.Sprintf("id %s is already in use", loc.ID), nil)
		}
	}

	return s.save(ctx, op, append(current, loc))
}

// Remove deletes the entry with id. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	const op = "locations.remove"

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx, op)
	if err != nil {
		return err
	}

	kept := make([]weather.SavedLocation, 0, len(current))
	for _, loc := range current {
		if loc.ID != id {
			kept = append(kept, loc)
		}
	}
	if len(kept) == len(current) {
		return nil
	}

	return s.save(ctx, op, kept)
}

// Update applies patch to the entry with id, keeping its id, city and position.
// Unknown ids are a no-op so a late refresh cannot bring back a removed entry.
func (s *Store) Update(ctx context.Context, id string, patch weather.LocationPatch) error {
	const op = "locations.update"

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx, op)
	if err != nil {
		return err
	}

	for i := range current {
		if current[i].ID == id {
			current[i] = patch.Apply(current[i])
			return s.save(ctx, op, current)
		}
	}
	return nil
}

func (s *Store) load(ctx context.Context, op string) ([]weather.SavedLocation, error) {
	raw, ok, err := s.local.Get(ctx, s.key)
	if err != nil {
		return nil, weather.NewError(weather.KindStorageFailure, op, "failed to read saved locations", err)
	}
	if !ok || raw == "" {
		return []weather.SavedLocation{}, nil
	}

	var list []weather.SavedLocation
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, weather.NewError(weather.KindStorageFailure, op, "corrupted saved locations", err)
	}
	if list == nil {
		list = []weather.SavedLocation{}
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, op string, list []weather.SavedLocation) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return weather.NewError(weather.KindStorageFailure, op, "failed to encode saved locations", err)
	}
	if err := s.local.Set(ctx, s.key, string(raw)); err != nil {
		return weather.NewError(weather.KindStorageFailure, op, "failed to write saved locations", err)
	}
	return nil
}
