package weather

// WeatherSnapshot is a single point-in-time reading for one city.
// Numeric fields are rounded to whole units by the client that produced it.
type WeatherSnapshot struct {
	City         string `json:"city"`
	Country      string `json:"country"`
	TemperatureC int    `json:"temperatureC"`
	FeelsLikeC   int    `json:"feelsLikeC"`
	Description  string `json:"description"`
	HumidityPct  int    `json:"humidityPct"`
	WindSpeedKph int    `json:"windSpeedKph"`
	Icon         string `json:"icon"`
}

// ForecastDay is one calendar day of a forecast.
// A forecast is a []ForecastDay ordered by Date ascending.
type ForecastDay struct {
	Date         string `json:"date"` // YYYY-MM-DD
	TemperatureC int    `json:"temperatureC"`
	HumidityPct  int    `json:"humidityPct"`
	WindSpeedKph int    `json:"windSpeedKph"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
}

// SavedLocation is a user-curated city kept in the saved list.
// ID and City never change after creation.
type SavedLocation struct {
	ID           string `json:"id"`
	City         string `json:"city"`
	Country      string `json:"country"`
	TemperatureC int    `json:"temperatureC"`
	FeelsLikeC   int    `json:"feelsLikeC"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
}

// NewSavedLocation builds a saved entry from a confirmed snapshot.
func NewSavedLocation(id string, s WeatherSnapshot) SavedLocation {
	return SavedLocation{
		ID:           id,
		City:         s.City,
		Country:      s.Country,
		TemperatureC: s.TemperatureC,
		FeelsLikeC:   s.FeelsLikeC,
		Description:  s.Description,
		Icon:         s.Icon,
	}
}

// LocationPatch holds the mutable weather fields of a SavedLocation.
// Nil fields are left untouched.
type LocationPatch struct {
	Country      *string `json:"country,omitempty"`
	TemperatureC *int    `json:"temperatureC,omitempty"`
	FeelsLikeC   *int    `json:"feelsLikeC,omitempty"`
	Description  *string `json:"description,omitempty"`
	Icon         *string `json:"icon,omitempty"`
}

// PatchFromSnapshot returns a patch carrying every reading of s.
func PatchFromSnapshot(s WeatherSnapshot) LocationPatch {
	return LocationPatch{
		Country:      &s.Country,
		TemperatureC: &s.TemperatureC,
		FeelsLikeC:   &s.FeelsLikeC,
		Description:  &s.Description,
		Icon:         &s.Icon,
	}
}

// Apply returns a copy of loc with the patch applied.
func (p LocationPatch) Apply(loc SavedLocation) SavedLocation {
	if p.Country != nil {
		loc.Country = *p.Country
	}
	if p.TemperatureC != nil {
		loc.TemperatureC = *p.TemperatureC
	}
	if p.FeelsLikeC != nil {
		loc.FeelsLikeC = *p.FeelsLikeC
	}
	if p.Description != nil {
		loc.Description = *p.Description
	}
	if p.Icon != nil {
		loc.Icon = *p.Icon
	}
	return loc
}
