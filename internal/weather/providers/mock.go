package providers

import (
	"context"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// MockClient serves canned readings for any city. It backs offline/demo runs
// (WEATHER_PROVIDER=mock) and is never used as a silent fallback.
type MockClient struct {
	now func() time.Time
}

func NewMockClient() *MockClient {
	return &MockClient{now: time.Now}
}

var mockDays = []struct {
	temp        int
	description string
	icon        string
}{
	{22, "Sunny", "01d"},
	{19, "Cloudy", "02d"},
	{16, "Rainy", "09d"},
	{18, "Partly cloudy", "02d"},
	{21, "Sunny", "01d"},
	{20, "Partly cloudy", "02d"},
	{17, "Light rain", "10d"},
}

func (m *MockClient) GetCurrentWeather(_ context.Context, city string) (weather.WeatherSnapshot, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return weather.WeatherSnapshot{}, weather.NewError(weather.KindInvalidInput, "mock.current", "city must not be blank", nil)
	}
	return weather.WeatherSnapshot{
		City:         city,
		Country:      "Test",
		TemperatureC: 22,
		FeelsLikeC:   22,
		Description:  "Partly cloudy",
		HumidityPct:  65,
		WindSpeedKph: 5,
		Icon:         "02d",
	}, nil
}

func (m *MockClient) GetForecast(_ context.Context, city string, days int) ([]weather.ForecastDay, error) {
	const op = "mock.forecast"

	if strings.TrimSpace(city) == "" {
		return nil, weather.NewError(weather.KindInvalidInput, op, "city must not be blank", nil)
	}
	days, err := normalizeDays(op, days)
	if err != nil {
		return nil, err
	}

	today := m.now().UTC()
	out := make([]weather.ForecastDay, 0, days)
	for i := 0; i < days; i++ {
		d := mockDays[i]
		out = append(out, weather.ForecastDay{
			Date:         today.AddDate(0, 0, i).Format(dateLayout),
			TemperatureC: d.temp,
			HumidityPct:  65,
			WindSpeedKph: 5,
			Description:  d.description,
			Icon:         d.icon,
		})
	}
	return out, nil
}
