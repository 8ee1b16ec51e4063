package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const torontoCurrent = `{
	"location": {"name": "Toronto", "country": "Canada"},
	"current": {
		"temp_c": 14.6,
		"feelslike_c": 13.4,
		"humidity": 71,
		"wind_kph": 15.5,
		"condition": {"text": "Partly cloudy", "icon": "//cdn.weatherapi.com/weather/64x64/day/116.png"}
	}
}`

const torontoForecast = `{
	"location": {"name": "Toronto", "country": "Canada"},
	"forecast": {"forecastday": [
		{"date": "2026-10-20", "day": {"avgtemp_c": 11.2, "avghumidity": 80, "maxwind_kph": 20.1, "condition": {"text": "Rain", "icon": "r.png"}}},
		{"date": "2026-10-18", "day": {"avgtemp_c": 14.5, "avghumidity": 60, "maxwind_kph": 10.4, "condition": {"text": "Sunny", "icon": "s.png"}}},
		{"date": "2026-10-19", "day": {"avgtemp_c": 12.4, "avghumidity": 70, "maxwind_kph": 12.6, "condition": {"text": "Cloudy", "icon": "c.png"}}}
	]}
}`

func newTestClient(t *testing.T, url string, backoff BackoffConfig) *ProxyClient {
	t.Helper()
	return NewProxyClient(&http.Client{Timeout: 2 * time.Second}, url, backoff, zaptest.NewLogger(t))
}

func TestProxyClientCurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("city"); got != "New York" {
			t.Errorf("expected city query %q, got %q", "New York", got)
		}
		if got := r.URL.Query().Get("type"); got != "current" {
			t.Errorf("expected type=current, got %q", got)
		}
		w.Write([]byte(torontoCurrent))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, DefaultBackoff())
	snap, err := c.GetCurrentWeather(context.Background(), "  New York ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := weather.WeatherSnapshot{
		City:         "Toronto",
		Country:      "Canada",
		TemperatureC: 15,
		FeelsLikeC:   13,
		Description:  "Partly cloudy",
		HumidityPct:  71,
		WindSpeedKph: 16,
		Icon:         "//cdn.weatherapi.com/weather/64x64/day/116.png",
	}
	if snap != want {
		t.Fatalf("expected %+v, got %+v", want, snap)
	}
}

func TestProxyClientStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   weather.Kind
	}{
		{http.StatusBadRequest, `{"error":"City not found"}`, weather.KindNotFound},
		{http.StatusUnauthorized, `{"error":"Invalid API key"}`, weather.KindUnauthorized},
		{http.StatusInternalServerError, `{"error":"Weather service unavailable"}`, weather.KindServiceUnavailable},
		{http.StatusNotFound, ``, weather.KindServiceUnavailable},
		{http.StatusOK, `not json`, weather.KindMalformedResponse},
		{http.StatusOK, `{}`, weather.KindMalformedResponse},
		{http.StatusOK, `{"location":{"name":"Paris"}}`, weather.KindMalformedResponse},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		}))

		c := newTestClient(t, srv.URL, DefaultBackoff())
		snap, err := c.GetCurrentWeather(context.Background(), "Paris")
		srv.Close()

		if err == nil {
			t.Fatalf("status %d body %q: expected error, got snapshot %+v", tc.status, tc.body, snap)
		}
		if got := weather.KindOf(err); got != tc.want {
			t.Fatalf("status %d body %q: expected kind %s, got %s (%v)", tc.status, tc.body, tc.want, got, err)
		}
		if snap != (weather.WeatherSnapshot{}) {
			t.Fatalf("status %d: expected zero snapshot alongside error, got %+v", tc.status, snap)
		}
	}
}

func TestProxyClientBlankCityMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, DefaultBackoff())
	if _, err := c.GetCurrentWeather(context.Background(), "   "); !errors.Is(err, weather.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := c.GetForecast(context.Background(), "", 3); !errors.Is(err, weather.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestProxyClientForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("type"); got != "forecast" {
			t.Errorf("expected type=forecast, got %q", got)
		}
		w.Write([]byte(torontoForecast))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, DefaultBackoff())

	days, err := c.GetForecast(context.Background(), "Toronto", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Date != "2026-10-18" || days[1].Date != "2026-10-19" {
		t.Fatalf("expected ascending dates, got %s, %s", days[0].Date, days[1].Date)
	}
	if days[0].TemperatureC != 15 || days[0].WindSpeedKph != 10 || days[0].Description != "Sunny" {
		t.Fatalf("unexpected first day: %+v", days[0])
	}

	all, err := c.GetForecast(context.Background(), "Toronto", weather.MaxForecastDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all 3 days, got %d", len(all))
	}
}

func TestProxyClientForecastDegenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"location":{"name":"Toronto","country":"Canada"},"forecast":{"forecastday":[]}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, DefaultBackoff())
	days, err := c.GetForecast(context.Background(), "Toronto", 0)
	if err != nil {
		t.Fatalf("expected success for empty forecast, got %v", err)
	}
	if days == nil || len(days) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", days)
	}
}

func TestProxyClientForecastDaysRange(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0", DefaultBackoff())
	for _, d := range []int{-1, 8} {
		if _, err := c.GetForecast(context.Background(), "Paris", d); !errors.Is(err, weather.ErrInvalidInput) {
			t.Fatalf("days=%d: expected invalid input, got %v", d, err)
		}
	}
}

func TestProxyClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewProxyClient(&http.Client{Timeout: 50 * time.Millisecond}, srv.URL, DefaultBackoff(), zaptest.NewLogger(t))
	_, err := c.GetCurrentWeather(context.Background(), "Paris")
	if !errors.Is(err, weather.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestProxyClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, DefaultBackoff())
	_, err := c.GetCurrentWeather(context.Background(), "Paris")
	if !errors.Is(err, weather.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}

// Client errors must not trip the breaker, otherwise a user typing unknown
// cities would lock out every later request.
func TestProxyClientNotFoundDoesNotOpenCircuit(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(torontoCurrent))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, DefaultBackoff())
	for i := 0; i < 10; i++ {
		if _, err := c.GetCurrentWeather(context.Background(), "Nowhere"); !errors.Is(err, weather.ErrNotFound) {
			t.Fatalf("attempt %d: expected not found, got %v", i, err)
		}
	}

	fail.Store(false)
	if _, err := c.GetCurrentWeather(context.Background(), "Toronto"); err != nil {
		t.Fatalf("expected success after client errors, got %v", err)
	}
}

func TestProxyClientNoRetriesByDefault(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, DefaultBackoff())
	if _, err := c.GetCurrentWeather(context.Background(), "Paris"); !errors.Is(err, weather.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestProxyClientConfiguredRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(torontoCurrent))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond})
	snap, err := c.GetCurrentWeather(context.Background(), "Toronto")
	if err != nil {
		t.Fatalf("expected success on retry, got %v", err)
	}
	if snap.City != "Toronto" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}
