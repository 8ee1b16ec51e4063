package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	requestCurrent  = "current"
	requestForecast = "forecast"
	dateLayout      = "2006-01-02"
)

// ProxyClient implements weather.Client against the passthrough proxy.
// The proxy holds the WeatherAPI.com key and forwards its JSON unchanged.
type ProxyClient struct {
	endpoint string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

func NewProxyClient(client *http.Client, endpoint string, backoff BackoffConfig, logger *zap.Logger) *ProxyClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProxyClient{
		endpoint: endpoint,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("weather-proxy"),
		logger:  logger.Named("weather-client"),
	}
}

type conditionPayload struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type currentPayload struct {
	Location *struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current *struct {
		TempC      float64          `json:"temp_c"`
		FeelslikeC float64          `json:"feelslike_c"`
		Humidity   float64          `json:"humidity"`
		WindKph    float64          `json:"wind_kph"`
		Condition  conditionPayload `json:"condition"`
	} `json:"current"`
}

type forecastPayload struct {
	Forecast *struct {
		Forecastday []struct {
			Date string `json:"date"`
			Day  struct {
				AvgtempC    float64          `json:"avgtemp_c"`
				Avghumidity float64          `json:"avghumidity"`
				MaxwindKph  float64          `json:"maxwind_kph"`
				Condition   conditionPayload `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *ProxyClient) GetCurrentWeather(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	const op = "client.current"

	city = strings.TrimSpace(city)
	if city == "" {
		return weather.WeatherSnapshot{}, weather.NewError(weather.KindInvalidInput, op, "city must not be blank", nil)
	}

	var payload currentPayload
	if err := p.fetch(ctx, op, city, requestCurrent, &payload); err != nil {
		return weather.WeatherSnapshot{}, err
	}

	if payload.Location == nil || payload.Location.Name == "" || payload.Current == nil {
		return weather.WeatherSnapshot{}, weather.NewError(weather.KindMalformedResponse, op, "response is missing location or current data", nil)
	}

	return weather.WeatherSnapshot{
		City:         payload.Location.Name,
		Country:      payload.Location.Country,
		TemperatureC: round(payload.Current.TempC),
		FeelsLikeC:   round(payload.Current.FeelslikeC),
		Description:  payload.Current.Condition.Text,
		HumidityPct:  round(payload.Current.Humidity),
		WindSpeedKph: round(payload.Current.WindKph),
		Icon:         payload.Current.Condition.Icon,
	}, nil
}

// GetForecast requests the full forecast window and returns the first days entries.
// days of 0 means weather.DefaultForecastDays.
func (p *ProxyClient) GetForecast(ctx context.Context, city string, days int) ([]weather.ForecastDay, error) {
	const op = "client.forecast"

	city = strings.TrimSpace(city)
	if city == "" {
		return nil, weather.NewError(weather.KindInvalidInput, op, "city must not be blank", nil)
	}
	days, err := normalizeDays(op, days)
	if err != nil {
		return nil, err
	}

	var payload forecastPayload
	if err := p.fetch(ctx, op, city, requestForecast, &payload); err != nil {
		return nil, err
	}

	if payload.Forecast == nil || len(payload.Forecast.Forecastday) == 0 {
		return []weather.ForecastDay{}, nil
	}

	out := make([]weather.ForecastDay, 0, len(payload.Forecast.Forecastday))
	for _, d := range payload.Forecast.Forecastday {
		if _, err := time.Parse(dateLayout, d.Date); err != nil {
			return nil, weather.NewError(weather.KindMalformedResponse, op, fmt.Sprintf("invalid forecast date %q", d.Date), err)
		}
		out = append(out, weather.ForecastDay{
			Date:         d.Date,
			TemperatureC: round(d.Day.AvgtempC),
			HumidityPct:  round(d.Day.Avghumidity),
			WindSpeedKph: round(d.Day.MaxwindKph),
			Description:  d.Day.Condition.Text,
			Icon:         d.Day.Condition.Icon,
		})
	}

	// ISO dates sort lexically.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	if len(out) > days {
		out = out[:days]
	}
	return out, nil
}

func (p *ProxyClient) fetch(ctx context.Context, op, city, requestType string, out any) error {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(p.endpoint)
		if err != nil {
			return nil, err
		}
		values := u.Query()
		values.Set("city", city)
		values.Set("type", requestType)
		u.RawQuery = values.Encode()

		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}

	start := time.Now()
	p.logger.Debug("requesting weather", zap.String("city", city), zap.String("type", requestType))

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		if errors.Is(err, errNoHTTPClient) || errors.Is(err, errInvalidConfig) {
			return weather.NewError(weather.KindServiceUnavailable, op, "weather client misconfigured", err)
		}
		p.logger.Warn("weather request failed", zap.String("city", city), zap.String("type", requestType), zap.Error(err))
		return classifyTransportError(op, err)
	}
	defer resp.Body.Close()

	p.logger.Debug("weather response",
		zap.String("city", city),
		zap.String("type", requestType),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusToError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return weather.NewError(weather.KindMalformedResponse, op, "response body is not valid weather JSON", err)
	}
	return nil
}

// statusToError maps a non-2xx proxy answer to the error taxonomy.
func statusToError(op string, resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	_ = json.Unmarshal(raw, &body)

	cause := fmt.Errorf("status %d", resp.StatusCode)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return weather.NewError(weather.KindUnauthorized, op, messageOr(body.Error, "invalid API key"), cause)
	case http.StatusBadRequest:
		return weather.NewError(weather.KindNotFound, op, messageOr(body.Error, "city not found"), cause)
	default:
		return weather.NewError(weather.KindServiceUnavailable, op, messageOr(body.Error, "weather service unavailable"), cause)
	}
}

func normalizeDays(op string, days int) (int, error) {
	if days == 0 {
		return weather.DefaultForecastDays, nil
	}
	if days < 1 || days > weather.MaxForecastDays {
		return 0, weather.NewError(weather.KindInvalidInput, op, fmt.Sprintf("days must be between 1 and %d", weather.MaxForecastDays), nil)
	}
	return days, nil
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

func round(v float64) int {
	return int(math.Round(v))
}
