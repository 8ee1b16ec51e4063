package httpapi

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/coordinator"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// Dashboard is the coordinator surface the HTTP layer drives.
type Dashboard interface {
	FetchCurrent(ctx context.Context, city string) (weather.WeatherSnapshot, error)
	FetchForecast(ctx context.Context, city string) ([]weather.ForecastDay, error)
	FetchForecastDays(ctx context.Context, city string, days int) ([]weather.ForecastDay, error)
	RefreshCity(ctx context.Context, city string) (weather.WeatherSnapshot, []weather.ForecastDay, error)
	RefreshAll(ctx context.Context) (coordinator.RefreshReport, error)
	AddLocation(ctx context.Context, city string) (weather.SavedLocation, error)
	RemoveLocation(ctx context.Context, id string) ([]weather.SavedLocation, error)
	LoadSavedLocations(ctx context.Context) ([]weather.SavedLocation, error)
	InvalidateCache(ctx context.Context) error
	ClearWeatherData()
	State() coordinator.State
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, dash Dashboard) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap, err := dash.FetchCurrent(c.UserContext(), q.City)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(snap)
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var (
			days []weather.ForecastDay
			err  error
		)
		if req.Days == nil {
			days, err = dash.FetchForecast(c.UserContext(), req.City)
		} else {
			days, err = dash.FetchForecastDays(c.UserContext(), req.City, *req.Days)
		}
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(fiber.Map{
			"city":     req.City,
			"forecast": days,
		})
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap, days, err := dash.RefreshCity(c.UserContext(), q.City)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"current":  snap,
			"forecast": days,
		})
	})

	v1.Delete("/weather", func(c *fiber.Ctx) error {
		dash.ClearWeatherData()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(newStateResponse(dash.State()))
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		list, err := dash.LoadSavedLocations(c.UserContext())
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(list)
	})

	v1.Post("/locations", func(c *fiber.Ctx) error {
		var req addLocationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := dash.AddLocation(c.UserContext(), req.City)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(loc)
	})

	v1.Delete("/locations/:id", func(c *fiber.Ctx) error {
		list, err := dash.RemoveLocation(c.UserContext(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(list)
	})

	v1.Post("/locations/refresh", func(c *fiber.Ctx) error {
		report, err := dash.RefreshAll(c.UserContext())
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(newRefreshResponse(report))
	})

	v1.Delete("/cache", func(c *fiber.Ctx) error {
		if err := dash.InvalidateCache(c.UserContext()); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// cityQuery holds the city query parameter.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	q := cityQuery{City: c.Query("city")}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// forecastQuery holds query parameters for the forecast endpoint.
// Days is optional; the configured default applies when absent.
type forecastQuery struct {
	City string `validate:"required"`
	Days *int   `validate:"omitempty,min=1,max=7"`
}

func (f *forecastQuery) bind(c *fiber.Ctx) error {
	f.City = c.Query("city")

	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("days must be an integer")
		}
		f.Days = &n
	}
	return nil
}

type addLocationRequest struct {
	City string `json:"city" validate:"required"`
}

type stateResponse struct {
	Current  *weather.WeatherSnapshot `json:"current"`
	Forecast []weather.ForecastDay    `json:"forecast"`
	Loading  bool                     `json:"loading"`
	Error    *errorBody               `json:"error"`
	Saved    []weather.SavedLocation  `json:"savedLocations"`
}

type errorBody struct {
	Kind    weather.Kind `json:"kind"`
	Message string       `json:"message"`
}

func newStateResponse(s coordinator.State) stateResponse {
	resp := stateResponse{
		Current:  s.Current,
		Forecast: s.Forecast,
		Loading:  s.Loading,
		Saved:    s.Saved,
	}
	if s.LastError != nil {
		resp.Error = &errorBody{Kind: weather.KindOf(s.LastError), Message: errorMessage(s.LastError)}
	}
	return resp
}

type refreshFailure struct {
	ID      string       `json:"id"`
	City    string       `json:"city"`
	Kind    weather.Kind `json:"kind"`
	Message string       `json:"message"`
}

type refreshResponse struct {
	Updated []string         `json:"updated"`
	Failed  []refreshFailure `json:"failed"`
}

func newRefreshResponse(r coordinator.RefreshReport) refreshResponse {
	resp := refreshResponse{Updated: r.Updated, Failed: make([]refreshFailure, 0, len(r.Failed))}
	for _, f := range r.Failed {
		resp.Failed = append(resp.Failed, refreshFailure{
			ID:      f.ID,
			City:    f.City,
			Kind:    weather.KindOf(f.Err),
			Message: errorMessage(f.Err),
		})
	}
	return resp
}
