package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour.
// MaxRetries of 0 means a single attempt.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// DefaultBackoff performs no retries; retry settings only apply if MaxRetries is raised.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxRetries:      0,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

var (
	errRateLimited   = errors.New("rate limited")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// statusError is a response status the breaker counts as a failure.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server error: status %d", e.code)
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequestWithResilience executes the HTTP request through a circuit breaker with
// optional exponential backoff. Responses below 500 (other than 429) are returned to
// the caller for classification and do not count against the breaker.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || (cfg.Backoff.MaxRetries > 0 && cfg.Backoff.InitialInterval <= 0) {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, err
		}

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %w", errRateLimited, &statusError{code: resp.StatusCode})
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, &statusError{code: resp.StatusCode}
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		if attempt >= cfg.Backoff.MaxRetries || isTimeout(err) {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// classifyTransportError maps a failure from doRequestWithResilience to the error taxonomy.
func classifyTransportError(op string, err error) error {
	var se *statusError
	switch {
	case isTimeout(err):
		return weather.NewError(weather.KindTimeout, op, "weather endpoint timed out", err)
	case errors.Is(err, errCircuitOpen):
		return weather.NewError(weather.KindServiceUnavailable, op, "weather endpoint circuit open", err)
	case errors.As(err, &se):
		return weather.NewError(weather.KindServiceUnavailable, op, "weather service unavailable", err)
	default:
		return weather.NewError(weather.KindServiceUnavailable, op, "weather endpoint unreachable", err)
	}
}
