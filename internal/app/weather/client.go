/*
Package weather proxies current conditions from the OpenWeatherMap API.

Upstream calls go through a circuit breaker; a city the upstream does not know or a
rejected API key does not count as an upstream failure.
*/
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"aqimonitor/internal/pkg/errs"
	"aqimonitor/internal/pkg/logx"
	"aqimonitor/internal/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultTimeout = 10 * time.Second

	// breaker tuning
	breakerName             = "weather-api"
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
	breakerHalfOpenRequests = 1

	maxResponseBytes = 1 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Query selects a location. Coordinates win over City when both Lat and Lon are set.
type Query struct {
	City string
	Lat  string
	Lon  string
}

func (q Query) hasCoordinates() bool {
	return q.Lat != "" && q.Lon != ""
}

// Report is the condensed current weather.
type Report struct {
	City        string   `json:"city"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Wind        *float64 `json:"wind"`
}

// upstreamReply is the subset of the OpenWeatherMap response we read.
type upstreamReply struct {
	Name string `json:"name"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// statusError is a non-200 upstream reply.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("weather upstream returned HTTP %d", e.status)
}

// Client calls the upstream weather API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*Report]
}

// NewClient constructs a Client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	metrics.WeatherBreakerState.Set(0)

	cb := gobreaker.NewCircuitBreaker[*Report](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: breakerHalfOpenRequests,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// a caller hanging up says nothing about the upstream
			if errors.Is(err, context.Canceled) {
				return true
			}
			var se *statusError
			if errors.As(err, &se) {
				return se.status == http.StatusNotFound || se.status == http.StatusUnauthorized
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logx.Warn("Circuit breaker state transition", "breaker", name, "from", from.String(), "to", to.String())
			metrics.WeatherBreakerState.Set(float64(to))
		},
	})

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		cb:      cb,
	}
}

// Current returns the current weather at q.
func (c *Client) Current(ctx context.Context, q Query) (*Report, *errs.CustomError) {
	q.City = strings.TrimSpace(q.City)
	q.Lat = strings.TrimSpace(q.Lat)
	q.Lon = strings.TrimSpace(q.Lon)

	if q.City == "" && !q.hasCoordinates() {
		return nil, errs.NewError(errs.ErrWeatherLocationRequired)
	}

	report, err := c.cb.Execute(func() (*Report, error) {
		return c.fetch(ctx, q)
	})
	if err != nil {
		return nil, c.translate(err, q)
	}

	metrics.RecordWeather("ok")
	return report, nil
}

func (c *Client) fetch(ctx context.Context, q Query) (*Report, error) {
	params := url.Values{}
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	if q.hasCoordinates() {
		params.Set("lat", q.Lat)
		params.Set("lon", q.Lon)
	} else {
		params.Set("q", q.City)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &statusError{status: resp.StatusCode}
	}

	var reply upstreamReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode weather reply: %w", err)
	}

	city := reply.Name
	if city == "" {
		city = q.City
	}

	return &Report{
		City:        city,
		Temperature: reply.Main.Temp,
		Humidity:    reply.Main.Humidity,
		Wind:        reply.Wind.Speed,
	}, nil
}

func (c *Client) translate(err error, q Query) *errs.CustomError {
	var se *statusError
	var netErr net.Error

	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordWeather("rejected")
		return errs.NewError(errs.ErrWeatherUnavailable)

	case errors.As(err, &se):
		switch se.status {
		case http.StatusNotFound:
			metrics.RecordWeather("not_found")
			return errs.NewError(errs.ErrWeatherCityNotFound)
		case http.StatusUnauthorized:
			metrics.RecordWeather("unauthorized")
			logx.Error(err, "Weather upstream rejected the API key")
			return errs.NewError(errs.ErrWeatherAPIKeyInvalid)
		}
		metrics.RecordWeather("error")
		logx.Warn("Weather upstream error", "status", se.status, "city", q.City)
		return errs.NewError(errs.ErrWeatherUpstream)

	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		metrics.RecordWeather("timeout")
		logx.Warn("Weather upstream timeout", "city", q.City)
		return errs.NewError(errs.ErrWeatherTimeout)

	default:
		metrics.RecordWeather("error")
		logx.Error(err, "Weather upstream request failed", "city", q.City)
		return errs.NewError(errs.ErrWeatherUpstream)
	}
}
