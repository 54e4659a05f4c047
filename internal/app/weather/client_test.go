package weather

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqimonitor/internal/pkg/errs"
	"aqimonitor/internal/pkg/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func upstream(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: time.Second})
}

func TestCurrentByCity(t *testing.T) {
	client := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Delhi", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = io.WriteString(w, `{"name":"Delhi","main":{"temp":31.5,"humidity":40},"wind":{"speed":3.2}}`)
	})

	report, customErr := client.Current(context.Background(), Query{City: "Delhi"})

	require.Nil(t, customErr)
	assert.Equal(t, "Delhi", report.City)
	assert.Equal(t, 31.5, *report.Temperature)
	assert.Equal(t, 40.0, *report.Humidity)
	assert.Equal(t, 3.2, *report.Wind)
}

func TestCurrentCoordinatesTakePrecedence(t *testing.T) {
	client := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "28.6", q.Get("lat"))
		assert.Equal(t, "77.2", q.Get("lon"))
		assert.False(t, q.Has("q"))
		_, _ = io.WriteString(w, `{"main":{"temp":20}}`)
	})

	report, customErr := client.Current(context.Background(), Query{City: "Pune", Lat: "28.6", Lon: "77.2"})

	require.Nil(t, customErr)
	assert.Equal(t, "Pune", report.City, "falls back to the queried city")
	assert.Nil(t, report.Wind)
}

func TestCurrentRequiresLocation(t *testing.T) {
	var calls atomic.Int32
	client := upstream(t, func(http.ResponseWriter, *http.Request) { calls.Add(1) })

	for _, q := range []Query{{}, {Lat: "28.6"}, {Lon: "77.2"}, {City: "  "}} {
		_, customErr := client.Current(context.Background(), q)
		require.NotNil(t, customErr)
		assert.Equal(t, errs.ErrWeatherLocationRequired, customErr.Code)
		assert.Equal(t, http.StatusNotFound, customErr.Status)
	}
	assert.Zero(t, calls.Load())
}

func TestCurrentTranslatesUpstreamStatus(t *testing.T) {
	tests := []struct {
		status     int
		code       int
		httpStatus int
	}{
		{http.StatusNotFound, errs.ErrWeatherCityNotFound, http.StatusNotFound},
		{http.StatusUnauthorized, errs.ErrWeatherAPIKeyInvalid, http.StatusInternalServerError},
		{http.StatusTooManyRequests, errs.ErrWeatherUpstream, http.StatusInternalServerError},
		{http.StatusBadGateway, errs.ErrWeatherUpstream, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := upstream(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, customErr := client.Current(context.Background(), Query{City: "Atlantis"})

			require.NotNil(t, customErr)
			assert.Equal(t, tt.code, customErr.Code)
			assert.Equal(t, tt.httpStatus, customErr.Status)
		})
	}
}

func TestCurrentUndecodableBody(t *testing.T) {
	client := upstream(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	})

	_, customErr := client.Current(context.Background(), Query{City: "Delhi"})

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrWeatherUpstream, customErr.Code)
}

func TestCurrentTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	client := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	_, customErr := client.Current(context.Background(), Query{City: "Delhi"})

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrWeatherTimeout, customErr.Code)
	assert.Equal(t, http.StatusInternalServerError, customErr.Status)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	client := upstream(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < breakerFailureThreshold; i++ {
		_, customErr := client.Current(context.Background(), Query{City: "Delhi"})
		require.NotNil(t, customErr)
		assert.Equal(t, errs.ErrWeatherUpstream, customErr.Code)
	}

	_, customErr := client.Current(context.Background(), Query{City: "Delhi"})

	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrWeatherUnavailable, customErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, customErr.Status)
	assert.Equal(t, int32(breakerFailureThreshold), calls.Load())
}

func TestUnknownCitiesDoNotOpenBreaker(t *testing.T) {
	client := upstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < breakerFailureThreshold*2; i++ {
		_, customErr := client.Current(context.Background(), Query{City: "Atlantis"})
		require.NotNil(t, customErr)
		assert.Equal(t, errs.ErrWeatherCityNotFound, customErr.Code)
	}
}

func TestCancelledCallersDoNotOpenBreaker(t *testing.T) {
	client := upstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"Delhi","main":{"temp":31.5,"humidity":40},"wind":{"speed":2.1}}`)
	})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < breakerFailureThreshold*2; i++ {
		_, customErr := client.Current(cancelled, Query{City: "Delhi"})
		require.NotNil(t, customErr)
		assert.NotEqual(t, errs.ErrWeatherUnavailable, customErr.Code)
	}

	report, customErr := client.Current(context.Background(), Query{City: "Delhi"})
	require.Nil(t, customErr)
	assert.Equal(t, "Delhi", report.City)
}
