package limiter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"aqimonitor/internal/pkg/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newLimiter(t *testing.T, r rate.Limit, b int) *IPRateLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewIPRateLimiter(ctx, r, b)
}

func TestMiddlewareRejectsOverBudgetPerIP(t *testing.T) {
	l := newLimiter(t, rate.Every(time.Hour), 2)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("203.0.113.7:1000"))
	assert.Equal(t, http.StatusNoContent, call("203.0.113.7:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.7:1002"))

	assert.Equal(t, http.StatusNoContent, call("198.51.100.1:1000"), "other IPs have their own bucket")
	assert.Equal(t, http.StatusNoContent, call("198.51.100.2"), "addresses without a port are keyed as-is")
}

func TestSweepDropsOnlyFullBuckets(t *testing.T) {
	l := newLimiter(t, rate.Every(time.Hour), 1)

	l.GetLimiter("idle")
	busy := l.GetLimiter("busy")
	assert.True(t, busy.Allow())

	removed, remaining := l.sweep(time.Now())

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, remaining)
	assert.Same(t, busy, l.GetLimiter("busy"))
}
