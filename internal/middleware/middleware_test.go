package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestWrap_InjectsTrace(t *testing.T) {
	var seen any
	h := Wrap(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(config.TRACE_ID_KEY)
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	trace := rec.Header().Get("X-Trace-Id")
	require.NotEmpty(t, trace)
	assert.Equal(t, trace, seen)
}

func TestWrap_KeepsIncomingTrace(t *testing.T) {
	var seen any
	h := Wrap(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(config.TRACE_ID_KEY)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Trace-Id", "upstream-trace")
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, "upstream-trace", seen)
	assert.Equal(t, "upstream-trace", rec.Header().Get("X-Trace-Id"))
}

func TestWrap_RateLimitsPerIP(t *testing.T) {
	calls := 0
	h := Wrap(func(w http.ResponseWriter, r *http.Request) { calls++ })

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/chatting", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec.Code
	}

	for i := 0; i < config.BURST_RATE_LIMIT_PER_SECOND; i++ {
		require.Equal(t, http.StatusOK, send("10.0.0.3:5000"))
	}
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.3:5001"))
	assert.Equal(t, http.StatusOK, send("10.0.0.4:5000"), "other clients keep their own bucket")
	assert.Equal(t, config.BURST_RATE_LIMIT_PER_SECOND+1, calls)
}

func TestIPRateLimiter_EvictsIdleVisitors(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	l.GetLimiter("1.1.1.1")
	l.GetLimiter("2.2.2.2")

	l.mu.Lock()
	l.ips["1.1.1.1"].lastSeen = time.Now().Add(-2 * idleIPTimeout)
	l.evictIdle(time.Now())
	_, idleKept := l.ips["1.1.1.1"]
	_, activeKept := l.ips["2.2.2.2"]
	l.mu.Unlock()

	assert.False(t, idleKept)
	assert.True(t, activeKept)
}

func TestIPRateLimiter_SameLimiterPerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	assert.Same(t, l.GetLimiter("3.3.3.3"), l.GetLimiter("3.3.3.3"))
	assert.NotSame(t, l.GetLimiter("3.3.3.3"), l.GetLimiter("4.4.4.4"))
}
