package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestSizeLimiter(t *testing.T) {
	handler := RequestSizeLimiter(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("small body passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cube/fetch", strings.NewReader("sets=akh"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("large body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cube/fetch", strings.NewReader(strings.Repeat("a", 64)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders()(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Permissions-Policy"))
}

func TestRateLimiter(t *testing.T) {
	t.Run("limits per client", func(t *testing.T) {
		rl := NewRateLimiter(1, 2)
		handler := rl.Middleware()(okHandler)

		send := func(addr string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/cube/fetch", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		assert.Equal(t, http.StatusOK, send("10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusOK, send("10.0.0.1:1001").Code, "ports do not split a client")
		limited := send("10.0.0.1:1002")
		assert.Equal(t, http.StatusTooManyRequests, limited.Code)
		assert.Equal(t, "1", limited.Header().Get("Retry-After"))

		assert.Equal(t, http.StatusOK, send("10.0.0.2:1000").Code, "other clients are unaffected")
	})

	t.Run("ignores forwarded headers by default", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		handler := rl.Middleware()(okHandler)

		for i, want := range []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests} {
			req := httptest.NewRequest(http.MethodPost, "/cube/fetch", nil)
			req.RemoteAddr = "192.168.1.1:4000"
			req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, want, rec.Code, "request %d", i+1)
		}
		assert.Equal(t, 1, rl.Visitors())
	})

	t.Run("uses the first forwarded hop behind a trusted proxy", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		rl.TrustForwardedFor = true
		handler := rl.Middleware()(okHandler)

		for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:" + strconv.Itoa(4000+i)
			req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, want, rec.Code)
		}
		assert.Equal(t, 1, rl.Visitors())
	})

	t.Run("forgets idle clients", func(t *testing.T) {
		rl := NewRateLimiter(10, 10)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		rl.getLimiter("a")
		now = now.Add(time.Hour)
		rl.getLimiter("b")
		require.Equal(t, 2, rl.Visitors())

		assert.Equal(t, 1, rl.Forget(30*time.Minute))
		assert.Equal(t, 1, rl.Visitors())
	})
}

func TestRateLimiter_StartCleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	rl.getLimiter("stale")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl.StartCleanup(ctx, 5*time.Millisecond, time.Millisecond)

	assert.Eventually(t, func() bool { return rl.Visitors() == 0 }, time.Second, 5*time.Millisecond)
}
