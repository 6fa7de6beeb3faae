package handlers

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cubepool/internal/config"
	"cubepool/internal/cube"
	"cubepool/internal/store"
	"cubepool/internal/testhelpers"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var (
	page1 = []testhelpers.FakeCard{{Name: "Abrade", Rarity: "uncommon"}, {Name: "Glorybringer", Rarity: "rare"}}
	page2 = []testhelpers.FakeCard{{Name: "Opt", Rarity: "common"}, {Name: "Shock", Rarity: "common"}}
	page3 = []testhelpers.FakeCard{{Name: "Torrential Gearhulk", Rarity: "rare"}, {Name: "Ugin", Rarity: "mythic"}}
)

// testConfig points the fetcher at the fake search API with short delays
func testConfig(api *testhelpers.FakeSearchAPI) *config.ServerConfig {
	cfg := config.DefaultConfig()
	cfg.Server.Port = "0"
	cfg.Server.Host = "127.0.0.1"
	cfg.Scryfall.BaseURL = api.URL()
	cfg.Scryfall.PageDelay = time.Millisecond
	cfg.Scryfall.RequestsPerSec = 1000
	cfg.Scryfall.RequestTimeout = 5 * time.Second
	return cfg
}

// newTestHandler builds a handler whose background fetches stop when the test ends
func newTestHandler(t *testing.T, cfg *config.ServerConfig) *Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := New(ctx, store.NewMemoryStore(cfg), cube.NewFetcher(cfg), cube.NewSampler(rand.NewPCG(1, 2)), cfg)
	t.Cleanup(func() {
		cancel()
		h.Wait()
	})
	return h
}

// setupTestRouter creates a router without rate limiting or request logs
func setupTestRouter(h *Handler) *chi.Mux {
	return SetupRouter(h, h.config, &RouterOptions{
		DisableRateLimiting:  true,
		DisableRequestLogger: true,
	})
}

// newSession loads the home page and returns the session cookie it set
func newSession(t *testing.T, router http.Handler) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("home page did not set a session cookie")
	return nil
}

// datastarPost sends a datastar action with the given JSON signals
func datastarPost(router http.Handler, path, signals string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(signals))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Datastar-Request", "true")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// formPost sends a plain urlencoded form post
func formPost(router http.Handler, path, form string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// get sends a GET request with an optional cookie
func get(router http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// waitForFetch waits until the session has no running fetch and returns it
func waitForFetch(t *testing.T, h *Handler, sessionID string) store.Session {
	t.Helper()
	var sess store.Session
	require.Eventually(t, func() bool {
		var err error
		sess, err = h.Store().GetSession(sessionID)
		return err == nil && !sess.Fetch.Running && !sess.Fetch.Finished.IsZero()
	}, 5*time.Second, 5*time.Millisecond)
	return sess
}
