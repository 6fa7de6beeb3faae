package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
)

// FakeCard is a raw card record served by FakeSearchAPI
type FakeCard struct {
	Name   string `json:"name"`
	Rarity string `json:"rarity,omitempty"`
}

// FakeSearchAPI serves canned /cards/search pages the way the real card
// search API paginates them: every page but the last carries a next_page URL.
type FakeSearchAPI struct {
	Server *httptest.Server

	mu        sync.Mutex
	pages     [][]FakeCard
	failures  map[int]int
	malformed map[int]bool
	endless   bool
	queries   []url.Values
}

// NewFakeSearchAPI starts a fake search API serving the given pages in order.
// The server is closed when the test ends.
func NewFakeSearchAPI(t *testing.T, pages ...[]FakeCard) *FakeSearchAPI {
	t.Helper()
	f := &FakeSearchAPI{
		pages:     pages,
		failures:  make(map[int]int),
		malformed: make(map[int]bool),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL to configure as the search API
func (f *FakeSearchAPI) URL() string {
	return f.Server.URL
}

// FailPage makes the given 1-based page answer with status
func (f *FakeSearchAPI) FailPage(page, status int) *FakeSearchAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[page] = status
	return f
}

// MalformedPage makes the given 1-based page answer with a body that is not a page
func (f *FakeSearchAPI) MalformedPage(page int) *FakeSearchAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.malformed[page] = true
	return f
}

// Endless makes every page advertise a next page, cycling through the canned pages
func (f *FakeSearchAPI) Endless() *FakeSearchAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endless = true
	return f
}

// Requests returns how many search requests were served
func (f *FakeSearchAPI) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// Queries returns the query parameters of every request, in order
func (f *FakeSearchAPI) Queries() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]url.Values, len(f.queries))
	copy(out, f.queries)
	return out
}

func (f *FakeSearchAPI) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/cards/search" {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	query := r.URL.Query()
	f.queries = append(f.queries, query)
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	status, failing := f.failures[page]
	malformed := f.malformed[page]
	endless := f.endless
	pages := f.pages
	f.mu.Unlock()

	if failing {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"object":"error","status":` + strconv.Itoa(status) + `,"details":"fake failure"}`))
		return
	}
	if malformed {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"name":`))
		return
	}
	if len(pages) == 0 || (!endless && page > len(pages)) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"object":"error","status":404}`))
		return
	}

	data := pages[(page-1)%len(pages)]
	total := 0
	for _, p := range pages {
		total += len(p)
	}

	body := map[string]interface{}{
		"object":      "list",
		"total_cards": total,
		"has_more":    false,
		"data":        data,
	}
	if endless || page < len(pages) {
		next := url.Values{}
		for k, v := range query {
			next[k] = v
		}
		next.Set("page", strconv.Itoa(page+1))
		body["has_more"] = true
		body["next_page"] = f.Server.URL + "/cards/search?" + next.Encode()
	}

	// The header cursor is never authoritative; point it somewhere harmful
	w.Header().Set("X-Scryfall-Next-Page", "http://127.0.0.1:1/never")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}
