package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSSERequest(t *testing.T) {
	handler := ValidateSSERequest(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"no parameters", "", http.StatusOK},
		{"empty datastar", "datastar=", http.StatusOK},
		{"page signals", "datastar=" + url.QueryEscape(`{"sets":"akh,dom","rarity":true,"packs":18,"rares":1,"uncommons":3,"commons":10,"poolname":"pool","columns":"name","fetching":false}`), http.StatusOK},
		{"unknown parameter", "room=ABCDE", http.StatusBadRequest},
		{"unknown signal", "datastar=" + url.QueryEscape(`{"isAdmin":true}`), http.StatusBadRequest},
		{"invalid JSON", "datastar=" + url.QueryEscape(`{"sets":`), http.StatusBadRequest},
		{"repeated datastar", "datastar=%7B%7D&datastar=%7B%7D", http.StatusBadRequest},
		{"oversized state", "datastar=" + url.QueryEscape(`{"sets":"`+strings.Repeat("a", 9000)+`"}`), http.StatusBadRequest},
		{"oversized query", "datastar=" + strings.Repeat("a", 10001), http.StatusRequestURITooLong},
		{"malformed query", "datastar=%zz", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse/session", nil)
			req.URL.RawQuery = tt.query
			rec := httptest.NewRecorder()

			handler(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}
