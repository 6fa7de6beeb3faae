package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
)

const (
	maxSSEQueryBytes   = 10000
	maxDatastarPayload = 8192
)

// allowedSSEParams defines the whitelist of allowed query parameters for SSE endpoints
var allowedSSEParams = map[string]bool{
	"datastar": true, // Datastar sends the page signals with every @get
}

// allowedDatastarSignals lists every signal the home page declares
var allowedDatastarSignals = map[string]bool{
	// Cube form
	"sets":     true,
	"rarity":   true,
	"fetching": true,

	// Pool form
	"packs":     true,
	"rares":     true,
	"uncommons": true,
	"commons":   true,
	"poolname":  true,
	"columns":   true,
}

// ValidateSSERequest rejects SSE requests whose query string carries anything
// but the page's own signals
func ValidateSSERequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.RawQuery) > maxSSEQueryBytes {
			http.Error(w, "Query string too large", http.StatusRequestURITooLong)
			return
		}

		params, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			http.Error(w, "Invalid query parameters", http.StatusBadRequest)
			return
		}

		for key, values := range params {
			if !allowedSSEParams[key] {
				http.Error(w, "Invalid parameter", http.StatusBadRequest)
				return
			}

			switch key {
			case "datastar":
				if len(values) != 1 {
					http.Error(w, "Invalid datastar parameter", http.StatusBadRequest)
					return
				}
				if len(values[0]) > maxDatastarPayload {
					http.Error(w, "Datastar state too large", http.StatusBadRequest)
					return
				}
				if values[0] == "" {
					continue
				}

				var signals map[string]any
				if err := json.Unmarshal([]byte(values[0]), &signals); err != nil {
					http.Error(w, "Invalid datastar JSON", http.StatusBadRequest)
					return
				}
				for name := range signals {
					if !allowedDatastarSignals[name] {
						http.Error(w, "Invalid signal in datastar: "+name, http.StatusBadRequest)
						return
					}
				}
			}
		}

		next(w, r)
	}
}
