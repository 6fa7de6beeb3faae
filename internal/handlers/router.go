package handlers

import (
	"io/fs"
	"net/http"
	"time"

	"cubepool/internal/config"
	localMiddleware "cubepool/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions allows customization of router setup for tests
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	CustomMiddleware     []func(http.Handler) http.Handler
	StaticDir            string // defaults to "static"; ignored when StaticFS is set
	StaticFS             fs.FS
}

// SetupRouter creates the application router with all routes and middleware
func SetupRouter(h *Handler, cfg *config.ServerConfig, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}
	if opts.StaticDir == "" {
		opts.StaticDir = "static"
	}

	r := chi.NewRouter()

	// Chi's built-in middleware (conditionally applied)
	if !opts.DisableRequestLogger {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Our custom middleware
	r.Use(localMiddleware.RequestSizeLimiter(cfg.Server.MaxRequestSize))
	r.Use(localMiddleware.SecurityHeaders())

	// Rate limiting (conditionally applied)
	if !opts.DisableRateLimiting {
		rateLimiter := localMiddleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
		rateLimiter.TrustForwardedFor = cfg.Server.TrustProxy
		rateLimiter.StartCleanup(h.Context(), 10*time.Minute, 30*time.Minute)
		r.Use(rateLimiter.Middleware())
	}

	for _, mw := range opts.CustomMiddleware {
		r.Use(mw)
	}

	// SSE streams outlive any request timeout
	r.Get("/sse/session", ValidateSSERequest(h.StreamSession))

	r.Group(func(r chi.Router) {
		if cfg.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		}

		// Static files
		static := http.FileServer(http.Dir(opts.StaticDir))
		if opts.StaticFS != nil {
			static = http.FileServer(http.FS(opts.StaticFS))
		}
		r.Handle("/static/*", http.StripPrefix("/static/", static))

		// Main page and datastar actions
		r.Get("/", h.Home)
		r.Post("/cube/fetch", h.FetchCube)
		r.Post("/cube/cancel", h.CancelFetch)
		r.Post("/pool/generate", h.GeneratePool)

		// Download sink
		r.Get("/pool/download", h.DownloadPool)
		r.Get("/pool/{id}.csv", h.DownloadPoolByID)
		r.Get("/pool/{id}/qr", h.PoolQRCode)

		// Health check endpoints (no auth required)
		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			if h.Context().Err() != nil {
				http.Error(w, "Shutting down", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
	})

	return r
}
