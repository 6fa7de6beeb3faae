package main

import (
	"context"
	"net/http"

	"cubepool"
	"cubepool/internal/config"
	"cubepool/internal/cube"
	"cubepool/internal/handlers"
	"cubepool/internal/store"
)

// SetupServer wires the store, fetcher, sampler and handlers into a router.
// Fetches, SSE streams and background janitors stop when ctx is cancelled.
func SetupServer(ctx context.Context, cfg *config.ServerConfig) (http.Handler, *handlers.Handler) {
	// Initialize in-memory store
	sessionStore := store.NewMemoryStore(cfg)
	sessionStore.StartJanitor(ctx, cfg.Session.CleanupInterval)

	fetcher := cube.NewFetcher(cfg)
	sampler := cube.NewSampler(nil)

	// Initialize handlers
	h := handlers.New(ctx, sessionStore, fetcher, sampler, cfg)

	// Set up router
	r := handlers.SetupRouter(h, cfg, &handlers.RouterOptions{
		StaticFS: cubepool.Static(),
	})

	return r, h
}
