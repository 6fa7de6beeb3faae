package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cubepool/internal/config"
)

func main() {
	// Load server configuration
	cfg, err := config.LoadConfig(os.Getenv("CUBEPOOL_CONFIG"))
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	log.Printf("Loaded configuration: search API %s, default pack %d/%d/%d x %d",
		cfg.Scryfall.BaseURL,
		cfg.Packs.RaresPerPack, cfg.Packs.UncommonsPerPack, cfg.Packs.CommonsPerPack,
		cfg.Packs.PackCount)
	if cfg.Debug() {
		if dump, err := cfg.YAML(); err == nil {
			log.Printf("DEBUG: effective configuration:\n%s", dump)
		}
	}

	// Cancelled first on shutdown so running fetches and SSE streams let go
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	handler, h := SetupServer(appCtx, cfg)

	// Start server with production configuration
	addr := cfg.Server.Host + ":" + cfg.Server.Port

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout, // 0 for SSE support
	}

	// Register before serving so an early signal still shuts down cleanly
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-quit

	log.Println("Shutting down server...")
	stopApp()

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}
	h.Wait()

	log.Println("Server gracefully stopped")
}
