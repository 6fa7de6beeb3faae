package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// ServerConfig represents the server configuration
type ServerConfig struct {
	Server   ServerSettings   `yaml:"server"`
	Scryfall ScryfallSettings `yaml:"scryfall"`
	Packs    PackDefaults     `yaml:"packs"`
	Export   ExportSettings   `yaml:"export"`
	Session  SessionSettings  `yaml:"session"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	PublicURL       string        `yaml:"publicURL"` // used for QR code links; derived from the request when empty
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"` // 0 for SSE support
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`

	// Inbound rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit"`      // requests per second
	RateLimitBurst int     `yaml:"rateLimitBurst"` // burst size
	TrustProxy     bool    `yaml:"trustProxy"`     // key rate limits on X-Forwarded-For

	MaxRequestSize int64  `yaml:"maxRequestSize"`
	LogLevel       string `yaml:"logLevel"`
}

// ScryfallSettings controls the upstream card search client
type ScryfallSettings struct {
	BaseURL        string        `yaml:"baseURL"`
	UserAgent      string        `yaml:"userAgent"`
	PageDelay      time.Duration `yaml:"pageDelay"`      // courtesy pause between pages
	RequestsPerSec float64       `yaml:"requestsPerSec"` // shared across all sessions
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	FetchTimeout   time.Duration `yaml:"fetchTimeout"`
	MaxPages       int           `yaml:"maxPages"`
	DefaultSets    string        `yaml:"defaultSets"`
}

// PackDefaults pre-fill the pool generation form
type PackDefaults struct {
	PackCount        int    `yaml:"packCount"`
	RaresPerPack     int    `yaml:"raresPerPack"`
	UncommonsPerPack int    `yaml:"uncommonsPerPack"`
	CommonsPerPack   int    `yaml:"commonsPerPack"`
	PoolName         string `yaml:"poolName"`
}

// ExportSettings selects which columns a downloaded pool contains
type ExportSettings struct {
	Columns []string `yaml:"columns"`
}

// SessionSettings controls in-memory browser sessions
type SessionSettings struct {
	Timeout         time.Duration `yaml:"timeout"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Port:            "", // Must be set via env
			Host:            "", // Must be set via env
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // SSE streams outlive any write deadline
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,

			RateLimit:      10,
			RateLimitBurst: 20,

			MaxRequestSize: 1048576, // 1MB
			LogLevel:       "info",
		},
		Scryfall: ScryfallSettings{
			BaseURL:        "https://api.scryfall.com",
			UserAgent:      "cubepool/1.0",
			PageDelay:      100 * time.Millisecond,
			RequestsPerSec: 10,
			RequestTimeout: 10 * time.Second,
			FetchTimeout:   2 * time.Minute,
			MaxPages:       100,
			DefaultSets:    "akh,dom,war,stx,znr",
		},
		Packs: PackDefaults{
			PackCount:        18,
			RaresPerPack:     1,
			UncommonsPerPack: 3,
			CommonsPerPack:   10,
			PoolName:         "pool",
		},
		Export: ExportSettings{
			Columns: []string{"name"},
		},
		Session: SessionSettings{
			Timeout:         24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
	}
}

// Validate checks if the configuration is valid
func (c *ServerConfig) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT environment variable must be set")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("HOST environment variable must be set")
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("rateLimit must be positive")
	}

	u, err := url.Parse(c.Scryfall.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("scryfall baseURL must be an absolute http(s) URL, got %q", c.Scryfall.BaseURL)
	}
	if c.Scryfall.PageDelay < 0 {
		return fmt.Errorf("scryfall pageDelay cannot be negative")
	}
	if c.Scryfall.RequestsPerSec <= 0 {
		return fmt.Errorf("scryfall requestsPerSec must be positive")
	}
	if c.Scryfall.MaxPages < 1 {
		return fmt.Errorf("scryfall maxPages must be at least 1")
	}

	if c.Packs.PackCount < 0 || c.Packs.RaresPerPack < 0 || c.Packs.UncommonsPerPack < 0 || c.Packs.CommonsPerPack < 0 {
		return fmt.Errorf("pack defaults cannot be negative")
	}

	if len(c.Export.Columns) == 0 {
		c.Export.Columns = []string{"name"}
	}
	for _, col := range c.Export.Columns {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name", "rarity":
		default:
			return fmt.Errorf("unknown export column %q", col)
		}
	}

	if c.Session.Timeout <= 0 {
		return fmt.Errorf("session timeout must be positive")
	}

	return nil
}

// YAML renders the effective configuration, used for the debug startup log
func (c *ServerConfig) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}

// Debug reports whether verbose logging is enabled
func (c *ServerConfig) Debug() bool {
	return strings.EqualFold(c.Server.LogLevel, "debug")
}
