package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("server")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/cubepool")
	}

	// Enable environment variable binding
	v.SetEnvPrefix("CUBEPOOL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// These allow both CUBEPOOL_SERVER_PORT and PORT to work
	v.BindEnv("server.port", "CUBEPOOL_SERVER_PORT", "PORT")
	v.BindEnv("server.host", "CUBEPOOL_SERVER_HOST", "HOST")
	v.BindEnv("server.publicurl", "CUBEPOOL_SERVER_PUBLICURL", "PUBLIC_URL")
	v.BindEnv("server.loglevel", "CUBEPOOL_SERVER_LOGLEVEL", "LOG_LEVEL")
	v.BindEnv("server.ratelimit", "CUBEPOOL_SERVER_RATELIMIT", "RATE_LIMIT")
	v.BindEnv("server.ratelimitburst", "CUBEPOOL_SERVER_RATELIMITBURST", "RATE_LIMIT_BURST")
	v.BindEnv("server.maxrequestsize", "CUBEPOOL_SERVER_MAXREQUESTSIZE", "MAX_REQUEST_SIZE")
	v.BindEnv("server.trustproxy", "CUBEPOOL_SERVER_TRUSTPROXY", "TRUST_PROXY")
	v.BindEnv("scryfall.baseurl", "CUBEPOOL_SCRYFALL_BASEURL", "SCRYFALL_BASE_URL")
	v.BindEnv("scryfall.maxpages", "CUBEPOOL_SCRYFALL_MAXPAGES", "SCRYFALL_MAX_PAGES")

	def := DefaultConfig()

	// Timeout defaults
	v.SetDefault("server.readtimeout", def.Server.ReadTimeout.String())
	v.SetDefault("server.writetimeout", "0s")
	v.SetDefault("server.idletimeout", "0s") // 0 for SSE support
	v.SetDefault("server.shutdowntimeout", def.Server.ShutdownTimeout.String())
	v.SetDefault("server.requesttimeout", def.Server.RequestTimeout.String())

	// Rate limiting defaults
	v.SetDefault("server.ratelimit", def.Server.RateLimit)
	v.SetDefault("server.ratelimitburst", def.Server.RateLimitBurst)
	v.SetDefault("server.maxrequestsize", def.Server.MaxRequestSize)
	v.SetDefault("server.trustproxy", def.Server.TrustProxy)
	v.SetDefault("server.loglevel", def.Server.LogLevel)

	// Upstream search defaults
	v.SetDefault("scryfall.baseurl", def.Scryfall.BaseURL)
	v.SetDefault("scryfall.useragent", def.Scryfall.UserAgent)
	v.SetDefault("scryfall.pagedelay", def.Scryfall.PageDelay.String())
	v.SetDefault("scryfall.requestspersec", def.Scryfall.RequestsPerSec)
	v.SetDefault("scryfall.requesttimeout", def.Scryfall.RequestTimeout.String())
	v.SetDefault("scryfall.fetchtimeout", def.Scryfall.FetchTimeout.String())
	v.SetDefault("scryfall.maxpages", def.Scryfall.MaxPages)
	v.SetDefault("scryfall.defaultsets", def.Scryfall.DefaultSets)

	// Form defaults
	v.SetDefault("packs.packcount", def.Packs.PackCount)
	v.SetDefault("packs.raresperpack", def.Packs.RaresPerPack)
	v.SetDefault("packs.uncommonsperpack", def.Packs.UncommonsPerPack)
	v.SetDefault("packs.commonsperpack", def.Packs.CommonsPerPack)
	v.SetDefault("packs.poolname", def.Packs.PoolName)

	v.SetDefault("export.columns", def.Export.Columns)

	v.SetDefault("session.timeout", def.Session.Timeout.String())
	v.SetDefault("session.cleanupinterval", def.Session.CleanupInterval.String())

	// Try to read config file (it's optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; continue with env vars and defaults
	}

	cfg := &ServerConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
