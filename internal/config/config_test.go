package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("HOST", "127.0.0.1")

	// Test loading default config when file doesn't exist
	t.Run("LoadDefaultWhenMissing", func(t *testing.T) {
		config, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config == nil {
			t.Fatal("expected default config, got nil")
		}
		if config.Scryfall.BaseURL != "https://api.scryfall.com" {
			t.Errorf("expected default search API, got %s", config.Scryfall.BaseURL)
		}
		if config.Scryfall.PageDelay != 100*time.Millisecond {
			t.Errorf("expected PageDelay 100ms, got %v", config.Scryfall.PageDelay)
		}
		if config.Packs.PackCount != 18 || config.Packs.CommonsPerPack != 10 {
			t.Errorf("expected 18 packs of 10 commons, got %d packs of %d", config.Packs.PackCount, config.Packs.CommonsPerPack)
		}
		if len(config.Export.Columns) != 1 || config.Export.Columns[0] != "name" {
			t.Errorf("expected export columns [name], got %v", config.Export.Columns)
		}
		if config.Server.TrustProxy {
			t.Error("expected forwarded headers to be untrusted by default")
		}
		if config.Server.Port != "8080" || config.Server.Host != "127.0.0.1" {
			t.Errorf("expected 127.0.0.1:8080, got %s:%s", config.Server.Host, config.Server.Port)
		}
	})

	// Test loading from YAML file
	t.Run("LoadFromYAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yaml")

		yamlContent := `
scryfall:
  pageDelay: 250ms
  maxPages: 12
  defaultSets: "neo,snc"

packs:
  packCount: 6
  raresPerPack: 2
  poolName: "league"

export:
  columns: [name, rarity]

session:
  timeout: 2h
`
		if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Scryfall.PageDelay != 250*time.Millisecond {
			t.Errorf("expected PageDelay 250ms, got %v", config.Scryfall.PageDelay)
		}
		if config.Scryfall.MaxPages != 12 {
			t.Errorf("expected MaxPages 12, got %d", config.Scryfall.MaxPages)
		}
		if config.Scryfall.DefaultSets != "neo,snc" {
			t.Errorf("expected default sets neo,snc, got %s", config.Scryfall.DefaultSets)
		}
		if config.Packs.PackCount != 6 || config.Packs.RaresPerPack != 2 || config.Packs.PoolName != "league" {
			t.Errorf("unexpected pack defaults %+v", config.Packs)
		}
		if config.Packs.CommonsPerPack != 10 {
			t.Errorf("expected unset CommonsPerPack to keep its default, got %d", config.Packs.CommonsPerPack)
		}
		if strings.Join(config.Export.Columns, ",") != "name,rarity" {
			t.Errorf("expected columns name,rarity, got %v", config.Export.Columns)
		}
		if config.Session.Timeout != 2*time.Hour {
			t.Errorf("expected session timeout 2h, got %v", config.Session.Timeout)
		}
	})

	// Environment wins over the file
	t.Run("EnvironmentOverrides", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "server.yaml")
		if err := os.WriteFile(configPath, []byte("scryfall:\n  maxPages: 12\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		t.Setenv("SCRYFALL_MAX_PAGES", "3")
		t.Setenv("SCRYFALL_BASE_URL", "http://127.0.0.1:9999")
		t.Setenv("CUBEPOOL_PACKS_POOLNAME", "cube night")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("TRUST_PROXY", "true")

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Scryfall.MaxPages != 3 {
			t.Errorf("expected MaxPages 3 from the environment, got %d", config.Scryfall.MaxPages)
		}
		if config.Scryfall.BaseURL != "http://127.0.0.1:9999" {
			t.Errorf("expected base URL from the environment, got %s", config.Scryfall.BaseURL)
		}
		if config.Packs.PoolName != "cube night" {
			t.Errorf("expected pool name from the environment, got %s", config.Packs.PoolName)
		}
		if !config.Debug() {
			t.Error("expected LOG_LEVEL=debug to enable debug logging")
		}
		if !config.Server.TrustProxy {
			t.Error("expected TRUST_PROXY=true to trust forwarded headers")
		}
	})

	t.Run("MalformedFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "broken.yaml")
		if err := os.WriteFile(configPath, []byte("scryfall: [unterminated\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected an error for a malformed config file")
		}
	})

	t.Run("InvalidValues", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		if err := os.WriteFile(configPath, []byte("export:\n  columns: [name, price]\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		_, err := LoadConfig(configPath)
		if err == nil || !strings.Contains(err.Error(), "unknown export column") {
			t.Errorf("expected an unknown export column error, got %v", err)
		}
	})
}

func TestLoadConfigRequiresPortAndHost(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("HOST", "127.0.0.1")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "PORT environment variable must be set") {
		t.Errorf("expected a PORT error, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func() *ServerConfig {
		cfg := DefaultConfig()
		cfg.Server.Port = "8080"
		cfg.Server.Host = "0.0.0.0"
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*ServerConfig)
		wantError bool
		errorMsg  string
	}{
		{
			name:   "ValidConfig",
			mutate: func(c *ServerConfig) {},
		},
		{
			name:      "MissingHost",
			mutate:    func(c *ServerConfig) { c.Server.Host = "" },
			wantError: true,
			errorMsg:  "HOST environment variable must be set",
		},
		{
			name:      "NonPositiveRateLimit",
			mutate:    func(c *ServerConfig) { c.Server.RateLimit = 0 },
			wantError: true,
			errorMsg:  "rateLimit must be positive",
		},
		{
			name:      "RelativeBaseURL",
			mutate:    func(c *ServerConfig) { c.Scryfall.BaseURL = "/cards" },
			wantError: true,
			errorMsg:  "absolute http(s) URL",
		},
		{
			name:      "UnsupportedScheme",
			mutate:    func(c *ServerConfig) { c.Scryfall.BaseURL = "ftp://api.scryfall.com" },
			wantError: true,
			errorMsg:  "absolute http(s) URL",
		},
		{
			name:      "NegativePageDelay",
			mutate:    func(c *ServerConfig) { c.Scryfall.PageDelay = -time.Second },
			wantError: true,
			errorMsg:  "pageDelay cannot be negative",
		},
		{
			name:      "ZeroRequestsPerSec",
			mutate:    func(c *ServerConfig) { c.Scryfall.RequestsPerSec = 0 },
			wantError: true,
			errorMsg:  "requestsPerSec must be positive",
		},
		{
			name:      "NoPages",
			mutate:    func(c *ServerConfig) { c.Scryfall.MaxPages = 0 },
			wantError: true,
			errorMsg:  "maxPages must be at least 1",
		},
		{
			name:      "NegativePackDefaults",
			mutate:    func(c *ServerConfig) { c.Packs.CommonsPerPack = -1 },
			wantError: true,
			errorMsg:  "pack defaults cannot be negative",
		},
		{
			name:      "UnknownColumn",
			mutate:    func(c *ServerConfig) { c.Export.Columns = []string{"name", "mana"} },
			wantError: true,
			errorMsg:  "unknown export column",
		},
		{
			name:   "EmptyColumnsFallBackToName",
			mutate: func(c *ServerConfig) { c.Export.Columns = nil },
		},
		{
			name:      "ZeroSessionTimeout",
			mutate:    func(c *ServerConfig) { c.Session.Timeout = 0 },
			wantError: true,
			errorMsg:  "session timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantError {
				if err == nil {
					t.Errorf("expected error containing '%s', got nil", tt.errorMsg)
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateDefaultsColumns(t *testing.T) {
	config := DefaultConfig()
	config.Server.Port = "8080"
	config.Server.Host = "0.0.0.0"
	config.Export.Columns = nil

	if err := config.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(config.Export.Columns) != 1 || config.Export.Columns[0] != "name" {
		t.Errorf("expected columns to default to [name], got %v", config.Export.Columns)
	}
}

func TestYAMLAndDebug(t *testing.T) {
	config := DefaultConfig()

	out, err := config.YAML()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{"scryfall:", "baseURL: https://api.scryfall.com", "packCount: 18", "columns:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected YAML to contain %q, got:\n%s", want, out)
		}
	}

	if config.Debug() {
		t.Error("expected info level not to enable debug")
	}
	config.Server.LogLevel = "DEBUG"
	if !config.Debug() {
		t.Error("expected log level matching to ignore case")
	}
}
