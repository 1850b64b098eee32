package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./listsync.db" {
			t.Errorf("expected database path ./listsync.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.TMDb.BaseURL != "https://api.themoviedb.org/3" {
			t.Errorf("expected tmdb base URL, got %s", config.TMDb.BaseURL)
		}

		if config.Sync.ListName != "My Movie List" {
			t.Errorf("expected default list name My Movie List, got %s", config.Sync.ListName)
		}

		if config.Sync.Delay() != time.Second {
			t.Errorf("expected 1s delay, got %v", config.Sync.Delay())
		}

		if config.Credentials.TMDb.HasKey() {
			t.Error("default config should not carry credentials")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials.tmdb]
api_key = "test_api_key"
session_id = "sess"

[sync]
list_name = "Watchlist"
delay_ms = 250
match = "id"

[server]
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.TMDb.APIKey != "test_api_key" {
			t.Errorf("expected api key test_api_key, got %s", config.Credentials.TMDb.APIKey)
		}
		if config.Sync.ListName != "Watchlist" || config.Sync.Match != "id" {
			t.Errorf("unexpected sync config: %+v", config.Sync)
		}
		if config.Sync.Delay() != 250*time.Millisecond {
			t.Errorf("expected 250ms delay, got %v", config.Sync.Delay())
		}
		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Server.Host != "localhost" {
			t.Errorf("expected default host to survive partial config, got %q", config.Server.Host)
		}
		if config.Server.CallbackURL() != "http://localhost:8080/callback" {
			t.Errorf("unexpected callback url %s", config.Server.CallbackURL())
		}
	})

	t.Run("LoadConfig rejects unknown match mode", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[sync]\nmatch = \"fuzzy\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.TMDb.SessionID = "abc123"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if loaded.Credentials.TMDb.SessionID != "abc123" {
			t.Errorf("expected session id to persist, got %q", loaded.Credentials.TMDb.SessionID)
		}
	})
}
