package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/onexay/travis-notify/internal/appendlog"
	"github.com/onexay/travis-notify/internal/config"
	"github.com/onexay/travis-notify/internal/notify"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
api_addr = ":9090"

[storage]
backend = "Bolt"
bolt_path = "/tmp/notify.db"
max_retries = 3

[storage.keydb]
addr = "keydb:6379"

[history]
recent_limit = 0

[travis_notify]
token = "TOKEN"
recipients = ["dev@example.com", "ops@example.com"]
`)

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIAddr != ":9090" {
		t.Errorf("expected api addr ':9090', got '%s'", cfg.APIAddr)
	}
	if cfg.Storage.Backend != config.StorageBackendBolt {
		t.Errorf("expected bolt backend, got '%s'", cfg.Storage.Backend)
	}
	if cfg.Storage.KeyDB.Addr != "keydb:6379" {
		t.Errorf("unexpected keydb addr '%s'", cfg.Storage.KeyDB.Addr)
	}
	if cfg.Storage.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Storage.MaxRetries)
	}
	if got := cfg.History.RecentLimitOrDefault(); got != 0 {
		t.Errorf("expected explicit zero recent limit, got %d", got)
	}
	if token, _ := cfg.Settings.String(config.TokenKey); token != "TOKEN" {
		t.Errorf("expected token 'TOKEN', got '%s'", token)
	}
	to, _ := cfg.Settings.String(notify.RecipientsKey)
	if to != "dev@example.com, ops@example.com" {
		t.Errorf("unexpected recipients '%s'", to)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIAddr != ":8080" {
		t.Errorf("expected default api addr, got '%s'", cfg.APIAddr)
	}
	if cfg.Storage.Backend != config.StorageBackendMemory {
		t.Errorf("expected memory backend, got '%s'", cfg.Storage.Backend)
	}
	if got := cfg.History.RecentLimitOrDefault(); got != appendlog.DefaultCapacity {
		t.Errorf("expected default recent limit, got %d", got)
	}
	if cfg.Auth.TokenKeyOrDefault() != config.TokenKey {
		t.Errorf("unexpected token key '%s'", cfg.Auth.TokenKeyOrDefault())
	}
	if _, ok := cfg.Settings.String(config.TokenKey); ok {
		t.Errorf("expected no token without file or env")
	}
}

func TestLoad_EnvVarsTakePrecedence(t *testing.T) {
	path := writeConfig(t, `
[auth]
token_key = "my_token"

[travis_notify]
recipients = "file@example.com"
`)

	t.Setenv("STORAGE_BACKEND", "keydb")
	t.Setenv("KEYDB_DB", "2")
	t.Setenv("HISTORY_RECENT_LIMIT", "4")
	t.Setenv("TRAVIS_NOTIFY_TOKEN", "from-env")
	t.Setenv("TRAVIS_NOTIFY_RECIPIENTS", "a@example.com,b@example.com")

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != config.StorageBackendKeyDB {
		t.Errorf("expected keydb backend, got '%s'", cfg.Storage.Backend)
	}
	if cfg.Storage.KeyDB.Database != 2 {
		t.Errorf("expected keydb db 2, got %d", cfg.Storage.KeyDB.Database)
	}
	if got := cfg.History.RecentLimitOrDefault(); got != 4 {
		t.Errorf("expected recent limit 4, got %d", got)
	}
	if token, _ := cfg.Settings.String("my_token"); token != "from-env" {
		t.Errorf("expected env token under custom key, got '%s'", token)
	}
	if got, _ := cfg.Settings.String(notify.RecipientsKey); got != "a@example.com,b@example.com" {
		t.Errorf("unexpected recipients %q", got)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "api_addr = [")
	if _, err := config.LoadFrom(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSettingsFlattenAndLookup(t *testing.T) {
	settings := config.Flatten(map[string]any{
		"travis_notify": map[string]any{
			"token":      "abc",
			"recipients": []any{"a@example.com", "b@example.com"},
			"retries":    int64(3),
		},
		"top": "level",
	})

	if token, ok := settings.String("travis_notify.token"); !ok || token != "abc" {
		t.Fatalf("unexpected token %q (%v)", token, ok)
	}
	if joined, _ := settings.String("travis_notify.recipients"); joined != "a@example.com, b@example.com" {
		t.Fatalf("unexpected joined recipients %q", joined)
	}
	if retries, ok := settings.String("travis_notify.retries"); !ok || retries != "3" {
		t.Fatalf("unexpected retries %q", retries)
	}
	if _, ok := settings.String("missing"); ok {
		t.Fatalf("missing key reported present")
	}

	// display names keep their spaces
	settings["named"] = "Zope Tests <zope-tests@zope.org>"
	if got, _ := settings.String("named"); got != "Zope Tests <zope-tests@zope.org>" {
		t.Fatalf("unexpected named recipient %q", got)
	}
}
