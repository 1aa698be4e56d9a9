package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_LISTEN_ADDR", "")
	t.Setenv("APP_API_BASE_URL", "")
	t.Setenv("APP_STATE_DIR", filepath.Join(t.TempDir(), "state"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ListenAddr != ":8090" {
		t.Errorf("ListenAddr = %q, want :8090", cfg.ListenAddr)
	}
	if cfg.APIBaseURL != "http://localhost:8080/api/v1" {
		t.Errorf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
	if cfg.PrometheusEnabled {
		t.Error("PrometheusEnabled should default to false")
	}
}

func TestLoadTrimsAPIBaseURL(t *testing.T) {
	t.Setenv("APP_API_BASE_URL", "https://api.example.com/api/v1/")
	t.Setenv("APP_STATE_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com/api/v1" {
		t.Errorf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
}

func TestLoadRejectsRelativeAPIBaseURL(t *testing.T) {
	t.Setenv("APP_API_BASE_URL", "/api/v1")
	t.Setenv("APP_STATE_DIR", t.TempDir())

	if _, err := Load(); err == nil {
		t.Fatal("expected error for relative APP_API_BASE_URL")
	}
}

func TestLoadParsesTrustedProxies(t *testing.T) {
	t.Setenv("APP_API_BASE_URL", "")
	t.Setenv("APP_STATE_DIR", t.TempDir())
	t.Setenv("APP_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1 ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	want := []string{"10.0.0.0/8", "192.168.1.1"}
	if len(cfg.TrustedProxies) != len(want) {
		t.Fatalf("TrustedProxies = %v, want %v", cfg.TrustedProxies, want)
	}
	for i := range want {
		if cfg.TrustedProxies[i] != want[i] {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.TrustedProxies[i], want[i])
		}
	}
}
