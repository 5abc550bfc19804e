package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	t.Setenv(dataDirEnvVar, "")
	t.Setenv(envBaseURL, "")
	t.Setenv(envRedisURL, "")
	t.Setenv(envLogLevel, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL() != "http://localhost:4000" {
		t.Fatalf("unexpected base url: %q", cfg.BaseURL())
	}
	if cfg.RequestTimeout() != 90*time.Minute {
		t.Fatalf("unexpected timeout: %s", cfg.RequestTimeout())
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("unexpected ttl: %s", cfg.SessionTTL())
	}
	if cfg.SessionBackend() != BackendBbolt || cfg.StorageBackend() != BackendBbolt {
		t.Fatalf("unexpected backends: %q %q", cfg.SessionBackend(), cfg.StorageBackend())
	}
}

func TestLoadConfigFromTOML(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv(dataDirEnvVar, dataDir)
	t.Setenv(envBaseURL, "")
	t.Setenv(envRedisURL, "")
	t.Setenv(envLogLevel, "")

	content := []byte("[api]\nbase_url = \"notes.example.com:8080/\"\ntimeout = \"2m\"\n\n[session]\nttl = \"1h\"\n\n[storage]\nbackend = \"file\"\n")
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL() != "http://notes.example.com:8080" {
		t.Fatalf("unexpected base url: %q", cfg.BaseURL())
	}
	if cfg.RequestTimeout() != 2*time.Minute {
		t.Fatalf("unexpected timeout: %s", cfg.RequestTimeout())
	}
	if cfg.SessionTTL() != time.Hour {
		t.Fatalf("unexpected ttl: %s", cfg.SessionTTL())
	}
	if cfg.SessionBackend() != BackendFile || cfg.StorageBackend() != BackendFile {
		t.Fatalf("unexpected backends: %q %q", cfg.SessionBackend(), cfg.StorageBackend())
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	env := map[string]string{
		envBaseURL:  "https://api.example.com/",
		envRedisURL: "redis://cache:6379/1",
		envLogLevel: "debug",
	}
	cfg := DefaultConfig().WithEnv(func(key string) string { return env[key] })
	if cfg.BaseURL() != "https://api.example.com" {
		t.Fatalf("unexpected base url: %q", cfg.BaseURL())
	}
	if cfg.SessionBackend() != BackendRedis || cfg.RedisURL() != "redis://cache:6379/1" {
		t.Fatalf("expected redis session backend, got %q %q", cfg.SessionBackend(), cfg.RedisURL())
	}
	if cfg.LogLevel() != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel())
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Timeout = "soon"
	cfg.Session.TTL = "-5m"
	if cfg.RequestTimeout() != defaultRequestTimeout {
		t.Fatalf("expected default timeout, got %s", cfg.RequestTimeout())
	}
	if cfg.SessionTTL() != defaultSessionTTL {
		t.Fatalf("expected default ttl, got %s", cfg.SessionTTL())
	}
}
