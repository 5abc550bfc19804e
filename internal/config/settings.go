package config

import (
	"errors"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultBaseURL        = "http://localhost:4000"
	defaultRequestTimeout = 90 * time.Minute
	defaultSessionTTL     = 24 * time.Hour
	defaultRedisURL       = "redis://localhost:6379/0"

	BackendBbolt = "bbolt"
	BackendFile  = "file"
	BackendRedis = "redis"

	envBaseURL  = "PEACOCK_API_URL"
	envRedisURL = "PEACOCK_REDIS_URL"
	envLogLevel = "PEACOCK_LOG_LEVEL"
)

type Config struct {
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

type APIConfig struct {
	BaseURL string `toml:"base_url"`
	// Timeout is a Go duration string shared by every request, AI calls included.
	Timeout string `toml:"timeout"`
}

type SessionConfig struct {
	TTL      string `toml:"ttl"`
	Backend  string `toml:"backend"`
	RedisURL string `toml:"redis_url"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultRequestTimeout.String(),
		},
		Session: SessionConfig{
			TTL: defaultSessionTTL.String(),
		},
		Storage: StorageConfig{
			Backend: BackendBbolt,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config.toml from the data dir and applies environment overrides.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	cfg, err := loadConfigFromPath(path)
	if err != nil {
		return Config{}, err
	}
	return cfg.WithEnv(os.Getenv), nil
}

func (c Config) WithEnv(getenv func(string) string) Config {
	if getenv == nil {
		return c
	}
	if v := strings.TrimSpace(getenv(envBaseURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(envRedisURL)); v != "" {
		c.Session.RedisURL = v
		c.Session.Backend = BackendRedis
	}
	if v := strings.TrimSpace(getenv(envLogLevel)); v != "" {
		c.Logging.Level = v
	}
	return c
}

func (c Config) BaseURL() string {
	raw := strings.TrimSpace(c.API.BaseURL)
	if raw == "" {
		return defaultBaseURL
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	return strings.TrimRight(raw, "/")
}

func (c Config) RequestTimeout() time.Duration {
	return parseDuration(c.API.Timeout, defaultRequestTimeout)
}

func (c Config) SessionTTL() time.Duration {
	return parseDuration(c.Session.TTL, defaultSessionTTL)
}

// SessionBackend is redis when configured, otherwise the session-scoped
// credential lives next to the durable one in the storage backend.
func (c Config) SessionBackend() string {
	if strings.EqualFold(strings.TrimSpace(c.Session.Backend), BackendRedis) {
		return BackendRedis
	}
	return c.StorageBackend()
}

func (c Config) RedisURL() string {
	if v := strings.TrimSpace(c.Session.RedisURL); v != "" {
		return v
	}
	return defaultRedisURL
}

func (c Config) StorageBackend() string {
	if strings.EqualFold(strings.TrimSpace(c.Storage.Backend), BackendFile) {
		return BackendFile
	}
	return BackendBbolt
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func loadConfigFromPath(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}
