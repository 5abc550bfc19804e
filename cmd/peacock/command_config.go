package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"peacock/internal/config"
)

type ConfigCommand struct {
	stdout io.Writer
	stderr io.Writer
	load   func() (config.Config, error)
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"

	configScopeAPI     = "api"
	configScopeSession = "session"
	configScopeStorage = "storage"
	configScopeLogging = "logging"
)

var allConfigScopes = []string{configScopeAPI, configScopeSession, configScopeStorage, configScopeLogging}

type configOutput struct {
	ConfigPath string                  `json:"config_path,omitempty" toml:"config_path,omitempty"`
	API        *effectiveAPIConfig     `json:"api,omitempty" toml:"api,omitempty"`
	Session    *effectiveSessionConfig `json:"session,omitempty" toml:"session,omitempty"`
	Storage    *effectiveStorageConfig `json:"storage,omitempty" toml:"storage,omitempty"`
	Logging    *effectiveLoggingConfig `json:"logging,omitempty" toml:"logging,omitempty"`
}

type effectiveAPIConfig struct {
	BaseURL string `json:"base_url" toml:"base_url"`
	Timeout string `json:"timeout" toml:"timeout"`
}

type effectiveSessionConfig struct {
	TTL      string `json:"ttl" toml:"ttl"`
	Backend  string `json:"backend" toml:"backend"`
	RedisURL string `json:"redis_url,omitempty" toml:"redis_url,omitempty"`
}

type effectiveStorageConfig struct {
	Backend string `json:"backend" toml:"backend"`
	DataDir string `json:"data_dir" toml:"data_dir"`
}

type effectiveLoggingConfig struct {
	Level string `json:"level" toml:"level"`
	Path  string `json:"path" toml:"path"`
}

func NewConfigCommand(stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		stdout: stdout,
		stderr: stderr,
		load:   config.Load,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	var scopes stringList
	fs.Var(&scopes, "scope", "scope to print: api|session|storage|logging|all (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	resolvedScopes, err := resolveConfigScopes(scopes)
	if err != nil {
		return err
	}
	payload, err := c.buildOutput(*defaults, resolvedScopes)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func (c *ConfigCommand) buildOutput(defaults bool, scopes map[string]struct{}) (configOutput, error) {
	cfg := config.DefaultConfig()
	if !defaults {
		loaded, err := c.load()
		if err != nil {
			return configOutput{}, err
		}
		cfg = loaded
	}
	configPath, err := config.ConfigPath()
	if err != nil {
		return configOutput{}, err
	}
	out := configOutput{ConfigPath: configPath}

	if scopeSelected(scopes, configScopeAPI) {
		out.API = &effectiveAPIConfig{
			BaseURL: cfg.BaseURL(),
			Timeout: cfg.RequestTimeout().String(),
		}
	}
	if scopeSelected(scopes, configScopeSession) {
		out.Session = &effectiveSessionConfig{
			TTL:     cfg.SessionTTL().String(),
			Backend: cfg.SessionBackend(),
		}
		if cfg.SessionBackend() == config.BackendRedis {
			out.Session.RedisURL = cfg.RedisURL()
		}
	}
	if scopeSelected(scopes, configScopeStorage) {
		dataDir, err := config.DataDir()
		if err != nil {
			return configOutput{}, err
		}
		out.Storage = &effectiveStorageConfig{
			Backend: cfg.StorageBackend(),
			DataDir: dataDir,
		}
	}
	if scopeSelected(scopes, configScopeLogging) {
		logPath, err := config.LogPath()
		if err != nil {
			return configOutput{}, err
		}
		out.Logging = &effectiveLoggingConfig{
			Level: cfg.LogLevel(),
			Path:  logPath,
		}
	}
	return out, nil
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("invalid format: must be json or toml")
	}
}

func resolveConfigScopes(values []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	if len(values) == 0 {
		values = []string{"all"}
	}
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			scope := strings.ToLower(strings.TrimSpace(part))
			switch scope {
			case "all":
				for _, s := range allConfigScopes {
					out[s] = struct{}{}
				}
			case configScopeAPI, configScopeSession, configScopeStorage, configScopeLogging:
				out[scope] = struct{}{}
			default:
				return nil, errors.New("invalid scope: must be api, session, storage, logging, or all")
			}
		}
	}
	return out, nil
}

func scopeSelected(scopes map[string]struct{}, scope string) bool {
	_, ok := scopes[scope]
	return ok
}

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
