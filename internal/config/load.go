package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/amptab/internal/config/loader"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "AMPTAB_"

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads the file at path over the defaults and validates the result. An
// empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	return LoadFS(loader.DefaultFS(), path)
}

// LoadFS is Load over an explicit file system.
func LoadFS(fsys loader.FileSystem, path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := loader.LoadFile(fsys, path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// envSetting binds an environment variable to a field.
type envSetting struct {
	name string
	set  func(c *Config, v string) error
}

var envSettings = []envSetting{
	{"LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = strings.ToLower(v); return nil }},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Logging.Format = strings.ToLower(v); return nil }},
	{"API_ENDPOINT", func(c *Config, v string) error { c.API.Endpoint = v; return nil }},
	{"API_MODEL", func(c *Config, v string) error { c.API.Model = v; return nil }},
	{"API_USER", func(c *Config, v string) error { c.API.User = v; return nil }},
	{"API_KEY_ENV", func(c *Config, v string) error { c.API.KeyEnv = v; return nil }},
	{"API_TIMEOUT_MS", intSetting(func(c *Config) *int { return &c.API.TimeoutMS })},
	{"API_MAX_TOKENS", intSetting(func(c *Config) *int { return &c.API.MaxTokens })},
	{"REGION_USE_TREESITTER", boolSetting(func(c *Config) *bool { return &c.Region.UseTreesitter })},
	{"REGION_MAX_LINES", intSetting(func(c *Config) *int { return &c.Region.MaxLines })},
	{"ENRICHMENT_ENABLED", boolSetting(func(c *Config) *bool { return &c.Enrichment.Enabled })},
	{"PRELOAD_ENABLED", boolSetting(func(c *Config) *bool { return &c.Preload.Enabled })},
	{"PRELOAD_DEBOUNCE_MS", intSetting(func(c *Config) *int { return &c.Preload.DebounceMS })},
}

func intSetting(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolSetting(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

// ApplyEnv applies AMPTAB_* overrides and resolves the API key from the
// variable named by api.key_env.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, s := range envSettings {
		v, ok := lookup(EnvPrefix + s.name)
		if !ok {
			continue
		}
		if err := s.set(c, v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, s.name, err)
		}
	}
	if c.API.KeyEnv != "" {
		if key, ok := lookup(c.API.KeyEnv); ok {
			c.API.Key = strings.TrimSpace(key)
		}
	}
	return nil
}
