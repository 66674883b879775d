package wolfram

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"

	"github.com/u296/wolframalpha-api/pkg/shared/stringutil"
)

const (
	DefaultQueryURL    = "https://api.wolframalpha.com/v2/query"
	DefaultSimpleURL   = "http://api.wolframalpha.com/v1/simple"
	DefaultTimeoutSecs = 30
	DefaultUserAgent   = "wolframalpha-api-go"

	UnitsMetric   = "metric"
	UnitsImperial = "imperial"
)

// Config controls how the client reaches the service.
type Config struct {
	AppID       string `yaml:"app_id" json:"app_id"`
	QueryURL    string `yaml:"query_url" json:"query_url"`
	SimpleURL   string `yaml:"simple_url" json:"simple_url"`
	Units       string `yaml:"units" json:"units"`
	TimeoutSecs int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`

	// IncludePodIDs restricts full-results queries to the listed pod ids.
	IncludePodIDs []string `yaml:"include_pod_ids" json:"include_pod_ids"`

	// Headers are sent with every request, e.g. for an authenticating proxy.
	Headers map[string]string `yaml:"headers" json:"headers"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.QueryURL) == "" {
		c.QueryURL = DefaultQueryURL
	}
	if strings.TrimSpace(c.SimpleURL) == "" {
		c.SimpleURL = DefaultSimpleURL
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = DefaultUserAgent
	}
	c.Units = strings.ToLower(strings.TrimSpace(c.Units))
	return c
}

// Validate reports configuration the client cannot work with.
func (c *Config) Validate() error {
	if c == nil || strings.TrimSpace(c.AppID) == "" {
		return ErrMissingAppID
	}
	switch c.Units {
	case "", UnitsMetric, UnitsImperial:
	default:
		return fmt.Errorf("wolfram: unsupported units %q", c.Units)
	}
	return nil
}

// ConfigFromEnv builds a config using environment variables.
func ConfigFromEnv() *Config {
	cfg := &Config{}
	cfg.AppID = stringutil.EnvOr(cfg.AppID, os.Getenv("WOLFRAM_APP_ID"))
	cfg.QueryURL = stringutil.EnvOr(cfg.QueryURL, os.Getenv("WOLFRAM_QUERY_URL"))
	cfg.SimpleURL = stringutil.EnvOr(cfg.SimpleURL, os.Getenv("WOLFRAM_SIMPLE_URL"))
	cfg.Units = stringutil.EnvOr(cfg.Units, os.Getenv("WOLFRAM_UNITS"))
	if pods := strings.TrimSpace(os.Getenv("WOLFRAM_INCLUDE_PODS")); pods != "" {
		cfg.IncludePodIDs = stringutil.SplitCSV(pods)
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(os.Getenv("WOLFRAM_TIMEOUT_SECONDS"))); err == nil {
		cfg.TimeoutSecs = secs
	}
	return cfg.WithDefaults()
}

// ApplyEnvDefaults fills empty config fields from environment variables.
func ApplyEnvDefaults(cfg *Config) *Config {
	if cfg == nil {
		return ConfigFromEnv()
	}
	envCfg := ConfigFromEnv()
	current := *cfg
	current.AppID = stringutil.FirstNonEmpty(current.AppID, envCfg.AppID)
	current.QueryURL = stringutil.FirstNonEmpty(current.QueryURL, envCfg.QueryURL)
	current.SimpleURL = stringutil.FirstNonEmpty(current.SimpleURL, envCfg.SimpleURL)
	current.Units = stringutil.FirstNonEmpty(current.Units, envCfg.Units)
	if len(current.IncludePodIDs) == 0 {
		current.IncludePodIDs = envCfg.IncludePodIDs
	}
	if current.TimeoutSecs <= 0 {
		current.TimeoutSecs = envCfg.TimeoutSecs
	}
	return current.WithDefaults()
}

// LoadConfig reads a config file. Files ending in .json or .json5 are read as JSON5, anything
// else as YAML. Environment variables fill the fields the file leaves empty.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		err = json5.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return ApplyEnvDefaults(&cfg), nil
}
