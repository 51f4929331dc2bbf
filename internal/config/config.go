// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/podcast-planner/internal/arxiv"
	"github.com/jonathan/podcast-planner/internal/llm"
	"github.com/jonathan/podcast-planner/internal/types"
)

// Defaults applied by Defaults and MergeWithDefaults.
const (
	DefaultPort              = 8080
	DefaultMaxConcurrentRuns = 4
)

// Config represents the configuration that can be loaded from a JSON or YAML
// file and overlaid with environment variables.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// LLM
	Provider string            `json:"provider,omitempty" yaml:"provider,omitempty"`                 // gemini or openai
	APIKey   string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`                   // Provider API key
	BaseURL  string            `json:"base_url,omitempty" yaml:"base_url,omitempty"`                 // OpenAI-compatible endpoint override
	Models   map[string]string `json:"models,omitempty" yaml:"models,omitempty"`                     // Tier -> model overrides
	Timeout  string            `json:"stage_timeout,omitempty" yaml:"stage_timeout,omitempty"`       // Per-stage timeout, e.g. "90s"
	MaxRuns  int               `json:"max_concurrent_runs,omitempty" yaml:"max_concurrent_runs,omitempty"`

	// Acquisition
	SourceMode  string `json:"source_mode,omitempty" yaml:"source_mode,omitempty"`   // pdf or abstract
	DownloadDir string `json:"download_dir,omitempty" yaml:"download_dir,omitempty"` // Transient PDF directory
	MaxPages    int    `json:"max_pages,omitempty" yaml:"max_pages,omitempty"`       // PDF pages to read
	MaxChars    int    `json:"max_chars,omitempty" yaml:"max_chars,omitempty"`       // Source text cap
	ArxivURL    string `json:"arxiv_url,omitempty" yaml:"arxiv_url,omitempty"`       // arXiv mirror base URL
	UseBrowser  bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`   // Headless browser fallback

	// Server
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	AuthEnabled bool   `json:"auth_enabled,omitempty" yaml:"auth_enabled,omitempty"` // Require bearer tokens

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Provider:   string(llm.ProviderGemini),
		SourceMode: string(types.SourceModePDF),
		MaxPages:   arxiv.DefaultMaxPages,
		MaxChars:   arxiv.DefaultMaxChars,
		ArxivURL:   arxiv.DefaultBaseURL,
		MaxRuns:    DefaultMaxConcurrentRuns,
		Port:       DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON or YAML file; the format is
// chosen by extension (.yaml/.yml, anything else is JSON).
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. Unset variables
// leave the corresponding field empty. Malformed numbers are reported.
func FromEnv() (Config, error) {
	cfg := Config{
		Provider:    os.Getenv("LLM_PROVIDER"),
		BaseURL:     os.Getenv("OPENAI_BASE_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SourceMode:  os.Getenv("PODCAST_SOURCE_MODE"),
		DownloadDir: os.Getenv("PODCAST_DOWNLOAD_DIR"),
		ArxivURL:    os.Getenv("PODCAST_ARXIV_URL"),
		Timeout:     os.Getenv("PODCAST_STAGE_TIMEOUT"),
	}

	var err error
	if cfg.MaxPages, err = envInt("PODCAST_MAX_PAGES"); err != nil {
		return cfg, err
	}
	if cfg.MaxChars, err = envInt("PODCAST_MAX_CHARS"); err != nil {
		return cfg, err
	}
	if cfg.MaxRuns, err = envInt("PODCAST_MAX_CONCURRENT_RUNS"); err != nil {
		return cfg, err
	}
	if cfg.Port, err = envInt("PORT"); err != nil {
		return cfg, err
	}
	if cfg.AuthEnabled, err = envBool("AUTH_ENABLED"); err != nil {
		return cfg, err
	}
	if cfg.UseBrowser, err = envBool("PODCAST_USE_BROWSER"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envInt(key string) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for the API key since that is resolved
// after merging with flags and the environment.
func (c *Config) Validate() error {
	if c.Provider != "" {
		if _, err := llm.ConfigForProvider(c.Provider); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	switch types.SourceMode(c.SourceMode) {
	case "", types.SourceModePDF, types.SourceModeAbstract:
	default:
		return fmt.Errorf("config error: 'source_mode' must be %q or %q, got %q",
			types.SourceModePDF, types.SourceModeAbstract, c.SourceMode)
	}

	// Validate numeric ranges
	if c.MaxPages < 0 {
		return fmt.Errorf("config error: 'max_pages' must be non-negative")
	}
	if c.MaxChars < 0 {
		return fmt.Errorf("config error: 'max_chars' must be non-negative")
	}
	if c.MaxRuns < 0 {
		return fmt.Errorf("config error: 'max_concurrent_runs' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	if _, err := c.StageTimeout(); err != nil {
		return err
	}

	for tier := range c.Models {
		switch llm.ModelTier(tier) {
		case llm.TierLite, llm.TierStandard, llm.TierAdvanced:
		default:
			return fmt.Errorf("config error: unknown model tier %q", tier)
		}
	}

	if c.DownloadDir != "" {
		if info, err := os.Stat(c.DownloadDir); err != nil || !info.IsDir() {
			return fmt.Errorf("config error: download directory not found: %s", c.DownloadDir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer flags over the environment over the config file.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.Timeout == "" {
		result.Timeout = defaults.Timeout
	}
	if result.SourceMode == "" {
		result.SourceMode = defaults.SourceMode
	}
	if result.DownloadDir == "" {
		result.DownloadDir = defaults.DownloadDir
	}
	if result.ArxivURL == "" {
		result.ArxivURL = defaults.ArxivURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.MaxRuns == 0 {
		result.MaxRuns = defaults.MaxRuns
	}
	if result.MaxPages == 0 {
		result.MaxPages = defaults.MaxPages
	}
	if result.MaxChars == 0 {
		result.MaxChars = defaults.MaxChars
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Model overrides merge per tier
	if len(defaults.Models) > 0 {
		merged := make(map[string]string, len(defaults.Models)+len(result.Models))
		for k, v := range defaults.Models {
			merged[k] = v
		}
		for k, v := range result.Models {
			merged[k] = v
		}
		result.Models = merged
	}

	// Bool fields: true anywhere wins
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.AuthEnabled = result.AuthEnabled || defaults.AuthEnabled
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// StageTimeout parses the per-stage timeout. An empty value disables it.
func (c *Config) StageTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config error: invalid 'stage_timeout': %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config error: 'stage_timeout' must be non-negative")
	}
	return d, nil
}

// ResolveAPIKey returns the configured key, falling back to the provider's
// environment variable (GEMINI_API_KEY or OPENAI_API_KEY).
func (c *Config) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}

	envVar := "GEMINI_API_KEY"
	if llm.Provider(c.Provider) == llm.ProviderOpenAI {
		envVar = "OPENAI_API_KEY"
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("API key is required: set %s or 'api_key' in the config file", envVar)
}

// LLMConfig builds the tier-to-model configuration for the selected provider.
func (c *Config) LLMConfig() (*llm.Config, error) {
	cfg, err := llm.ConfigForProvider(c.Provider)
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = c.BaseURL
	for tier, model := range c.Models {
		cfg = cfg.WithModel(llm.ModelTier(tier), model)
	}
	return cfg, nil
}

// ArxivConfig builds the acquisition configuration.
func (c *Config) ArxivConfig() arxiv.Config {
	return arxiv.Config{
		AbsBaseURL:  c.ArxivURL,
		PDFBaseURL:  c.ArxivURL,
		DownloadDir: c.DownloadDir,
		MaxPages:    c.MaxPages,
		MaxChars:    c.MaxChars,
		Mode:        types.SourceMode(c.SourceMode),
		UseBrowser:  c.UseBrowser,
		Verbose:     c.Verbose,
	}
}

// Load resolves the effective configuration: the optional file at path,
// overlaid by the environment, filled from Defaults, then validated.
func Load(path string) (Config, error) {
	envCfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}

	merged := envCfg
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		merged = envCfg.MergeWithDefaults(*fileCfg)
	}
	merged = merged.MergeWithDefaults(Defaults())

	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}
