package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPageSize    = 5
	DefaultPagePause   = 3 * time.Second
	DefaultBackoffStep = 3 * time.Second
	DefaultMaxAttempts = 10
	DefaultHTTPTimeout = 30 * time.Second
	DefaultAuthHeader  = "x-api-key"
)

// Policies for pages that exhaust their retry budget.
const (
	// OnExhaustedFail aborts the run when any page cannot be fetched.
	OnExhaustedFail = "fail"

	// OnExhaustedContinue proceeds with whatever records were fetched.
	OnExhaustedContinue = "continue"
)

// Config is the top-level configuration for the agent.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig describes the remote assessment API.
type APIConfig struct {
	// BaseURL is the root of the assessment API,
	// e.g. "https://assessment.example.com/api".
	BaseURL string `yaml:"base_url"`

	// Auth configures how the agent authenticates to the API.
	Auth AuthConfig `yaml:"auth"`

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies the authentication mode for the API.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header name the API key is sent in.
	// Used when Mode == "apikey".
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv is the name of the environment variable that holds the bearer
	// token. Used when Mode == "bearer".
	TokenEnv string `yaml:"token_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// TLSConfig holds TLS dial options for the API connection.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// FetchConfig controls pagination pacing and the per-page retry policy.
type FetchConfig struct {
	// PageSize is the limit parameter sent with every page request.
	PageSize int `yaml:"page_size"`

	// PagePause is the fixed wait between successful page fetches,
	// to stay under the API's rate limit.
	PagePause time.Duration `yaml:"page_pause"`

	// BackoffStep is multiplied by the attempt number to produce the wait
	// after a failed attempt. The backoff is linear: step, 2*step, 3*step.
	BackoffStep time.Duration `yaml:"backoff_step"`

	// MaxAttempts is the total number of tries per page before the page is
	// reported exhausted.
	MaxAttempts int `yaml:"max_attempts"`

	// OnExhausted decides what the run does when a page exhausts its
	// attempts: "fail" aborts, "continue" proceeds with the records
	// fetched so far.
	OnExhausted string `yaml:"on_exhausted"`
}

// MetricsConfig configures optional run-metrics output.
type MetricsConfig struct {
	// Textfile is an optional path. When set, run metrics are written there
	// in Prometheus text exposition format after the run, following the
	// node_exporter textfile-collector convention.
	Textfile string `yaml:"textfile"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		API: APIConfig{
			Timeout: DefaultHTTPTimeout,
			Auth: AuthConfig{
				Header: DefaultAuthHeader,
			},
		},
		Fetch: FetchConfig{
			PageSize:    DefaultPageSize,
			PagePause:   DefaultPagePause,
			BackoffStep: DefaultBackoffStep,
			MaxAttempts: DefaultMaxAttempts,
			OnExhausted: OnExhaustedFail,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	switch cfg.API.Auth.Mode {
	case "apikey":
		if cfg.API.Auth.Header == "" {
			return fmt.Errorf("api.auth.header is required for apikey auth")
		}
		if cfg.API.Auth.KeyEnv == "" {
			return fmt.Errorf("api.auth.key_env is required for apikey auth")
		}
	case "bearer":
		if cfg.API.Auth.TokenEnv == "" {
			return fmt.Errorf("api.auth.token_env is required for bearer auth")
		}
	case "none", "":
	default:
		return fmt.Errorf("api.auth: unknown mode %q", cfg.API.Auth.Mode)
	}
	if cfg.Fetch.PageSize <= 0 {
		return fmt.Errorf("fetch.page_size must be positive")
	}
	if cfg.Fetch.PagePause < 0 {
		return fmt.Errorf("fetch.page_pause must not be negative")
	}
	if cfg.Fetch.BackoffStep < 0 {
		return fmt.Errorf("fetch.backoff_step must not be negative")
	}
	if cfg.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be positive")
	}
	switch cfg.Fetch.OnExhausted {
	case OnExhaustedFail, OnExhaustedContinue:
	default:
		return fmt.Errorf("fetch.on_exhausted: unknown policy %q", cfg.Fetch.OnExhausted)
	}
	return nil
}
