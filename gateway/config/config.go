package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rooster/crypto"
	"rooster/native/custody"
)

type RPCConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	Commitment string        `yaml:"commitment"`
	Timeout    time.Duration `yaml:"timeout"`
	// Proxy exposes the node's JSON-RPC interface under /rpc.
	Proxy bool `yaml:"proxy"`
}

type RateLimitConfig struct {
	ID                string  `yaml:"id"`
	RequestsPerMinute float64 `yaml:"requestsPerMinute"`
	Burst             int     `yaml:"burst"`
}

type ObservabilityConfig struct {
	ServiceName   string `yaml:"serviceName"`
	Metrics       bool   `yaml:"metrics"`
	Tracing       bool   `yaml:"tracing"`
	LogRequests   bool   `yaml:"logRequests"`
	MetricsPrefix string `yaml:"metricsPrefix"`
}

type AuthConfig struct {
	Enabled    bool          `yaml:"enabled"`
	HMACSecret string        `yaml:"hmacSecret"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	ScopeClaim string        `yaml:"scopeClaim"`
	ClockSkew  time.Duration `yaml:"clockSkew"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type PausesConfig struct {
	Init     bool `yaml:"init"`
	Withdraw bool `yaml:"withdraw"`
	Delegate bool `yaml:"delegate"`
}

type Config struct {
	Environment   string              `yaml:"environment"`
	ListenAddress string              `yaml:"listen"`
	ReadTimeout   time.Duration       `yaml:"readTimeout"`
	WriteTimeout  time.Duration       `yaml:"writeTimeout"`
	IdleTimeout   time.Duration       `yaml:"idleTimeout"`
	ProgramID     string              `yaml:"programId"`
	RuleSet       string              `yaml:"ruleSet"`
	RPC           RPCConfig           `yaml:"rpc"`
	RateLimits    []RateLimitConfig   `yaml:"rateLimits"`
	Observability ObservabilityConfig `yaml:"observability"`
	Auth          AuthConfig          `yaml:"auth"`
	CORS          CORSConfig          `yaml:"cors"`
	Pauses        PausesConfig        `yaml:"pauses"`
}

func defaults() Config {
	return Config{
		Environment:   "dev",
		ListenAddress: ":8080",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,
		ProgramID:     custody.ProgramID.String(),
		RPC: RPCConfig{
			Endpoint:   "http://127.0.0.1:8899",
			Commitment: "confirmed",
			Timeout:    10 * time.Second,
		},
		Observability: ObservabilityConfig{
			ServiceName:   "rooster-gateway",
			Metrics:       true,
			Tracing:       true,
			LogRequests:   true,
			MetricsPrefix: "gateway",
		},
		Auth: AuthConfig{
			ScopeClaim: "scope",
			ClockSkew:  2 * time.Minute,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the validated defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	if cfg.Auth.ScopeClaim == "" {
		cfg.Auth.ScopeClaim = "scope"
	}
	if cfg.Auth.ClockSkew <= 0 {
		cfg.Auth.ClockSkew = 2 * time.Minute
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := crypto.ParsePublicKey(cfg.ProgramID); err != nil {
		return fmt.Errorf("programId: %w", err)
	}
	if _, err := crypto.ParseOptionalPublicKey(cfg.RuleSet); err != nil {
		return fmt.Errorf("ruleSet: %w", err)
	}
	endpoint, err := url.Parse(strings.TrimSpace(cfg.RPC.Endpoint))
	if err != nil {
		return fmt.Errorf("rpc.endpoint: %w", err)
	}
	if _, _, err := EnforceSecureScheme(cfg.Environment, endpoint, false); err != nil {
		return fmt.Errorf("rpc.endpoint: %w", err)
	}
	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.HMACSecret) == "" {
		return fmt.Errorf("auth.hmacSecret is required when auth.enabled is true")
	}
	seen := make(map[string]struct{}, len(cfg.RateLimits))
	for i, rl := range cfg.RateLimits {
		id := strings.TrimSpace(rl.ID)
		if id == "" {
			return fmt.Errorf("rateLimits[%d].id cannot be empty", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("rateLimits[%d].id %q is duplicated", i, id)
		}
		seen[id] = struct{}{}
		if rl.RequestsPerMinute <= 0 {
			return fmt.Errorf("rateLimits[%d].requestsPerMinute must be positive", i)
		}
	}
	return nil
}

// RPCURL returns the parsed node endpoint.
func (cfg Config) RPCURL() (*url.URL, error) {
	return url.Parse(strings.TrimSpace(cfg.RPC.Endpoint))
}

// Paused reports whether the named instruction builder is disabled.
func (p PausesConfig) Paused(command string) bool {
	switch command {
	case "init":
		return p.Init
	case "withdraw":
		return p.Withdraw
	case "delegate":
		return p.Delegate
	default:
		return false
	}
}

// EnforceSecureScheme ensures the supplied URL uses HTTPS outside of the dev environment.
// If autoUpgrade is enabled, insecure HTTP URLs are transparently upgraded to HTTPS.
// The returned boolean indicates whether an upgrade occurred.
func EnforceSecureScheme(env string, target *url.URL, autoUpgrade bool) (*url.URL, bool, error) {
	if target == nil {
		return nil, false, fmt.Errorf("target URL is nil")
	}
	scheme := strings.ToLower(strings.TrimSpace(target.Scheme))
	switch scheme {
	case "https":
		return target, false, nil
	case "http":
		if isDevEnv(env) {
			return target, false, nil
		}
		if autoUpgrade {
			upgraded := *target
			upgraded.Scheme = "https"
			return &upgraded, true, nil
		}
		if strings.TrimSpace(env) == "" {
			env = "(unset)"
		}
		return nil, false, fmt.Errorf("plaintext HTTP endpoints are not permitted for environment %s", env)
	case "":
		return nil, false, fmt.Errorf("URL scheme is required")
	default:
		return nil, false, fmt.Errorf("unsupported URL scheme %q", target.Scheme)
	}
}

func isDevEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	}
	return false
}
