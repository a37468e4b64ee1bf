package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/ekaya-mapper/pkg/sqltemplate"
)

// DefaultConfigPath is read by Load unless CONFIG_PATH names another file.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for ekaya-mapper.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
type Config struct {
	// Server configuration
	BindAddr        string        `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port            string        `yaml:"port" env:"PORT" env-default:"3450"`
	Env             string        `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:""`
	BaseURL         string        `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	Version         string        `yaml:"-"` // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Template engine defaults and limits
	Engine EngineConfig `yaml:"engine"`

	// MCP endpoint configuration
	MCP MCPConfig `yaml:"mcp"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT signatures are verified.
	// Set to false for local development without auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// Required rejects requests without a bearer token. When false, anonymous
	// requests are served and only invalid tokens are rejected.
	Required bool `yaml:"required" env:"AUTH_REQUIRED" env-default:"false"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:"https://auth.ekaya.ai=https://auth.ekaya.ai/.well-known/jwks.json"`

	// Audience, when set, must appear in every token's aud claim.
	Audience string `yaml:"audience" env:"AUTH_AUDIENCE" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// EngineConfig holds template engine defaults applied to every request.
type EngineConfig struct {
	// DefaultSafeSubstitution is used when a request does not set safeSubstitution.
	DefaultSafeSubstitution bool `yaml:"default_safe_substitution" env:"ENGINE_SAFE_SUBSTITUTION" env-default:"true"`
	// DefaultDialect adds preparedSql to every render unless a request names its own.
	DefaultDialect string `yaml:"default_dialect" env:"ENGINE_DEFAULT_DIALECT" env-default:""`
	// MaxTemplateBytes rejects larger templates.
	MaxTemplateBytes int `yaml:"max_template_bytes" env:"ENGINE_MAX_TEMPLATE_BYTES" env-default:"262144"`
	// AuditBindings runs injection detection over #{} values too.
	AuditBindings bool `yaml:"audit_bindings" env:"ENGINE_AUDIT_BINDINGS" env-default:"true"`
	// AuditRenders logs every successful render to the security audit trail.
	AuditRenders bool `yaml:"audit_renders" env:"ENGINE_AUDIT_RENDERS" env-default:"false"`

	// Dialect is the parsed DefaultDialect (not from config file).
	Dialect sqltemplate.Dialect `yaml:"-"`
}

// MCPConfig holds MCP endpoint configuration.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// RenderOptions returns the engine defaults as render options.
func (e *EngineConfig) RenderOptions() sqltemplate.RenderOptions {
	return sqltemplate.RenderOptions{
		SafeSubstitution: e.DefaultSafeSubstitution,
		Dialect:          e.Dialect,
	}
}

// Load reads configuration from CONFIG_PATH, or from config.yaml when it
// exists, with environment variable overrides. Without either file the
// environment alone is read. The version parameter is injected at build time
// and set on the returned Config.
func Load(version string) (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	return LoadFrom(path, version)
}

// LoadFrom reads configuration from the YAML file at path with environment
// variable overrides. An empty path reads the environment only.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Loopback is unreachable through a container port mapping
	cfg.BindAddr = ResolveBindAddrForDocker(cfg.BindAddr)

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.Auth.JWKSEndpoints = parseJWKSEndpoints(c.Auth.JWKSEndpointsStr)
	for issuer, jwksURL := range c.Auth.JWKSEndpoints {
		c.Auth.JWKSEndpoints[issuer] = ResolveURLForDocker(jwksURL)
	}

	if c.Engine.DefaultDialect != "" {
		dialect, err := sqltemplate.ParseDialect(c.Engine.DefaultDialect)
		if err != nil {
			return fmt.Errorf("engine.default_dialect: %w", err)
		}
		c.Engine.Dialect = dialect
	}
	return nil
}

// Validate checks settings that cleanenv cannot express as defaults.
func (c *Config) Validate() error {
	if err := c.validateTLS(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if c.Engine.MaxTemplateBytes <= 0 {
		return errors.New("engine.max_template_bytes must be positive")
	}
	if c.Auth.EnableVerification && len(c.Auth.JWKSEndpoints) == 0 {
		return errors.New("auth.jwks_endpoints is required when auth.enable_verification is true")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// Readability is checked by tls.LoadX509KeyPair at startup
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2". Only the first '=' splits a pair, so
// JWKS URLs may carry query strings.
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	for _, pair := range strings.Split(value, ",") {
		issuer, jwksURL, ok := strings.Cut(pair, "=")
		issuer, jwksURL = strings.TrimSpace(issuer), strings.TrimSpace(jwksURL)
		if ok && issuer != "" && jwksURL != "" {
			endpoints[issuer] = jwksURL
		}
	}
	return endpoints
}
