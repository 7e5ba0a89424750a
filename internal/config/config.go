// ABOUTME: Configuration loading and parsing for hubspot-gateway
// ABOUTME: Supports YAML files with environment variable expansion and validation

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the complete hubspot-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	HubSpot   HubSpotConfig   `yaml:"hubspot"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP listen address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// HubSpotConfig holds the upstream CRM API configuration
type HubSpotConfig struct {
	// AccessToken is the private-app token used for every upstream call.
	// Required; the process refuses to start without it.
	AccessToken string `yaml:"access_token"`
	// BaseURL overrides the API origin. Defaults to https://api.hubapi.com.
	BaseURL string `yaml:"base_url"`
}

// AuthConfig holds authentication configuration for inbound clients.
// When JWTSecret is empty the SSE and message endpoints are anonymous.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
	HTTPS     bool   `yaml:"https"`  // Serve TLS with Tailscale-provisioned certs
	Funnel    bool   `yaml:"funnel"` // Enable public Funnel (implies HTTPS)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with defaults applied.
// The HubSpot access token is taken from HUBSPOT_ACCESS_TOKEN if set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: "localhost:8081",
		},
		HubSpot: HubSpotConfig{
			AccessToken: os.Getenv("HUBSPOT_ACCESS_TOKEN"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides lets the environment win over file-supplied values
// for the credential, so the token never has to live on disk.
func applyEnvOverrides(cfg *Config) {
	if tok := os.Getenv("HUBSPOT_ACCESS_TOKEN"); tok != "" {
		cfg.HubSpot.AccessToken = tok
	}
	if addr := os.Getenv("HUBSPOT_GATEWAY_ADDR"); addr != "" {
		cfg.Server.HTTPAddr = addr
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.HubSpot.AccessToken == "" {
		return fmt.Errorf("hubspot.access_token is required (or set HUBSPOT_ACCESS_TOKEN)")
	}

	// The listen address is required unless Tailscale is serving
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	return nil
}
