// Package config provides configuration parsing and validation for udpfaf.
package config

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/postalsys/udpfaf/internal/logging"
	"github.com/postalsys/udpfaf/internal/udp"
)

// Config represents the complete udpfaf configuration.
type Config struct {
	Log     LogConfig      `yaml:"log"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Targets []TargetConfig `yaml:"targets"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, console
}

// MetricsConfig defines the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // listen address for /metrics
}

// TargetConfig defines a named destination.
type TargetConfig struct {
	Name      string `yaml:"name"`
	Address   string `yaml:"address"` // IPv4 literal, no hostnames
	Port      int    `yaml:"port"`
	Broadcast bool   `yaml:"broadcast"`
	TTL       int    `yaml:"ttl,omitempty"` // 0 = platform default
	TOS       int    `yaml:"tos,omitempty"` // 0 = platform default
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9110",
		},
		Targets: []TargetConfig{},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envVarRegex matches ${VAR} or $VAR patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces environment variable references with their values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}

		// ${VAR:-default}
		if idx := strings.Index(name, ":-"); idx != -1 {
			varName := name[:idx]
			defaultVal := name[idx+2:]
			if val, ok := os.LookupEnv(varName); ok {
				return val
			}
			return defaultVal
		}

		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // Keep original if not found
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if !logging.IsValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("invalid log.level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}
	if !logging.IsValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Sprintf("invalid log.format: %s (must be text, json or console)", c.Log.Format))
	}

	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			errs = append(errs, fmt.Sprintf("metrics.address: %v", err))
		}
	}

	seen := make(map[string]bool, len(c.Targets))
	for i, t := range c.Targets {
		if err := validateTarget(t); err != nil {
			errs = append(errs, fmt.Sprintf("targets[%d]: %v", i, err))
		}
		if t.Name != "" {
			if seen[t.Name] {
				errs = append(errs, fmt.Sprintf("targets[%d]: duplicate name %q", i, t.Name))
			}
			seen[t.Name] = true
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func validateTarget(t TargetConfig) error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := t.Endpoint(); err != nil {
		return err
	}
	if t.TTL < 0 || t.TTL > 255 {
		return fmt.Errorf("ttl must be between 0 and 255")
	}
	if t.TOS < 0 || t.TOS > 255 {
		return fmt.Errorf("tos must be between 0 and 255")
	}
	return nil
}

// Target looks up a target by name.
func (c *Config) Target(name string) (TargetConfig, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetConfig{}, false
}

// Endpoint parses the target's address and port.
func (t TargetConfig) Endpoint() (netip.AddrPort, error) {
	return udp.ParseEndpoint(t.Address, t.Port)
}

// SenderConfig returns the sender options for this target. Logger and
// Metrics are left for the caller to fill in.
func (t TargetConfig) SenderConfig() udp.Config {
	cfg := udp.DefaultConfig()
	cfg.Broadcast = t.Broadcast
	cfg.TTL = t.TTL
	cfg.TOS = t.TOS
	return cfg
}

// String returns the config as YAML.
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}
