// Package config handles configuration loading and validation for cw-inspect.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-inspect/internal/scanner"
)

// Limits enforced by Validate
const (
	MaxTargets     = 1000
	MaxConcurrency = 64
	MaxRetries     = 5
	MaxTagLength   = 50
	MaxNotesLength = 500
)

// Config represents the complete cw-inspect configuration
type Config struct {
	Push    PushConfig     `mapstructure:"push"`
	Agent   AgentConfig    `mapstructure:"agent"`
	Targets []TargetConfig `mapstructure:"targets"`
	Scan    ScanConfig     `mapstructure:"scan"`
}

// ScanConfig controls how each batch of handshakes runs
// Fields are ordered for optimal memory alignment
type ScanConfig struct {
	TrustPolicy string        `mapstructure:"trust_policy"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	Concurrency int           `mapstructure:"concurrency"`
	Retries     int           `mapstructure:"retries"`
}

// AgentConfig contains settings for the long running watch mode
// Fields are ordered for optimal memory alignment
type AgentConfig struct {
	Name         string        `mapstructure:"name"`
	LogLevel     string        `mapstructure:"log_level"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	MetricsPort  int           `mapstructure:"metrics_port"`
}

// PushConfig contains the optional report export settings.
// Export is disabled while Endpoint is empty.
type PushConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Key      string        `mapstructure:"key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TargetConfig represents a host to inspect
// Fields are ordered for optimal memory alignment
type TargetConfig struct {
	Hostname string   `mapstructure:"hostname"`
	Notes    string   `mapstructure:"notes"`
	Tags     []string `mapstructure:"tags"`
	Port     int      `mapstructure:"port"`
}

// Load reads configuration from viper
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i := range cfg.Targets {
		if cfg.Targets[i].Port == 0 {
			cfg.Targets[i].Port = scanner.DefaultPort
		}
	}

	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Scan defaults
	v.SetDefault("scan.concurrency", scanner.DefaultConcurrency)
	v.SetDefault("scan.timeout", scanner.DefaultTimeout.String())
	v.SetDefault("scan.retries", 0)
	v.SetDefault("scan.retry_delay", "1s")
	v.SetDefault("scan.trust_policy", scanner.TrustInspect.String())

	// Agent defaults
	v.SetDefault("agent.name", "cw-inspect")
	v.SetDefault("agent.log_level", "info")
	v.SetDefault("agent.scan_interval", "1h")
	v.SetDefault("agent.metrics_port", 0)

	// Push defaults
	v.SetDefault("push.timeout", "30s")
}

// Validate validates the whole configuration, including the target list
func (c *Config) Validate() error {
	if err := c.ValidateScan(); err != nil {
		return err
	}

	if err := c.validateAgent(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	if err := c.validatePush(); err != nil {
		return fmt.Errorf("push: %w", err)
	}

	if err := c.validateTargets(); err != nil {
		return fmt.Errorf("targets: %w", err)
	}

	return nil
}

// ValidateScan validates only the settings an ad-hoc check needs
func (c *Config) ValidateScan() error {
	if err := c.validateScan(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if err := validateLogLevel(c.Agent.LogLevel); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Concurrency < 1 || c.Scan.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", MaxConcurrency)
	}

	if c.Scan.Timeout < time.Second {
		return errors.New("timeout must be at least 1 second")
	}

	if c.Scan.Retries < 0 || c.Scan.Retries > MaxRetries {
		return fmt.Errorf("retries must be between 0 and %d", MaxRetries)
	}

	if c.Scan.RetryDelay < 0 {
		return errors.New("retry_delay must not be negative")
	}

	if _, err := scanner.ParseTrustPolicy(c.Scan.TrustPolicy); err != nil {
		return fmt.Errorf("trust_policy: %w", err)
	}

	return nil
}

func (c *Config) validateAgent() error {
	if c.Agent.Name == "" {
		return errors.New("name is required")
	}

	if len(c.Agent.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}

	if c.Agent.ScanInterval < 10*time.Second {
		return errors.New("scan_interval must be at least 10 seconds")
	}

	if c.Agent.MetricsPort < 0 || c.Agent.MetricsPort > 65535 {
		return errors.New("metrics_port must be between 0 and 65535")
	}

	return nil
}

func validateLogLevel(level string) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[level] {
		return errors.New("log_level must be one of: debug, info, warn, error")
	}
	return nil
}

func (c *Config) validatePush() error {
	if c.Push.Endpoint == "" {
		return nil
	}

	u, err := url.Parse(c.Push.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return errors.New("endpoint must use http or https scheme")
	}

	if c.Push.Key == "" {
		return errors.New("key is required when endpoint is set")
	}

	if c.Push.Timeout < time.Second {
		return errors.New("timeout must be at least 1 second")
	}

	return nil
}

func (c *Config) validateTargets() error {
	if len(c.Targets) == 0 {
		return errors.New("at least one target is required")
	}

	if len(c.Targets) > MaxTargets {
		return fmt.Errorf("maximum %d targets allowed", MaxTargets)
	}

	seen := make(map[string]bool)
	for i, target := range c.Targets {
		if target.Hostname == "" {
			return fmt.Errorf("[%d]: hostname is required", i)
		}

		normalized, err := scanner.NormalizeHostname(target.Hostname)
		if err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}

		if target.Port < 1 || target.Port > 65535 {
			return fmt.Errorf("[%d]: port must be between 1 and 65535", i)
		}

		key := scanner.HostTarget{Hostname: normalized, Port: target.Port}.String()
		if seen[key] {
			return fmt.Errorf("[%d]: duplicate hostname:port '%s'", i, key)
		}
		seen[key] = true

		for j, tag := range target.Tags {
			if len(tag) > MaxTagLength {
				return fmt.Errorf("[%d]: tag[%d] must be at most %d characters", i, j, MaxTagLength)
			}
		}

		if len(target.Notes) > MaxNotesLength {
			return fmt.Errorf("[%d]: notes must be at most %d characters", i, MaxNotesLength)
		}
	}

	return nil
}

// HostTargets returns the configured targets in file order
func (c *Config) HostTargets() []scanner.HostTarget {
	targets := make([]scanner.HostTarget, 0, len(c.Targets))
	for _, t := range c.Targets {
		targets = append(targets, t.HostTarget())
	}
	return targets
}

// HostTarget converts a configured target to the scanner's form
func (t *TargetConfig) HostTarget() scanner.HostTarget {
	return scanner.HostTarget{Hostname: t.Hostname, Port: t.Port}
}

// ScannerOptions returns the scanner settings derived from the scan section
func (c *Config) ScannerOptions() (scanner.Options, error) {
	trust, err := scanner.ParseTrustPolicy(c.Scan.TrustPolicy)
	if err != nil {
		return scanner.Options{}, err
	}
	return scanner.Options{
		Timeout: c.Scan.Timeout,
		Trust:   trust,
	}, nil
}

// BatchOptions returns the orchestrator settings derived from the scan section
func (c *Config) BatchOptions() scanner.BatchOptions {
	return scanner.BatchOptions{
		Concurrency: c.Scan.Concurrency,
		Retries:     c.Scan.Retries,
		RetryDelay:  c.Scan.RetryDelay,
	}
}

// PushEnabled reports whether a push endpoint is configured
func (c *Config) PushEnabled() bool {
	return c.Push.Endpoint != ""
}
