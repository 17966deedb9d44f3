// Package initcmd provides the interactive init command wizard.
package initcmd

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/certwatch-app/cw-inspect/internal/config"
	"github.com/certwatch-app/cw-inspect/internal/scanner"
)

// DefaultConfigPath is where init writes unless told otherwise
const DefaultConfigPath = "./cw-inspect.yaml"

// WizardState holds all collected input during the wizard.
type WizardState struct {
	// Output configuration
	ConfigPath    string
	OverwriteFile bool

	// Scan configuration
	Concurrency string
	Timeout     string
	Retries     string
	TrustPolicy string

	// Watch mode configuration
	AgentName    string
	ScanInterval string
	LogLevel     string
	MetricsPort  string

	// Push configuration
	EnablePush   bool
	PushEndpoint string
	PushKey      string

	// Target configuration
	Targets       []TargetInput
	CurrentTarget TargetInput
	AddAnother    bool
}

// TargetInput represents user input for a target.
type TargetInput struct {
	Hostname string
	PortStr  string
	Tags     string // comma-separated, parsed later
	Notes    string
}

// NewWizardState creates a new WizardState with sensible defaults.
func NewWizardState() *WizardState {
	return &WizardState{
		ConfigPath:   DefaultConfigPath,
		Concurrency:  strconv.Itoa(scanner.DefaultConcurrency),
		Timeout:      scanner.DefaultTimeout.String(),
		Retries:      "0",
		TrustPolicy:  scanner.TrustInspect.String(),
		AgentName:    "cw-inspect",
		ScanInterval: "1h",
		LogLevel:     "info",
		MetricsPort:  "0",
		Targets:      make([]TargetInput, 0),
		CurrentTarget: TargetInput{
			PortStr: "443",
		},
	}
}

// ToConfig converts the wizard state to a config.Config struct.
func (s *WizardState) ToConfig() (*config.Config, error) {
	concurrency, err := strconv.Atoi(s.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("invalid concurrency: %w", err)
	}

	timeout, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}

	retries, err := strconv.Atoi(s.Retries)
	if err != nil {
		return nil, fmt.Errorf("invalid retries: %w", err)
	}

	scanInterval, err := time.ParseDuration(s.ScanInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid scan interval: %w", err)
	}

	metricsPort, err := strconv.Atoi(s.MetricsPort)
	if err != nil {
		return nil, fmt.Errorf("invalid metrics port: %w", err)
	}

	targets := make([]config.TargetConfig, 0, len(s.Targets))
	for _, t := range s.Targets {
		port := scanner.DefaultPort
		if t.PortStr != "" {
			p, err := strconv.Atoi(t.PortStr)
			if err == nil {
				port = p
			}
		}

		targets = append(targets, config.TargetConfig{
			Hostname: strings.TrimSpace(t.Hostname),
			Port:     port,
			Tags:     parseTags(t.Tags),
			Notes:    strings.TrimSpace(t.Notes),
		})
	}

	cfg := &config.Config{
		Scan: config.ScanConfig{
			Concurrency: concurrency,
			Timeout:     timeout,
			Retries:     retries,
			RetryDelay:  time.Second,
			TrustPolicy: s.TrustPolicy,
		},
		Agent: config.AgentConfig{
			Name:         s.AgentName,
			LogLevel:     s.LogLevel,
			ScanInterval: scanInterval,
			MetricsPort:  metricsPort,
		},
		Push: config.PushConfig{
			Timeout: 30 * time.Second,
		},
		Targets: targets,
	}

	if s.EnablePush {
		cfg.Push.Endpoint = strings.TrimSpace(s.PushEndpoint)
		cfg.Push.Key = s.PushKey
	}

	return cfg, nil
}

// parseTags parses comma-separated tags into a slice.
func parseTags(tagsStr string) []string {
	if strings.TrimSpace(tagsStr) == "" {
		return nil
	}

	parts := strings.Split(tagsStr, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// parseTargetSpec splits "host", "host:port" or "[v6]:port". A bare IPv6
// literal is returned whole with the default port.
func parseTargetSpec(spec string) TargetInput {
	spec = strings.TrimSpace(spec)
	if host, port, err := net.SplitHostPort(spec); err == nil {
		return TargetInput{Hostname: host, PortStr: port}
	}
	return TargetInput{Hostname: spec, PortStr: strconv.Itoa(scanner.DefaultPort)}
}

// ResetCurrentTarget resets the current target input for the next entry.
func (s *WizardState) ResetCurrentTarget() {
	s.CurrentTarget = TargetInput{
		PortStr: "443",
	}
	s.AddAnother = false
}

// SaveCurrentTarget saves the current target to the list.
func (s *WizardState) SaveCurrentTarget() {
	if s.CurrentTarget.Hostname != "" {
		s.Targets = append(s.Targets, s.CurrentTarget)
	}
}
