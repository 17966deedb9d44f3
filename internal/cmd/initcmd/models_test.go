package initcmd

import (
	"testing"
	"time"
)

func TestNewWizardState(t *testing.T) {
	state := NewWizardState()

	if state.ConfigPath != "./cw-inspect.yaml" {
		t.Errorf("expected ConfigPath './cw-inspect.yaml', got %q", state.ConfigPath)
	}

	if state.Concurrency != "4" {
		t.Errorf("expected Concurrency '4', got %q", state.Concurrency)
	}

	if state.Timeout != "10s" {
		t.Errorf("expected Timeout '10s', got %q", state.Timeout)
	}

	if state.TrustPolicy != "inspect" {
		t.Errorf("expected TrustPolicy 'inspect', got %q", state.TrustPolicy)
	}

	if state.ScanInterval != "1h" {
		t.Errorf("expected ScanInterval '1h', got %q", state.ScanInterval)
	}

	if state.LogLevel != "info" {
		t.Errorf("expected LogLevel 'info', got %q", state.LogLevel)
	}

	if state.MetricsPort != "0" {
		t.Errorf("expected MetricsPort '0', got %q", state.MetricsPort)
	}

	if state.CurrentTarget.PortStr != "443" {
		t.Errorf("expected CurrentTarget.PortStr '443', got %q", state.CurrentTarget.PortStr)
	}
}

func TestWizardState_ToConfig(t *testing.T) {
	state := NewWizardState()
	state.Concurrency = "16"
	state.Timeout = "5s"
	state.Retries = "1"
	state.TrustPolicy = "verify"
	state.AgentName = "edge"
	state.ScanInterval = "15m"
	state.MetricsPort = "9402"
	state.Targets = []TargetInput{
		{
			Hostname: "api.example.com",
			PortStr:  "443",
			Tags:     "production, api",
			Notes:    "Main API",
		},
		{
			Hostname: "www.example.com",
			PortStr:  "8443",
			Tags:     "production, web",
		},
	}

	cfg, err := state.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error = %v", err)
	}

	// Check scan config
	if cfg.Scan.Concurrency != 16 {
		t.Errorf("expected Scan.Concurrency 16, got %d", cfg.Scan.Concurrency)
	}
	if cfg.Scan.Timeout != 5*time.Second {
		t.Errorf("expected Scan.Timeout 5s, got %v", cfg.Scan.Timeout)
	}
	if cfg.Scan.Retries != 1 {
		t.Errorf("expected Scan.Retries 1, got %d", cfg.Scan.Retries)
	}
	if cfg.Scan.TrustPolicy != "verify" {
		t.Errorf("expected Scan.TrustPolicy 'verify', got %q", cfg.Scan.TrustPolicy)
	}

	// Check agent config
	if cfg.Agent.Name != "edge" {
		t.Errorf("expected Agent.Name 'edge', got %q", cfg.Agent.Name)
	}
	if cfg.Agent.ScanInterval != 15*time.Minute {
		t.Errorf("expected Agent.ScanInterval 15m, got %v", cfg.Agent.ScanInterval)
	}
	if cfg.Agent.MetricsPort != 9402 {
		t.Errorf("expected Agent.MetricsPort 9402, got %d", cfg.Agent.MetricsPort)
	}

	// Push stays disabled unless chosen
	if cfg.PushEnabled() {
		t.Error("expected push to be disabled")
	}

	// Check targets
	if len(cfg.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(cfg.Targets))
	}

	t1 := cfg.Targets[0]
	if t1.Hostname != "api.example.com" || t1.Port != 443 {
		t.Errorf("expected target1 api.example.com:443, got %s:%d", t1.Hostname, t1.Port)
	}
	if len(t1.Tags) != 2 || t1.Tags[0] != "production" || t1.Tags[1] != "api" {
		t.Errorf("expected target1.Tags [production, api], got %v", t1.Tags)
	}
	if t1.Notes != "Main API" {
		t.Errorf("expected target1.Notes 'Main API', got %q", t1.Notes)
	}

	t2 := cfg.Targets[1]
	if t2.Port != 8443 {
		t.Errorf("expected target2.Port 8443, got %d", t2.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestWizardState_ToConfig_Push(t *testing.T) {
	state := NewWizardState()
	state.Targets = []TargetInput{{Hostname: "example.com"}}
	state.PushEndpoint = "https://collector.example.com"
	state.PushKey = "secret-key"

	cfg, err := state.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error = %v", err)
	}
	if cfg.PushEnabled() {
		t.Error("expected push endpoint to be ignored while EnablePush is false")
	}

	state.EnablePush = true
	cfg, err = state.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error = %v", err)
	}
	if cfg.Push.Endpoint != "https://collector.example.com" || cfg.Push.Key != "secret-key" {
		t.Errorf("expected push settings to be copied, got %+v", cfg.Push)
	}
	if cfg.Targets[0].Port != 443 {
		t.Errorf("expected empty port to default to 443, got %d", cfg.Targets[0].Port)
	}
}

func TestWizardState_ToConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*WizardState)
	}{
		{"timeout", func(s *WizardState) { s.Timeout = "soon" }},
		{"scan interval", func(s *WizardState) { s.ScanInterval = "invalid" }},
		{"concurrency", func(s *WizardState) { s.Concurrency = "many" }},
		{"retries", func(s *WizardState) { s.Retries = "x" }},
		{"metrics port", func(s *WizardState) { s.MetricsPort = "http" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewWizardState()
			state.Targets = []TargetInput{{Hostname: "example.com", PortStr: "443"}}
			tt.modify(state)

			if _, err := state.ToConfig(); err == nil {
				t.Errorf("expected error for invalid %s", tt.name)
			}
		})
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"whitespace only", "   ", nil},
		{"single tag", "production", []string{"production"}},
		{"multiple tags", "production, api, critical", []string{"production", "api", "critical"}},
		{"with extra spaces", "  production  ,  api  ", []string{"production", "api"}},
		{"empty elements", "production,,api", []string{"production", "api"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTags(tt.input)

			if len(result) != len(tt.expected) {
				t.Errorf("parseTags(%q) = %v, expected %v", tt.input, result, tt.expected)
				return
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseTags(%q)[%d] = %q, expected %q", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestParseTargetSpec(t *testing.T) {
	tests := []struct {
		spec     string
		wantHost string
		wantPort string
	}{
		{"example.com", "example.com", "443"},
		{" example.com:8443 ", "example.com", "8443"},
		{"[::1]:9443", "::1", "9443"},
		{"::1", "::1", "443"},
		{"bücher.example", "bücher.example", "443"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got := parseTargetSpec(tt.spec)
			if got.Hostname != tt.wantHost || got.PortStr != tt.wantPort {
				t.Errorf("parseTargetSpec(%q) = %s %s, expected %s %s",
					tt.spec, got.Hostname, got.PortStr, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestWizardState_SaveAndResetTarget(t *testing.T) {
	state := NewWizardState()

	state.CurrentTarget = TargetInput{
		Hostname: "api.example.com",
		PortStr:  "443",
		Tags:     "production",
		Notes:    "Test",
	}
	state.AddAnother = true

	state.SaveCurrentTarget()

	if len(state.Targets) != 1 {
		t.Errorf("expected 1 target after save, got %d", len(state.Targets))
	}

	if state.Targets[0].Hostname != "api.example.com" {
		t.Errorf("expected saved hostname 'api.example.com', got %q", state.Targets[0].Hostname)
	}

	state.ResetCurrentTarget()

	if state.CurrentTarget.Hostname != "" {
		t.Errorf("expected empty hostname after reset, got %q", state.CurrentTarget.Hostname)
	}

	if state.CurrentTarget.PortStr != "443" {
		t.Errorf("expected default port after reset, got %q", state.CurrentTarget.PortStr)
	}

	if state.AddAnother {
		t.Error("expected AddAnother to be false after reset")
	}

	// An empty entry is not saved
	state.SaveCurrentTarget()
	if len(state.Targets) != 1 {
		t.Errorf("expected empty target to be skipped, got %d targets", len(state.Targets))
	}
}
