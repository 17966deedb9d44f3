package initcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-inspect/internal/config"
)

func loadWritten(t *testing.T, path string) *config.Config {
	t.Helper()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestWriteConfig_LoadsBack(t *testing.T) {
	state := NewWizardState()
	state.Timeout = "7s"
	state.ScanInterval = "30m"
	state.EnablePush = true
	state.PushEndpoint = "https://collector.example.com/reports"
	state.PushKey = "secret-key"
	state.Targets = []TargetInput{
		{Hostname: "api.example.com", PortStr: "443", Tags: "prod, api", Notes: "edge"},
		{Hostname: "bücher.example", PortStr: "8443"},
	}

	cfg, err := state.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "cw-inspect.yaml")
	if err := WriteConfig(cfg, path); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	got := loadWritten(t, path)
	if err := got.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if got.Scan.Timeout != 7*time.Second {
		t.Errorf("Scan.Timeout = %v, want 7s", got.Scan.Timeout)
	}
	if got.Agent.ScanInterval != 30*time.Minute {
		t.Errorf("Agent.ScanInterval = %v, want 30m", got.Agent.ScanInterval)
	}
	if got.Push.Key != "secret-key" || got.Push.Timeout != 30*time.Second {
		t.Errorf("Push = %+v, want key and 30s timeout", got.Push)
	}
	if len(got.Targets) != 2 {
		t.Fatalf("len(Targets) = %d, want 2", len(got.Targets))
	}
	if got.Targets[0].Notes != "edge" || len(got.Targets[0].Tags) != 2 {
		t.Errorf("Targets[0] = %+v, want notes and two tags", got.Targets[0])
	}
	if got.Targets[1].Hostname != "bücher.example" || got.Targets[1].Port != 8443 {
		t.Errorf("Targets[1] = %+v, want bücher.example:8443", got.Targets[1])
	}
}

func TestMarshalConfig_OmitsDisabledPush(t *testing.T) {
	state := NewWizardState()
	state.Targets = []TargetInput{{Hostname: "example.com", PortStr: "443"}}

	cfg, err := state.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error = %v", err)
	}

	data, err := MarshalConfig(cfg)
	if err != nil {
		t.Fatalf("MarshalConfig() error = %v", err)
	}

	out := string(data)
	if strings.Contains(out, "push:") {
		t.Errorf("MarshalConfig() wrote a push section while push is disabled:\n%s", out)
	}
	if !strings.HasPrefix(out, "# cw-inspect configuration") {
		t.Errorf("MarshalConfig() missing header:\n%s", out)
	}
	if !strings.Contains(out, "timeout: 10s") {
		t.Errorf("MarshalConfig() durations not written as strings:\n%s", out)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exists.yaml")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if !FileExists(path) {
		t.Error("FileExists() = false for an existing file")
	}
	if FileExists(filepath.Join(dir, "missing.yaml")) {
		t.Error("FileExists() = true for a missing file")
	}
	if FileExists(dir) {
		t.Error("FileExists() = true for a directory")
	}
}

func TestRunNonInteractive(t *testing.T) {
	env := map[string]string{
		"CW_TARGETS":       "example.com, api.example.com:8443,,[::1]:9443",
		"CW_AGENT_NAME":    "ci",
		"CW_CONCURRENCY":   "8",
		"CW_TRUST_POLICY":  "verify",
		"CW_PUSH_ENDPOINT": "https://collector.example.com",
		"CW_PUSH_KEY":      "secret-key",
	}
	path := filepath.Join(t.TempDir(), "cw-inspect.yaml")

	var out bytes.Buffer
	if err := runNonInteractive(path, func(k string) string { return env[k] }, &out); err != nil {
		t.Fatalf("runNonInteractive() error = %v", err)
	}
	if !strings.Contains(out.String(), "Config written to "+path) {
		t.Errorf("output = %q, want success message", out.String())
	}

	cfg := loadWritten(t, path)
	if len(cfg.Targets) != 3 {
		t.Fatalf("len(Targets) = %d, want 3", len(cfg.Targets))
	}
	if cfg.Targets[1].Port != 8443 || cfg.Targets[2].Hostname != "::1" {
		t.Errorf("Targets = %+v, want api.example.com:8443 and ::1", cfg.Targets)
	}
	if cfg.Agent.Name != "ci" || cfg.Scan.Concurrency != 8 || cfg.Scan.TrustPolicy != "verify" {
		t.Errorf("cfg = %+v, want env overrides applied", cfg)
	}
	if !cfg.PushEnabled() {
		t.Error("PushEnabled() = false, want true")
	}
}

func TestRunNonInteractive_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "no targets",
			env:     map[string]string{},
			wantErr: "CW_TARGETS environment variable is required",
		},
		{
			name:    "invalid hostname",
			env:     map[string]string{"CW_TARGETS": "bad host"},
			wantErr: "configuration validation failed",
		},
		{
			name:    "push without key",
			env:     map[string]string{"CW_TARGETS": "example.com", "CW_PUSH_ENDPOINT": "https://collector.example.com"},
			wantErr: "push: key is required",
		},
		{
			name:    "bad timeout",
			env:     map[string]string{"CW_TARGETS": "example.com", "CW_TIMEOUT": "fast"},
			wantErr: "invalid timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cw-inspect.yaml")
			var out bytes.Buffer

			err := runNonInteractive(path, func(k string) string { return tt.env[k] }, &out)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("runNonInteractive() error = %v, want %q", err, tt.wantErr)
			}
			if FileExists(path) {
				t.Error("config file written despite error")
			}
		})
	}
}
