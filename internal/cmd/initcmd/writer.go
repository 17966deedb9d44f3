package initcmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/certwatch-app/cw-inspect/internal/config"
)

// fileConfig mirrors config.Config with durations written as strings
type fileConfig struct {
	Scan    fileScan     `yaml:"scan"`
	Agent   fileAgent    `yaml:"agent"`
	Push    *filePush    `yaml:"push,omitempty"`
	Targets []fileTarget `yaml:"targets"`
}

type fileScan struct {
	Concurrency int    `yaml:"concurrency"`
	Timeout     string `yaml:"timeout"`
	Retries     int    `yaml:"retries"`
	RetryDelay  string `yaml:"retry_delay"`
	TrustPolicy string `yaml:"trust_policy"`
}

type fileAgent struct {
	Name         string `yaml:"name"`
	LogLevel     string `yaml:"log_level"`
	ScanInterval string `yaml:"scan_interval"`
	MetricsPort  int    `yaml:"metrics_port"`
}

type filePush struct {
	Endpoint string `yaml:"endpoint"`
	Key      string `yaml:"key"`
	Timeout  string `yaml:"timeout"`
}

type fileTarget struct {
	Hostname string   `yaml:"hostname"`
	Port     int      `yaml:"port"`
	Tags     []string `yaml:"tags,omitempty"`
	Notes    string   `yaml:"notes,omitempty"`
}

const fileHeader = `# cw-inspect configuration
# Generated by 'cw-inspect init'. Validate with 'cw-inspect validate -c <file>'.
`

// MarshalConfig renders cfg as the YAML document read back by config.Load.
func MarshalConfig(cfg *config.Config) ([]byte, error) {
	doc := fileConfig{
		Scan: fileScan{
			Concurrency: cfg.Scan.Concurrency,
			Timeout:     cfg.Scan.Timeout.String(),
			Retries:     cfg.Scan.Retries,
			RetryDelay:  cfg.Scan.RetryDelay.String(),
			TrustPolicy: cfg.Scan.TrustPolicy,
		},
		Agent: fileAgent{
			Name:         cfg.Agent.Name,
			LogLevel:     cfg.Agent.LogLevel,
			ScanInterval: cfg.Agent.ScanInterval.String(),
			MetricsPort:  cfg.Agent.MetricsPort,
		},
		Targets: make([]fileTarget, 0, len(cfg.Targets)),
	}

	if cfg.PushEnabled() {
		doc.Push = &filePush{
			Endpoint: cfg.Push.Endpoint,
			Key:      cfg.Push.Key,
			Timeout:  cfg.Push.Timeout.String(),
		}
	}

	for _, t := range cfg.Targets {
		doc.Targets = append(doc.Targets, fileTarget{
			Hostname: t.Hostname,
			Port:     t.Port,
			Tags:     t.Tags,
			Notes:    t.Notes,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteConfig writes cfg to path, creating parent directories. The file is
// readable by the owner only since it may hold the push API key.
func WriteConfig(cfg *config.Config, path string) error {
	data, err := MarshalConfig(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FileExists reports whether path names an existing file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
