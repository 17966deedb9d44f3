package initcmd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/certwatch-app/cw-inspect/internal/config"
	"github.com/certwatch-app/cw-inspect/internal/scanner"
)

// ValidateConfigPath validates the output file path.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}

	// Check if directory exists or can be created
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil // created by WriteConfig
			}
			return fmt.Errorf("cannot access directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("'%s' is not a directory", dir)
		}
	}

	return nil
}

// ValidatePushKey validates the collector API key.
func ValidatePushKey(key string) error {
	if key == "" {
		return fmt.Errorf("API key is required when push is enabled")
	}

	if strings.ContainsAny(key, " \n\r\t") {
		return fmt.Errorf("API key cannot contain whitespace")
	}

	if len(key) < 8 {
		return fmt.Errorf("API key appears too short")
	}

	return nil
}

// ValidateEndpoint validates the push endpoint URL.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is required when push is enabled")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use http or https")
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

// ValidateAgentName validates the agent name.
func ValidateAgentName(name string) error {
	if name == "" {
		return fmt.Errorf("agent name is required")
	}

	if len(name) > 100 {
		return fmt.Errorf("name must be at most 100 characters")
	}

	if strings.ContainsAny(name, "\n\r\t") {
		return fmt.Errorf("name cannot contain newlines or tabs")
	}

	return nil
}

// ValidateHostname checks that hostname can be sent as SNI. Internationalized
// names are accepted and converted when the scan runs.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("hostname is required")
	}

	if strings.Contains(hostname, "://") {
		return fmt.Errorf("hostname should not include protocol (use 'example.com' not 'https://example.com')")
	}

	if strings.Contains(hostname, "/") {
		return fmt.Errorf("hostname should not include a path")
	}

	if _, err := scanner.NormalizeHostname(hostname); err != nil {
		return fmt.Errorf("invalid hostname: %w", err)
	}

	return nil
}

// ValidatePort validates a port number string.
func ValidatePort(portStr string) error {
	if portStr == "" {
		return nil // Will use default 443
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	return nil
}

// ValidateMetricsPort accepts 0 (disabled) or a valid port.
func ValidateMetricsPort(portStr string) error {
	if portStr == "0" {
		return nil
	}
	return ValidatePort(portStr)
}

// ValidateConcurrency validates the number of parallel handshakes.
func ValidateConcurrency(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("concurrency must be a number")
	}
	if n < 1 || n > config.MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", config.MaxConcurrency)
	}
	return nil
}

// ValidateTimeout validates the per-attempt handshake timeout.
func ValidateTimeout(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("timeout must be a duration such as 10s")
	}
	if d < time.Second {
		return fmt.Errorf("timeout must be at least 1 second")
	}
	return nil
}

// ValidateTags validates the tags input.
func ValidateTags(tagsStr string) error {
	if tagsStr == "" {
		return nil // Tags are optional
	}

	parts := strings.Split(tagsStr, ",")
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		if len(tag) > config.MaxTagLength {
			return fmt.Errorf("each tag must be at most %d characters", config.MaxTagLength)
		}
	}

	return nil
}

// ValidateNotes validates the notes input.
func ValidateNotes(notes string) error {
	if len(notes) > config.MaxNotesLength {
		return fmt.Errorf("notes must be at most %d characters", config.MaxNotesLength)
	}
	return nil
}
