// Package sync exports scan reports to an HTTP collector.
package sync

import (
	"time"

	"github.com/certwatch-app/cw-inspect/internal/report"
)

// PushRequest is the payload posted after each scan
type PushRequest struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	AgentName    string         `json:"agent_name"`
	AgentVersion string         `json:"agent_version,omitempty"`
	AgentHost    string         `json:"agent_hostname,omitempty"`
	Targets      []TargetResult `json:"targets"`
	Summary      report.Summary `json:"summary"`
}

// TargetResult is one report entry plus the metadata configured for it
type TargetResult struct {
	report.Entry
	Notes string   `json:"notes,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// TargetMeta is the per-target metadata attached to pushed results
type TargetMeta struct {
	Notes string
	Tags  []string
}

// PushResponse represents the collector response
// Fields are ordered for optimal memory alignment
type PushResponse struct {
	Error   *APIError        `json:"error,omitempty"`
	Data    PushResponseData `json:"data"`
	Success bool             `json:"success"`
}

// PushResponseData contains the push result details
type PushResponseData struct {
	Errors   []PushError `json:"errors,omitempty"`
	Accepted int         `json:"accepted"`
	Rejected int         `json:"rejected"`
}

// PushError represents a rejected target
type PushError struct {
	Hostname string `json:"hostname"`
	Error    string `json:"error"`
	Port     int    `json:"port"`
}

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
