package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-inspect/internal/report"
	"github.com/certwatch-app/cw-inspect/internal/scanner"
	"github.com/certwatch-app/cw-inspect/internal/version"
)

// ErrRejected is returned when the collector answers with success=false
var ErrRejected = errors.New("push rejected")

// Options configures a push Client
type Options struct {
	Endpoint  string
	APIKey    string
	AgentName string
	Timeout   time.Duration
}

// Client posts scan reports to a collector endpoint
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	endpoint   string
	apiKey     string
	agentName  string
	hostname   string
}

// New creates a new push Client
func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	hostname, _ := os.Hostname()
	return &Client{
		endpoint:  opts.Endpoint,
		apiKey:    opts.APIKey,
		agentName: opts.AgentName,
		hostname:  hostname,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
	}
}

// Push sends r to the collector. meta attaches configured tags and notes to
// the matching targets and may be nil.
func (c *Client) Push(ctx context.Context, r *report.Report, meta map[scanner.HostTarget]TargetMeta) (*PushResponse, error) {
	req := c.buildPushRequest(r, meta)

	resp, err := c.doRequest(ctx, http.MethodPost, req)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		if resp.Error != nil {
			return resp, fmt.Errorf("%w (%s): %s", ErrRejected, resp.Error.Code, resp.Error.Message)
		}
		return resp, ErrRejected
	}

	return resp, nil
}

func (c *Client) buildPushRequest(r *report.Report, meta map[scanner.HostTarget]TargetMeta) *PushRequest {
	targets := make([]TargetResult, 0, len(r.Entries))
	for i := range r.Entries {
		result := TargetResult{Entry: r.Entries[i]}
		if m, ok := meta[r.Entries[i].Target()]; ok {
			result.Tags = m.Tags
			result.Notes = m.Notes
		}
		targets = append(targets, result)
	}

	return &PushRequest{
		GeneratedAt:  r.GeneratedAt,
		AgentName:    c.agentName,
		AgentVersion: version.GetVersion(),
		AgentHost:    c.hostname,
		Summary:      r.Summary,
		Targets:      targets,
	}
}

func (c *Client) doRequest(ctx context.Context, method string, body interface{}) (*PushResponse, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("User-Agent", version.UserAgent())

	c.logger.Debug("sending push request",
		zap.String("url", c.endpoint),
		zap.String("method", method),
		zap.Int("body_length", len(jsonData)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("received response",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_length", len(respBody)),
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   *APIError `json:"error"`
			Success bool      `json:"success"`
		}
		if unmarshalErr := json.Unmarshal(respBody, &errResp); unmarshalErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("API error (%s): %s", errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	// An empty 2xx body counts as accepted
	if len(bytes.TrimSpace(respBody)) == 0 {
		return &PushResponse{Success: true}, nil
	}

	var pushResp PushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &pushResp, nil
}
