// Package reasoner is the HTTP client for the external reasoning service that
// drafts adaptation plans.
package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls POST {baseURL}/v1/reason.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type reasonRequest struct {
	Model   string `json:"model,omitempty"`
	Context string `json:"context"`
}

type reasonResponse struct {
	Text string `json:"text"`
}

// NewClient creates a Client. The timeout caps each HTTP round trip; callers
// usually bound the call more tightly through the context.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Reason sends the context text and returns the service's free-form reply.
func (c *Client) Reason(ctx context.Context, prompt string) (string, error) {
	data, err := json.Marshal(reasonRequest{Model: c.model, Context: prompt})
	if err != nil {
		return "", fmt.Errorf("reasoner: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/reason", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("reasoner: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reasoner: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reasoner: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reasoner: returned %d: %s", resp.StatusCode, body)
	}

	var out reasonResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("reasoner: decode response: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", fmt.Errorf("reasoner: empty reply")
	}
	return out.Text, nil
}
