package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/models"
)

// HTTPClient implements Backend by calling the PaceGuard REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the coaching service runs elsewhere (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Backend.
var _ Backend = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// post sends in as JSON and decodes the reply into out. A 400 reply is
// reported as models.ErrInvalidInput so callers can treat it as such.
func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("httpclient: encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", models.ErrInvalidInput, errorMessage(body))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// errorMessage extracts the "error" field of an API error body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func (c *HTTPClient) FitnessScore(ctx context.Context, req coach.FitnessRequest) (*coach.FitnessResponse, error) {
	var resp coach.FitnessResponse
	if err := c.post(ctx, "/api/v1/fitness-score", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Zones(ctx context.Context, req coach.ZonesRequest) (*coach.ZonesResponse, error) {
	var resp coach.ZonesResponse
	if err := c.post(ctx, "/api/v1/zones", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) SessionPace(ctx context.Context, req coach.PaceRequest) (*coach.PaceResponse, error) {
	var resp coach.PaceResponse
	if err := c.post(ctx, "/api/v1/pace", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Predict(ctx context.Context, req coach.PredictRequest) (*coach.PredictResponse, error) {
	var resp coach.PredictResponse
	if err := c.post(ctx, "/api/v1/predict", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ValidateVolume(ctx context.Context, req coach.VolumeRequest) (*models.ProgressionVerdict, error) {
	var verdict models.ProgressionVerdict
	if err := c.post(ctx, "/api/v1/volume/validate", req, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func (c *HTTPClient) EvaluateFeedback(ctx context.Context, req coach.FeedbackRequest) (*coach.FeedbackResponse, error) {
	var resp coach.FeedbackResponse
	if err := c.post(ctx, "/api/v1/feedback/evaluate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
