package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DepositRequest is the manuscript metadata submitted to the DOI registrar.
type DepositRequest struct {
	ManuscriptCode string    `json:"manuscript_code"`
	Title          string    `json:"title"`
	Authors        []string  `json:"authors"`
	Volume         int       `json:"volume"`
	Number         int       `json:"number"`
	Year           int       `json:"year"`
	PublishedAt    time.Time `json:"published_at"`
}

// DepositResult is a successful registrar response.
type DepositResult struct {
	Doi         string
	RawResponse string
}

// RegistrarClient is the boundary to the external DOI registrar. The service
// treats it as unreliable: any error, timeout or malformed response becomes
// one failed deposit attempt.
type RegistrarClient interface {
	SubmitDeposit(ctx context.Context, req *DepositRequest) (*DepositResult, error)
}

// HTTPRegistrarClient submits deposits to the registrar's REST endpoint.
type HTTPRegistrarClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRegistrarClient constructs a registrar client. An empty baseURL
// falls back to the DOI_REGISTRAR_URL environment variable.
func NewHTTPRegistrarClient(baseURL string, client *http.Client) *HTTPRegistrarClient {
	if baseURL == "" {
		baseURL = os.Getenv("DOI_REGISTRAR_URL")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRegistrarClient{baseURL: baseURL, client: client}
}

func (c *HTTPRegistrarClient) SubmitDeposit(ctx context.Context, req *DepositRequest) (*DepositResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("doi registrar not configured (DOI_REGISTRAR_URL)")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode deposit payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.baseURL, "/")+"/deposits", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("registrar request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read registrar response: %w", err)
	}
	raw := string(body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("registrar returned status %d: %s", resp.StatusCode, truncate(raw, 512))
	}

	var parsed struct {
		Doi string `json:"doi"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed registrar response: %w: %s", err, truncate(raw, 512))
	}
	if strings.TrimSpace(parsed.Doi) == "" {
		return nil, fmt.Errorf("registrar response has no doi: %s", truncate(raw, 512))
	}

	return &DepositResult{Doi: strings.TrimSpace(parsed.Doi), RawResponse: raw}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
