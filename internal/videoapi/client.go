package videoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
)

// Client talks to the external video generation API.
type Client struct {
	baseURL         string
	healthTimeout   time.Duration
	generateTimeout time.Duration
	httpClient      *http.Client
}

func NewClient(cfg config.VideoAPIConfig) *Client {
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		healthTimeout:   cfg.HealthTimeout,
		generateTimeout: cfg.GenerateTimeout,
		httpClient:      &http.Client{},
	}
}

// WithHTTPClient replaces the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	VideoID      int64  `json:"video_id"`
	CeleryTaskID string `json:"celery_task_id"`
}

type GenerateResponse struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HTTPError is returned for any non-2xx answer.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return fmt.Sprintf("video api http %d: %s", e.StatusCode, msg)
}

// IsOnline reports whether GET /health answers 200 within the health timeout.
// Any transport error, timeout or other status counts as offline.
func (c *Client) IsOnline(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("video api health check failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Generate submits a generation job and returns the API's acknowledgement message.
func (c *Client) Generate(ctx context.Context, in GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	var out GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/generate", in, &out); err != nil {
		return "", fmt.Errorf("generate video %d: %w", in.VideoID, err)
	}
	return out.Message, nil
}

func (c *Client) Status(ctx context.Context, taskID string) (*StatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status/"+taskID, nil, &out); err != nil {
		return nil, fmt.Errorf("video job status %s: %w", taskID, err)
	}
	return &out, nil
}

// Test calls the smoke endpoint.
func (c *Client) Test(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	if err := c.do(ctx, http.MethodGet, "/test", nil, nil); err != nil {
		return fmt.Errorf("video api test: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
