// Package api provides the HTTP client for the SafeVision backend. One
// client owns one reusable session; every operation returns a classified
// *Failure on error.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"safevision-console/internal/schema"
)

const (
	healthPath = "/health"
	alertsPath = "/api/v1/alerts"
	uploadPath = "/api/v1/upload"
	rulesPath  = "/api/v1/rules/user-friendly"

	// resolvedLiteral is the confirmed-state value sent on status PATCH.
	resolvedLiteral = "resolved"

	maxBodySize = 10 << 20 // 10MB
)

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	BaseURL string        `yaml:"base_url" env:"SAFEVISION_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"SAFEVISION_TIMEOUT"`

	// InsecureSkipVerifyHost disables TLS certificate verification when it
	// matches the host of BaseURL. This is a compatibility exception for one
	// known backend host, not a general policy.
	InsecureSkipVerifyHost string `yaml:"insecure_skip_verify_host" env:"SAFEVISION_INSECURE_HOST"`
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL: "https://localhost:8443",
		Timeout: 10 * time.Second,
	}
}

// Client performs HTTP operations against one configured backend host. The
// underlying session and trust configuration are created once and shared
// read-only across all operations; concurrent calls are safe.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the configured backend.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base_url %q: %w", cfg.BaseURL, err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerifyHost != "" && base.Hostname() == cfg.InsecureSkipVerifyHost {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: base.String(),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

// Health checks backend availability. Any 2xx response is success.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, healthPath, "", nil)
	return err
}

// ListAlerts fetches the full alert list. Each result is a complete
// replacement of the previous list, never a delta.
func (c *Client) ListAlerts(ctx context.Context) ([]schema.Alert, error) {
	body, err := c.do(ctx, http.MethodGet, alertsPath, "", nil)
	if err != nil {
		return nil, err
	}

	var alerts []schema.Alert
	if err := json.Unmarshal(body, &alerts); err != nil {
		return nil, DecodeFailure(fmt.Errorf("decode alerts: %w", err))
	}
	return alerts, nil
}

// ResolveAlert asks the backend to transition an alert to the resolved
// state. Success carries no body and does not update any locally cached
// alert; the caller observes the transition on a later poll or stream
// update.
func (c *Client) ResolveAlert(ctx context.Context, alertID string) error {
	payload, err := json.Marshal(map[string]string{"status": resolvedLiteral})
	if err != nil {
		return &Failure{Kind: FailureTransport, Err: err}
	}

	path := fmt.Sprintf("%s/%s/status", alertsPath, url.PathEscape(alertID))
	_, err = c.do(ctx, http.MethodPatch, path, "application/json", bytes.NewReader(payload))
	return err
}

// UploadVideo posts a video file as multipart form data under the "file"
// field. The response body is an opaque success string.
func (c *Client) UploadVideo(ctx context.Context, filename string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", &Failure{Kind: FailureTransport, Err: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", &Failure{Kind: FailureTransport, Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &Failure{Kind: FailureTransport, Err: err}
	}

	body, err := c.do(ctx, http.MethodPost, uploadPath, writer.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// CreateRule submits a rule request to the backend. The response body is an
// opaque success string.
func (c *Client) CreateRule(ctx context.Context, req schema.RuleRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", &Failure{Kind: FailureTransport, Err: err}
	}

	body, err := c.do(ctx, http.MethodPost, rulesPath, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// do performs one request and returns the response body on any 2xx status.
// Every other outcome is classified through Classify so all operations share
// one error path.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, Classify(err, 0, nil)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Classify(err, 0, nil)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cause := fmt.Errorf("%s %s returned %s", method, path, resp.Status)
		return nil, Classify(cause, resp.StatusCode, respBody)
	}

	if readErr != nil {
		return nil, Classify(readErr, 0, nil)
	}
	return respBody, nil
}
