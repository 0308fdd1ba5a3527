package remote

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"scanmate/core/utils"
	"scanmate/feature/importer"

	"go.uber.org/zap"
)

// APIKeyHeader carries the service key.
const APIKeyHeader = "X-API-KEY"

const maxBody = 64 << 20

// Employee is a counter assigned to an inventory session.
type Employee struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Client talks to the inventory service.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid remote base url %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   base,
		apiKey: cfg.ApiKey,
		http: &http.Client{
			Transport: utils.NewHTTPTransport(cfg.Timeout()),
			Timeout:   cfg.Timeout(),
		},
		logger: logger,
	}, nil
}

func (c *Client) endpoint(parts ...string) string {
	return c.base.JoinPath(append([]string{"api", "scanmate"}, parts...)...).String()
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &TransportError{Op: op, URL: endpoint, Err: err}
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &TransportError{Op: op, URL: endpoint, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: op, URL: endpoint, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	return data, nil
}

// Employees lists the employees of a session. A response with success=false
// yields an empty list.
func (c *Client) Employees(ctx context.Context, session int) ([]Employee, error) {
	data, err := c.do(ctx, "list employees", http.MethodGet, c.endpoint(strconv.Itoa(session), "employees"), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Success   bool       `json:"success"`
		Employees []Employee `json:"employees"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn("Unreadable employees response", zap.Int("session", session), zap.Error(err))
		return []Employee{}, nil
	}
	if !resp.Success || resp.Employees == nil {
		return []Employee{}, nil
	}
	return resp.Employees, nil
}

// Download fetches the baseline rows of a session for one employee. Only
// transport failures are errors: success=false, a missing payload or a
// payload that does not decompress or decode all yield an empty result.
func (c *Client) Download(ctx context.Context, session, employee int) ([]importer.Row, error) {
	data, err := c.do(ctx, "download session data", http.MethodGet,
		c.endpoint(strconv.Itoa(session), "data", strconv.Itoa(employee)), nil)
	if err != nil {
		return nil, err
	}

	log := c.logger.With(zap.Int("session", session), zap.Int("employee", employee))

	var resp struct {
		Success bool   `json:"success"`
		GzData  string `json:"gz_data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		log.Warn("Unreadable session data response", zap.Error(err))
		return []importer.Row{}, nil
	}
	if !resp.Success || resp.GzData == "" {
		log.Info("Session data unavailable", zap.Bool("success", resp.Success))
		return []importer.Row{}, nil
	}

	raw, err := gunzipBase64(resp.GzData)
	if err != nil {
		log.Warn("Failed to decompress session data", zap.Error(err))
		return []importer.Row{}, nil
	}
	rows, err := importer.DecodeRows(raw)
	if err != nil {
		log.Warn("Failed to decode session data", zap.Error(err))
		return []importer.Row{}, nil
	}
	return rows, nil
}

// Submit posts counted quantities and logs and decodes the service verdict.
func (c *Client) Submit(ctx context.Context, session, employee int, payload UploadPayload) (UploadResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to encode upload: %w", err)
	}

	data, err := c.do(ctx, "submit counts", http.MethodPost,
		c.endpoint(strconv.Itoa(session), "submit", strconv.Itoa(employee)), body)
	if err != nil {
		return UploadResult{}, err
	}
	return DecodeUploadResponse(data)
}

func gunzipBase64(s string) ([]byte, error) {
	gz, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(gz))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, maxBody))
}
