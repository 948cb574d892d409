package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"
)

// UserHeader names the user when no session token is available.
const UserHeader = "X-Welltrack-User"

// Client talks to a welltrack daemon.
type Client struct {
	baseURL  string
	client   *http.Client
	logger   *slog.Logger
	token    string
	username string
}

// Config holds client configuration
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Logger   *slog.Logger // Optional logger for client operations
	TLS      *TLSClientConfig
	Insecure bool // Skip TLS verification
	// Token is sent as a bearer token. Username is sent in the user header
	// when no token is set.
	Token    string
	Username string
}

// TLSClientConfig holds TLS configuration for client
type TLSClientConfig struct {
	CACert     string // CA certificate file path
	ServerName string // Server name for verification
	SkipVerify bool   // Skip certificate verification
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080/api",
		Timeout: 10 * time.Second,
	}
}

func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	transport := &http.Transport{}
	if config.TLS != nil || config.Insecure {
		tlsConfig, err := setupClientTLS(config)
		if err != nil {
			config.Logger.Error("TLS setup failed", "error", err)
		} else {
			transport.TLSClientConfig = tlsConfig
		}
	}

	return &Client{
		baseURL:  config.BaseURL,
		logger:   config.Logger,
		token:    config.Token,
		username: config.Username,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token used for later calls.
func (c *Client) SetToken(token string) { c.token = token }

// IsReachable reports whether the daemon answers its health check.
func (c *Client) IsReachable(ctx context.Context) bool {
	err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		c.logger.Debug("Daemon unreachable", "error", err)
		return false
	}
	return true
}

// Login exchanges a username for a session token and keeps the token for
// later calls.
func (c *Client) Login(ctx context.Context, username string) (LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", map[string]string{"username": username}, &out); err != nil {
		return LoginResponse{}, err
	}
	if out.Token != nil {
		c.token = out.Token.Value
	}
	return out, nil
}

func todayQuery(today string) string {
	if today == "" {
		return ""
	}
	return "?today=" + url.QueryEscape(today)
}

func wellPath(well string) string { return "/wells/" + url.PathEscape(well) }

func recordPath(well, process string) string {
	return wellPath(well) + "/records/" + url.PathEscape(process)
}

// Wells lists every well with its countdown. today may be empty.
func (c *Client) Wells(ctx context.Context, today string) ([]WellSummary, error) {
	var out []WellSummary
	err := c.do(ctx, http.MethodGet, "/wells"+todayQuery(today), nil, &out)
	return out, err
}

func (c *Client) Well(ctx context.Context, well, today string) (WellReport, error) {
	var out WellReport
	err := c.do(ctx, http.MethodGet, wellPath(well)+todayQuery(today), nil, &out)
	return out, err
}

func (c *Client) Records(ctx context.Context, well string) ([]Record, error) {
	var out []Record
	err := c.do(ctx, http.MethodGet, wellPath(well)+"/records", nil, &out)
	return out, err
}

func (c *Client) Record(ctx context.Context, well, process string) (Record, error) {
	var out Record
	err := c.do(ctx, http.MethodGet, recordPath(well, process), nil, &out)
	return out, err
}

// SetRecord replaces the stored dates of a stage. Nil clears a date.
func (c *Client) SetRecord(ctx context.Context, well, process string, start, end *string) (Record, error) {
	var out Record
	err := c.do(ctx, http.MethodPut, recordPath(well, process), RecordRequest{StartDate: start, EndDate: end}, &out)
	return out, err
}

// SetAnchor records the anchor milestone as a single day.
func (c *Client) SetAnchor(ctx context.Context, well, date string) (Record, error) {
	var out Record
	err := c.do(ctx, http.MethodPut, wellPath(well)+"/anchor", map[string]string{"date": date}, &out)
	return out, err
}

func (c *Client) RequestDelete(ctx context.Context, well, process string) (Pending, error) {
	var out Pending
	err := c.do(ctx, http.MethodPost, recordPath(well, process)+"/delete", nil, &out)
	return out, err
}

func (c *Client) ConfirmDelete(ctx context.Context, token string) (Pending, error) {
	var out Pending
	err := c.do(ctx, http.MethodPost, "/deletions/"+url.PathEscape(token)+"/confirm", nil, &out)
	return out, err
}

func (c *Client) CancelDelete(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/deletions/"+url.PathEscape(token), nil, nil)
}

func (c *Client) Workflow(ctx context.Context, well string) (Workflow, error) {
	var out Workflow
	err := c.do(ctx, http.MethodGet, wellPath(well)+"/workflow", nil, &out)
	return out, err
}

func (c *Client) SetWorkflow(ctx context.Context, well, workflow string) (Workflow, error) {
	var out Workflow
	err := c.do(ctx, http.MethodPut, wellPath(well)+"/workflow", map[string]string{"workflow": workflow}, &out)
	return out, err
}

func (c *Client) Dashboard(ctx context.Context, today string) (Dashboard, error) {
	var out Dashboard
	err := c.do(ctx, http.MethodGet, "/dashboard"+todayQuery(today), nil, &out)
	return out, err
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// setupClientTLS configures TLS settings for HTTP client
func setupClientTLS(config Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	// Handle insecure mode (skip verification)
	if config.Insecure {
		tlsConfig.InsecureSkipVerify = true // #nosec G402 explicit opt-in
		return tlsConfig, nil
	}

	if config.TLS != nil {
		if config.TLS.SkipVerify {
			tlsConfig.InsecureSkipVerify = true // #nosec G402 explicit opt-in
		}
		if config.TLS.ServerName != "" {
			tlsConfig.ServerName = config.TLS.ServerName
		}
		if config.TLS.CACert != "" {
			if err := loadCACert(tlsConfig, config.TLS.CACert); err != nil {
				return nil, fmt.Errorf("failed to load CA certificate: %w", err)
			}
		}
	}

	return tlsConfig, nil
}

// loadCACert loads CA certificate from file and adds it to TLS config
func loadCACert(tlsConfig *tls.Config, caCertPath string) error {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return fmt.Errorf("failed to read CA certificate file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return fmt.Errorf("failed to parse CA certificate")
	}

	tlsConfig.RootCAs = caCertPool
	return nil
}

// do performs a JSON request against path and decodes a 2xx body into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case c.username != "":
		req.Header.Set(UserHeader, c.username)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("HTTP request failed", "error", err, "url", u)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// handleErrorResponse handles HTTP error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errorResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
		c.logger.Debug("Failed to decode error response", "status", resp.StatusCode)
		apiErr.Code = http.StatusText(resp.StatusCode)
		return apiErr
	}
	apiErr.Code = errorResp.Error
	apiErr.Message = errorResp.Message
	c.logger.Debug("API request failed", "error", errorResp.Error, "status", resp.StatusCode)
	return apiErr
}
