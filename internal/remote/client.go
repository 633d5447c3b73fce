// Package remote talks to the prompt collection service over HTTP/JSON.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
)

// ErrorResponse is the error body shape. The service uses "error" for
// soft misses and "detail" for framework-level rejections.
type ErrorResponse struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

// Client is an HTTP client for the prompt collection service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	requestID  func() string
}

// NewClient creates a new client rooted at baseURL. A zero timeout disables
// the client-side deadline; callers can still bound requests with ctx.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "pdeck",
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		requestID: uuid.NewString,
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetLogger sets the logger used for request diagnostics.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetUserAgent sets the User-Agent header sent with every request.
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs a GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, result any) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, result)
}

// post performs a POST request with JSON body and decodes the response.
func (c *Client) post(ctx context.Context, op, path string, body, result any) error {
	return c.do(ctx, op, http.MethodPost, path, nil, body, result)
}

// put performs a PUT request with JSON body and decodes the response.
func (c *Client) put(ctx context.Context, op, path string, body, result any) error {
	return c.do(ctx, op, http.MethodPut, path, nil, body, result)
}

// delete performs a DELETE request.
func (c *Client) delete(ctx context.Context, op, path string) error {
	return c.do(ctx, op, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, result any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return &pdeckerrors.RemoteError{Op: op, Err: fmt.Errorf("failed to marshal body: %w", err)}
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return &pdeckerrors.RemoteError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	reqID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("remote request failed", "op", op, "method", method, "path", path, "request_id", reqID, "error", err)
		return &pdeckerrors.RemoteError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	err = c.handleResponse(op, resp, result)
	if err != nil {
		c.logger.Warn("remote request rejected", "op", op, "method", method, "path", path,
			"status", resp.StatusCode, "request_id", reqID, "error", err)
		return err
	}
	c.logger.Debug("remote request", "op", op, "method", method, "path", path,
		"status", resp.StatusCode, "request_id", reqID, "elapsed", time.Since(start))
	return nil
}

func (c *Client) handleResponse(op string, resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &pdeckerrors.RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &pdeckerrors.RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", errorMessage(body))}
	}

	if msg, ok := softError(body); ok {
		return &pdeckerrors.RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", msg)}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return &pdeckerrors.RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	return nil
}

// errorMessage extracts the most useful text from a failure body.
func errorMessage(body []byte) string {
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			return errResp.Error
		}
		if len(errResp.Detail) > 0 {
			var detail string
			if json.Unmarshal(errResp.Detail, &detail) == nil {
				return detail
			}
			return string(errResp.Detail)
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response"
	}
	return text
}

// softError reports a 2xx body of the form {"error": "..."}.
func softError(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var errResp ErrorResponse
	if json.Unmarshal(trimmed, &errResp) != nil || errResp.Error == "" {
		return "", false
	}
	return errResp.Error, true
}
