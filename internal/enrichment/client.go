// Package enrichment gathers optional external context for contextual
// emails: recent company news, a summary of the sender's public code
// activity, and shared connections. Every lookup is best-effort; a failed or
// absent enrichment service degrades a request to empty context, it never
// fails one.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/icebreaker-agent/internal/types"
)

// DefaultTimeout bounds one enrichment lookup.
const DefaultTimeout = 10 * time.Second

const defaultUserAgent = "Mozilla/5.0 (compatible; IcebreakerAgent/1.0)"

// maxBodyBytes caps enrichment responses so a misbehaving service cannot
// balloon memory.
const maxBodyBytes = 1 << 20

// Error reports a failed enrichment lookup. Callers log it and continue.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("enrichment error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("enrichment error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Client fetches external context from an enrichment service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient returns a Client against the given service base URL. An empty
// baseURL yields a disabled client that always returns empty context. A nil
// logger is replaced with a no-op.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Enabled reports whether a service URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Gather collects context for the request's company and sender. Lookup
// failures are logged and produce an empty (never nil) context.
func (c *Client) Gather(ctx context.Context, req *types.EmailRequest) *types.ExternalContext {
	result := &types.ExternalContext{}
	if !c.Enabled() {
		return result
	}

	var payload struct {
		CompanyNews       []string `json:"company_news"`
		GitHubSummary     string   `json:"github_summary"`
		SharedConnections []string `json:"shared_connections"`
	}

	query := url.Values{}
	query.Set("company", req.Job.Company)
	query.Set("sender", req.Sender.Name)
	endpoint := c.baseURL + "/v1/context?" + query.Encode()

	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		c.logger.Warn("enrichment lookup failed, continuing without context",
			zap.String("company", req.Job.Company),
			zap.Error(err))
		return result
	}

	result.CompanyNews = payload.CompanyNews
	result.GitHubSummary = payload.GitHubSummary
	result.SharedConnections = payload.SharedConnections
	return result
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{URL: endpoint, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("User-Agent", defaultUserAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &Error{URL: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &Error{URL: endpoint, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{URL: endpoint, Message: "failed to read response body", Cause: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{URL: endpoint, Message: "failed to decode response", Cause: err}
	}
	return nil
}
