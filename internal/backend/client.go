package backend

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Recorder receives per-request accounting. metrics.Registry implements it.
type Recorder interface {
	RecordBackendRequest(endpoint string, status int, duration float64)
}

// Client provides access to the bot backend.
type Client struct {
	baseURL    string
	apiKey     string
	session    string
	httpClient *http.Client
	logger     *zap.Logger
	recorder   Recorder
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new backend client. apiKey may be empty.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSessionCookie sends the given value as the backend's session cookie.
func WithSessionCookie(value string) ClientOption {
	return func(c *Client) {
		c.session = value
	}
}

// WithRecorder sets the request recorder.
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}
