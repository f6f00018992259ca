package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/newthinker/botdeck/internal/core"
	"go.uber.org/zap"
)

const sessionCookieName = "session"

// APIError represents an HTTP error status from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

// doRequest performs an HTTP request and returns the raw body. Any failure
// to obtain a usable response is reported as core.ErrTransport.
func (c *Client) doRequest(ctx context.Context, endpoint, method, path string, query url.Values, payload any) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, core.WrapError(core.ErrTransport, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: c.session})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(endpoint, 0, start)
		return nil, core.WrapError(core.ErrTransport, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.record(endpoint, resp.StatusCode, start)
	if err != nil {
		return nil, core.WrapError(core.ErrTransport, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, core.WrapError(core.ErrTransport, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		})
	}

	c.logger.Debug("backend request",
		zap.String("endpoint", endpoint),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return body, nil
}

func (c *Client) record(endpoint string, status int, start time.Time) {
	if c.recorder != nil {
		c.recorder.RecordBackendRequest(endpoint, status, time.Since(start).Seconds())
	}
}

// get performs a GET request and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, result any) error {
	body, err := c.doRequest(ctx, endpoint, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decode(body, result)
}

// post performs a POST request with a JSON payload and decodes the answer.
func (c *Client) post(ctx context.Context, endpoint, path string, payload, result any) error {
	body, err := c.doRequest(ctx, endpoint, http.MethodPost, path, nil, payload)
	if err != nil {
		return err
	}
	return decode(body, result)
}

func decode(body []byte, result any) error {
	if err := json.Unmarshal(body, result); err != nil {
		return core.WrapError(core.ErrTransport, fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}
