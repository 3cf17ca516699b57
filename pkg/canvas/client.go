// Package canvas is a small client for the Canvas LMS REST API.
package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/pkg/middleware/requestid"
)

const (
	defaultTimeout = 30 * time.Second
	defaultPerPage = 100
	maxErrorBody   = 512
)

// Observer receives one callback per HTTP round trip. Status is zero when no response arrived.
type Observer interface {
	ObserveLMSCall(operation string, status int, duration time.Duration)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Operation  string
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s returned %d", e.Operation, e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsNotFound reports whether err is a 404 from the LMS.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	PerPage    int
	HTTPClient *http.Client
	Observer   Observer
	Logger     *zap.Logger
}

// Client talks to one Canvas instance with a bearer token. It holds no per-course state.
type Client struct {
	baseURL  string
	token    string
	perPage  int
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// NewClient constructs a Client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, errors.New("canvas: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("canvas: invalid base URL: %w", err)
	}
	if opts.Token == "" {
		return nil, errors.New("canvas: token is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:  base,
		token:    opts.Token,
		perPage:  perPage,
		http:     httpClient,
		observer: opts.Observer,
		logger:   logger,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one request against an absolute URL and decodes a JSON response into out.
// It returns the rel="next" link of the response, if any.
func (c *Client) do(ctx context.Context, operation, method, rawURL string, body interface{}, out interface{}) (string, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("%s: encode body: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(operation, 0, duration)
		c.logger.Warn("lms request failed", zap.String("operation", operation), zap.String("method", method), zap.Error(err))
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()
	c.observe(operation, resp.StatusCode, duration)

	c.logger.Debug("lms request",
		zap.String("operation", operation),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", duration),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{
			Operation:  operation,
			Method:     method,
			URL:        req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%s: decode response: %w", operation, err)
		}
	}

	return nextLink(resp.Header.Values("Link")), nil
}

func (c *Client) observe(operation string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer.ObserveLMSCall(operation, status, duration)
	}
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values, out interface{}) error {
	_, err := c.do(ctx, operation, http.MethodGet, c.endpoint(path, query), nil, out)
	return err
}

func (c *Client) send(ctx context.Context, operation, method, path string, body, out interface{}) error {
	_, err := c.do(ctx, operation, method, c.endpoint(path, nil), body, out)
	return err
}

// listAll walks every page of a list endpoint.
func listAll[T any](ctx context.Context, c *Client, operation, path string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", strconv.Itoa(c.perPage))

	var all []T
	next := c.endpoint(path, query)
	for next != "" {
		var page []T
		link, err := c.do(ctx, operation, http.MethodGet, next, nil, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		next = link
	}
	return all, nil
}
