package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/gamerscrawl/config"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	ErrRateLimit        = errors.New("rate limit exceeded")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// StatusError carries the HTTP status of a failed response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	if e.Code == http.StatusTooManyRequests {
		return fmt.Sprintf("rate limited: status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusTooManyRequests {
		return ErrRateLimit
	}
	return ErrUnexpectedStatus
}

// Client is the HTTP client shared by every source.
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	userAgent  string
}

func NewClient(cfg config.HTTPConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(delay) * time.Second,
		userAgent:  UserAgent,
	}
}

// WithHTTPClient returns a copy of c that sends requests through hc, keeping
// the retry policy. Used for clients that add auth at the transport level.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.httpClient = hc
	return &cp
}

// HTTPClient exposes the underlying client for libraries that need one.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, headers)
}

func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string) (gjson.Result, error) {
	body, err := c.Get(ctx, rawURL, headers)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("invalid JSON from %s", hostOf(rawURL))
	}
	return gjson.ParseBytes(body), nil
}

func (c *Client) GetDocument(ctx context.Context, rawURL string, headers map[string]string) (*goquery.Document, error) {
	body, err := c.Get(ctx, rawURL, headers)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}

func (c *Client) PostJSON(ctx context.Context, rawURL string, body []byte, headers map[string]string) ([]byte, error) {
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return c.do(ctx, http.MethodPost, rawURL, body, h)
}

func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) ([]byte, error) {
	h := map[string]string{"Content-Type": "application/x-www-form-urlencoded;charset=UTF-8"}
	for k, v := range headers {
		h[k] = v
	}
	return c.do(ctx, http.MethodPost, rawURL, []byte(form.Encode()), h)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, error) {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			log.Debugf("Retry attempt %d/%d for %s, waiting for %v", attempt, c.maxRetries, rawURL, delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var data []byte
		data, err = c.once(ctx, method, rawURL, body, headers)
		if err == nil {
			return data, nil
		}
		if !isRetryableError(err) {
			return nil, err
		}
		log.Debugf("Retryable error for %s: %v", rawURL, err)
	}
	return nil, fmt.Errorf("maximum retry attempts reached: %w", err)
}

func (c *Client) once(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if err := checkResponseStatus(res.StatusCode); err != nil {
		res.Body.Close()
		return nil, err
	}
	return readBody(res.Body)
}

func readBody(body io.ReadCloser) ([]byte, error) {
	defer body.Close()
	return io.ReadAll(body)
}

func checkResponseStatus(statusCode int) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return &StatusError{Code: statusCode}
}

// isRetryableError reports whether a failed request is worth repeating:
// rate limits, 5xx responses and transient network failures.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "reset by peer") ||
		strings.Contains(msg, "EOF")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
