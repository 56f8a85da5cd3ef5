package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/shopfront-backend/internal/pkg/httpx"
	"github.com/yungbote/shopfront-backend/internal/platform/envutil"
)

type Options struct {
	BaseURL string
	Token   string

	Timeout    time.Duration
	MaxRetries int

	HTTPClient *http.Client
}

// Client talks to the shopfront REST API with an admin bearer token.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		timeout:    timeout,
		maxRetries: maxRetries,
		httpClient: hc,
	}, nil
}

func OptionsFromEnv() Options {
	return Options{
		BaseURL:    envutil.String("SHOPADMIN_API_URL", "http://localhost:8080", nil),
		Token:      envutil.String("SHOPADMIN_TOKEN", "", nil),
		Timeout:    envutil.Seconds("SHOPADMIN_TIMEOUT_SECONDS", 30*time.Second),
		MaxRetries: envutil.Int("SHOPADMIN_MAX_RETRIES", 2),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }
func (c *Client) Token() string   { return c.token }

// SetToken replaces the bearer token, e.g. after Login.
func (c *Client) SetToken(token string) { c.token = strings.TrimSpace(token) }

func (c *Client) setHeaders(req *http.Request, contentType string) {
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// doJSON sends body as JSON and decodes a 2xx answer into out. Only GETs are
// retried.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var buf bytes.Buffer
	contentType := ""
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
		contentType = "application/json"
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	retries := 0
	if method == http.MethodGet {
		retries = c.maxRetries
	}

	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt <= retries; attempt++ {
		if ctx2.Err() != nil {
			return ctx2.Err()
		}

		req, err := http.NewRequestWithContext(ctx2, method, target, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return err
		}
		c.setHeaders(req, contentType)

		lastErr = c.send(req, out)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}

		if attempt < retries {
			if err := httpx.SleepContext(ctx2, httpx.JitterSleep(backoff)); err != nil {
				return err
			}
			backoff *= 2
		}
	}
	return lastErr
}

// retryable covers 408/429/5xx answers and transport failures.
func retryable(err error) bool {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return httpx.IsRetryableHTTPStatus(herr.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func (c *Client) doMultipart(ctx context.Context, path, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx2, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	c.setHeaders(req, mw.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) requireToken() error {
	if c.token == "" {
		return ErrMissingToken
	}
	return nil
}
