// Package apiclient talks to the backend API: the profile service used to
// populate the current user, and the login endpoint that issues tokens.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/stcms/pkg/session"
)

const (
	// DefaultTimeout bounds every outbound request.
	DefaultTimeout = 5 * time.Second

	// UserAgent is sent with every request.
	UserAgent = "STCMS/1.0"

	// ProfilePath is the profile endpoint, relative to the base URL.
	ProfilePath = "/user/profile"

	// LoginPath is the login endpoint, relative to the base URL.
	LoginPath = "/auth/login"

	maxBodyBytes = 1 << 20
)

// ErrNoProfile is returned when the profile response carries no data.
var ErrNoProfile = errors.New("apiclient: profile response has no data")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apiclient: %s %s: unexpected status %d", e.Method, e.URL, e.Status)
}

// Client is a JSON client for the backend API. It is safe for concurrent
// use.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its timeout is kept
// as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for baseURL. A trailing slash is ignored.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tracer:  otel.Tracer("stcms/apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET for endpoint and decodes the JSON response into out.
// token is sent as a bearer token when non-empty.
func (c *Client) Get(ctx context.Context, endpoint, token string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, token, nil, out)
}

// Post issues a POST with body encoded as JSON and decodes the response
// into out.
func (c *Client) Post(ctx context.Context, endpoint, token string, body, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, token, body, out)
}

// Put issues a PUT with body encoded as JSON.
func (c *Client) Put(ctx context.Context, endpoint, token string, body, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, token, body, out)
}

// Delete issues a DELETE for endpoint.
func (c *Client) Delete(ctx context.Context, endpoint, token string, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, token, nil, out)
}

// Profile fetches the user profile for token. The profile is the "data"
// member of the response body.
func (c *Client) Profile(ctx context.Context, token string) (session.User, error) {
	var resp struct {
		Data session.User `json:"data"`
	}
	if err := c.Get(ctx, ProfilePath, token, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, ErrNoProfile
	}
	return resp.Data, nil
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticate exchanges credentials for a token.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.Post(ctx, LoginPath, "", creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("apiclient: login response has no token")
	}
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out any) (err error) {
	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	ctx, span := c.tracer.Start(ctx, "apiclient."+strings.ToLower(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", url),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("apiclient: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Method: method, URL: url, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, url, err)
	}
	return nil
}
