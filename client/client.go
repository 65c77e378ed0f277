package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/habedi/rentdesk/db"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout applies to every request unless WithTimeout overrides it.
const DefaultTimeout = 30 * time.Second

// SessionStore holds the persisted session slots. db.SlotRepository satisfies it.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Client is the authenticated backend client. Each instance owns its own
// refresh state, so instances never interfere with each other.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	store     SessionStore
	refresher Refresher
	limiter   *RateLimiter
	timeout   time.Duration
	coord     refreshCoordinator
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the API client. It applies to a
// copy of the transport client, whatever the order of the options.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRefresher replaces the default token/refresh/ refresher.
func WithRefresher(r Refresher) Option {
	return func(c *Client) { c.refresher = r }
}

// WithDownloadRateLimit throttles document downloads to bytesPerSecond. Zero disables it.
func WithDownloadRateLimit(bytesPerSecond int64) Option {
	return func(c *Client) { c.limiter = NewRateLimiter(bytesPerSecond) }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, store SessionStore, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	if c.refresher == nil {
		c.refresher = NewTokenRefresher(u.String(), c.http.Timeout)
	}
	return c, nil
}

// BaseURL returns the API root the client resolves paths against.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Store returns the session store the client reads tokens from.
func (c *Client) Store() SessionStore { return c.store }

// Do sends req with the stored bearer token. A 401 triggers at most one token
// refresh, shared with any concurrent callers, and one retry of req with the
// new token. Any other response, including a 401 on the retry, is returned as is.
// req must have GetBody set when it carries a body.
//
// Requests for another origin than the API are sent without a token and
// their 401s never touch the session.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req, true)
}

func (c *Client) do(req *http.Request, intercept bool) (*http.Response, error) {
	ctx := req.Context()
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	if !c.sameOrigin(req.URL) {
		return c.send(req, "")
	}

	token, err := c.store.Get(ctx, db.SlotAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}

	resp, err := c.send(req, token)
	if err != nil || !intercept || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// From here on the request counts as retried: the response of the next
	// attempt is final whatever its status.
	authErr := newAPIError(resp)
	newToken, err := c.recoverSession(ctx, authErr)
	if err != nil {
		return nil, err
	}

	retry, err := rewind(req)
	if err != nil {
		return nil, err
	}
	return c.send(retry, newToken)
}

func (c *Client) send(req *http.Request, token string) (*http.Response, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}

	reqID := req.Header.Get("X-Request-ID")
	log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_id", reqID).Msg("Sending HTTP request")
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Str("request_id", reqID).Msg("HTTP request failed")
		return nil, err
	}
	log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_id", reqID).Int("status", resp.StatusCode).Msg("HTTP response received")
	return resp, nil
}

// sameOrigin reports whether u has the scheme and host of the API root.
func (c *Client) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.baseURL.Scheme) && strings.EqualFold(hostPort(u), hostPort(c.baseURL))
}

func hostPort(u *url.URL) string {
	if port := u.Port(); port != "" {
		return u.Host
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return u.Host + ":443"
	case "http":
		return u.Host + ":80"
	}
	return u.Host
}

// rewind clones req for a second attempt, reopening its body.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("%s %s: request body cannot be replayed", req.Method, req.URL)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to reopen request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}
