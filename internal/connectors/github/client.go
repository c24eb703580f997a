package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default timeout for API calls.
	DefaultTimeout = 30 * time.Second

	// DownloadTimeout bounds a tarball download.
	DownloadTimeout = 5 * time.Minute

	// maxRedirects is how many redirects the archive link may follow.
	maxRedirects = 3
)

// Client wraps the go-github client with the calls a snapshot needs.
type Client struct {
	gh          *gh.Client
	http        *http.Client
	rateLimiter *RateLimiter
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	token   string
	baseURL string
	rps     float64
	http    *http.Client
}

// WithToken authenticates requests with a personal access token.
func WithToken(token string) ClientOption {
	return func(c *clientConfig) { c.token = token }
}

// WithBaseURL points the client at a GitHub Enterprise or test API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *clientConfig) { c.baseURL = baseURL }
}

// WithRequestsPerSecond sets the proactive throttle.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *clientConfig) { c.rps = rps }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) { c.http = hc }
}

// NewClient creates a GitHub API client.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	cfg := clientConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	hc := cfg.http
	if hc == nil {
		if cfg.token != "" {
			ts := oauth2.StaticTokenSource(
				&oauth2.Token{AccessToken: cfg.token},
			)
			hc = oauth2.NewClient(ctx, ts)
		} else {
			hc = &http.Client{}
		}
	}

	client := gh.NewClient(hc)
	if cfg.baseURL != "" {
		base := cfg.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{
		gh:          client,
		http:        hc,
		rateLimiter: NewRateLimiter(cfg.rps),
	}, nil
}

// GetRepository fetches a single repository.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "get repo")
	}
	return repository, nil
}

// ArchiveLink returns the tarball URL for ref.
func (c *Client) ArchiveLink(ctx context.Context, owner, repo, ref string) (*url.URL, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	link, resp, err := c.gh.Repositories.GetArchiveLink(ctx, owner, repo, gh.Tarball, opts, maxRedirects)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "get archive link")
	}
	return link, nil
}

// Download opens the body at link. The caller closes it.
func (c *Client) Download(ctx context.Context, link *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download archive: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: resp.Status, URL: link.String()}
	}
	return resp.Body, nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}
