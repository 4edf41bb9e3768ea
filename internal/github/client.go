// Package github retrieves mod metadata from GitHub releases. It lists a
// repository's releases through the REST API, reads each release's mod.json
// from the raw content host at the release tag, downloads the release's pak
// asset and runs the ingestion pipeline over the result.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/charmbracelet/log"
	circuit "github.com/rubyist/circuitbreaker"
	"github.com/rs/dnscache"

	"github.com/zero-infra/modregistry/internal/logging"
)

const (
	DefaultAPIBase = "https://api.github.com"
	DefaultRawBase = "https://raw.githubusercontent.com"

	defaultUserAgent = "modreg"
	defaultPageSize  = 100
)

var (
	ErrNotFound     = errors.New("not found on GitHub")
	ErrRateLimited  = errors.New("rate limited by GitHub; set a GitHub token for higher limits")
	ErrUpstreamDown = errors.New("GitHub unavailable")

	// ErrCircuitOpen is returned without contacting a host whose breaker
	// has tripped.
	ErrCircuitOpen = fmt.Errorf("circuit breaker open: %w", ErrUpstreamDown)
)

// Client talks to the GitHub API and raw content host.
type Client struct {
	client     *http.Client
	apiBase    string
	rawBase    string
	token      string
	userAgent  string
	pageSize   int
	maxRetries uint64
	baseDelay  time.Duration
	logger     *log.Logger

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithAPIBase overrides the REST API root.
func WithAPIBase(base string) Option {
	return func(c *Client) {
		c.apiBase = base
	}
}

// WithRawBase overrides the raw content root.
func WithRawBase(base string) Option {
	return func(c *Client) {
		c.rawBase = base
	}
}

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithPageSize sets how many releases are requested per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithMaxRetries sets how often a rate-limited or failed request is retried.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the first retry delay of the exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client. Without WithHTTPClient it uses a client that caches
// DNS lookups for the lifetime of the process.
func New(opts ...Option) *Client {
	c := &Client{
		apiBase:    DefaultAPIBase,
		rawBase:    DefaultRawBase,
		userAgent:  defaultUserAgent,
		pageSize:   defaultPageSize,
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		logger:     logging.Discard(),
		breakers:   make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = newHTTPClient()
	}
	return c
}

func newHTTPClient() *http.Client {
	resolver := &dnscache.Resolver{}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
				}
				return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
			},
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// breaker returns the circuit breaker for host, creating it on first use.
// A breaker trips after five consecutive failures.
func (c *Client) breaker(host string) *circuit.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.breakers[host]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b := circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	c.breakers[host] = b
	return b
}

// BreakerStates reports "open" or "closed" per host contacted so far.
func (c *Client) BreakerStates() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	states := make(map[string]string, len(c.breakers))
	for host, b := range c.breakers {
		if b.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

// get fetches rawURL, retrying rate limits and server errors with
// exponential backoff. A not-found answer is returned as ErrNotFound and
// does not count against the host's circuit breaker.
func (c *Client) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	host := hostOf(rawURL)
	breaker := c.breaker(host)
	if !breaker.Ready() {
		return nil, fmt.Errorf("%s: %w", host, ErrCircuitOpen)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.baseDelay
	expBackoff.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, c.maxRetries), ctx)

	var body []byte
	var notFound error
	err := breaker.Call(func() error {
		return backoff.Retry(func() error {
			data, err := c.do(ctx, rawURL, accept)
			switch {
			case err == nil:
				body = data
				return nil
			case errors.Is(err, ErrNotFound):
				notFound = err
				return nil
			case errors.Is(err, ErrRateLimited), errors.Is(err, ErrUpstreamDown):
				c.logger.Debug("retrying request", "url", rawURL, "err", err)
				return err
			default:
				return backoff.Permanent(err)
			}
		}, policy)
	}, 0)
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return nil, fmt.Errorf("%s: %w", host, ErrCircuitOpen)
	}
	if err != nil {
		return nil, err
	}
	if notFound != nil {
		return nil, notFound
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%s returned status %d: %w", rawURL, resp.StatusCode, ErrUpstreamDown)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s returned status %d: %s", rawURL, resp.StatusCode, string(body))
	}
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
