package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second

	// RequestIDHeader carries the generated request id when enabled
	RequestIDHeader = "X-Request-ID"
)

// Client issues one-shot requests. It is safe for concurrent use; calls share
// only the immutable settings below and the transport's connection pool.
type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	baseURL        *neturl.URL
	defaultHeaders map[string]string
	requestID      bool
	logger         zerolog.Logger
}

var _ Requester = (*Client)(nil)

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		return c
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if c.proxyURL != "" {
		proxyURL, err := neturl.Parse(c.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			c.logger.Warn().Err(err).Str("proxy", c.proxyURL).Msg("ignoring invalid proxy url")
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	// Deadlines are set per request in Do, so a Config.Timeout longer than
	// the client default is not cut short.
	c.httpClient = &http.Client{
		Transport:     transport,
		CheckRedirect: redirectPolicy,
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithBaseURL resolves relative request URLs against base. An unparsable base
// is ignored.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		if u, err := neturl.Parse(base); err == nil && base != "" {
			c.baseURL = u
		}
	}
}

// WithRequestID stamps each request with a fresh X-Request-ID.
func WithRequestID(enabled bool) ClientOption {
	return func(c *Client) {
		c.requestID = enabled
	}
}

// WithLogger sets the logger used for request tracing. Requests are not
// logged by default.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient uses hc as the transport. Redirect, TLS and proxy options are
// then left to hc. A non-zero hc.Timeout becomes the client default.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
		if hc.Timeout > 0 {
			c.timeout = hc.Timeout
		}
	}
}

// Do performs one request and buffers the whole response. Statuses outside
// 200-299 yield a *ClientError; a successful response whose JSON body cannot
// be decoded yields a *ParseError.
func (c *Client) Do(ctx context.Context, method, url string, cfg *Config) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := c.resolveURL(url, cfg)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	body, contentType, err := cfg.encodeBody()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	timeout := c.timeout
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	c.setHeaders(httpReq, cfg, contentType)
	requestID := httpReq.Header.Get(RequestIDHeader)

	c.logger.Debug().
		Str("method", method).
		Str("url", target).
		Str("request_id", requestID).
		Msg("sending http request")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(method, target, timeout, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		return nil, c.transportError(method, target, timeout, fmt.Errorf("read body: %w", err))
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Raw:        raw,
		Duration:   duration,
		RequestID:  requestID,
	}
	decodeErr := resp.decodeBody(cfg.DecodeJSON())

	c.logger.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("http response")

	if !resp.IsSuccess() {
		return nil, &ClientError{StatusCode: resp.StatusCode, Response: resp}
	}
	if decodeErr != nil {
		return nil, &ParseError{Response: resp, Err: decodeErr}
	}
	return resp, nil
}

func (c *Client) resolveURL(url string, cfg *Config) (string, error) {
	if url == "" {
		return "", ErrEmptyURL
	}

	u, err := neturl.Parse(url)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if c.baseURL != nil && !u.IsAbs() {
		url = c.baseURL.ResolveReference(u).String()
	}

	if err := ValidateURL(url); err != nil {
		return "", err
	}

	var params Params
	if cfg != nil {
		params = cfg.Params
	}
	return BuildURL(url, params)
}

func (c *Client) setHeaders(req *http.Request, cfg *Config, contentType string) {
	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if cfg != nil && cfg.Auth != nil {
		req.Header.Set("Authorization", cfg.Auth.header())
	}

	if c.requestID {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if cfg != nil {
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}
	}
}

func (c *Client) transportError(method, url string, timeout time.Duration, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.logger.Warn().
			Str("method", method).
			Str("url", url).
			Dur("timeout", timeout).
			Msg("http request timed out")
		return &TimeoutError{Method: method, URL: url, Timeout: timeout, Err: err}
	}

	c.logger.Warn().
		Str("method", method).
		Str("url", url).
		Err(err).
		Msg("http request failed")
	return &TransportError{Method: method, URL: url, Err: err}
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}

func bodyOf(resp *Response, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Get performs a GET request and returns the decoded body.
func (c *Client) Get(ctx context.Context, url string, cfg *Config) (any, error) {
	return bodyOf(c.Do(ctx, http.MethodGet, url, cfg))
}

// Post performs a POST request and returns the decoded body.
func (c *Client) Post(ctx context.Context, url string, cfg *Config) (any, error) {
	return bodyOf(c.Do(ctx, http.MethodPost, url, cfg))
}

// Put performs a PUT request and returns the decoded body.
func (c *Client) Put(ctx context.Context, url string, cfg *Config) (any, error) {
	return bodyOf(c.Do(ctx, http.MethodPut, url, cfg))
}

// Delete performs a DELETE request and returns the decoded body.
func (c *Client) Delete(ctx context.Context, url string, cfg *Config) (any, error) {
	return bodyOf(c.Do(ctx, http.MethodDelete, url, cfg))
}

func (c *Client) GetResponse(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url, cfg)
}

func (c *Client) PostResponse(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Do(ctx, http.MethodPost, url, cfg)
}

func (c *Client) PutResponse(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Do(ctx, http.MethodPut, url, cfg)
}

func (c *Client) DeleteResponse(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, url, cfg)
}
