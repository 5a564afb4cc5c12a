package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/BenWassa/hearth/internal/config"
	"github.com/BenWassa/hearth/internal/log"
	"github.com/BenWassa/hearth/internal/provider"
)

const (
	providerName = "tmdb"

	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/"
	DefaultTimeout      = 7000 * time.Millisecond

	// Response bodies beyond this are truncated before parsing.
	maxBodyBytes = 8 << 20
)

// Client implements provider.Client against the TMDB v3 API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	imageBaseURL string
	bearerToken  string
	apiKey       string
	timeout      time.Duration
	pacer        *pacer
	logger       *zap.Logger
}

var _ provider.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for upstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the API root, mostly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithImageBaseURL overrides the image CDN root.
func WithImageBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.imageBaseURL = base
		}
	}
}

// WithBearerToken sets the v4 read access token. It takes precedence over
// an API key.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.bearerToken = token
	}
}

// WithAPIKey sets the v3 API key.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout bounds every upstream call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPacing limits outbound calls to maxRequests per window. A
// non-positive maxRequests disables pacing.
func WithPacing(maxRequests int, window time.Duration) Option {
	return func(c *Client) {
		c.pacer = newPacer(maxRequests, window)
	}
}

// WithLogger sets the logger for upstream failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = log.OrNop(logger)
	}
}

// New creates a TMDB client. Without credentials every call fails with
// INTERNAL_ERROR and no request is sent.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:   http.DefaultClient,
		baseURL:      DefaultBaseURL,
		imageBaseURL: DefaultImageBaseURL,
		timeout:      DefaultTimeout,
		pacer:        newPacer(40, 10*time.Second),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from service configuration.
func NewFromConfig(cfg *config.Config, logger *zap.Logger, opts ...Option) *Client {
	base := []Option{
		WithBearerToken(cfg.TMDBBearerToken),
		WithAPIKey(cfg.TMDBAPIKey),
		WithTimeout(cfg.TMDBTimeout()),
		WithPacing(cfg.TMDBOutboundMaxRequests, cfg.TMDBOutboundWindow()),
		WithLogger(logger),
	}
	return New(append(base, opts...)...)
}

// Name returns the provider name
func (c *Client) Name() string {
	return providerName
}

func timeoutError() *provider.UpstreamError {
	return provider.NewError(provider.CodeUpstreamUnavailable, "Upstream request timeout")
}

func transportError() *provider.UpstreamError {
	return provider.NewError(provider.CodeUpstreamUnavailable, "Upstream request failed")
}

// callUpstream performs one GET against the API and returns the JSON body.
// A body that is not valid JSON is replaced by an empty object. Every
// failure is an *provider.UpstreamError.
func (c *Client) callUpstream(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if c.bearerToken == "" && c.apiKey == "" {
		return nil, provider.NewError(provider.CodeInternalError, "TMDB credentials are not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.pacer.wait(ctx); err != nil {
		return nil, timeoutError()
	}

	query := url.Values{}
	for k, v := range params {
		if v != "" {
			query.Set(k, v)
		}
	}
	if c.bearerToken == "" {
		query.Set("api_key", c.apiKey)
	}
	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, provider.NewError(provider.CodeInternalError, "Failed to build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		e := classifyTransportError(ctx, err)
		c.logger.Warn("tmdb request failed", zap.String("path", path), zap.Error(err))
		return nil, e
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		e := classifyTransportError(ctx, err)
		c.logger.Warn("tmdb response read failed", zap.String("path", path), zap.Error(err))
		return nil, e
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := provider.MapStatus(resp.StatusCode, string(body))
		c.logger.Warn("tmdb returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", string(e.Code)))
		return nil, e
	}
	if !json.Valid(body) {
		return []byte("{}"), nil
	}
	return body, nil
}

func classifyTransportError(ctx context.Context, err error) *provider.UpstreamError {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return timeoutError()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeoutError()
	}
	return transportError()
}

// decode fills v from body as far as the body allows. Type mismatches
// leave the affected fields at their zero value.
func decode(body []byte, v any) {
	_ = json.Unmarshal(body, v)
}
