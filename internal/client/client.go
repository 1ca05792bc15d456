package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/resilience"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// TokenRequest is the body of POST /get-token. Cookies is either a
// "name=value; ..." string or a list of cookie objects.
type TokenRequest struct {
	Cookies interface{} `json:"cookies"`
	URL     string      `json:"url"`
	Proxy   string      `json:"proxy,omitempty"`
	AwardID int64       `json:"awardId,omitempty"`
}

// TokenResponse covers both the success and the error shape
type TokenResponse struct {
	Success  bool            `json:"success"`
	Token    string          `json:"token,omitempty"`
	Error    string          `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Log      []string        `json:"log"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Browser struct {
		Breaker string `json:"breaker"`
		Active  int    `json:"active"`
	} `json:"browser"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	Stats         struct {
		TotalRequests int64 `json:"total_requests"`
		TotalErrors   int64 `json:"total_errors"`
		TokensIssued  int64 `json:"tokens_issued"`
		TokenFailures int64 `json:"token_failures"`
	} `json:"stats"`
}

// APIError is returned for non-2xx responses
type APIError struct {
	Status   int
	Message  string
	Response json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Options configures a Client
type Options struct {
	Timeout time.Duration
	// Retries applies to health checks only. POST /get-token is never
	// retried since the server may still be running the first attempt.
	Retries int
	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64
}

// DefaultOptions matches the server's worst case run time
func DefaultOptions() Options {
	return Options{
		Timeout: 3 * time.Minute,
		Retries: 2,
	}
}

// Client talks to a running award token server
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	Mu      sync.RWMutex
}

// New creates a client for the server at baseURL
func New(baseURL string, opts Options) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", "tokenctl/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("awardtoken-server", resilience.Settings{
		Cooldown: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	c := &Client{
		Resty:   restyClient,
		Limiter: rate.NewLimiter(rate.Inf, 0),
		Breaker: breaker,
	}
	c.SetRateLimit(opts.RateLimit)
	return c
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Request creates a new request with rate limiting and circuit breaker protection
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	return c.Resty.R().SetContext(ctx), nil
}

// execute runs fn under the breaker. Transport errors and 503 count as
// failures; any other answer means the server is alive.
func (c *Client) execute(fn func() (*resty.Response, error)) (*resty.Response, error) {
	return resilience.Do(c.Breaker, func() (*resty.Response, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == http.StatusServiceUnavailable {
			return resp, &APIError{Status: resp.StatusCode()}
		}
		return resp, nil
	})
}

// GetToken asks the server for a token. A non-2xx answer returns the
// decoded body together with an *APIError so callers can still read the log.
func (c *Client) GetToken(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	r, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	// a timed out run may still be holding a browser on the server
	r.AddRetryCondition(func(*resty.Response, error) bool { return false })

	var out TokenResponse
	resp, err := c.execute(func() (*resty.Response, error) {
		return r.
			SetBody(req).
			SetResult(&out).
			SetError(&out).
			Post("/get-token")
	})

	var apiErr *APIError
	if err != nil && !errors.As(err, &apiErr) {
		return nil, err
	}
	if resp.IsError() {
		return &out, &APIError{
			Status:   resp.StatusCode(),
			Message:  out.Error,
			Response: out.Response,
		}
	}
	return &out, nil
}

// Health fetches the server health report
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	r, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	var out HealthResponse
	resp, err := c.execute(func() (*resty.Response, error) {
		return r.SetResult(&out).Get("/health")
	})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode()}
	}
	return &out, nil
}
