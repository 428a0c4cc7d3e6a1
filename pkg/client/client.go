// Package client provides the Jira HTTP client: a single-exchange transport
// with basic authentication, wrapped in a 429-aware retry policy.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/jira-search-client/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultUserAgent identifies the client to Jira.
const DefaultUserAgent = "jira-search-client/0.1.0"

// Prometheus metrics for Jira client operations.
var (
	jiraRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_requests_total",
		Help: "Total Jira search requests by HTTP method and status",
	}, []string{"method", "status"})

	jiraRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jira_request_duration_seconds",
		Help:    "Jira request duration in seconds including retries",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method"})

	jiraErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_errors_total",
		Help: "Total Jira errors by class",
	}, []string{"class"})
)

// Client is the Jira search client.
type Client struct {
	transport *HTTPTransport
	retry     *RetryPolicy
	config    Config
	logger    zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Basic authentication (REQUIRED)
	Email    string
	APIToken string

	// User-Agent header
	UserAgent string

	// Timeout bounds a single HTTP exchange; the caller's context bounds
	// the whole invocation.
	Timeout time.Duration

	// Retry on 429
	Retry RetryConfig

	Logger zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(email, apiToken string) Config {
	return Config{
		Email:     email,
		APIToken:  apiToken,
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
		Logger:    log.With().Str("component", "jira-client").Logger(),
	}
}

// New creates a new Jira client.
func New(cfg Config) (*Client, error) {
	if cfg.Email == "" {
		return nil, fmt.Errorf("user email is required")
	}

	if cfg.APIToken == "" {
		return nil, fmt.Errorf("api token is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}

	return &Client{
		transport: NewHTTPTransport(httpClient, cfg.Email, cfg.APIToken, cfg.UserAgent),
		retry:     NewRetryPolicy(cfg.Retry, cfg.Logger),
		config:    cfg,
		logger:    cfg.Logger,
	}, nil
}

// Do sends req through the retry policy and returns the final response.
// Non-2xx statuses are returned, not converted to errors; use
// CheckResponse to classify them.
func (c *Client) Do(ctx context.Context, req search.Request) (*Response, error) {
	method := req.HTTPMethod()

	startTime := time.Now()
	defer func() {
		jiraRequestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("method", method).
		Str("url", req.URL).
		Msg("Executing Jira request")

	resp, err := c.retry.Execute(ctx, func(ctx context.Context) (*Response, error) {
		return c.transport.Send(ctx, req)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCancelled):
			jiraRequestsTotal.WithLabelValues(method, "cancelled").Inc()
		default:
			jiraErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			jiraRequestsTotal.WithLabelValues(method, "network_error").Inc()
		}
		c.logger.Error().Err(err).Str("method", method).Msg("Jira request failed")
		return nil, err
	}

	jiraRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	if errClass := classifyStatus(resp.StatusCode); errClass != "" {
		jiraErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("method", method).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Jira request error")
	}

	return resp, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.transport.httpClient = httpClient
}
