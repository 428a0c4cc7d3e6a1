package client

import (
	"context"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	jiraRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	jiraRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jira_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"error_class"})

	jiraRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jira_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first request.
	// Zero selects the default; a negative value disables retries.
	MaxRetries int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration: three retries
// after 1s, 2s and 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryPolicy re-issues a request while Jira answers 429 Too Many Requests.
// Every other status and every error ends the loop immediately.
type RetryPolicy struct {
	config RetryConfig
	logger zerolog.Logger

	// sleep suspends for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a retry policy. Zero fields fall back to
// DefaultRetryConfig; a negative MaxRetries disables retries.
func NewRetryPolicy(config RetryConfig, logger zerolog.Logger) *RetryPolicy {
	defaults := DefaultRetryConfig()
	switch {
	case config.MaxRetries == 0:
		config.MaxRetries = defaults.MaxRetries
	case config.MaxRetries < 0:
		config.MaxRetries = 0
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = defaults.BackoffMultiplier
	}

	return &RetryPolicy{
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Config returns the retry configuration.
func (p *RetryPolicy) Config() RetryConfig {
	return p.config
}

// Backoff returns the delay before retry k (k >= 1).
func (p *RetryPolicy) Backoff(k int) time.Duration {
	multiplier := math.Pow(p.config.BackoffMultiplier, float64(k-1))
	return time.Duration(float64(p.config.InitialBackoff) * multiplier)
}

// Execute runs fn and retries it on 429 responses. When retries are
// exhausted the last 429 response is returned as-is for the caller to
// classify.
func (p *RetryPolicy) Execute(ctx context.Context, fn func(context.Context) (*Response, error)) (*Response, error) {
	for retry := 0; ; retry++ {
		resp, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		errClass := classifyStatus(resp.StatusCode)
		if !shouldRetry(errClass) {
			if retry > 0 {
				p.logger.Info().
					Int("status", resp.StatusCode).
					Int("retries", retry).
					Msg("Request completed after retry")
			}
			return resp, nil
		}

		if retry >= p.config.MaxRetries {
			jiraRetryExhaustedTotal.WithLabelValues(string(errClass)).Inc()
			p.logger.Warn().
				Str("error_class", string(errClass)).
				Int("max_retries", p.config.MaxRetries).
				Msg("Retry attempts exhausted")
			return resp, nil
		}

		delay := p.Backoff(retry + 1)
		jiraRetriesTotal.WithLabelValues(string(errClass)).Inc()
		jiraRetryBackoffSeconds.WithLabelValues(string(errClass)).Observe(delay.Seconds())

		p.logger.Warn().
			Str("error_class", string(errClass)).
			Int("attempt", retry+1).
			Dur("backoff", delay).
			Msg("Rate limited, retrying after backoff")

		if err := p.sleep(ctx, delay); err != nil {
			p.logger.Warn().
				Int("attempt", retry+1).
				Msg("Context cancelled during retry backoff")
			return nil, err
		}
	}
}

// sleepContext waits for d, returning early with ErrCancelled when ctx ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return cancelled(ctx)
	case <-timer.C:
		return nil
	}
}
