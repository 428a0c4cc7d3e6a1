package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors returned by the client.
var (
	// ErrCancelled is returned when the invocation context is cancelled or
	// times out while a request or backoff is in flight.
	ErrCancelled = errors.New("request cancelled")
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is a terminal non-2xx response from Jira.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("Jira API request failed with status %d: %s", e.StatusCode, e.Message)
}

// TransportError is a failure before any HTTP response was received.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// cancelled wraps the context error so that both ErrCancelled and
// context.Canceled / context.DeadlineExceeded match.
func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}

// CheckResponse returns nil for 2xx responses and an *APIError otherwise.
func CheckResponse(resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorClass: classifyStatus(resp.StatusCode),
		Message:    extractMessage(resp.Body),
	}
}

// errorBody is the error shape Jira returns for failed requests.
type errorBody struct {
	ErrorMessages []string `json:"errorMessages"`
	Message       string   `json:"message"`
}

// extractMessage prefers errorMessages, then message, then the raw body.
func extractMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if len(eb.ErrorMessages) > 0 {
			return strings.Join(eb.ErrorMessages, "; ")
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	return string(body)
}

// classifyStatus categorizes a non-2xx status for observability and retry.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error class is retried by the RetryPolicy.
// Client, server and network failures are surfaced immediately.
func shouldRetry(errorClass ErrorClass) bool {
	return errorClass == ErrorClassRateLimit
}
