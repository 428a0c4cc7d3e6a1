package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/Sternrassler/jira-search-client/pkg/search"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// HTTPTransport performs exactly one HTTP exchange per Send call. It never
// retries and never interprets status codes.
type HTTPTransport struct {
	httpClient    *http.Client
	authorization string
	userAgent     string
}

// NewHTTPTransport creates a transport that authenticates with HTTP Basic.
func NewHTTPTransport(httpClient *http.Client, email, apiToken, userAgent string) *HTTPTransport {
	return &HTTPTransport{
		httpClient:    httpClient,
		authorization: BasicAuth(email, apiToken),
		userAgent:     userAgent,
	}
}

// BasicAuth returns the Authorization header value for email and apiToken.
func BasicAuth(email, apiToken string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+apiToken))
}

// Send executes req. Connection failures return *TransportError, context
// cancellation returns an error wrapping ErrCancelled.
func (t *HTTPTransport) Send(ctx context.Context, req search.Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.HTTPMethod(), req.URL, body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	httpReq.Header.Set("Authorization", t.authorization)
	httpReq.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		return nil, &TransportError{Err: err}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
