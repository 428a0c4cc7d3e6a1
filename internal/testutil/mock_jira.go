// Package testutil provides testing utilities for the Jira search client.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockJiraResponse defines one scripted response of the mock search endpoint.
type MockJiraResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is a request received by MockJira.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// PageToken returns the nextPageToken carried by the request, from the URL
// for GET and from the JSON body for POST.
func (r RecordedRequest) PageToken() string {
	if r.Method == http.MethodPost {
		var body struct {
			NextPageToken string `json:"nextPageToken"`
		}
		_ = json.Unmarshal(r.Body, &body)
		return body.NextPageToken
	}
	return r.Query.Get("nextPageToken")
}

// MockJira is a configurable mock Jira server for testing. Scripted
// responses are served in order, one per request.
type MockJira struct {
	server    *httptest.Server
	mu        sync.Mutex
	responses []MockJiraResponse
	handler   func(w http.ResponseWriter, r *http.Request)

	requests []RecordedRequest
}

// NewMockJira creates a new mock Jira server.
func NewMockJira() *MockJira {
	mock := &MockJira{}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		handler := mock.handler
		var resp *MockJiraResponse
		if handler == nil && len(mock.responses) > 0 {
			resp = &mock.responses[0]
			mock.responses = mock.responses[1:]
		}
		mock.mu.Unlock()

		if handler != nil {
			r.Body = io.NopCloser(bytes.NewReader(body))
			handler(w, r)
			return
		}
		if resp == nil {
			http.Error(w, `{"errorMessages":["no scripted response"]}`, http.StatusInternalServerError)
			return
		}
		writeResponse(w, r, *resp)
	}))

	return mock
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp MockJiraResponse) {
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// URL returns the mock server URL.
func (m *MockJira) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockJira) Close() {
	m.server.Close()
}

// Reset clears scripted responses and recorded requests.
func (m *MockJira) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
	m.handler = nil
	m.requests = nil
}

// SetResponses queues responses served in order.
func (m *MockJira) SetResponses(responses ...MockJiraResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// SetHandler replaces scripted responses with a custom handler. The
// handler sees the full request body.
func (m *MockJira) SetHandler(handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockJira) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// GetRequests returns a copy of the recorded requests.
func (m *MockJira) GetRequests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// NewPageResponse creates a 200 OK search page holding issues with the given
// ids. An empty nextPageToken marks the last page.
func NewPageResponse(nextPageToken string, ids ...string) MockJiraResponse {
	issues := make([]map[string]any, len(ids))
	for i, id := range ids {
		issues[i] = map[string]any{
			"id":     id,
			"key":    id,
			"fields": map[string]any{"summary": fmt.Sprintf("Issue %s", id)},
		}
	}

	page := map[string]any{"issues": issues}
	if nextPageToken != "" {
		page["nextPageToken"] = nextPageToken
	}

	data, _ := json.Marshal(page)
	return MockJiraResponse{
		StatusCode: http.StatusOK,
		Body:       string(data),
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockJiraResponse {
	return MockJiraResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message":"Rate limit exceeded"}`,
		Headers:    map[string]string{"Retry-After": "1"},
	}
}

// NewErrorResponse creates an error response with Jira's errorMessages shape.
func NewErrorResponse(status int, messages ...string) MockJiraResponse {
	data, _ := json.Marshal(map[string]any{
		"errorMessages": messages,
		"errors":        map[string]string{},
	})
	return MockJiraResponse{
		StatusCode: status,
		Body:       string(data),
	}
}
