package client

import (
	"context"
	"errors"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{
			name:       "client error should not retry",
			errorClass: ErrorClassClient,
			expected:   false,
		},
		{
			name:       "server error should not retry",
			errorClass: ErrorClassServer,
			expected:   false,
		},
		{
			name:       "rate limit should retry",
			errorClass: ErrorClassRateLimit,
			expected:   true,
		},
		{
			name:       "network error should not retry",
			errorClass: ErrorClassNetwork,
			expected:   false,
		},
		{
			name:       "empty error class should not retry",
			errorClass: "",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shouldRetry(tt.errorClass)
			if result != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, result, tt.expected)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{200, ""},
		{204, ""},
		{400, ErrorClassClient},
		{401, ErrorClassClient},
		{403, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.expected {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectError bool
		message     string
	}{
		{
			name:   "200 ok",
			status: 200,
			body:   `{"issues":[]}`,
		},
		{
			name:   "299 upper bound of success",
			status: 299,
		},
		{
			name:        "error messages joined",
			status:      400,
			body:        `{"errorMessages":["Field 'foo' does not exist","Bad JQL"],"message":"ignored"}`,
			expectError: true,
			message:     "Field 'foo' does not exist; Bad JQL",
		},
		{
			name:        "generic message field",
			status:      401,
			body:        `{"message":"Client must be authenticated"}`,
			expectError: true,
			message:     "Client must be authenticated",
		},
		{
			name:        "empty errorMessages falls back to message",
			status:      403,
			body:        `{"errorMessages":[],"message":"Forbidden"}`,
			expectError: true,
			message:     "Forbidden",
		},
		{
			name:        "non json body verbatim",
			status:      502,
			body:        "<html>Bad Gateway</html>",
			expectError: true,
			message:     "<html>Bad Gateway</html>",
		},
		{
			name:        "json without known fields verbatim",
			status:      500,
			body:        `{"status":"down"}`,
			expectError: true,
			message:     `{"status":"down"}`,
		},
		{
			name:        "3xx is not success",
			status:      302,
			body:        "moved",
			expectError: true,
			message:     "moved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckResponse(&Response{StatusCode: tt.status, Body: []byte(tt.body)})

			if !tt.expectError {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.message {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.message)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 404, ErrorClass: ErrorClassClient, Message: "Issue does not exist"}
	expected := "Jira API request failed with status 404: Issue does not exist"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &TransportError{Err: inner}

	if !errors.Is(err, inner) {
		t.Error("TransportError should unwrap to the inner error")
	}
	if err.Error() != "transport error: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cancelled(ctx)
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
