package search

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Path is the JQL search endpoint relative to the Jira base URL.
const Path = "/rest/api/3/search/jql"

// Request is an encoded search request. Body is nil for MethodGet; for
// MethodPost the query lives in Body and URL carries no parameters.
type Request struct {
	Method Method
	URL    string
	Body   []byte
}

// HTTPMethod returns the HTTP verb for the request.
func (r Request) HTTPMethod() string {
	if r.Method == MethodPost {
		return http.MethodPost
	}
	return http.MethodGet
}

// Encoder turns queries into requests against one Jira site.
type Encoder struct {
	endpoint string
}

// NewEncoder creates an encoder for baseURL. Trailing slashes are removed.
func NewEncoder(baseURL string) *Encoder {
	return &Encoder{endpoint: NormalizeBaseURL(baseURL) + Path}
}

// NormalizeBaseURL strips all trailing '/' characters.
func NormalizeBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}

// Endpoint returns the absolute search URL without parameters.
func (e *Encoder) Endpoint() string {
	return e.endpoint
}

// Encode builds the request for q using m. MethodAuto is resolved through
// SelectMethod first.
func (e *Encoder) Encode(q Query, m Method) (Request, error) {
	if m == MethodAuto {
		resolved, err := SelectMethod(e, q, m)
		if err != nil {
			return Request{}, err
		}
		m = resolved
	}

	switch m {
	case MethodGet:
		target, err := e.encodeURL(q)
		if err != nil {
			return Request{}, err
		}
		return Request{Method: MethodGet, URL: target}, nil
	case MethodPost:
		body, err := e.encodeBody(q)
		if err != nil {
			return Request{}, err
		}
		return Request{Method: MethodPost, URL: e.endpoint, Body: body}, nil
	default:
		return Request{}, &ConfigError{Field: "method", Reason: fmt.Sprintf("invalid HTTP method: %s", m)}
	}
}

func (e *Encoder) encodeURL(q Query) (string, error) {
	if err := q.validate(); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("jql", q.JQL)
	if q.NextPageToken != "" {
		params.Set("nextPageToken", q.NextPageToken)
	}
	if q.MaxResults > 0 {
		params.Set("maxResults", strconv.Itoa(q.MaxResults))
	}
	if len(q.Fields) > 0 {
		params.Set("fields", strings.Join(q.Fields, ","))
	}
	if len(q.Expand) > 0 {
		params.Set("expand", strings.Join(q.Expand, ","))
	}
	if len(q.Properties) > 0 {
		params.Set("properties", strings.Join(q.Properties, ","))
	}
	if q.FieldsByKeys {
		params.Set("fieldsByKeys", strconv.FormatBool(q.FieldsByKeys))
	}
	if q.FailFast {
		params.Set("failFast", strconv.FormatBool(q.FailFast))
	}
	if len(q.ReconcileIssues) > 0 {
		params.Set("reconcileIssues", joinInts(q.ReconcileIssues, ","))
	}

	return e.endpoint + "?" + params.Encode(), nil
}

// searchBody is the POST payload. Expand is a ", "-joined string while the
// other lists stay JSON arrays; Jira accepts it in that shape.
type searchBody struct {
	JQL             string   `json:"jql"`
	NextPageToken   string   `json:"nextPageToken,omitempty"`
	MaxResults      int      `json:"maxResults,omitempty"`
	Fields          []string `json:"fields,omitempty"`
	Expand          string   `json:"expand,omitempty"`
	Properties      []string `json:"properties,omitempty"`
	FieldsByKeys    bool     `json:"fieldsByKeys,omitempty"`
	FailFast        bool     `json:"failFast,omitempty"`
	ReconcileIssues []int    `json:"reconcileIssues,omitempty"`
}

func (e *Encoder) encodeBody(q Query) ([]byte, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	body := searchBody{
		JQL:             q.JQL,
		NextPageToken:   q.NextPageToken,
		MaxResults:      q.MaxResults,
		Fields:          q.Fields,
		Expand:          strings.Join(q.Expand, ", "),
		Properties:      q.Properties,
		FieldsByKeys:    q.FieldsByKeys,
		FailFast:        q.FailFast,
		ReconcileIssues: q.ReconcileIssues,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}
	return data, nil
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
