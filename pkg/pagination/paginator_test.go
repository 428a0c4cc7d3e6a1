package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/jira-search-client/internal/testutil"
	"github.com/Sternrassler/jira-search-client/pkg/client"
	"github.com/Sternrassler/jira-search-client/pkg/search"
	"github.com/rs/zerolog"
)

const baseURL = "https://company.atlassian.net"

// fakeFetcher serves scripted responses and records every request.
type fakeFetcher struct {
	responses []*client.Response
	errs      []error
	requests  []search.Request
}

func (f *fakeFetcher) Do(_ context.Context, req search.Request) (*client.Response, error) {
	i := len(f.requests)
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		return nil, fmt.Errorf("unexpected request %d", i+1)
	}
	return f.responses[i], nil
}

func ok(body string) *client.Response {
	return &client.Response{StatusCode: http.StatusOK, Body: []byte(body)}
}

// pageBody builds a search page with the given ids and token.
func pageBody(token string, ids ...string) *client.Response {
	issues := make([]map[string]string, len(ids))
	for i, id := range ids {
		issues[i] = map[string]string{"id": id}
	}
	body := map[string]any{"issues": issues}
	if token != "" {
		body["nextPageToken"] = token
	}
	data, _ := json.Marshal(body)
	return ok(string(data))
}

func ids(t *testing.T, records []json.RawMessage) []string {
	t.Helper()
	out := make([]string, len(records))
	for i, r := range records {
		var issue struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(r, &issue); err != nil {
			t.Fatalf("unmarshal record %d: %v", i, err)
		}
		out[i] = issue.ID
	}
	return out
}

func tokenOf(t *testing.T, req search.Request) string {
	t.Helper()
	if req.Method == search.MethodPost {
		var body struct {
			NextPageToken string `json:"nextPageToken"`
		}
		if err := json.Unmarshal(req.Body, &body); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return body.NextPageToken
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	return u.Query().Get("nextPageToken")
}

func newPaginator(f Fetcher, cfg Config) *Paginator {
	return New(f, search.NewEncoder(baseURL), cfg, zerolog.Nop())
}

func TestFetchAll_SinglePage(t *testing.T) {
	f := &fakeFetcher{responses: []*client.Response{
		ok(`{"issues":[{"id":"PROJ-1"}],"total":1}`),
	}}
	p := newPaginator(f, Config{Method: search.MethodGet})

	issues, err := p.FetchAll(context.Background(), search.Query{JQL: "project = TEST", MaxResults: 50})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if len(issues) != 1 || string(issues[0]) != `{"id":"PROJ-1"}` {
		t.Errorf("issues = %s, want [{\"id\":\"PROJ-1\"}]", issues)
	}
	if len(f.requests) != 1 {
		t.Errorf("Expected 1 request, got %d", len(f.requests))
	}
	if tokenOf(t, f.requests[0]) != "" {
		t.Error("first request must not carry a page token")
	}
}

func TestFetchAll_TwoPages(t *testing.T) {
	for _, method := range []search.Method{search.MethodGet, search.MethodPost} {
		t.Run(string(method), func(t *testing.T) {
			f := &fakeFetcher{responses: []*client.Response{
				pageBody("tok-123", "PROJ-1", "PROJ-2"),
				pageBody("", "PROJ-3"),
			}}
			p := newPaginator(f, Config{Method: method})

			issues, err := p.FetchAll(context.Background(), search.Query{JQL: "project = TEST"})
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}

			got := strings.Join(ids(t, issues), ",")
			if got != "PROJ-1,PROJ-2,PROJ-3" {
				t.Errorf("ids = %s, want PROJ-1,PROJ-2,PROJ-3", got)
			}
			if len(f.requests) != 2 {
				t.Fatalf("Expected 2 requests, got %d", len(f.requests))
			}
			if tok := tokenOf(t, f.requests[1]); tok != "tok-123" {
				t.Errorf("second request token = %q, want tok-123", tok)
			}
			for _, req := range f.requests {
				if req.Method != method {
					t.Errorf("request method = %q, want %q", req.Method, method)
				}
			}
		})
	}
}

func TestFetchAll_TokenChain(t *testing.T) {
	const pages = 6
	responses := make([]*client.Response, pages)
	var want []string
	for i := 0; i < pages; i++ {
		token := ""
		if i < pages-1 {
			token = fmt.Sprintf("tok-%d", i+1)
		}
		a, b := fmt.Sprintf("P-%d-a", i), fmt.Sprintf("P-%d-b", i)
		responses[i] = pageBody(token, a, b)
		want = append(want, a, b)
	}

	f := &fakeFetcher{responses: responses}
	issues, err := newPaginator(f, DefaultConfig()).FetchAll(context.Background(), search.Query{JQL: "x"})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if len(f.requests) != pages {
		t.Errorf("Expected %d requests, got %d", pages, len(f.requests))
	}
	if strings.Join(ids(t, issues), ",") != strings.Join(want, ",") {
		t.Errorf("ids = %v, want %v", ids(t, issues), want)
	}
	for i := 1; i < pages; i++ {
		if tok := tokenOf(t, f.requests[i]); tok != fmt.Sprintf("tok-%d", i) {
			t.Errorf("request %d token = %q, want tok-%d", i+1, tok, i)
		}
	}
}

func TestFetchAll_EmptyPageTerminates(t *testing.T) {
	tests := []struct {
		name      string
		responses []*client.Response
		wantIDs   string
		wantReqs  int
	}{
		{
			name:      "empty first page with token",
			responses: []*client.Response{pageBody("tok-1")},
			wantIDs:   "",
			wantReqs:  1,
		},
		{
			name: "empty second page with token",
			responses: []*client.Response{
				pageBody("tok-1", "PROJ-1"),
				pageBody("tok-2"),
			},
			wantIDs:  "PROJ-1",
			wantReqs: 2,
		},
		{
			name:      "missing issues field",
			responses: []*client.Response{ok(`{"nextPageToken":"tok-1"}`)},
			wantIDs:   "",
			wantReqs:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{responses: tt.responses}
			issues, err := newPaginator(f, DefaultConfig()).FetchAll(context.Background(), search.Query{JQL: "x"})
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}
			if issues == nil {
				t.Error("issues should be empty, not nil")
			}
			if got := strings.Join(ids(t, issues), ","); got != tt.wantIDs {
				t.Errorf("ids = %q, want %q", got, tt.wantIDs)
			}
			if len(f.requests) != tt.wantReqs {
				t.Errorf("Expected %d requests, got %d", tt.wantReqs, len(f.requests))
			}
		})
	}
}

func TestFetchAll_FullPageWithoutTokenTerminates(t *testing.T) {
	f := &fakeFetcher{responses: []*client.Response{pageBody("", "1", "2")}}

	issues, err := newPaginator(f, DefaultConfig()).FetchAll(context.Background(), search.Query{JQL: "x", MaxResults: 2})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(issues) != 2 || len(f.requests) != 1 {
		t.Errorf("got %d issues over %d requests, want 2 over 1", len(issues), len(f.requests))
	}
}

func TestFetchAll_LimitTruncates(t *testing.T) {
	f := &fakeFetcher{responses: []*client.Response{
		pageBody("tok-1", "1", "2", "3"),
		pageBody("tok-2", "4", "5", "6"),
		pageBody("", "7"),
	}}
	p := newPaginator(f, Config{Method: search.MethodGet, Limit: 4})

	issues, err := p.FetchAll(context.Background(), search.Query{JQL: "x", MaxResults: 3})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if got := strings.Join(ids(t, issues), ","); got != "1,2,3,4" {
		t.Errorf("ids = %s, want 1,2,3,4", got)
	}
	if len(f.requests) != 2 {
		t.Errorf("Expected 2 requests (stop at limit), got %d", len(f.requests))
	}
}

func TestFetchAll_APIErrorNoPartialResults(t *testing.T) {
	for _, status := range []int{401, 403, 404, 500} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			f := &fakeFetcher{responses: []*client.Response{
				pageBody("tok-1", "PROJ-1"),
				{StatusCode: status, Body: []byte(`{"errorMessages":["nope"]}`)},
			}}

			issues, err := newPaginator(f, DefaultConfig()).FetchAll(context.Background(), search.Query{JQL: "x"})
			if issues != nil {
				t.Errorf("Expected no partial results, got %s", issues)
			}

			var apiErr *client.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *client.APIError, got %v", err)
			}
			if apiErr.StatusCode != status || apiErr.Message != "nope" {
				t.Errorf("APIError = %+v", apiErr)
			}
			if len(f.requests) != 2 {
				t.Errorf("Expected 2 requests, got %d", len(f.requests))
			}
		})
	}
}

func TestFetchAll_FetchError(t *testing.T) {
	transportErr := &client.TransportError{Err: errors.New("connection reset")}
	f := &fakeFetcher{
		responses: []*client.Response{pageBody("tok-1", "PROJ-1")},
		errs:      []error{nil, transportErr},
	}

	issues, err := newPaginator(f, DefaultConfig()).FetchAll(context.Background(), search.Query{JQL: "x"})
	if issues != nil {
		t.Errorf("Expected no partial results, got %s", issues)
	}
	if !errors.Is(err, transportErr) {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestFetchAll_DecodeError(t *testing.T) {
	f := &fakeFetcher{responses: []*client.Response{ok(`not json`)}}

	_, err := newPaginator(f, DefaultConfig()).FetchAll(context.Background(), search.Query{JQL: "x"})
	if err == nil || !strings.Contains(err.Error(), "decode page 1") {
		t.Errorf("Expected decode error, got %v", err)
	}
}

func TestFetchAll_ConfigErrorBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		method search.Method
		query  search.Query
	}{
		{"invalid method", search.Method("put"), search.Query{JQL: "x"}},
		{"missing jql", search.MethodAuto, search.Query{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{}
			_, err := newPaginator(f, Config{Method: tt.method}).FetchAll(context.Background(), tt.query)

			if !errors.Is(err, search.ErrInvalidConfig) {
				t.Errorf("Expected config error, got %v", err)
			}
			if len(f.requests) != 0 {
				t.Errorf("Expected no requests, got %d", len(f.requests))
			}
		})
	}
}

func TestFetchAll_AutoMethodDecidedOnce(t *testing.T) {
	longJQL := "key in (" + strings.Repeat("PROJ-12345, ", 150) + "PROJ-1)"
	f := &fakeFetcher{responses: []*client.Response{
		pageBody("tok-1", "1"),
		pageBody("", "2"),
	}}

	_, err := newPaginator(f, Config{Method: search.MethodAuto}).FetchAll(context.Background(), search.Query{JQL: longJQL})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	for i, req := range f.requests {
		if req.Method != search.MethodPost {
			t.Errorf("request %d method = %q, want post", i+1, req.Method)
		}
	}
}

func TestFetchAll_WithClientAndMockJira(t *testing.T) {
	mock := testutil.NewMockJira()
	defer mock.Close()
	mock.SetResponses(
		testutil.NewPageResponse("tok-123", "PROJ-1", "PROJ-2"),
		testutil.NewRateLimitResponse(),
		testutil.NewPageResponse("", "PROJ-3"),
	)

	cfg := client.DefaultConfig("test@example.com", "token")
	cfg.Logger = zerolog.Nop()
	cfg.Retry.InitialBackoff = time.Millisecond
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	p := New(c, search.NewEncoder(mock.URL()+"/"), DefaultConfig(), zerolog.Nop())
	issues, err := p.FetchAll(context.Background(), search.Query{JQL: "project = TEST", MaxResults: 2})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if got := strings.Join(ids(t, issues), ","); got != "PROJ-1,PROJ-2,PROJ-3" {
		t.Errorf("ids = %s", got)
	}

	requests := mock.GetRequests()
	if len(requests) != 3 {
		t.Fatalf("Expected 3 requests (one retried), got %d", len(requests))
	}
	if requests[1].PageToken() != "tok-123" || requests[2].PageToken() != "tok-123" {
		t.Errorf("retry must resend the same token, got %q and %q", requests[1].PageToken(), requests[2].PageToken())
	}
}

// echoTokenHandler serves a three-page chain keyed on the incoming token:
// "" -> tok-a -> tok-b -> end. Unknown tokens get a 400.
func echoTokenHandler(t *testing.T) func(w http.ResponseWriter, r *http.Request) {
	pages := map[string]struct {
		next string
		id   string
	}{
		"":      {next: "tok-a", id: "PROJ-1"},
		"tok-a": {next: "tok-b", id: "PROJ-2"},
		"tok-b": {id: "PROJ-3"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("nextPageToken")
		if r.Method == http.MethodPost {
			var body struct {
				NextPageToken string `json:"nextPageToken"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode POST body: %v", err)
			}
			token = body.NextPageToken
		}

		page, ok := pages[token]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"errorMessages":["unknown token %s"]}`, token)
			return
		}

		resp := map[string]any{"issues": []map[string]string{{"id": page.id}}}
		if page.next != "" {
			resp["nextPageToken"] = page.next
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestFetchAll_TokenEchoedByServer(t *testing.T) {
	mock := testutil.NewMockJira()
	defer mock.Close()

	cfg := client.DefaultConfig("test@example.com", "token")
	cfg.Logger = zerolog.Nop()
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	for _, method := range []search.Method{search.MethodGet, search.MethodPost} {
		t.Run(string(method), func(t *testing.T) {
			mock.Reset()
			mock.SetHandler(echoTokenHandler(t))

			p := New(c, search.NewEncoder(mock.URL()), Config{Method: method}, zerolog.Nop())
			issues, err := p.FetchAll(context.Background(), search.Query{JQL: "project = TEST"})
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}

			if got := strings.Join(ids(t, issues), ","); got != "PROJ-1,PROJ-2,PROJ-3" {
				t.Errorf("ids = %s", got)
			}

			requests := mock.GetRequests()
			if len(requests) != 3 {
				t.Fatalf("Expected 3 requests, got %d", len(requests))
			}
			for i, want := range []string{"", "tok-a", "tok-b"} {
				if got := requests[i].PageToken(); got != want {
					t.Errorf("request %d token = %q, want %q", i+1, got, want)
				}
			}
		})
	}
}

func TestFetchAll_CancelledNoPartialResults(t *testing.T) {
	mock := testutil.NewMockJira()
	defer mock.Close()
	slow := testutil.NewPageResponse("", "PROJ-2")
	slow.Delay = 5 * time.Second
	mock.SetResponses(testutil.NewPageResponse("tok-1", "PROJ-1"), slow)

	cfg := client.DefaultConfig("test@example.com", "token")
	cfg.Logger = zerolog.Nop()
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	p := New(c, search.NewEncoder(mock.URL()), DefaultConfig(), zerolog.Nop())
	issues, err := p.FetchAll(ctx, search.Query{JQL: "project = TEST"})

	if issues != nil {
		t.Errorf("Expected no partial results, got %s", issues)
	}
	if !errors.Is(err, client.ErrCancelled) {
		t.Errorf("Expected client.ErrCancelled, got %v", err)
	}
}
