package search

// Query describes one JQL search request.
type Query struct {
	// JQL is the filter expression (required).
	JQL string

	// NextPageToken continues a previous page. Empty on the first request.
	NextPageToken string

	// MaxResults is the page-size hint sent to Jira (0 leaves it to the server).
	MaxResults int

	// Fields, Expand and Properties select what each issue carries.
	Fields     []string
	Expand     []string
	Properties []string

	FieldsByKeys bool
	FailFast     bool

	// ReconcileIssues lists issue ids whose read-after-write consistency
	// Jira should guarantee.
	ReconcileIssues []int
}

// WithPageToken returns a copy of q continuing at token.
func (q Query) WithPageToken(token string) Query {
	q.NextPageToken = token
	return q
}

// validate checks the fields that cannot be encoded meaningfully.
func (q Query) validate() error {
	if q.JQL == "" {
		return &ConfigError{Field: "jql", Reason: "is required"}
	}
	if q.MaxResults < 0 {
		return &ConfigError{Field: "maxResults", Reason: "must not be negative"}
	}
	return nil
}
