// Package pagination drives Jira's cursor-based search pagination.
//
// Jira returns a nextPageToken with every page that has a successor. The
// paginator sends one request at a time, feeds each token into the next
// request and stops on the first of:
//   - an empty issues array (even if a token is present)
//   - the caller's result limit being reached
//   - a page without nextPageToken (even if the page is full)
//
// Example usage:
//
//	enc := search.NewEncoder(baseURL)
//	p := pagination.New(jiraClient, enc, pagination.Config{Method: search.MethodAuto, Limit: 1000}, logger)
//	issues, err := p.FetchAll(ctx, search.Query{JQL: "project = TEST", MaxResults: 100})
//
// Any error ends the invocation; partial results are never returned.
package pagination
