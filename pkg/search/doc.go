// Package search describes a Jira JQL search and encodes it into HTTP requests
// for the /rest/api/3/search/jql endpoint.
//
// A search can travel in two shapes:
//
//   - url-bound (GET): every populated field becomes a query parameter
//   - body-bound (POST): every populated field becomes a key of a JSON body
//
// Method "auto" probes the GET encoding and switches to POST once the URL
// would exceed MaxURLLength characters.
//
// Example usage:
//
//	enc := search.NewEncoder("https://company.atlassian.net/")
//	q := search.Query{JQL: "project = TEST", MaxResults: 50}
//
//	method, err := search.SelectMethod(enc, q, search.MethodAuto)
//	if err != nil {
//		return err
//	}
//	req, err := enc.Encode(q, method)
package search
