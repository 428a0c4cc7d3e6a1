// Package metrics provides the Prometheus registry used by the Jira search
// client and exports it for short-lived runs.
// All metrics are defined in their respective packages (client, pagination)
// to maintain modularity and avoid circular dependencies.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Gatherer collects the metrics written by WriteTextfile. Collectors are
// registered on the default registry via promauto in their own packages.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes all gathered metrics to path in the text exposition
// format, suitable for the node_exporter textfile collector. A one-shot run
// never lives long enough to be scraped.
func WriteTextfile(path string) error {
	if path == "" {
		return fmt.Errorf("metrics file path is required")
	}
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - jira_requests_total{method, status} (Counter): Requests by HTTP method and final status
//   - jira_request_duration_seconds{method} (Histogram): Request duration including retries
//   - jira_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - jira_retries_total{error_class} (Counter): Retry attempts by error class
//   - jira_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - jira_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pagination Metrics (pkg/pagination):
//   - jira_pages_fetched_total (Counter): Decoded result pages
//   - jira_issues_collected_total (Counter): Issues kept after applying the limit
//   - jira_search_duration_seconds{outcome} (Histogram): Full search duration
//
// Example Prometheus Queries:
//
//   # Rate limit pressure
//   rate(jira_retries_total{error_class="rate_limit"}[1h])
//
//   # Searches that failed
//   jira_search_duration_seconds_count{outcome="failed"}
