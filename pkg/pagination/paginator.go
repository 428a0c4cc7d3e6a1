package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/jira-search-client/pkg/client"
	"github.com/Sternrassler/jira-search-client/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for pagination.
var (
	jiraPagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jira_pages_fetched_total",
		Help: "Total number of search result pages decoded",
	})

	jiraIssuesCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jira_issues_collected_total",
		Help: "Total number of issues collected across all pages",
	})

	jiraSearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jira_search_duration_seconds",
		Help:    "Duration of a complete paginated search by outcome",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 300},
	}, []string{"outcome"})
)

// Fetcher is the interface the Jira client must implement for single-page
// fetching. The returned response may carry any status code.
type Fetcher interface {
	Do(ctx context.Context, req search.Request) (*client.Response, error)
}

// Config holds paginator configuration.
type Config struct {
	// Method selects GET, POST or automatic selection; resolved once per query.
	Method search.Method

	// Limit caps the number of returned issues. <= 0 means no cap.
	Limit int
}

// DefaultConfig returns the default paginator configuration.
func DefaultConfig() Config {
	return Config{
		Method: search.MethodAuto,
		Limit:  0,
	}
}

// page is the part of a search response the paginator consumes.
type page struct {
	Issues        []json.RawMessage `json:"issues"`
	NextPageToken string            `json:"nextPageToken"`
}

// Paginator fetches every page of a search sequentially.
type Paginator struct {
	fetcher Fetcher
	encoder *search.Encoder
	config  Config
	logger  zerolog.Logger
}

// New creates a paginator.
func New(fetcher Fetcher, encoder *search.Encoder, config Config, logger zerolog.Logger) *Paginator {
	if config.Method == "" {
		config.Method = search.MethodAuto
	}

	return &Paginator{
		fetcher: fetcher,
		encoder: encoder,
		config:  config,
		logger:  logger,
	}
}

// FetchAll runs q to completion and returns the issues in server order,
// truncated to the configured limit. On any error no issues are returned.
func (p *Paginator) FetchAll(ctx context.Context, q search.Query) ([]json.RawMessage, error) {
	start := time.Now()

	issues, err := p.fetchAll(ctx, q)
	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	jiraSearchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Int("issues", len(issues)).
		Dur("duration", time.Since(start)).
		Msg("Search complete")

	return issues, nil
}

func (p *Paginator) fetchAll(ctx context.Context, q search.Query) ([]json.RawMessage, error) {
	method, err := search.SelectMethod(p.encoder, q, p.config.Method)
	if err != nil {
		return nil, err
	}

	p.logger.Debug().
		Str("requested_method", string(p.config.Method)).
		Str("method", string(method)).
		Msg("Starting Jira JQL search")

	collector := NewCollector(p.config.Limit)
	token := ""

	for pageNum := 1; ; pageNum++ {
		req, err := p.encoder.Encode(q.WithPageToken(token), method)
		if err != nil {
			return nil, err
		}

		if method == search.MethodGet && len(req.URL) > search.MaxURLLength {
			p.logger.Warn().
				Int("url_length", len(req.URL)).
				Int("max_length", search.MaxURLLength).
				Msg("GET request URL exceeds maximum recommended size; consider method post")
		}

		resp, err := p.fetcher.Do(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pageNum, err)
		}

		if err := client.CheckResponse(resp); err != nil {
			return nil, err
		}

		var data page
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return nil, fmt.Errorf("decode page %d: %w", pageNum, err)
		}
		jiraPagesFetchedTotal.Inc()

		if len(data.Issues) == 0 {
			p.logger.Debug().Int("page", pageNum).Msg("No more issues returned by Jira")
			break
		}

		before := collector.Len()
		full := collector.Add(data.Issues)
		jiraIssuesCollectedTotal.Add(float64(collector.Len() - before))

		p.logger.Debug().
			Int("page", pageNum).
			Int("fetched", len(data.Issues)).
			Int("total", collector.Len()).
			Bool("has_next", data.NextPageToken != "").
			Msg("Fetched page")

		if full {
			p.logger.Debug().Int("limit", p.config.Limit).Msg("Result limit reached")
			break
		}
		if data.NextPageToken == "" {
			break
		}
		token = data.NextPageToken
	}

	return collector.Records(), nil
}
