// Package action adapts the search client to GitHub Actions: it reads the
// step inputs, validates them into a Config and publishes step outputs.
package action

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/Sternrassler/jira-search-client/pkg/search"
)

// Default values applied by Inputs.Parse.
const (
	DefaultMaxResults = 50
	DefaultTimeout    = 10 * time.Minute
)

// Config is the validated configuration of one invocation.
type Config struct {
	BaseURL   string `json:"baseUrl"`
	UserEmail string `json:"userEmail"`
	APIToken  string `json:"apiToken"`
	JQL       string `json:"jql"`

	Fields          []string `json:"fields"`
	Expand          []string `json:"expand"`
	Properties      []string `json:"properties"`
	ReconcileIssues []int    `json:"reconcileIssues"`

	IDsOnly      bool `json:"idsOnly"`
	FieldsByKeys bool `json:"fieldsByKeys"`
	FailFast     bool `json:"failFast"`

	// MaxResults is the page size hint; Limit caps the total (0 = no cap).
	MaxResults int `json:"maxResults"`
	Limit      int `json:"limit"`

	Method      search.Method `json:"method"`
	OutputFile  string        `json:"outputFile"`
	Timeout     time.Duration `json:"timeout"`
	LogLevel    string        `json:"logLevel"`
	MetricsFile string        `json:"metricsFile"`
}

// Validate checks the configuration. Failures wrap search.ErrInvalidConfig.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.RequestURL),
		validation.Field(&c.UserEmail, validation.Required, is.EmailFormat),
		validation.Field(&c.APIToken, validation.Required),
		validation.Field(&c.JQL, validation.Required),
		validation.Field(&c.MaxResults, validation.Required, validation.Min(1)),
		validation.Field(&c.Limit, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Method, validation.In(search.MethodGet, search.MethodPost, search.MethodAuto)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", search.ErrInvalidConfig, err)
	}
	return nil
}

// Query returns the search descriptor for c. IDsOnly narrows the field
// selection to the issue id.
func (c Config) Query() search.Query {
	fields := c.Fields
	if c.IDsOnly {
		fields = []string{"id"}
	}

	return search.Query{
		JQL:             c.JQL,
		MaxResults:      c.MaxResults,
		Fields:          fields,
		Expand:          c.Expand,
		Properties:      c.Properties,
		FieldsByKeys:    c.FieldsByKeys,
		FailFast:        c.FailFast,
		ReconcileIssues: c.ReconcileIssues,
	}
}
