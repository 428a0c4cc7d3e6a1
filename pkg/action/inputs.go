package action

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-githubactions"

	"github.com/Sternrassler/jira-search-client/pkg/search"
)

// Input names as declared in action.yml.
const (
	InputBaseURL         = "baseUrl"
	InputUserEmail       = "userEmail"
	InputAPIToken        = "apiToken"
	InputJQL             = "jql"
	InputFields          = "fields"
	InputExpand          = "expand"
	InputProperties      = "properties"
	InputIDsOnly         = "idsOnly"
	InputFieldsByKeys    = "fieldsByKeys"
	InputFailFast        = "failFast"
	InputMaxResults      = "maxResults"
	InputLimit           = "limit"
	InputReconcileIssues = "reconcileIssues"
	InputMethod          = "method"
	InputOutputFile      = "outputFile"
	InputTimeout         = "timeout"
	InputLogLevel        = "logLevel"
	InputMetricsFile     = "metricsFile"
)

// Inputs holds the raw, unparsed step inputs.
type Inputs struct {
	BaseURL         string
	UserEmail       string
	APIToken        string
	JQL             string
	Fields          string
	Expand          string
	Properties      string
	IDsOnly         string
	FieldsByKeys    string
	FailFast        string
	MaxResults      string
	Limit           string
	ReconcileIssues string
	Method          string
	OutputFile      string
	Timeout         string
	LogLevel        string
	MetricsFile     string
}

// ReadInputs reads every input from the step environment.
func ReadInputs(a *githubactions.Action) Inputs {
	return Inputs{
		BaseURL:         a.GetInput(InputBaseURL),
		UserEmail:       a.GetInput(InputUserEmail),
		APIToken:        a.GetInput(InputAPIToken),
		JQL:             a.GetInput(InputJQL),
		Fields:          a.GetInput(InputFields),
		Expand:          a.GetInput(InputExpand),
		Properties:      a.GetInput(InputProperties),
		IDsOnly:         a.GetInput(InputIDsOnly),
		FieldsByKeys:    a.GetInput(InputFieldsByKeys),
		FailFast:        a.GetInput(InputFailFast),
		MaxResults:      a.GetInput(InputMaxResults),
		Limit:           a.GetInput(InputLimit),
		ReconcileIssues: a.GetInput(InputReconcileIssues),
		Method:          a.GetInput(InputMethod),
		OutputFile:      a.GetInput(InputOutputFile),
		Timeout:         a.GetInput(InputTimeout),
		LogLevel:        a.GetInput(InputLogLevel),
		MetricsFile:     a.GetInput(InputMetricsFile),
	}
}

// Parse converts the raw inputs into a validated Config.
func (in Inputs) Parse() (Config, error) {
	method, err := search.ParseMethod(in.Method)
	if err != nil {
		return Config{}, err
	}

	maxResults, err := parseInt(InputMaxResults, in.MaxResults, DefaultMaxResults)
	if err != nil {
		return Config{}, err
	}

	limit, err := parseInt(InputLimit, in.Limit, 0)
	if err != nil {
		return Config{}, err
	}

	reconcile, err := csvToInts(InputReconcileIssues, in.ReconcileIssues)
	if err != nil {
		return Config{}, err
	}

	timeout := DefaultTimeout
	if in.Timeout != "" {
		timeout, err = time.ParseDuration(in.Timeout)
		if err != nil {
			return Config{}, &search.ConfigError{Field: InputTimeout, Reason: fmt.Sprintf("invalid duration %q", in.Timeout)}
		}
	}

	cfg := Config{
		BaseURL:         search.NormalizeBaseURL(in.BaseURL),
		UserEmail:       in.UserEmail,
		APIToken:        in.APIToken,
		JQL:             in.JQL,
		Fields:          csvToStrings(in.Fields),
		Expand:          csvToStrings(in.Expand),
		Properties:      csvToStrings(in.Properties),
		ReconcileIssues: reconcile,
		IDsOnly:         parseBool(in.IDsOnly),
		FieldsByKeys:    parseBool(in.FieldsByKeys),
		FailFast:        parseBool(in.FailFast),
		MaxResults:      maxResults,
		Limit:           limit,
		Method:          method,
		OutputFile:      in.OutputFile,
		Timeout:         timeout,
		LogLevel:        in.LogLevel,
		MetricsFile:     in.MetricsFile,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// csvToStrings splits a comma separated list, trimming items and dropping
// empty ones.
func csvToStrings(csv string) []string {
	var out []string
	for _, item := range strings.Split(csv, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func csvToInts(field, csv string) ([]int, error) {
	items := csvToStrings(csv)
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, &search.ConfigError{Field: field, Reason: fmt.Sprintf("invalid integer %q", item)}
		}
		out = append(out, n)
	}
	return out, nil
}

// parseBool treats only "true" (any case) as true.
func parseBool(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}

func parseInt(field, value string, defaultValue int) (int, error) {
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &search.ConfigError{Field: field, Reason: fmt.Sprintf("invalid integer %q", value)}
	}
	return n, nil
}
