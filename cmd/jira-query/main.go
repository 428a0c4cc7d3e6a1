// Command jira-query runs a JQL search against Jira Cloud and publishes the
// results as GitHub Actions step outputs. Inputs come from the step
// environment (INPUT_*) and can be overridden by flags of the same name.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/jira-search-client/pkg/action"
	"github.com/Sternrassler/jira-search-client/pkg/client"
	"github.com/Sternrassler/jira-search-client/pkg/logging"
	"github.com/Sternrassler/jira-search-client/pkg/metrics"
	"github.com/Sternrassler/jira-search-client/pkg/pagination"
	"github.com/Sternrassler/jira-search-client/pkg/results"
	"github.com/Sternrassler/jira-search-client/pkg/search"
)

func main() {
	a := githubactions.New()

	if err := newRootCmd(a, os.Stderr).ExecuteContext(context.Background()); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			a.Errorf("%s", err)
		}
		os.Exit(1)
	}
}

// reportedError marks an error that has already been annotated and logged.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func newRootCmd(a *githubactions.Action, stderr io.Writer) *cobra.Command {
	in := action.ReadInputs(a)

	cmd := &cobra.Command{
		Use:           "jira-query",
		Short:         "Run a JQL search against Jira Cloud and publish the results",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd.Context(), a, in, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.BaseURL, action.InputBaseURL, in.BaseURL, "Jira base URL")
	flags.StringVar(&in.UserEmail, action.InputUserEmail, in.UserEmail, "Jira user email for basic auth")
	flags.StringVar(&in.APIToken, action.InputAPIToken, in.APIToken, "Jira API token for basic auth")
	flags.StringVar(&in.JQL, action.InputJQL, in.JQL, "JQL query")
	flags.StringVar(&in.Fields, action.InputFields, in.Fields, "comma separated fields to return")
	flags.StringVar(&in.Expand, action.InputExpand, in.Expand, "comma separated expand options")
	flags.StringVar(&in.Properties, action.InputProperties, in.Properties, "comma separated issue properties")
	flags.StringVar(&in.IDsOnly, action.InputIDsOnly, in.IDsOnly, "return only issue ids (true/false)")
	flags.StringVar(&in.FieldsByKeys, action.InputFieldsByKeys, in.FieldsByKeys, "reference fields by key (true/false)")
	flags.StringVar(&in.FailFast, action.InputFailFast, in.FailFast, "fail on the first field error (true/false)")
	flags.StringVar(&in.MaxResults, action.InputMaxResults, in.MaxResults, "page size hint (default 50)")
	flags.StringVar(&in.Limit, action.InputLimit, in.Limit, "maximum number of issues, 0 for no limit")
	flags.StringVar(&in.ReconcileIssues, action.InputReconcileIssues, in.ReconcileIssues, "comma separated issue ids to reconcile")
	flags.StringVar(&in.Method, action.InputMethod, in.Method, "HTTP method: get, post or auto")
	flags.StringVar(&in.OutputFile, action.InputOutputFile, in.OutputFile, "write results as JSON to this file")
	flags.StringVar(&in.Timeout, action.InputTimeout, in.Timeout, "overall timeout (default 10m)")
	flags.StringVar(&in.LogLevel, action.InputLogLevel, in.LogLevel, "log level: debug, info, warn, error")
	flags.StringVar(&in.MetricsFile, action.InputMetricsFile, in.MetricsFile, "write Prometheus metrics to this textfile")

	return cmd
}

// execute runs one invocation and reports a failure exactly once.
func execute(ctx context.Context, a *githubactions.Action, in action.Inputs, stderr io.Writer) error {
	masker := logging.NewMasker(stderr)
	secrets := logging.MultiSink(masker, action.MaskSink(a))
	secrets.AddSecret(in.APIToken)
	secrets.AddSecret(in.UserEmail)

	logCfg := logging.DefaultConfig()
	logCfg.Output = masker
	if in.LogLevel != "" {
		logCfg.Level = logging.LogLevel(in.LogLevel)
	}
	if a.Getenv("RUNNER_DEBUG") == "1" {
		logCfg.Level = logging.LevelDebug
	}
	logger := logging.Setup(logCfg)

	fail := func(err error) error {
		a.Errorf("%s", err)
		logger.Error().Err(err).Msg("Jira search failed")
		return &reportedError{err: err}
	}

	cfg, err := in.Parse()
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	_, err = run(ctx, cfg, a, logger)

	if cfg.MetricsFile != "" {
		if mErr := metrics.WriteTextfile(cfg.MetricsFile); mErr != nil {
			logger.Warn().Err(mErr).Str("file", cfg.MetricsFile).Msg("Failed to write metrics file")
		}
	}

	if err != nil {
		return fail(err)
	}
	return nil
}

// run fetches all issues for cfg and publishes the step outputs.
func run(ctx context.Context, cfg action.Config, a *githubactions.Action, logger zerolog.Logger) (*results.Summary, error) {
	clientCfg := client.DefaultConfig(cfg.UserEmail, cfg.APIToken)
	clientCfg.Logger = logging.NewLogger("jira-client")

	jira, err := client.New(clientCfg)
	if err != nil {
		return nil, err
	}

	paginator := pagination.New(
		jira,
		search.NewEncoder(cfg.BaseURL),
		pagination.Config{Method: cfg.Method, Limit: cfg.Limit},
		logging.NewLogger("paginator"),
	)

	a.Group("Fetching issues")
	issues, err := paginator.FetchAll(ctx, cfg.Query())
	a.EndGroup()
	if err != nil {
		return nil, err
	}

	summary, err := results.Build(issues, results.Options{IDsOnly: cfg.IDsOnly, OutputFile: cfg.OutputFile})
	if err != nil {
		return nil, err
	}

	action.Publish(a, summary)

	if summary.Count == 0 {
		logger.Info().Msg("No issues found")
		return summary, nil
	}

	logger.Info().Int("count", summary.Count).Msg("Issues found")
	if summary.File != "" {
		logger.Info().Str("file", summary.File).Msg("Results file written")
	}

	return summary, nil
}
