package action

import (
	"strconv"

	"github.com/sethvargo/go-githubactions"

	"github.com/Sternrassler/jira-search-client/pkg/logging"
	"github.com/Sternrassler/jira-search-client/pkg/results"
)

// Output names as declared in action.yml.
const (
	OutputIssuesCount = "issuesCount"
	OutputIssuesID    = "issuesId"
	OutputIssuesFile  = "issuesFile"
)

// Publish sets the step outputs for s. Only issuesCount is set for an empty
// result.
func Publish(a *githubactions.Action, s *results.Summary) {
	a.SetOutput(OutputIssuesCount, strconv.Itoa(s.Count))
	if s.Count == 0 {
		return
	}

	a.SetOutput(OutputIssuesID, s.JoinedIDs())
	if s.File != "" {
		a.SetOutput(OutputIssuesFile, s.File)
	}
}

type maskSink struct {
	action *githubactions.Action
}

func (m maskSink) AddSecret(secret string) {
	if secret != "" {
		m.action.AddMask(secret)
	}
}

// MaskSink returns a SecretSink that masks secrets in the runner log.
func MaskSink(a *githubactions.Action) logging.SecretSink {
	return maskSink{action: a}
}
