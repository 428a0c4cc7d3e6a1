// Package results shapes search results for callers: the issue list or its
// id-only reduction, the count, and an optional JSON file.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Options controls how a Summary is built.
type Options struct {
	// IDsOnly reduces the persisted result to the list of issue ids.
	IDsOnly bool

	// OutputFile, when set, receives the JSON-serialized result.
	OutputFile string
}

// Summary is the caller-facing outcome of a search.
type Summary struct {
	Issues []json.RawMessage
	IDs    []string
	Count  int

	// File is the path the result was written to, empty when not persisted.
	File string
}

// JoinedIDs returns the ids joined with ", ".
func (s *Summary) JoinedIDs() string {
	return strings.Join(s.IDs, ", ")
}

// Build extracts ids from issues and persists the result when requested.
// An empty result is never written to disk.
func Build(issues []json.RawMessage, opts Options) (*Summary, error) {
	ids, err := IDs(issues)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Issues: issues,
		IDs:    ids,
		Count:  len(issues),
	}

	if opts.OutputFile == "" || summary.Count == 0 {
		return summary, nil
	}

	var payload any = issues
	if opts.IDsOnly {
		payload = ids
	}
	if err := WriteFile(opts.OutputFile, payload); err != nil {
		return nil, err
	}
	summary.File = opts.OutputFile

	return summary, nil
}

// IDs returns the "id" of every issue in order. String ids are unquoted,
// other JSON values keep their literal text and a missing or null id yields
// "".
func IDs(issues []json.RawMessage) ([]string, error) {
	ids := make([]string, len(issues))
	for i, raw := range issues {
		var issue struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(raw, &issue); err != nil {
			return nil, fmt.Errorf("decode issue %d: %w", i, err)
		}
		ids[i] = formatID(issue.ID)
	}
	return ids, nil
}

func formatID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// WriteFile writes v to path as JSON indented by two spaces.
func WriteFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return nil
}
