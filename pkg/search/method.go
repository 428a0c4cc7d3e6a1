package search

import (
	"fmt"
	"strings"
)

// MaxURLLength is the longest GET URL the auto mode will send.
const MaxURLLength = 1500

// Method selects how a query is submitted.
type Method string

const (
	// MethodGet encodes the query as URL parameters.
	MethodGet Method = "get"

	// MethodPost encodes the query as a JSON body.
	MethodPost Method = "post"

	// MethodAuto picks MethodGet or MethodPost from the encoded URL length.
	MethodAuto Method = "auto"
)

// ParseMethod converts a user supplied value to a Method. The empty string
// selects MethodAuto; matching is case-insensitive.
func ParseMethod(value string) (Method, error) {
	if value == "" {
		return MethodAuto, nil
	}

	switch m := Method(strings.ToLower(value)); m {
	case MethodGet, MethodPost, MethodAuto:
		return m, nil
	default:
		return "", &ConfigError{Field: "method", Reason: fmt.Sprintf("invalid HTTP method: %s", value)}
	}
}

// SelectMethod resolves m to a concrete method for q. Explicit methods pass
// through; MethodAuto builds the GET URL once and falls back to MethodPost
// when it is longer than MaxURLLength.
func SelectMethod(enc *Encoder, q Query, m Method) (Method, error) {
	switch m {
	case MethodGet, MethodPost:
		return m, nil
	case MethodAuto:
	default:
		return "", &ConfigError{Field: "method", Reason: fmt.Sprintf("invalid HTTP method: %s", m)}
	}

	probe, err := enc.encodeURL(q)
	if err != nil {
		return "", err
	}
	if len(probe) > MaxURLLength {
		return MethodPost, nil
	}
	return MethodGet, nil
}
