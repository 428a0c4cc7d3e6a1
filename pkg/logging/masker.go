package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"
)

// Mask replaces registered secrets in log output.
const Mask = "***"

// SecretSink receives values that must never appear in output.
type SecretSink interface {
	AddSecret(secret string)
}

// Masker is an io.Writer that replaces registered secrets, in raw and
// JSON-escaped form, before writing to the underlying writer. zerolog emits
// one event per Write, so a secret is never split across calls.
type Masker struct {
	out io.Writer

	mu       sync.RWMutex
	secrets  []string
	replacer *strings.Replacer
}

// NewMasker wraps out.
func NewMasker(out io.Writer) *Masker {
	return &Masker{out: out}
}

// AddSecret registers secret. Empty values are ignored.
func (m *Masker) AddSecret(secret string) {
	if secret == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.secrets {
		if s == secret {
			return
		}
	}
	m.secrets = append(m.secrets, secret)

	pairs := make([]string, 0, 4*len(m.secrets))
	for _, s := range m.secrets {
		pairs = append(pairs, s, Mask)
		if escaped := jsonEscape(s); escaped != s {
			pairs = append(pairs, escaped, Mask)
		}
	}
	m.replacer = strings.NewReplacer(pairs...)
}

// jsonEscape returns s as it appears inside a JSON string written by zerolog:
// quotes, backslashes and control characters escaped, HTML characters kept.
func jsonEscape(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return s
	}
	// Encode writes "<escaped>"\n.
	out := strings.TrimSuffix(buf.String(), "\n")
	return out[1 : len(out)-1]
}

// Write implements io.Writer. It reports len(p) on success so callers never
// see the length change caused by masking.
func (m *Masker) Write(p []byte) (int, error) {
	m.mu.RLock()
	replacer := m.replacer
	m.mu.RUnlock()

	if replacer == nil {
		return m.out.Write(p)
	}

	if _, err := io.WriteString(m.out, replacer.Replace(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// multiSink fans secrets out to several sinks.
type multiSink []SecretSink

func (s multiSink) AddSecret(secret string) {
	for _, sink := range s {
		sink.AddSecret(secret)
	}
}

// MultiSink returns a SecretSink that registers each secret with all sinks.
func MultiSink(sinks ...SecretSink) SecretSink {
	out := make(multiSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}
