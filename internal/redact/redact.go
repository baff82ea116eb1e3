// Package redact masks secret material before it enters verdict excerpts,
// audit entries or review items. The engine evaluates content that may
// contain live credentials; persisting them verbatim would turn the audit
// trail into a second leak.
package redact

import (
	"regexp"
	"sort"
)

// Kind is the category of secret a match belongs to.
type Kind string

const (
	KindCredential Kind = "credential"
	KindBearer     Kind = "bearer"
	KindAPIKey     Kind = "api_key"
	KindPrivateKey Kind = "private_key"
)

// Match is one secret occurrence. Start and End bound the span that Mask
// replaces; for key=value credentials that is the value only, so the key
// stays readable in excerpts.
type Match struct {
	Kind  Kind
	Value string
	Start int
	End   int
}

var (
	// key=value or key: value where the key names a secret. Group 2 is the
	// value span.
	credKVRe = regexp.MustCompile(`(?i)\b(password|passwd|secret|token|api[_-]?key|apikey|auth|credentials?)\b[ \t]*[=:][ \t]*("[^"]+"|'[^']+'|\S+)`)

	// Authorization-style bearer tokens.
	bearerRe = regexp.MustCompile(`(?i)\bbearer[ \t]+([A-Za-z0-9._~+/\-]+=*)`)

	// Provider key shapes: AWS access key ids, OpenAI-style keys, GitHub
	// tokens, Slack tokens.
	apiKeyRe = regexp.MustCompile(`\b(AKIA[0-9A-Z]{16}|sk-[A-Za-z0-9]{20,}|ghp_[A-Za-z0-9]{36}|xox[baprs]-[A-Za-z0-9-]{10,})\b`)

	// PEM private key blocks, header through footer.
	privateKeyRe = regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)
)

// Scan returns every secret span found in text, sorted by position.
// Overlapping spans keep the earliest, longest match.
func Scan(text string) []Match {
	var matches []Match

	for _, loc := range credKVRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[4], loc[5]
		matches = append(matches, Match{Kind: KindCredential, Value: text[start:end], Start: start, End: end})
	}
	for _, loc := range bearerRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		matches = append(matches, Match{Kind: KindBearer, Value: text[start:end], Start: start, End: end})
	}
	for _, loc := range apiKeyRe.FindAllStringIndex(text, -1) {
		matches = append(matches, Match{Kind: KindAPIKey, Value: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	for _, loc := range privateKeyRe.FindAllStringIndex(text, -1) {
		matches = append(matches, Match{Kind: KindPrivateKey, Value: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		return matches[i].End > matches[j].End
	})

	// Drop spans swallowed by an earlier match.
	out := matches[:0]
	lastEnd := -1
	for _, m := range matches {
		if m.Start < lastEnd {
			continue
		}
		out = append(out, m)
		lastEnd = m.End
	}
	return out
}

// Mask replaces every secret span in text with a "[MASKED:<kind>]" marker.
// Text without secrets is returned unchanged.
func Mask(text string) string {
	matches := Scan(text)
	if len(matches) == 0 {
		return text
	}
	var b []byte
	prev := 0
	for _, m := range matches {
		b = append(b, text[prev:m.Start]...)
		b = append(b, "[MASKED:"...)
		b = append(b, string(m.Kind)...)
		b = append(b, ']')
		prev = m.End
	}
	b = append(b, text[prev:]...)
	return string(b)
}
