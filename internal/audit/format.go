package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FormatLine renders an entry as one console line: time, level,
// category, then agent, message and sorted metadata pairs.
func FormatLine(e *Entry) string {
	var b strings.Builder
	b.WriteString(formatTimeOnly(e.Timestamp))
	fmt.Fprintf(&b, " %-8s %-11s", strings.ToUpper(string(e.Level)), string(e.Category))
	if e.Agent != "" {
		fmt.Fprintf(&b, " agent=%s", e.Agent)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)
	if e.VerdictID != "" {
		fmt.Fprintf(&b, " verdict=%s", e.VerdictID)
	}
	for _, k := range sortedKeys(e.Metadata) {
		fmt.Fprintf(&b, " %s=%s", k, e.Metadata[k])
	}
	return b.String()
}

// FormatJSON renders entries as indented JSON.
func FormatJSON(entries []Entry) (string, error) {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal entries: %w", err)
	}
	return string(data), nil
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
