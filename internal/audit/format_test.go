package audit

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFormatLineColumns(t *testing.T) {
	e := &Entry{
		Timestamp: "2025-01-15T14:00:00.000Z",
		Level:     LevelCritical,
		Category:  CategoryEnforcement,
		Message:   "blocked request",
		Agent:     "coder-1",
		VerdictID: "v-abc",
		Metadata:  map[string]string{"severity": "high", "mode": "normative"},
	}

	line := FormatLine(e)

	for _, want := range []string{"14:00:00", "CRITICAL", "enforcement", "agent=coder-1", "blocked request", "verdict=v-abc"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q:\n%s", want, line)
		}
	}

	// Metadata keys render sorted.
	if strings.Index(line, "mode=normative") > strings.Index(line, "severity=high") {
		t.Errorf("metadata not sorted:\n%s", line)
	}
}

func TestFormatLineOmitsEmptyFields(t *testing.T) {
	e := &Entry{
		Timestamp: "2025-01-15T14:00:00.000Z",
		Level:     LevelInfo,
		Category:  CategorySystem,
		Message:   "governor started",
	}

	line := FormatLine(e)
	if strings.Contains(line, "agent=") {
		t.Errorf("line should omit empty agent:\n%s", line)
	}
	if strings.Contains(line, "verdict=") {
		t.Errorf("line should omit empty verdict:\n%s", line)
	}
}

func TestFormatLineBadTimestampPassedThrough(t *testing.T) {
	e := &Entry{Timestamp: "garbage", Level: LevelInfo, Category: CategorySystem, Message: "x"}
	if !strings.HasPrefix(FormatLine(e), "garbage") {
		t.Errorf("unparseable timestamp should pass through, got %s", FormatLine(e))
	}
}

func TestFormatJSONRoundTrip(t *testing.T) {
	entries := []Entry{
		*testEntry("first"),
		*testEntry("second"),
	}

	out, err := FormatJSON(entries)
	if err != nil {
		t.Fatal(err)
	}

	var parsed []Entry
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("JSON output not valid: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed))
	}
	if parsed[0].Message != "first" || parsed[1].Message != "second" {
		t.Errorf("messages = %s, %s", parsed[0].Message, parsed[1].Message)
	}
}
