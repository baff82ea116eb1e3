package constdiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders the diff result as human-readable text.
func FormatText(r *DiffResult) string {
	if !r.HasChanges {
		return fmt.Sprintf("Constitution diff: %s → %s\n\nNo changes detected.\n", r.OldPath, r.NewPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Constitution diff: %s → %s\n", r.OldPath, r.NewPath)

	topLevel := filterTopLevel(r.Changes)
	setChanges := filterSets(r.Changes)

	if len(topLevel) > 0 {
		b.WriteString("\n")
		for _, c := range topLevel {
			fmt.Fprintf(&b, "  %-20s %s → %s", c.Field+":", c.Old, c.New)
			if c.Comment != "" {
				fmt.Fprintf(&b, "  (%s)", c.Comment)
			}
			b.WriteString("\n")
		}
	}

	if len(r.PrincipleChanges) > 0 {
		b.WriteString("\n  Principles:\n")
		for _, pc := range r.PrincipleChanges {
			switch pc.Type {
			case "added":
				fmt.Fprintf(&b, "    + %s\n", pc.Principle)
			case "removed":
				fmt.Fprintf(&b, "    - %s\n", pc.Principle)
			case "changed":
				fmt.Fprintf(&b, "    ~ %s\n", pc.Principle)
			}
		}
	}

	if len(setChanges) > 0 {
		b.WriteString("\n")
		for _, c := range setChanges {
			switch c.Comment {
			case "added":
				fmt.Fprintf(&b, "  %s: + %s\n", c.Field, c.New)
			case "removed":
				fmt.Fprintf(&b, "  %s: - %s\n", c.Field, c.Old)
			}
		}
	}

	return b.String()
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *DiffResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diff result: %w", err)
	}
	return string(data), nil
}

var setSections = []string{
	"red_flags", "escalation_triggers", "allowed_activities", "disallowed_activities",
}

func isSetSection(field string) bool {
	for _, s := range setSections {
		if field == s {
			return true
		}
	}
	return false
}

func filterTopLevel(changes []Change) []Change {
	var out []Change
	for _, c := range changes {
		if !isSetSection(c.Field) {
			out = append(out, c)
		}
	}
	return out
}

func filterSets(changes []Change) []Change {
	var out []Change
	for _, c := range changes {
		if isSetSection(c.Field) {
			out = append(out, c)
		}
	}
	return out
}
