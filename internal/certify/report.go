package certify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders a conformance result as human-readable text.
func FormatText(r *CertResult) string {
	var b strings.Builder

	header := fmt.Sprintf("Certification: %s v%s — Mode: %s", r.Suite, r.Version, r.Mode)
	fmt.Fprintln(&b, header)
	fmt.Fprintln(&b, strings.Repeat("═", len([]rune(header))))

	for _, cat := range r.Categories {
		status := "PASS"
		if cat.Failed > 0 {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  %-30s %d/%-4d %s\n", cat.Name, cat.Passed, cat.Total, status)

		if cat.Failed > 0 {
			for _, c := range cat.Cases {
				if !c.Passed {
					fmt.Fprintf(&b, "    FAIL  %s: %s\n", c.Name, c.Detail)
				}
			}
		}
	}

	fmt.Fprintln(&b, strings.Repeat("─", len([]rune(header))))

	status := "PASS"
	if r.Failed > 0 {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "Result: %s (%d/%d)\n", status, r.Passed, r.Total)

	return b.String()
}

// FormatJSON renders a conformance result as indented JSON.
func FormatJSON(r *CertResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal cert result: %w", err)
	}
	return string(data), nil
}
