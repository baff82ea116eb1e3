package certify

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/praetor-hq/praetor/internal/model"
)

func TestRunAllChecksPass(t *testing.T) {
	result, err := Run(model.ModeNormative)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Total != len(checks) {
		t.Errorf("total = %d, want %d", result.Total, len(checks))
	}
	if result.Failed != 0 {
		t.Fatalf("failed checks:\n%s", FormatText(result))
	}
	if result.Passed != result.Total {
		t.Errorf("passed = %d, want %d", result.Passed, result.Total)
	}
}

func TestRunRejectsUnknownMode(t *testing.T) {
	if _, err := Run("zealous"); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestCategoriesAggregated(t *testing.T) {
	result, err := Run(model.ModeNormative)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := make(map[string]int)
	for _, chk := range checks {
		want[chk.Category]++
	}
	if len(result.Categories) != len(want) {
		t.Fatalf("categories = %d, want %d", len(result.Categories), len(want))
	}
	for _, cat := range result.Categories {
		if cat.Total != want[cat.Name] {
			t.Errorf("category %s total = %d, want %d", cat.Name, cat.Total, want[cat.Name])
		}
		if cat.Passed+cat.Failed != cat.Total {
			t.Errorf("category %s arithmetic off: %d+%d != %d", cat.Name, cat.Passed, cat.Failed, cat.Total)
		}
	}
}

func TestFormatText(t *testing.T) {
	r := &CertResult{
		Suite: suiteName, Version: suiteVersion, Mode: "normative",
		Total: 3, Passed: 2, Failed: 1,
		Categories: []CategoryResult{
			{Name: "classification", Total: 2, Passed: 2, Cases: []CaseResult{
				{Name: "a", Passed: true}, {Name: "b", Passed: true},
			}},
			{Name: "trust", Total: 1, Failed: 1, Cases: []CaseResult{
				{Name: "bounds", Passed: false, Detail: "trust 1.2 out of bounds"},
			}},
		},
	}

	out := FormatText(r)
	if !strings.Contains(out, "Result: FAIL (2/3)") {
		t.Errorf("missing failure summary:\n%s", out)
	}
	if !strings.Contains(out, "FAIL  bounds: trust 1.2 out of bounds") {
		t.Errorf("missing failure detail:\n%s", out)
	}
	if !strings.Contains(out, "classification") || !strings.Contains(out, "2/2") {
		t.Errorf("missing category line:\n%s", out)
	}
}

func TestFormatJSON(t *testing.T) {
	result, err := Run(model.ModePassive)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	out, err := FormatJSON(result)
	if err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	var back CertResult
	if err := json.Unmarshal([]byte(out), &back); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if back.Suite != suiteName || back.Mode != "passive" {
		t.Errorf("round-trip lost fields: %+v", back)
	}
}
