package model

import "testing"

func TestParseModeKnown(t *testing.T) {
	for _, name := range []string{"coercive", "normative", "adaptive", "passive"} {
		m, err := ParseMode(name)
		if err != nil {
			t.Errorf("ParseMode(%q) returned error: %v", name, err)
		}
		if string(m) != name {
			t.Errorf("ParseMode(%q) = %q", name, m)
		}
	}
}

func TestParseModeFailsClosed(t *testing.T) {
	// Unknown modes must be rejected at construction, never defaulted.
	for _, name := range []string{"", "permissive", "COERCIVE", "audit"} {
		if _, err := ParseMode(name); err == nil {
			t.Errorf("ParseMode(%q) should fail", name)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for _, name := range []string{"ALLOW", "DISALLOW", "ESCALATE", "MONITOR"} {
		if _, err := ParseCategory(name); err != nil {
			t.Errorf("ParseCategory(%q) returned error: %v", name, err)
		}
	}
	if _, err := ParseCategory("allow"); err == nil {
		t.Error("lowercase category should be rejected")
	}
	if _, err := ParseCategory("FORBID"); err == nil {
		t.Error("unknown category should be rejected")
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	if SeverityRank[SeverityLow] >= SeverityRank[SeverityMedium] {
		t.Error("low must rank below medium")
	}
	if SeverityRank[SeverityMedium] >= SeverityRank[SeverityHigh] {
		t.Error("medium must rank below high")
	}
	if SeverityRank[SeverityHigh] >= SeverityRank[SeverityCritical] {
		t.Error("high must rank below critical")
	}
}

func TestSeverityRaiseLowerSaturate(t *testing.T) {
	if got := SeverityCritical.Raise(); got != SeverityCritical {
		t.Errorf("critical.Raise() = %s, want critical", got)
	}
	if got := SeverityLow.Lower(); got != SeverityLow {
		t.Errorf("low.Lower() = %s, want low", got)
	}
	if got := SeverityMedium.Raise(); got != SeverityHigh {
		t.Errorf("medium.Raise() = %s, want high", got)
	}
	if got := SeverityHigh.Lower(); got != SeverityMedium {
		t.Errorf("high.Lower() = %s, want medium", got)
	}
}

func TestHasViolationType(t *testing.T) {
	r := &ClassificationReport{
		ViolationTypes: []ViolationType{ViolationJailbreak, ViolationCodeInjection},
	}
	if !r.HasViolationType(ViolationJailbreak) {
		t.Error("expected jailbreak to be detected")
	}
	if r.HasViolationType(ViolationDataExfiltration) {
		t.Error("did not expect data_exfiltration")
	}
}
