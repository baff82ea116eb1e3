// Package classifier scores text against the constitution into structured
// classification reports. Two variants share one core: the input
// classifier matches hostile phrasing arriving at an agent, the output
// classifier matches what an agent produced.
package classifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/praetor-hq/praetor/internal/constitution"
	"github.com/praetor-hq/praetor/internal/model"
)

// Classifier is the shared contract of both variants.
type Classifier interface {
	Classify(text string, ctx *model.Context) (*model.ClassificationReport, error)
}

// Rule is a pluggable custom detection rule.
type Rule struct {
	ID          string
	Type        model.ViolationType
	Severity    model.Severity
	Pattern     string
	Description string

	re *regexp.Regexp
}

// Counters is a point-in-time snapshot of classification activity.
type Counters struct {
	Total       uint64
	Safe        uint64
	Suspicious  uint64
	Violation   uint64
	Critical    uint64
	NeedsReview uint64
	CustomHits  uint64
}

// core implements the classification algorithm over a direction-specific
// pattern set. The result ladder below is ordered and must not be changed:
//
//  1. no detections                  -> safe, confidence 0.95
//  2. any critical violation type    -> critical, min(0.95, 0.7+0.1*patterns)
//  3. any high violation type        -> violation, min(0.9, 0.6+0.1*patterns)
//  4. keywords only, no pattern      -> suspicious, min(0.8, 0.5+0.05*keywords)
//  5. unclassified structural match  -> suspicious, min(0.85, 0.6+0.1*patterns)
//  6. otherwise                      -> needs_review, confidence 0.5
type core struct {
	direction     model.Direction
	constitution  *constitution.Constitution
	patterns      []patternRule
	keywords      []string
	criticalTypes map[model.ViolationType]bool
	highTypes     map[model.ViolationType]bool

	mu     sync.RWMutex
	custom []Rule

	total       atomic.Uint64
	safe        atomic.Uint64
	suspicious  atomic.Uint64
	violation   atomic.Uint64
	critical    atomic.Uint64
	needsReview atomic.Uint64
	customHits  atomic.Uint64
}

// AddRule registers a custom rule. The pattern is compiled here; a bad
// pattern is a construction-time error.
func (c *core) AddRule(r Rule) error {
	if r.ID == "" {
		return fmt.Errorf("custom rule needs an id")
	}
	re, err := regexp.Compile("(?i)" + r.Pattern)
	if err != nil {
		return fmt.Errorf("custom rule %s: bad pattern %q: %w", r.ID, r.Pattern, err)
	}
	r.re = re
	c.mu.Lock()
	c.custom = append(c.custom, r)
	c.mu.Unlock()
	return nil
}

// Counters returns a snapshot of the classification counters.
func (c *core) Counters() Counters {
	return Counters{
		Total:       c.total.Load(),
		Safe:        c.safe.Load(),
		Suspicious:  c.suspicious.Load(),
		Violation:   c.violation.Load(),
		Critical:    c.critical.Load(),
		NeedsReview: c.needsReview.Load(),
		CustomHits:  c.customHits.Load(),
	}
}

// detection accumulates everything found in one text.
type detection struct {
	patterns     map[string]bool
	keywords     map[string]bool
	types        map[model.ViolationType]bool
	principleIDs []string
}

// Classify runs the full detection pass and the result ladder. It never
// returns an error today; the error slot is part of the contract so custom
// integrations can surface faults without changing callers.
func (c *core) Classify(text string, _ *model.Context) (*model.ClassificationReport, error) {
	det := detection{
		patterns: make(map[string]bool),
		keywords: make(map[string]bool),
		types:    make(map[model.ViolationType]bool),
	}

	// Direction-specific structural patterns.
	for _, rule := range c.patterns {
		if rule.re.MatchString(text) {
			det.patterns[rule.src] = true
			det.types[rule.typ] = true
		}
	}

	// Direction-specific keyword list.
	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			det.keywords[kw] = true
		}
	}

	// Constitution red flags count as keyword detections.
	for _, flag := range c.constitution.CheckRedFlags(text) {
		det.keywords[flag] = true
	}

	// Per-principle checks. DISALLOW matches are detections; matches in
	// other categories only establish constitutional basis (ALLOW
	// supports the reasoning, MONITOR feeds the behavioral monitor).
	for _, p := range c.constitution.Principles {
		patterns, keywords := p.Match(text)
		if len(patterns) == 0 && len(keywords) == 0 {
			continue
		}
		det.principleIDs = append(det.principleIDs, p.ID)
		if p.Category != model.CategoryDisallow {
			continue
		}
		for _, src := range patterns {
			det.patterns[src] = true
		}
		for _, kw := range keywords {
			det.keywords[kw] = true
		}
		if len(patterns) > 0 {
			det.types[model.ViolationPolicy] = true
		}
	}

	// Custom rules.
	c.mu.RLock()
	for _, r := range c.custom {
		if r.re.MatchString(text) {
			det.patterns[r.Pattern] = true
			det.types[r.Type] = true
			c.customHits.Add(1)
		}
	}
	c.mu.RUnlock()

	report := c.resolve(det)
	c.count(report.Result)
	return report, nil
}

// resolve applies the result ladder to a finished detection pass.
func (c *core) resolve(det detection) *model.ClassificationReport {
	patterns := sortedKeys(det.patterns)
	keywords := sortedKeys(det.keywords)
	types := sortedTypes(det.types)

	report := &model.ClassificationReport{
		Direction:      c.direction,
		Patterns:       patterns,
		Keywords:       keywords,
		ViolationTypes: types,
		PrincipleIDs:   det.principleIDs,
		Timestamp:      time.Now().UTC(),
	}

	nPatterns := len(patterns)
	nKeywords := len(keywords)

	switch {
	case nPatterns == 0 && nKeywords == 0 && len(types) == 0:
		report.Result = model.ResultSafe
		report.Confidence = 0.95
		report.Severity = model.SeverityLow
		report.Reasoning = "no constitutional concerns detected"

	case c.anyType(det.types, c.criticalTypes):
		report.Result = model.ResultCritical
		report.Confidence = minf(0.95, 0.7+0.1*float64(nPatterns))
		report.Severity = model.SeverityCritical
		report.Reasoning = fmt.Sprintf("critical violation types detected: %s", joinTypes(types))

	case c.anyType(det.types, c.highTypes):
		report.Result = model.ResultViolation
		report.Confidence = minf(0.9, 0.6+0.1*float64(nPatterns))
		report.Severity = model.SeverityHigh
		report.Reasoning = fmt.Sprintf("violation types detected: %s", joinTypes(types))

	case nPatterns == 0 && nKeywords > 0:
		report.Result = model.ResultSuspicious
		report.Confidence = minf(0.8, 0.5+0.05*float64(nKeywords))
		report.Severity = model.SeverityMedium
		report.Reasoning = fmt.Sprintf("suspicious keywords without structural patterns: %s", strings.Join(keywords, ", "))

	case nPatterns > 0:
		report.Result = model.ResultSuspicious
		report.Confidence = minf(0.85, 0.6+0.1*float64(nPatterns))
		report.Severity = model.SeverityMedium
		report.Reasoning = "structural patterns outside known violation classes"

	default:
		report.Result = model.ResultNeedsReview
		report.Confidence = 0.5
		report.Severity = model.SeverityMedium
		report.Reasoning = "detection state did not fit any classification rule"
	}

	return report
}

func (c *core) anyType(found map[model.ViolationType]bool, class map[model.ViolationType]bool) bool {
	for t := range found {
		if class[t] {
			return true
		}
	}
	return false
}

func (c *core) count(r model.Result) {
	c.total.Add(1)
	switch r {
	case model.ResultSafe:
		c.safe.Add(1)
	case model.ResultSuspicious:
		c.suspicious.Add(1)
	case model.ResultViolation:
		c.violation.Add(1)
	case model.ResultCritical:
		c.critical.Add(1)
	case model.ResultNeedsReview:
		c.needsReview.Add(1)
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedTypes(m map[model.ViolationType]bool) []model.ViolationType {
	out := make([]model.ViolationType, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinTypes(types []model.ViolationType) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
