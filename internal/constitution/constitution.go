// Package constitution holds the immutable rule set every governance
// decision is checked against: principles, activity keyword sets, red
// flags, escalation triggers, and a content-addressed integrity hash.
package constitution

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/praetor-hq/praetor/internal/model"
)

// Example is one illustrative (text, outcome) pair attached to a principle.
type Example struct {
	Text    string `yaml:"text" json:"text"`
	Outcome string `yaml:"outcome" json:"outcome"`
}

// Principle is one constitutional rule. Principles are immutable after
// AddPrinciple accepts them; the compiled patterns are cached there.
type Principle struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Category    model.Category `yaml:"category" json:"category"`
	Severity    model.Severity `yaml:"severity" json:"severity"`
	Patterns    []string       `yaml:"patterns" json:"patterns"`
	Keywords    []string       `yaml:"keywords" json:"keywords"`
	Examples    []Example      `yaml:"examples,omitempty" json:"examples,omitempty"`

	compiled []*regexp.Regexp
}

// compile validates and caches the principle's patterns.
func (p *Principle) compile() error {
	p.compiled = make([]*regexp.Regexp, 0, len(p.Patterns))
	for _, src := range p.Patterns {
		re, err := regexp.Compile("(?i)" + src)
		if err != nil {
			return fmt.Errorf("principle %s: bad pattern %q: %w", p.ID, src, err)
		}
		p.compiled = append(p.compiled, re)
	}
	return nil
}

// Match returns the pattern sources and keywords of p that occur in text.
func (p *Principle) Match(text string) (patterns, keywords []string) {
	lower := strings.ToLower(text)
	for i, re := range p.compiled {
		if re.MatchString(text) {
			patterns = append(patterns, p.Patterns[i])
		}
	}
	for _, kw := range p.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			keywords = append(keywords, kw)
		}
	}
	return patterns, keywords
}

// Constitution is the rule set governing all decisions. Built once per
// process and passed by reference; there is no ambient singleton.
type Constitution struct {
	Version              string
	Principles           []*Principle
	AllowedActivities    []string
	DisallowedActivities []string
	RedFlags             []string
	EscalationTriggers   []string

	mu   sync.Mutex
	hash string // cached integrity hash; empty means dirty
}

// New returns an empty constitution with the given version label.
func New(version string) *Constitution {
	return &Constitution{Version: version}
}

// AddPrinciple validates and appends a principle. An unknown category is
// the only construction error. Any addition invalidates the cached hash.
func (c *Constitution) AddPrinciple(p *Principle) error {
	if _, err := model.ParseCategory(string(p.Category)); err != nil {
		return err
	}
	if p.Severity == "" {
		p.Severity = model.SeverityMedium
	}
	if err := p.compile(); err != nil {
		return err
	}
	c.mu.Lock()
	c.Principles = append(c.Principles, p)
	c.hash = ""
	c.mu.Unlock()
	return nil
}

// PrinciplesByCategory returns the principles in the given category,
// in insertion order.
func (c *Constitution) PrinciplesByCategory(cat model.Category) []*Principle {
	var out []*Principle
	for _, p := range c.Principles {
		if p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}

// Principle returns the principle with the given id, or nil.
func (c *Constitution) Principle(id string) *Principle {
	for _, p := range c.Principles {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CheckRedFlags returns every red-flag keyword occurring in text.
// Matching is case-insensitive substring containment.
func (c *Constitution) CheckRedFlags(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, flag := range c.RedFlags {
		if strings.Contains(lower, strings.ToLower(flag)) {
			hits = append(hits, flag)
		}
	}
	return hits
}

// CheckEscalationNeeded reports whether text contains any escalation
// trigger phrase.
func (c *Constitution) CheckEscalationNeeded(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range c.EscalationTriggers {
		if strings.Contains(lower, strings.ToLower(trigger)) {
			return true
		}
	}
	return false
}

// IntegrityHash returns the content-addressed hash of the constitution:
// sha256 over the canonical JSON of ToMap, recomputed lazily after any
// mutation. Identical content always yields an identical hash.
func (c *Constitution) IntegrityHash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hash != "" {
		return c.hash
	}
	raw, err := json.Marshal(c.toMapLocked())
	if err != nil {
		// Maps of plain strings and slices cannot fail to marshal;
		// keep the hash empty so the next call retries.
		return ""
	}
	sum := sha256.Sum256(raw)
	c.hash = "sha256:" + hex.EncodeToString(sum[:])
	return c.hash
}

// ToMap converts the constitution to its canonical dictionary form. The
// same form feeds the integrity hash and FromMap.
func (c *Constitution) ToMap() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toMapLocked()
}

func (c *Constitution) toMapLocked() map[string]any {
	principles := make([]map[string]any, 0, len(c.Principles))
	for _, p := range c.Principles {
		examples := make([]map[string]any, 0, len(p.Examples))
		for _, ex := range p.Examples {
			examples = append(examples, map[string]any{
				"text":    ex.Text,
				"outcome": ex.Outcome,
			})
		}
		principles = append(principles, map[string]any{
			"id":          p.ID,
			"name":        p.Name,
			"description": p.Description,
			"category":    string(p.Category),
			"severity":    string(p.Severity),
			"patterns":    append([]string{}, p.Patterns...),
			"keywords":    append([]string{}, p.Keywords...),
			"examples":    examples,
		})
	}
	return map[string]any{
		"version":               c.Version,
		"principles":            principles,
		"allowed_activities":    append([]string{}, c.AllowedActivities...),
		"disallowed_activities": append([]string{}, c.DisallowedActivities...),
		"red_flags":             append([]string{}, c.RedFlags...),
		"escalation_triggers":   append([]string{}, c.EscalationTriggers...),
	}
}

// FromMap rebuilds a constitution from its canonical dictionary form.
// Round-tripping through ToMap reproduces an identical integrity hash.
func FromMap(m map[string]any) (*Constitution, error) {
	c := New(asString(m["version"]))
	c.AllowedActivities = asStringSlice(m["allowed_activities"])
	c.DisallowedActivities = asStringSlice(m["disallowed_activities"])
	c.RedFlags = asStringSlice(m["red_flags"])
	c.EscalationTriggers = asStringSlice(m["escalation_triggers"])

	for _, pm := range asMapSlice(m["principles"]) {
		p := &Principle{
			ID:          asString(pm["id"]),
			Name:        asString(pm["name"]),
			Description: asString(pm["description"]),
			Category:    model.Category(asString(pm["category"])),
			Severity:    model.Severity(asString(pm["severity"])),
			Patterns:    asStringSlice(pm["patterns"]),
			Keywords:    asStringSlice(pm["keywords"]),
		}
		for _, em := range asMapSlice(pm["examples"]) {
			p.Examples = append(p.Examples, Example{
				Text:    asString(em["text"]),
				Outcome: asString(em["outcome"]),
			})
		}
		if err := c.AddPrinciple(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return append([]string{}, vv...)
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func asMapSlice(v any) []map[string]any {
	switch vv := v.(type) {
	case []map[string]any:
		return vv
	case []any:
		out := make([]map[string]any, 0, len(vv))
		for _, item := range vv {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
