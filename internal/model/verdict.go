package model

import "time"

// ExcerptLen is the maximum rune length of the content excerpt a Verdict
// carries. Full content never enters verdicts or audit entries.
const ExcerptLen = 200

// Excerpt truncates content to ExcerptLen runes for verdicts and audit.
func Excerpt(content string) string {
	r := []rune(content)
	if len(r) <= ExcerptLen {
		return content
	}
	return string(r[:ExcerptLen]) + "..."
}

// EnforcementAction is one concrete effect attached to a verdict.
// Immutable after its execution result is recorded.
type EnforcementAction struct {
	ID        string     `json:"id"`
	Type      ActionType `json:"type"`
	AgentID   string     `json:"agent_id"`
	Reason    string     `json:"reason"`
	Severity  Severity   `json:"severity"`
	CreatedAt time.Time  `json:"created_at"`
	Executed  bool       `json:"executed"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
}

// ToMap converts the action to its canonical dictionary form.
func (a *EnforcementAction) ToMap() map[string]any {
	return map[string]any{
		"id":         a.ID,
		"type":       string(a.Type),
		"agent_id":   a.AgentID,
		"reason":     a.Reason,
		"severity":   string(a.Severity),
		"created_at": a.CreatedAt.UTC().Format(time.RFC3339Nano),
		"executed":   a.Executed,
		"success":    a.Success,
		"error":      a.Error,
	}
}

// Context carries optional evaluation context supplied by the caller.
// Thoughts are weighted more heavily by the monitor; ActionType is audit
// metadata only and never influences the decision.
type Context struct {
	Thoughts   string            `json:"thoughts,omitempty"`
	ActionType string            `json:"action_type,omitempty"`
	Session    string            `json:"session,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Verdict is the engine's final decision for one evaluation. Produced once;
// never mutated after construction.
type Verdict struct {
	ID                  string                `json:"id"`
	AgentID             string                `json:"agent_id"`
	Direction           Direction             `json:"direction"`
	ContentExcerpt      string                `json:"content_excerpt"`
	Approved            bool                  `json:"approved"`
	RequiresHumanReview bool                  `json:"requires_human_review"`
	Report              *ClassificationReport `json:"classification"`
	Suspicion           *SuspicionScore       `json:"suspicion,omitempty"`
	Trust               *TrustSnapshot        `json:"trust"`
	Actions             []*EnforcementAction  `json:"actions"`
	Reasoning           string                `json:"reasoning"`
	Basis               []string              `json:"constitutional_basis,omitempty"`
	LatencyMS           float64               `json:"latency_ms"`
	Timestamp           time.Time             `json:"timestamp"`
}

// ToMap converts the verdict to its canonical dictionary form for audit.
func (v *Verdict) ToMap() map[string]any {
	m := map[string]any{
		"id":                    v.ID,
		"agent_id":              v.AgentID,
		"direction":             string(v.Direction),
		"content_excerpt":       v.ContentExcerpt,
		"approved":              v.Approved,
		"requires_human_review": v.RequiresHumanReview,
		"reasoning":             v.Reasoning,
		"constitutional_basis":  v.Basis,
		"latency_ms":            v.LatencyMS,
		"timestamp":             v.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if v.Report != nil {
		m["classification"] = v.Report.ToMap()
	}
	if v.Suspicion != nil {
		m["suspicion_score"] = v.Suspicion.Score
	}
	if v.Trust != nil {
		m["trust"] = v.Trust.ToMap()
	}
	actions := make([]map[string]any, 0, len(v.Actions))
	for _, a := range v.Actions {
		actions = append(actions, a.ToMap())
	}
	m["actions"] = actions
	return m
}
