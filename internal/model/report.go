package model

import "time"

// ClassificationReport is the structured outcome of scoring one piece of
// text against the constitution. Immutable once produced.
type ClassificationReport struct {
	Result         Result          `json:"result"`
	Confidence     float64         `json:"confidence"`
	Direction      Direction       `json:"direction"`
	Patterns       []string        `json:"detected_patterns"`
	Keywords       []string        `json:"detected_keywords"`
	ViolationTypes []ViolationType `json:"violation_types"`
	Severity       Severity        `json:"severity"`
	Reasoning      string          `json:"reasoning"`
	PrincipleIDs   []string        `json:"principle_ids,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// HasViolationType reports whether t was detected.
func (r *ClassificationReport) HasViolationType(t ViolationType) bool {
	for _, v := range r.ViolationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ToMap converts the report to its canonical dictionary form.
func (r *ClassificationReport) ToMap() map[string]any {
	types := make([]string, 0, len(r.ViolationTypes))
	for _, v := range r.ViolationTypes {
		types = append(types, string(v))
	}
	return map[string]any{
		"result":            string(r.Result),
		"confidence":        r.Confidence,
		"direction":         string(r.Direction),
		"detected_patterns": r.Patterns,
		"detected_keywords": r.Keywords,
		"violation_types":   types,
		"severity":          string(r.Severity),
		"reasoning":         r.Reasoning,
		"principle_ids":     r.PrincipleIDs,
		"timestamp":         r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// SuspicionFactor is one weighted contribution to a suspicion score.
type SuspicionFactor struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
	Detail string  `json:"detail,omitempty"`
}

// SuspicionScore is a per-agent, per-moment behavioral anomaly score.
// Scores live in [0,100]; 80 and above is a violation.
type SuspicionScore struct {
	AgentID     string            `json:"agent_id"`
	Score       float64           `json:"score"`
	Factors     []SuspicionFactor `json:"factors"`
	IsViolation bool              `json:"is_violation"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Factor returns the points contributed under name, or 0 when absent.
func (s *SuspicionScore) Factor(name string) float64 {
	for _, f := range s.Factors {
		if f.Name == name {
			return f.Points
		}
	}
	return 0
}

// TrustSnapshot is the immutable view of an agent's trust state carried by
// verdicts and serialized into audit entries. The mutable record stays
// inside the trust engine.
type TrustSnapshot struct {
	AgentID          string    `json:"agent_id"`
	Score            float64   `json:"score"`
	ConsecutiveGood  int       `json:"consecutive_good"`
	Suspended        bool      `json:"suspended"`
	SuspensionReason string    `json:"suspension_reason,omitempty"`
	SuspensionExpiry time.Time `json:"suspension_expiry"`
	EventCount       int       `json:"event_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ToMap converts the snapshot to its canonical dictionary form.
func (t *TrustSnapshot) ToMap() map[string]any {
	return map[string]any{
		"agent_id":          t.AgentID,
		"score":             t.Score,
		"consecutive_good":  t.ConsecutiveGood,
		"suspended":         t.Suspended,
		"suspension_reason": t.SuspensionReason,
		"suspension_expiry": t.SuspensionExpiry.UTC().Format(time.RFC3339Nano),
		"event_count":       t.EventCount,
		"updated_at":        t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
