// Package constdiff compares two constitution revisions and reports the
// changes in governance terms: principles added, removed or reweighted,
// and shifts in the red flag, trigger and activity sets. Operators run it
// before promoting a new constitution, since a one-line edit can move an
// agent from approved to denied.
package constdiff

import (
	"fmt"

	"github.com/praetor-hq/praetor/internal/constitution"
	"github.com/praetor-hq/praetor/internal/model"
)

// Change represents a scalar or set-entry change.
type Change struct {
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Comment string `json:"comment,omitempty"`
}

// PrincipleChange represents a principle addition, removal, or modification.
type PrincipleChange struct {
	Type      string `json:"type"` // "added", "removed", "changed"
	Principle string `json:"principle"`
}

// DiffResult holds the comparison of two constitutions.
type DiffResult struct {
	OldPath          string            `json:"old_path"`
	NewPath          string            `json:"new_path"`
	Changes          []Change          `json:"changes"`
	PrincipleChanges []PrincipleChange `json:"principle_changes"`
	HasChanges       bool              `json:"has_changes"`
}

// Diff compares two constitutions and returns the differences.
func Diff(old, new *constitution.Constitution) *DiffResult {
	r := &DiffResult{}

	if old.Version != new.Version {
		r.Changes = append(r.Changes, Change{
			Field: "version",
			Old:   old.Version,
			New:   new.Version,
		})
	}

	oldHash, newHash := old.IntegrityHash(), new.IntegrityHash()
	if oldHash != newHash {
		r.Changes = append(r.Changes, Change{
			Field: "integrity_hash",
			Old:   shortHash(oldHash),
			New:   shortHash(newHash),
		})
	}

	diffPrinciples(r, old.Principles, new.Principles)

	diffSet(r, "red_flags", old.RedFlags, new.RedFlags)
	diffSet(r, "escalation_triggers", old.EscalationTriggers, new.EscalationTriggers)
	diffSet(r, "allowed_activities", old.AllowedActivities, new.AllowedActivities)
	diffSet(r, "disallowed_activities", old.DisallowedActivities, new.DisallowedActivities)

	r.HasChanges = len(r.Changes) > 0 || len(r.PrincipleChanges) > 0
	return r
}

func principleLabel(p *constitution.Principle) string {
	return fmt.Sprintf("%s (%s) %s/%s", p.ID, p.Name, p.Category, p.Severity)
}

func diffPrinciples(r *DiffResult, oldPs, newPs []*constitution.Principle) {
	oldByID := make(map[string]*constitution.Principle)
	for _, p := range oldPs {
		oldByID[p.ID] = p
	}
	newByID := make(map[string]*constitution.Principle)
	for _, p := range newPs {
		newByID[p.ID] = p
	}

	for _, p := range newPs {
		oldP, exists := oldByID[p.ID]
		if !exists {
			r.PrincipleChanges = append(r.PrincipleChanges, PrincipleChange{
				Type:      "added",
				Principle: principleLabel(p),
			})
			continue
		}
		for _, d := range describePrincipleChanges(oldP, p) {
			r.PrincipleChanges = append(r.PrincipleChanges, PrincipleChange{
				Type:      "changed",
				Principle: d,
			})
		}
	}

	for _, p := range oldPs {
		if _, exists := newByID[p.ID]; !exists {
			r.PrincipleChanges = append(r.PrincipleChanges, PrincipleChange{
				Type:      "removed",
				Principle: principleLabel(p),
			})
		}
	}
}

// describePrincipleChanges reports what moved inside one principle that
// shares an ID across revisions.
func describePrincipleChanges(old, new *constitution.Principle) []string {
	var out []string
	if old.Category != new.Category {
		out = append(out, fmt.Sprintf("%s category: %s → %s", old.ID, old.Category, new.Category))
	}
	if old.Severity != new.Severity {
		out = append(out, fmt.Sprintf("%s severity: %s → %s (%s)",
			old.ID, old.Severity, new.Severity, severityComment(old.Severity, new.Severity)))
	}
	if len(old.Patterns) != len(new.Patterns) {
		out = append(out, fmt.Sprintf("%s patterns: %d → %d", old.ID, len(old.Patterns), len(new.Patterns)))
	}
	if len(old.Keywords) != len(new.Keywords) {
		out = append(out, fmt.Sprintf("%s keywords: %d → %d", old.ID, len(old.Keywords), len(new.Keywords)))
	}
	return out
}

func severityComment(old, new model.Severity) string {
	if model.SeverityRank[new] > model.SeverityRank[old] {
		return "stricter"
	}
	return "looser"
}

func diffSet(r *DiffResult, section string, oldEntries, newEntries []string) {
	oldSet := make(map[string]bool)
	for _, e := range oldEntries {
		oldSet[e] = true
	}
	newSet := make(map[string]bool)
	for _, e := range newEntries {
		newSet[e] = true
	}

	for _, e := range newEntries {
		if !oldSet[e] {
			r.Changes = append(r.Changes, Change{
				Field:   section,
				New:     e,
				Comment: "added",
			})
		}
	}
	for _, e := range oldEntries {
		if !newSet[e] {
			r.Changes = append(r.Changes, Change{
				Field:   section,
				Old:     e,
				Comment: "removed",
			})
		}
	}
}

// shortHash keeps diff output readable; the full hash is one
// praetor check --json away.
func shortHash(h string) string {
	if len(h) <= 23 {
		return h
	}
	return h[:23] + "..."
}
