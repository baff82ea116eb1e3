package praetor

import (
	"fmt"

	"github.com/praetor-hq/praetor/internal/model"
)

// Result is the SDK view of a verdict.
type Result struct {
	VerdictID           string
	Approved            bool
	RequiresHumanReview bool
	Classification      string // safe, suspicious, violation, critical, needs_review
	Confidence          float64
	Severity            string
	Reasoning           string
	Actions             []string
	TrustScore          float64
	Suspended           bool
}

// Allowed reports whether the content may pass.
func (r Result) Allowed() bool {
	return r.Approved
}

// DeniedError is returned when the governor denies an evaluation.
type DeniedError struct {
	AgentID   string
	Direction string // "input" or "output"
	Result    Result
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("praetor denied %s for agent %s: %s", e.Direction, e.AgentID, e.Result.Reasoning)
}

// toResult maps an internal verdict to an SDK Result.
func toResult(v *model.Verdict) Result {
	r := Result{
		VerdictID:           v.ID,
		Approved:            v.Approved,
		RequiresHumanReview: v.RequiresHumanReview,
		Reasoning:           v.Reasoning,
	}
	if v.Report != nil {
		r.Classification = string(v.Report.Result)
		r.Confidence = v.Report.Confidence
		r.Severity = string(v.Report.Severity)
	}
	if v.Trust != nil {
		r.TrustScore = v.Trust.Score
		r.Suspended = v.Trust.Suspended
	}
	for _, a := range v.Actions {
		r.Actions = append(r.Actions, string(a.Type))
	}
	return r
}
