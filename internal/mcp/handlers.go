package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/praetor-hq/praetor/internal/model"
)

// --- Input/Output types ---

// EvalInput defines parameters for the evaluate_input and evaluate_output tools.
type EvalInput struct {
	AgentID    string `json:"agent_id" jsonschema:"agent being governed"`
	Content    string `json:"content" jsonschema:"content to evaluate"`
	Thoughts   string `json:"thoughts,omitempty" jsonschema:"agent reasoning accompanying the content"`
	ActionType string `json:"action_type,omitempty" jsonschema:"action the agent is attempting"`
}

// EvalOutput carries the verdict for an evaluation.
type EvalOutput struct {
	VerdictID           string   `json:"verdict_id"`
	Approved            bool     `json:"approved"`
	RequiresHumanReview bool     `json:"requires_human_review"`
	Result              string   `json:"result"`
	Confidence          float64  `json:"confidence"`
	Severity            string   `json:"severity"`
	Reasoning           string   `json:"reasoning"`
	Actions             []string `json:"actions,omitempty"`
}

// StatusInput defines parameters for the agent_status tool.
type StatusInput struct {
	AgentID string `json:"agent_id" jsonschema:"agent to inspect"`
}

// StatusOutput reports trust and suspension state for an agent.
type StatusOutput struct {
	AgentID          string  `json:"agent_id"`
	Known            bool    `json:"known"`
	TrustScore       float64 `json:"trust_score,omitempty"`
	ConsecutiveGood  int     `json:"consecutive_good,omitempty"`
	Suspended        bool    `json:"suspended"`
	SuspensionReason string  `json:"suspension_reason,omitempty"`
	SuspensionExpiry string  `json:"suspension_expiry,omitempty"`
	Suspicion        float64 `json:"suspicion,omitempty"`
	EventCount       int     `json:"event_count,omitempty"`
}

// LiftInput defines parameters for the lift_suspension tool.
type LiftInput struct {
	AgentID string `json:"agent_id" jsonschema:"suspended agent"`
	Reason  string `json:"reason" jsonschema:"operator justification, recorded in the trust history"`
}

// LiftOutput confirms the lift.
type LiftOutput struct {
	AgentID string `json:"agent_id"`
	Lifted  bool   `json:"lifted"`
}

// InfoInput is empty; constitution_info takes no parameters.
type InfoInput struct{}

// InfoOutput describes the active constitution.
type InfoOutput struct {
	Version       string          `json:"version"`
	IntegrityHash string          `json:"integrity_hash"`
	Principles    []PrincipleInfo `json:"principles"`
	RedFlags      []string        `json:"red_flags,omitempty"`
}

// PrincipleInfo summarizes one constitutional principle.
type PrincipleInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Severity string `json:"severity"`
}

// --- Handlers ---

func (s *Server) handleEvaluateInput(ctx context.Context, req *mcpsdk.CallToolRequest, input EvalInput) (*mcpsdk.CallToolResult, EvalOutput, error) {
	if input.AgentID == "" {
		return nil, EvalOutput{}, fmt.Errorf("agent_id is required")
	}

	v := s.gov.EvaluateInput(input.AgentID, input.Content, evalContext(input))
	out := verdictOutput(v)
	if !v.Approved {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleEvaluateOutput(ctx context.Context, req *mcpsdk.CallToolRequest, input EvalInput) (*mcpsdk.CallToolResult, EvalOutput, error) {
	if input.AgentID == "" {
		return nil, EvalOutput{}, fmt.Errorf("agent_id is required")
	}

	v := s.gov.EvaluateOutput(input.AgentID, input.Content, evalContext(input))
	out := verdictOutput(v)
	if !v.Approved {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleAgentStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if input.AgentID == "" {
		return nil, StatusOutput{}, fmt.Errorf("agent_id is required")
	}

	st := s.gov.AgentStatus(input.AgentID)
	out := StatusOutput{
		AgentID: st.AgentID,
		Known:   st.Known,
	}
	if st.Known {
		out.TrustScore = st.Trust.Score
		out.ConsecutiveGood = st.Trust.ConsecutiveGood
		out.Suspended = st.Suspended
		out.SuspensionReason = st.SuspensionReason
		out.EventCount = st.Trust.EventCount
		if st.Suspended && !st.Trust.SuspensionExpiry.IsZero() {
			out.SuspensionExpiry = st.Trust.SuspensionExpiry.UTC().Format(time.RFC3339)
		}
	}
	if st.Suspicion != nil {
		out.Suspicion = st.Suspicion.Score
	}
	return nil, out, nil
}

func (s *Server) handleLiftSuspension(ctx context.Context, req *mcpsdk.CallToolRequest, input LiftInput) (*mcpsdk.CallToolResult, LiftOutput, error) {
	if input.AgentID == "" {
		return nil, LiftOutput{}, fmt.Errorf("agent_id is required")
	}
	if input.Reason == "" {
		return nil, LiftOutput{}, fmt.Errorf("reason is required")
	}

	if err := s.gov.LiftSuspension(input.AgentID, input.Reason); err != nil {
		return nil, LiftOutput{AgentID: input.AgentID}, err
	}
	return nil, LiftOutput{AgentID: input.AgentID, Lifted: true}, nil
}

func (s *Server) handleConstitutionInfo(ctx context.Context, req *mcpsdk.CallToolRequest, input InfoInput) (*mcpsdk.CallToolResult, InfoOutput, error) {
	cons := s.gov.Constitution()

	out := InfoOutput{
		Version:       cons.Version,
		IntegrityHash: s.gov.ConstitutionHash(),
		RedFlags:      cons.RedFlags,
	}
	for _, p := range cons.Principles {
		out.Principles = append(out.Principles, PrincipleInfo{
			ID:       p.ID,
			Name:     p.Name,
			Category: string(p.Category),
			Severity: string(p.Severity),
		})
	}
	return nil, out, nil
}

// --- Helpers ---

// evalContext lifts the optional tool parameters into an evaluation context.
func evalContext(input EvalInput) *model.Context {
	if input.Thoughts == "" && input.ActionType == "" {
		return nil
	}
	return &model.Context{Thoughts: input.Thoughts, ActionType: input.ActionType}
}

// verdictOutput flattens a verdict into the tool result shape.
func verdictOutput(v *model.Verdict) EvalOutput {
	out := EvalOutput{
		VerdictID:           v.ID,
		Approved:            v.Approved,
		RequiresHumanReview: v.RequiresHumanReview,
		Reasoning:           v.Reasoning,
	}
	if v.Report != nil {
		out.Result = string(v.Report.Result)
		out.Confidence = v.Report.Confidence
		out.Severity = string(v.Report.Severity)
	}
	for _, a := range v.Actions {
		out.Actions = append(out.Actions, string(a.Type))
	}
	return out
}
