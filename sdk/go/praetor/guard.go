package praetor

import (
	"context"

	"github.com/praetor-hq/praetor/internal/model"
)

// ToolFunc is the function signature that Wrap guards: content in,
// content out.
type ToolFunc func(ctx context.Context, input string) (string, error)

// Wrap returns a ToolFunc that evaluates the input before calling fn and
// the output after. A denial on either side returns a *DeniedError
// without the blocked content crossing the boundary; fn is not called
// when its input is denied.
func (c *Client) Wrap(agentID string, fn ToolFunc, opts ...WrapOption) ToolFunc {
	wcfg := wrapConfig{}
	for _, o := range opts {
		o(&wcfg)
	}

	return func(ctx context.Context, input string) (string, error) {
		in := c.gov.EvaluateInput(agentID, input, wcfg.evalContext())
		if !in.Approved {
			return "", &DeniedError{AgentID: agentID, Direction: "input", Result: toResult(in)}
		}

		output, err := fn(ctx, input)
		if err != nil {
			return "", err
		}

		out := c.gov.EvaluateOutput(agentID, output, wcfg.evalContext())
		if !out.Approved {
			return "", &DeniedError{AgentID: agentID, Direction: "output", Result: toResult(out)}
		}
		return output, nil
	}
}

// evalContext lifts wrap options into an evaluation context.
func (w wrapConfig) evalContext() *model.Context {
	if w.actionType == "" && w.session == "" {
		return nil
	}
	return &model.Context{ActionType: w.actionType, Session: w.session}
}
