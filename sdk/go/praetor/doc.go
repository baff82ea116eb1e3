// Package praetor provides in-process constitutional governance for Go
// agent frameworks. It wraps tool functions, evaluates content against the
// constitution in both directions, tracks per-agent trust, and enforces
// verdicts (deny, escalate, suspend) at boundaries agents cannot bypass.
//
// Usage:
//
//	client, err := praetor.New(praetor.WithMode("normative"))
//	wrapped := client.Wrap("agent-a", myTool)
//	output, err := wrapped(ctx, "summarize the incident report")
//	if denied := (*praetor.DeniedError)(nil); errors.As(err, &denied) {
//	    log.Printf("blocked: %s", denied.Result.Reasoning)
//	}
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/praetor-hq/praetor/sdk/go/praetor.
package praetor
