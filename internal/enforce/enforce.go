// Package enforce turns classification reports into concrete actions under
// the active policy and runs them through pluggable executors.
package enforce

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-hq/praetor/internal/model"
	"github.com/praetor-hq/praetor/internal/trust"
)

// HistoryCap bounds the executed-action history. Oldest evicted first.
const HistoryCap = 500

// EnforcementError surfaces a blocking verdict as an error for SDK and CLI
// callers.
type EnforcementError struct {
	Decision string
	Reason   string
}

func (e *EnforcementError) Error() string {
	return fmt.Sprintf("enforcement blocked (%s): %s", e.Decision, e.Reason)
}

// Executor runs one enforcement action.
type Executor interface {
	Execute(a *model.EnforcementAction) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(a *model.EnforcementAction) error

func (f ExecutorFunc) Execute(a *model.EnforcementAction) error { return f(a) }

// defaultExecutor is used for action types with no registered executor.
// Logging the action is not an error: observation-only deployments register
// nothing.
var defaultExecutor Executor = ExecutorFunc(func(a *model.EnforcementAction) error {
	fmt.Fprintf(os.Stderr, "praetor: enforce %s agent=%s reason=%s\n", a.Type, a.AgentID, a.Reason)
	return nil
})

// Counters is a snapshot of engine activity.
type Counters struct {
	Determined uint64
	Executed   uint64
	Failed     uint64
}

// Engine decides and executes enforcement. Determination consults trust
// (suspension gate, adaptive lookup) and pays trust side effects: a good
// action on safe results, one violation per detected type otherwise.
type Engine struct {
	trust *trust.Engine

	mu        sync.Mutex
	policy    Policy
	executors map[model.ActionType]Executor
	history   []model.EnforcementAction

	determined atomic.Uint64
	executed   atomic.Uint64
	failed     atomic.Uint64
}

// New returns an engine in the given mode. Unknown modes are a
// construction error.
func New(mode model.Mode, trustEngine *trust.Engine) (*Engine, error) {
	p, ok := PolicyFor(mode)
	if !ok {
		return nil, fmt.Errorf("unknown enforcement mode %q", mode)
	}
	return &Engine{
		trust:     trustEngine,
		policy:    p,
		executors: make(map[model.ActionType]Executor),
	}, nil
}

// SetPolicy swaps the active policy at runtime.
func (e *Engine) SetPolicy(mode model.Mode) error {
	p, ok := PolicyFor(mode)
	if !ok {
		return fmt.Errorf("unknown enforcement mode %q", mode)
	}
	e.mu.Lock()
	e.policy = p
	e.mu.Unlock()
	return nil
}

// Mode reports the active policy mode.
func (e *Engine) Mode() model.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.policy.Mode
}

// RegisterExecutor wires an executor for one action type, replacing any
// previous registration.
func (e *Engine) RegisterExecutor(t model.ActionType, ex Executor) {
	e.mu.Lock()
	e.executors[t] = ex
	e.mu.Unlock()
}

func (e *Engine) executorFor(t model.ActionType) Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ex := e.executors[t]; ex != nil {
		return ex
	}
	return defaultExecutor
}

func (e *Engine) action(t model.ActionType, agentID, reason string, sev model.Severity) model.EnforcementAction {
	return model.EnforcementAction{
		ID:        uuid.NewString(),
		Type:      t,
		AgentID:   agentID,
		Reason:    reason,
		Severity:  sev,
		CreatedAt: time.Now(),
	}
}

// DetermineActions maps a classification to its action list. Decision
// order: suspended agents are blocked outright; safe results record a good
// action and allow; needs_review escalates to a human; everything else
// takes the policy's severity lookup unioned with type-specific actions,
// records one trust violation per detected type, and forces admin
// escalation on critical when the policy requires it.
func (e *Engine) DetermineActions(report *model.ClassificationReport, agentID string) []model.EnforcementAction {
	e.determined.Add(1)

	if suspended, reason := e.trust.CheckSuspension(agentID); suspended {
		return []model.EnforcementAction{
			e.action(model.ActionBlockAgent, agentID, "agent suspended: "+reason, model.SeverityHigh),
		}
	}

	switch report.Result {
	case model.ResultSafe:
		e.trust.RecordGoodAction(agentID, string(report.Direction)+" within policy")
		return []model.EnforcementAction{
			e.action(model.ActionAllow, agentID, "no constitutional concerns", report.Severity),
		}
	case model.ResultNeedsReview:
		return []model.EnforcementAction{
			e.action(model.ActionEscalateHuman, agentID, report.Reasoning, report.Severity),
		}
	}

	e.mu.Lock()
	policy := e.policy
	e.mu.Unlock()

	lookup := report.Severity
	if policy.Adaptive {
		snap := e.trust.GetOrCreate(agentID)
		lookup = policy.lookupSeverity(report.Severity, snap.Score)
	}

	types := make([]model.ActionType, 0, 4)
	seen := make(map[model.ActionType]bool)
	for _, t := range policy.Actions[lookup] {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	if !policy.ObserveOnly {
		for _, vt := range report.ViolationTypes {
			for _, t := range typeActions[vt] {
				if !seen[t] {
					seen[t] = true
					types = append(types, t)
				}
			}
		}
	}

	// Trust pays once per detected type at the report's own severity; the
	// adaptive shift affects only the action lookup.
	for _, vt := range report.ViolationTypes {
		e.trust.RecordViolation(agentID, vt, report.Severity, report.Reasoning)
	}

	if report.Severity == model.SeverityCritical && policy.RequireAdminOnCritical && !seen[model.ActionEscalateAdmin] {
		types = append(types, model.ActionEscalateAdmin)
	}

	actions := make([]model.EnforcementAction, 0, len(types))
	for _, t := range types {
		actions = append(actions, e.action(t, agentID, report.Reasoning, report.Severity))
	}
	return actions
}

// ExecuteActions runs each action through its executor. Actions execute
// independently: one failure never aborts the rest, it only marks that
// action failed.
func (e *Engine) ExecuteActions(actions []model.EnforcementAction) []model.EnforcementAction {
	out := make([]model.EnforcementAction, len(actions))
	copy(out, actions)
	for i := range out {
		a := &out[i]
		a.Executed = true
		if err := runExecutor(e.executorFor(a.Type), a); err != nil {
			a.Success = false
			a.Error = err.Error()
			e.failed.Add(1)
		} else {
			a.Success = true
		}
		e.executed.Add(1)
		e.remember(*a)
	}
	return out
}

func runExecutor(ex Executor, a *model.EnforcementAction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return ex.Execute(a)
}

// ProcessClassification determines actions and, when autoExecute is set,
// executes them. Determination runs exactly once per classification.
func (e *Engine) ProcessClassification(report *model.ClassificationReport, agentID string, autoExecute bool) []model.EnforcementAction {
	actions := e.DetermineActions(report, agentID)
	if autoExecute {
		return e.ExecuteActions(actions)
	}
	return actions
}

func (e *Engine) remember(a model.EnforcementAction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) >= HistoryCap {
		copy(e.history, e.history[1:])
		e.history[len(e.history)-1] = a
		return
	}
	e.history = append(e.history, a)
}

// History returns a copy of the executed-action history, oldest first.
func (e *Engine) History() []model.EnforcementAction {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.EnforcementAction, len(e.history))
	copy(out, e.history)
	return out
}

// Counters returns a snapshot of engine activity.
func (e *Engine) Counters() Counters {
	return Counters{
		Determined: e.determined.Load(),
		Executed:   e.executed.Load(),
		Failed:     e.failed.Load(),
	}
}
