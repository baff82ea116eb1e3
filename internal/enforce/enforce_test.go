package enforce

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/praetor-hq/praetor/internal/model"
	"github.com/praetor-hq/praetor/internal/trust"
)

func report(result model.Result, sev model.Severity, types ...model.ViolationType) *model.ClassificationReport {
	return &model.ClassificationReport{
		Result:         result,
		Confidence:     0.9,
		Direction:      model.DirectionInput,
		ViolationTypes: types,
		Severity:       sev,
		Reasoning:      "test classification",
		Timestamp:      time.Now(),
	}
}

func newEngine(t *testing.T, mode model.Mode) (*Engine, *trust.Engine) {
	t.Helper()
	te := trust.New()
	e, err := New(mode, te)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, te
}

func actionTypes(actions []model.EnforcementAction) []model.ActionType {
	out := make([]model.ActionType, len(actions))
	for i, a := range actions {
		out[i] = a.Type
	}
	return out
}

func hasAction(actions []model.EnforcementAction, t model.ActionType) bool {
	for _, a := range actions {
		if a.Type == t {
			return true
		}
	}
	return false
}

func TestSuspendedAgentBlocked(t *testing.T) {
	e, te := newEngine(t, model.ModeNormative)
	te.RecordViolation("agent-a", model.ViolationJailbreak, model.SeverityCritical, "jailbreak")

	// Even a safe classification cannot pass while suspended.
	actions := e.DetermineActions(report(model.ResultSafe, model.SeverityLow), "agent-a")
	if len(actions) != 1 || actions[0].Type != model.ActionBlockAgent {
		t.Fatalf("actions = %v, want single block_agent", actionTypes(actions))
	}
	if !strings.Contains(actions[0].Reason, "suspended") {
		t.Errorf("reason = %q, want suspension reason", actions[0].Reason)
	}
}

func TestSafeRecordsGoodActionAndAllows(t *testing.T) {
	e, te := newEngine(t, model.ModeNormative)

	actions := e.DetermineActions(report(model.ResultSafe, model.SeverityLow), "agent-a")
	if len(actions) != 1 || actions[0].Type != model.ActionAllow {
		t.Fatalf("actions = %v, want single allow", actionTypes(actions))
	}

	snap, _ := te.Snapshot("agent-a")
	if snap.ConsecutiveGood != 1 {
		t.Errorf("ConsecutiveGood = %d, want 1", snap.ConsecutiveGood)
	}
}

func TestNeedsReviewEscalatesToHuman(t *testing.T) {
	e, _ := newEngine(t, model.ModeNormative)
	actions := e.DetermineActions(report(model.ResultNeedsReview, model.SeverityMedium), "agent-a")
	if len(actions) != 1 || actions[0].Type != model.ActionEscalateHuman {
		t.Fatalf("actions = %v, want single escalate_to_human", actionTypes(actions))
	}
}

func TestCoerciveCriticalActions(t *testing.T) {
	e, _ := newEngine(t, model.ModeCoercive)
	actions := e.DetermineActions(
		report(model.ResultCritical, model.SeverityCritical, model.ViolationPromptInjection), "agent-a")

	want := []model.ActionType{model.ActionBlockRequest, model.ActionSuspendAgent, model.ActionEscalateAdmin}
	got := actionTypes(actions)
	if len(got) != len(want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("actions[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNormativeMediumActions(t *testing.T) {
	e, _ := newEngine(t, model.ModeNormative)
	actions := e.DetermineActions(
		report(model.ResultSuspicious, model.SeverityMedium), "agent-a")

	want := []model.ActionType{model.ActionWarn, model.ActionReduceTrust}
	got := actionTypes(actions)
	if len(got) != len(want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("actions[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTypeSpecificActionsUnioned(t *testing.T) {
	e, _ := newEngine(t, model.ModeNormative)
	actions := e.DetermineActions(
		report(model.ResultViolation, model.SeverityHigh, model.ViolationDataExfiltration), "agent-a")

	// normative high list plus the exfiltration-specific admin escalation
	for _, want := range []model.ActionType{
		model.ActionBlockRequest, model.ActionReduceTrust,
		model.ActionEscalateHuman, model.ActionEscalateAdmin,
	} {
		if !hasAction(actions, want) {
			t.Errorf("missing %v in %v", want, actionTypes(actions))
		}
	}
}

func TestTypeSpecificActionsDeduped(t *testing.T) {
	e, _ := newEngine(t, model.ModeCoercive)
	// Coercive critical already carries suspend_agent; a jailbreak's
	// type-specific suspend must not appear twice.
	actions := e.DetermineActions(
		report(model.ResultCritical, model.SeverityCritical, model.ViolationJailbreak), "agent-a")

	count := 0
	for _, a := range actions {
		if a.Type == model.ActionSuspendAgent {
			count++
		}
	}
	if count != 1 {
		t.Errorf("suspend_agent appears %d times in %v", count, actionTypes(actions))
	}
}

func TestOneTrustViolationPerDetectedType(t *testing.T) {
	e, te := newEngine(t, model.ModeNormative)
	e.DetermineActions(
		report(model.ResultCritical, model.SeverityCritical,
			model.ViolationPromptInjection, model.ViolationPolicy), "agent-a")

	violations := 0
	for _, ev := range te.Events("agent-a") {
		if ev.Kind == trust.EventViolation {
			violations++
		}
	}
	if violations != 2 {
		t.Errorf("trust violations = %d, want exactly 2", violations)
	}
}

func TestAdaptiveSoftensForTrustedAgent(t *testing.T) {
	e, te := newEngine(t, model.ModeAdaptive)
	for i := 0; i < 5; i++ {
		te.RecordGoodAction("agent-a", "clean")
	}
	if snap, _ := te.Snapshot("agent-a"); snap.Score < 0.8 {
		t.Fatalf("setup: trust = %v, want >= 0.8", snap.Score)
	}

	actions := e.DetermineActions(
		report(model.ResultCritical, model.SeverityCritical, model.ViolationPromptInjection), "agent-a")

	// Critical softened to the high lookup: human escalation instead of the
	// critical row, with admin escalation still forced for the raw severity.
	if !hasAction(actions, model.ActionEscalateHuman) {
		t.Errorf("softened lookup should escalate to human, got %v", actionTypes(actions))
	}
	if !hasAction(actions, model.ActionEscalateAdmin) {
		t.Errorf("critical severity must still reach an admin, got %v", actionTypes(actions))
	}
}

func TestAdaptiveHardensForDistrustedAgent(t *testing.T) {
	e, te := newEngine(t, model.ModeAdaptive)
	te.RecordViolation("agent-a", model.ViolationJailbreak, model.SeverityMedium, "prior jailbreak")
	if snap, _ := te.Snapshot("agent-a"); snap.Score >= 0.4 {
		t.Fatalf("setup: trust = %v, want < 0.4", snap.Score)
	}

	actions := e.DetermineActions(
		report(model.ResultViolation, model.SeverityMedium, model.ViolationCodeInjection), "agent-a")

	// Medium hardened to the high lookup: block instead of warn.
	if !hasAction(actions, model.ActionBlockRequest) {
		t.Errorf("hardened lookup should block, got %v", actionTypes(actions))
	}
	if hasAction(actions, model.ActionWarn) {
		t.Errorf("hardened lookup should not warn, got %v", actionTypes(actions))
	}
}

func TestPassiveOnlyObserves(t *testing.T) {
	e, _ := newEngine(t, model.ModePassive)
	actions := e.DetermineActions(
		report(model.ResultCritical, model.SeverityCritical, model.ViolationJailbreak), "agent-a")

	if len(actions) != 1 || actions[0].Type != model.ActionLogWarning {
		t.Fatalf("actions = %v, want single log_warning", actionTypes(actions))
	}
}

func TestPassiveStillRecordsTrustViolations(t *testing.T) {
	e, te := newEngine(t, model.ModePassive)
	e.DetermineActions(
		report(model.ResultViolation, model.SeverityHigh, model.ViolationMaliciousCode), "agent-a")

	snap, ok := te.Snapshot("agent-a")
	if !ok || snap.Score >= trust.InitialScore {
		t.Errorf("trust = %+v, want reduced even in passive mode", snap)
	}
}

func TestExecuteActionsDefaultExecutor(t *testing.T) {
	e, _ := newEngine(t, model.ModeNormative)
	executed := e.ExecuteActions([]model.EnforcementAction{
		e.action(model.ActionAllow, "agent-a", "ok", model.SeverityLow),
	})
	if !executed[0].Executed || !executed[0].Success {
		t.Errorf("default executor result = %+v, want executed and successful", executed[0])
	}
	if len(e.History()) != 1 {
		t.Errorf("history = %d entries, want 1", len(e.History()))
	}
}

func TestExecutorFaultIsolation(t *testing.T) {
	e, _ := newEngine(t, model.ModeNormative)
	e.RegisterExecutor(model.ActionWarn, ExecutorFunc(func(a *model.EnforcementAction) error {
		return errors.New("webhook down")
	}))

	executed := e.ExecuteActions([]model.EnforcementAction{
		e.action(model.ActionWarn, "agent-a", "warn", model.SeverityMedium),
		e.action(model.ActionLogInfo, "agent-a", "log", model.SeverityLow),
	})

	if executed[0].Success || executed[0].Error == "" {
		t.Errorf("failing executor result = %+v, want failure with error", executed[0])
	}
	if !executed[1].Success {
		t.Errorf("sibling action should succeed independently, got %+v", executed[1])
	}
	if c := e.Counters(); c.Failed != 1 || c.Executed != 2 {
		t.Errorf("counters = %+v, want failed 1 executed 2", c)
	}
}

func TestExecutorPanicIsolated(t *testing.T) {
	e, _ := newEngine(t, model.ModeNormative)
	e.RegisterExecutor(model.ActionSuspendAgent, ExecutorFunc(func(a *model.EnforcementAction) error {
		panic("boom")
	}))

	executed := e.ExecuteActions([]model.EnforcementAction{
		e.action(model.ActionSuspendAgent, "agent-a", "suspend", model.SeverityCritical),
		e.action(model.ActionLogInfo, "agent-a", "log", model.SeverityLow),
	})

	if executed[0].Success {
		t.Error("panicking executor should mark the action failed")
	}
	if !strings.Contains(executed[0].Error, "panic") {
		t.Errorf("error = %q, want panic note", executed[0].Error)
	}
	if !executed[1].Success {
		t.Error("sibling action should survive a panic")
	}
}

func TestHistoryCapEviction(t *testing.T) {
	e, _ := newEngine(t, model.ModeNormative)
	for i := 0; i < HistoryCap+20; i++ {
		e.ExecuteActions([]model.EnforcementAction{
			e.action(model.ActionAllow, "agent-a", "ok", model.SeverityLow),
		})
	}
	if got := len(e.History()); got != HistoryCap {
		t.Errorf("history = %d, want cap %d", got, HistoryCap)
	}
}

func TestProcessClassificationAutoExecute(t *testing.T) {
	e, _ := newEngine(t, model.ModeNormative)

	executed := e.ProcessClassification(report(model.ResultSafe, model.SeverityLow), "agent-a", true)
	if len(executed) != 1 || !executed[0].Executed {
		t.Fatalf("executed = %+v, want one executed allow", executed)
	}

	determined := e.ProcessClassification(report(model.ResultSafe, model.SeverityLow), "agent-a", false)
	if len(determined) != 1 || determined[0].Executed {
		t.Fatalf("determined = %+v, want unexecuted allow", determined)
	}
}

func TestUnknownModeRejected(t *testing.T) {
	te := trust.New()
	if _, err := New(model.Mode("bogus"), te); err == nil {
		t.Error("New with unknown mode should error")
	}

	e, _ := newEngine(t, model.ModeNormative)
	if err := e.SetPolicy(model.Mode("bogus")); err == nil {
		t.Error("SetPolicy with unknown mode should error")
	}
	if e.Mode() != model.ModeNormative {
		t.Errorf("mode = %v, want unchanged normative", e.Mode())
	}
}

func TestSetPolicySwapsAtRuntime(t *testing.T) {
	e, _ := newEngine(t, model.ModeCoercive)
	if err := e.SetPolicy(model.ModePassive); err != nil {
		t.Fatalf("SetPolicy: %v", err)
	}

	actions := e.DetermineActions(
		report(model.ResultCritical, model.SeverityCritical, model.ViolationPromptInjection), "agent-a")
	if len(actions) != 1 || actions[0].Type != model.ActionLogWarning {
		t.Errorf("after swap actions = %v, want passive log_warning", actionTypes(actions))
	}
}

func TestEnforcementErrorMessage(t *testing.T) {
	err := error(&EnforcementError{Decision: "blocked", Reason: "critical violation"})
	if !strings.Contains(err.Error(), "blocked") || !strings.Contains(err.Error(), "critical violation") {
		t.Errorf("Error() = %q", err.Error())
	}

	var enfErr *EnforcementError
	if !errors.As(err, &enfErr) {
		t.Fatalf("errors.As failed for %T", err)
	}
}
