// Package governor wires the constitution, classifiers, behavioral monitor,
// trust engine and enforcement engine into the single evaluation façade
// agents are governed through.
package governor

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-hq/praetor/internal/alert"
	"github.com/praetor-hq/praetor/internal/audit"
	"github.com/praetor-hq/praetor/internal/classifier"
	"github.com/praetor-hq/praetor/internal/constitution"
	"github.com/praetor-hq/praetor/internal/enforce"
	"github.com/praetor-hq/praetor/internal/model"
	"github.com/praetor-hq/praetor/internal/monitor"
	"github.com/praetor-hq/praetor/internal/redact"
	"github.com/praetor-hq/praetor/internal/review"
	"github.com/praetor-hq/praetor/internal/trust"
)

// State is the governor lifecycle phase.
type State string

const (
	StateInitializing State = "initializing"
	StateReady        State = "ready"
	StateMonitoring   State = "monitoring"
	StateShutdown     State = "shutdown"
)

// DefaultLowTrustThreshold is the trust score below which suspicious
// content is denied rather than allowed through.
const DefaultLowTrustThreshold = 0.4

// Callbacks are optional hooks fired synchronously after a verdict is
// assembled. A panicking callback is recovered, counted and logged to the
// audit sink; it never propagates to the caller.
type Callbacks struct {
	// OnViolation fires when the classification result is violation or
	// critical, or when the behavioral suspicion score is itself a
	// violation.
	OnViolation func(*model.Verdict)

	// OnEscalation fires when the verdict requires human review.
	OnEscalation func(*model.Verdict)
}

// Options configure a Governor. The zero value is usable: normative mode,
// no sinks, in-memory trust, reviews and alerts disabled.
type Options struct {
	// Mode selects the enforcement policy. Empty means normative; an
	// unknown mode is a construction error.
	Mode model.Mode

	// AuditSinks receive every audit entry. The governor takes ownership
	// and closes them on Stop. Sink faults are counted, never surfaced on
	// the decision path.
	AuditSinks []audit.Sink

	// TrustStore, when set, persists trust state across restarts. The
	// caller retains ownership and closes it after Stop.
	TrustStore *trust.Store

	// ReviewStore, when set, receives an item for every verdict that
	// requires human review.
	ReviewStore *review.Store

	// Notifier, when set, posts webhook alerts for violations,
	// escalations, suspensions and review filings. Nil means disabled.
	Notifier *alert.Notifier

	// ForceReviewOnCritical marks critical verdicts for human review on
	// top of the denial.
	ForceReviewOnCritical bool

	// LowTrustThreshold is the trust score below which suspicious content
	// is denied. Zero means DefaultLowTrustThreshold.
	LowTrustThreshold float64

	Callbacks Callbacks
}

// evalFrame carries per-evaluation context that executors cannot see
// through the EnforcementAction alone. At most one frame per agent is live
// at a time: the agent lock serializes same-agent evaluations.
type evalFrame struct {
	verdictID string
	direction model.Direction
	excerpt   string
	filed     bool
	charged   bool // determination already recorded per-type violations
}

// Governor is the constitutional governance engine. One instance governs
// any number of agents; evaluations for different agents run in parallel,
// evaluations for the same agent serialize.
type Governor struct {
	trust    *trust.Engine
	monitor  *monitor.Monitor
	enforcer *enforce.Engine
	sink     *audit.Multi
	reviews  *review.Store
	notifier *alert.Notifier

	callbacks   Callbacks
	lowTrust    float64
	forceReview bool

	mu   sync.RWMutex // guards constitution, classifiers, state
	cons *constitution.Constitution
	hash string
	in   *classifier.InputClassifier
	out  *classifier.OutputClassifier

	state State

	locksMu    sync.Mutex
	agentLocks map[string]*sync.Mutex

	framesMu sync.Mutex
	frames   map[string]*evalFrame

	metrics metrics
}

// New builds a governor over the given constitution. Construction fails
// fast: a nil constitution, an unknown mode or an unreadable trust store
// all return errors rather than a half-wired engine.
func New(c *constitution.Constitution, opts Options) (*Governor, error) {
	if c == nil {
		return nil, fmt.Errorf("governor needs a constitution")
	}
	mode := opts.Mode
	if mode == "" {
		mode = model.ModeNormative
	}

	var trustEngine *trust.Engine
	var err error
	if opts.TrustStore != nil {
		trustEngine, err = trust.NewPersistent(opts.TrustStore)
		if err != nil {
			return nil, fmt.Errorf("restore trust state: %w", err)
		}
	} else {
		trustEngine = trust.New()
	}

	enforcer, err := enforce.New(mode, trustEngine)
	if err != nil {
		return nil, err
	}

	low := opts.LowTrustThreshold
	if low == 0 {
		low = DefaultLowTrustThreshold
	}

	g := &Governor{
		trust:       trustEngine,
		monitor:     monitor.New(c),
		enforcer:    enforcer,
		sink:        audit.NewMulti(opts.AuditSinks...),
		reviews:     opts.ReviewStore,
		notifier:    opts.Notifier,
		callbacks:   opts.Callbacks,
		lowTrust:    low,
		forceReview: opts.ForceReviewOnCritical,
		cons:        c,
		hash:        c.IntegrityHash(),
		in:          classifier.NewInput(c),
		out:         classifier.NewOutput(c),
		state:       StateInitializing,
		agentLocks:  make(map[string]*sync.Mutex),
		frames:      make(map[string]*evalFrame),
	}
	g.metrics.init()
	g.wireExecutors()

	g.mu.Lock()
	g.state = StateReady
	g.mu.Unlock()

	e := audit.NewEntry(audit.LevelInfo, audit.CategorySystem, "governor initialized")
	e.Metadata = map[string]string{
		"mode":         string(mode),
		"constitution": g.hash,
		"principles":   strconv.Itoa(len(c.Principles)),
	}
	g.append(e)
	return g, nil
}

// EvaluateInput runs the governance pipeline over content arriving at an
// agent.
func (g *Governor) EvaluateInput(agentID, content string, ctx *model.Context) *model.Verdict {
	return g.evaluate(agentID, model.DirectionInput, content, ctx)
}

// EvaluateOutput runs the pipeline over content an agent produced. Output
// evaluation skips the behavioral monitor: behavior is scored on what
// reaches an agent, leaks are caught by classification alone.
func (g *Governor) EvaluateOutput(agentID, content string, ctx *model.Context) *model.Verdict {
	return g.evaluate(agentID, model.DirectionOutput, content, ctx)
}

// evaluate is the pipeline. Step order must not change:
//
//  1. classify against the constitution
//  2. record behavior and score suspicion (input only)
//  3. trust lookup and suspension check
//  4. verdict rules
//  5. enforcement, with its trust side effects
//  6. audit, metrics, callbacks
//
// Any panic on this path is converted into a blocked verdict requiring
// human review; evaluation never takes the caller down.
func (g *Governor) evaluate(agentID string, dir model.Direction, content string, ctx *model.Context) (v *model.Verdict) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.metrics.faults.Add(1)
			v = g.failSafe(agentID, dir, content, fmt.Sprintf("evaluation fault: %v", r), start)
		}
	}()

	g.metrics.evaluations.Add(1)

	if g.State() == StateShutdown {
		return g.failSafe(agentID, dir, content, "governor is shut down", start)
	}

	g.mu.RLock()
	cons := g.cons
	var cls classifier.Classifier = g.in
	if dir == model.DirectionOutput {
		cls = g.out
	}
	g.mu.RUnlock()

	report, err := cls.Classify(content, ctx)
	if err != nil {
		g.metrics.faults.Add(1)
		return g.failSafe(agentID, dir, content, "classifier fault: "+err.Error(), start)
	}

	verdict := g.judge(agentID, dir, content, ctx, cons, report, start)

	g.metrics.observe(verdict, report)
	g.fireCallbacks(verdict)
	return verdict
}

// judge holds the agent lock through monitoring, trust, the verdict rules
// and enforcement so same-agent trust mutations never interleave.
func (g *Governor) judge(agentID string, dir model.Direction, content string, ctx *model.Context, cons *constitution.Constitution, report *model.ClassificationReport, start time.Time) *model.Verdict {
	lock := g.agentLock(agentID)
	lock.Lock()
	defer lock.Unlock()

	var suspicion *model.SuspicionScore
	if dir == model.DirectionInput {
		var thoughts []string
		if ctx != nil && ctx.Thoughts != "" {
			thoughts = []string{ctx.Thoughts}
		}
		s := g.monitor.MonitorAgent(agentID, content, thoughts, nil)
		suspicion = &s
	}

	pre := g.trust.GetOrCreate(agentID)
	suspended, suspensionReason := g.trust.CheckSuspension(agentID)

	approved, needsReview, reasoning := g.decide(report, suspended, suspensionReason, pre.Score)
	if !approved && cons.CheckEscalationNeeded(content) {
		needsReview = true
	}

	verdictID := uuid.NewString()
	excerpt := model.Excerpt(redact.Mask(content))
	g.setFrame(agentID, &evalFrame{
		verdictID: verdictID,
		direction: dir,
		excerpt:   excerpt,
		charged:   len(report.ViolationTypes) > 0,
	})
	defer g.clearFrame(agentID)

	// Enforcement runs for every denial, and for safe results so the agent
	// collects its allow action and good-action credit. An approved
	// suspicious verdict takes no action.
	var actions []*model.EnforcementAction
	if !approved || report.Result == model.ResultSafe {
		executed := g.enforcer.ProcessClassification(report, agentID, true)
		actions = make([]*model.EnforcementAction, len(executed))
		for i := range executed {
			actions[i] = &executed[i]
		}
	}

	if !approved {
		g.monitor.RecordDenied(agentID)
	}

	post := g.trust.GetOrCreate(agentID)

	verdict := &model.Verdict{
		ID:                  verdictID,
		AgentID:             agentID,
		Direction:           dir,
		ContentExcerpt:      excerpt,
		Approved:            approved,
		RequiresHumanReview: needsReview,
		Report:              report,
		Suspicion:           suspicion,
		Trust:               &post,
		Actions:             actions,
		Reasoning:           reasoning,
		Basis:               report.PrincipleIDs,
		LatencyMS:           sinceMS(start),
		Timestamp:           time.Now().UTC(),
	}

	// Forced review (critical, escalation triggers) can require a human
	// without an escalate_to_human action having fired. File the item here
	// unless the executor already did.
	if needsReview && !g.frameFiled(agentID) {
		g.requestReview(agentID, dir, excerpt, reasoning, verdictID)
	}

	if post.Suspended && !pre.Suspended {
		g.metrics.suspensions.Add(1)
		g.dispatch(alert.Event{
			Kind:       alert.EventSuspension,
			Agent:      agentID,
			Severity:   string(report.Severity),
			Message:    post.SuspensionReason,
			VerdictID:  verdictID,
			TrustScore: post.Score,
		})
	}

	violation := report.Result == model.ResultViolation || report.Result == model.ResultCritical
	if suspicion != nil && suspicion.IsViolation {
		violation = true
	}
	if violation {
		g.dispatch(alert.Event{
			Kind:       alert.EventViolation,
			Agent:      agentID,
			Severity:   string(report.Severity),
			Message:    report.Reasoning,
			VerdictID:  verdictID,
			TrustScore: post.Score,
		})
	}

	g.auditVerdict(verdict)
	return verdict
}

// decide applies the verdict rules. Order matters: suspension wins over
// classification, the trust gate applies only to suspicious results.
func (g *Governor) decide(report *model.ClassificationReport, suspended bool, suspensionReason string, trustScore float64) (approved, needsReview bool, reasoning string) {
	if suspended {
		return false, false, "agent suspended: " + suspensionReason
	}
	switch report.Result {
	case model.ResultCritical:
		return false, g.forceReview, report.Reasoning
	case model.ResultViolation:
		return false, false, report.Reasoning
	case model.ResultNeedsReview:
		return false, true, report.Reasoning
	case model.ResultSuspicious:
		if trustScore < g.lowTrust {
			return false, false, fmt.Sprintf("%s; trust %.2f below threshold %.2f", report.Reasoning, trustScore, g.lowTrust)
		}
		return true, false, report.Reasoning
	default:
		return true, false, report.Reasoning
	}
}

// failSafe is the blocked verdict returned when evaluation itself fails.
// It fails closed and demands a human.
func (g *Governor) failSafe(agentID string, dir model.Direction, content, reason string, start time.Time) *model.Verdict {
	v := &model.Verdict{
		ID:                  uuid.NewString(),
		AgentID:             agentID,
		Direction:           dir,
		ContentExcerpt:      model.Excerpt(redact.Mask(content)),
		Approved:            false,
		RequiresHumanReview: true,
		Reasoning:           reason,
		LatencyMS:           sinceMS(start),
		Timestamp:           time.Now().UTC(),
	}
	g.metrics.denied.Add(1)
	g.metrics.reviews.Add(1)

	e := audit.NewEntry(audit.LevelError, audit.CategorySystem, "fail-safe verdict: "+reason)
	e.Agent = agentID
	e.VerdictID = v.ID
	g.append(e)

	g.fireCallbacks(v)
	return v
}

// wireExecutors registers the built-in effect for every action type the
// policies can emit. Deployments may re-register any of them.
func (g *Governor) wireExecutors() {
	g.enforcer.RegisterExecutor(model.ActionSuspendAgent, enforce.ExecutorFunc(func(a *model.EnforcementAction) error {
		d := trust.DefaultSuspension
		if a.Severity == model.SeverityCritical {
			d = trust.CriticalSuspension
		}
		g.trust.Suspend(a.AgentID, a.Reason, d)
		g.actionEntry(audit.LevelWarning, audit.CategoryTrust, "agent suspended", a)
		return nil
	}))

	g.enforcer.RegisterExecutor(model.ActionReduceTrust, enforce.ExecutorFunc(func(a *model.EnforcementAction) error {
		// Determination charges one violation per detected type. This
		// executor pays the fallback cost for keyword-only suspicion,
		// where the report carries no types at all.
		if !g.frameCharged(a.AgentID) {
			g.trust.RecordViolation(a.AgentID, model.ViolationPolicy, model.SeverityLow, a.Reason)
		}
		g.actionEntry(audit.LevelInfo, audit.CategoryTrust, "trust reduced", a)
		return nil
	}))

	g.enforcer.RegisterExecutor(model.ActionEscalateHuman, enforce.ExecutorFunc(func(a *model.EnforcementAction) error {
		fr := g.frame(a.AgentID)
		dir, excerpt, verdictID := model.DirectionInput, "", ""
		if fr != nil {
			dir, excerpt, verdictID = fr.direction, fr.excerpt, fr.verdictID
			fr.filed = true
		}
		g.actionEntry(audit.LevelWarning, audit.CategoryReview, "escalated to human", a)
		return g.requestReview(a.AgentID, dir, excerpt, a.Reason, verdictID)
	}))

	g.enforcer.RegisterExecutor(model.ActionEscalateAdmin, enforce.ExecutorFunc(func(a *model.EnforcementAction) error {
		g.metrics.escalations.Add(1)
		g.dispatch(alert.Event{
			Kind:      alert.EventEscalation,
			Agent:     a.AgentID,
			Severity:  string(a.Severity),
			Message:   a.Reason,
			VerdictID: g.frameVerdictID(a.AgentID),
		})
		g.actionEntry(audit.LevelCritical, audit.CategoryEnforcement, "escalated to admin", a)
		return nil
	}))

	logOnly := map[model.ActionType]audit.Level{
		model.ActionAllow:        audit.LevelInfo,
		model.ActionLogInfo:      audit.LevelInfo,
		model.ActionWarn:         audit.LevelWarning,
		model.ActionLogWarning:   audit.LevelWarning,
		model.ActionBlockRequest: audit.LevelWarning,
		model.ActionBlockAgent:   audit.LevelWarning,
	}
	for t, level := range logOnly {
		g.enforcer.RegisterExecutor(t, enforce.ExecutorFunc(func(a *model.EnforcementAction) error {
			g.actionEntry(level, audit.CategoryEnforcement, string(a.Type), a)
			return nil
		}))
	}
}

// requestReview files a review item and announces it. A nil store means
// reviews are disabled.
func (g *Governor) requestReview(agentID string, dir model.Direction, excerpt, reason, verdictID string) error {
	if g.reviews == nil {
		return nil
	}
	item, err := g.reviews.Request(agentID, dir, excerpt, reason, verdictID)
	if err != nil {
		return fmt.Errorf("file review item: %w", err)
	}

	e := audit.NewEntry(audit.LevelWarning, audit.CategoryReview, "review item filed")
	e.Agent = agentID
	e.VerdictID = verdictID
	e.Metadata = map[string]string{"key": item.Key, "reason": reason}
	g.append(e)

	g.dispatch(alert.Event{
		Kind:      alert.EventReview,
		Agent:     agentID,
		Message:   reason,
		VerdictID: verdictID,
	})
	return nil
}

// fireCallbacks runs the registered hooks for a finished verdict.
func (g *Governor) fireCallbacks(v *model.Verdict) {
	if g.callbacks.OnViolation != nil && v.Report != nil {
		violation := v.Report.Result == model.ResultViolation || v.Report.Result == model.ResultCritical
		if v.Suspicion != nil && v.Suspicion.IsViolation {
			violation = true
		}
		if violation {
			g.runCallback("on_violation", g.callbacks.OnViolation, v)
		}
	}
	if g.callbacks.OnEscalation != nil && v.RequiresHumanReview {
		g.runCallback("on_escalation", g.callbacks.OnEscalation, v)
	}
}

func (g *Governor) runCallback(name string, fn func(*model.Verdict), v *model.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			g.metrics.callbackFaults.Add(1)
			e := audit.NewEntry(audit.LevelError, audit.CategorySystem, fmt.Sprintf("callback %s panicked: %v", name, r))
			e.Agent = v.AgentID
			e.VerdictID = v.ID
			g.append(e)
		}
	}()
	fn(v)
}

// Start moves the governor into active monitoring. Evaluations are already
// accepted in ready; monitoring is the state long-running servers report.
func (g *Governor) Start() error {
	g.mu.Lock()
	if g.state == StateShutdown {
		g.mu.Unlock()
		return fmt.Errorf("governor is shut down")
	}
	g.state = StateMonitoring
	g.mu.Unlock()

	g.append(audit.NewEntry(audit.LevelInfo, audit.CategorySystem, "governor monitoring"))
	return nil
}

// Stop ends evaluation and closes the audit sinks. Stopping twice is a
// no-op. The trust store stays open; its owner closes it.
func (g *Governor) Stop() error {
	g.mu.Lock()
	if g.state == StateShutdown {
		g.mu.Unlock()
		return nil
	}
	g.state = StateShutdown
	g.mu.Unlock()

	m := g.Metrics()
	e := audit.NewEntry(audit.LevelInfo, audit.CategorySystem, "governor shutdown")
	e.Metadata = map[string]string{
		"evaluations": strconv.FormatUint(m.Evaluations, 10),
		"approved":    strconv.FormatUint(m.Approved, 10),
		"denied":      strconv.FormatUint(m.Denied, 10),
	}
	g.append(e)
	return g.sink.Close()
}

// State reports the lifecycle phase.
func (g *Governor) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Mode reports the active enforcement mode.
func (g *Governor) Mode() model.Mode {
	return g.enforcer.Mode()
}

// SetMode swaps the enforcement policy at runtime. Unknown modes are
// rejected and the previous policy stays in force.
func (g *Governor) SetMode(mode model.Mode) error {
	if err := g.enforcer.SetPolicy(mode); err != nil {
		return err
	}
	e := audit.NewEntry(audit.LevelInfo, audit.CategorySystem, "enforcement mode changed")
	e.Metadata = map[string]string{"mode": string(mode)}
	g.append(e)
	return nil
}

// Constitution returns the active constitution.
func (g *Governor) Constitution() *constitution.Constitution {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cons
}

// ConstitutionHash returns the integrity hash of the active constitution.
func (g *Governor) ConstitutionHash() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hash
}

// ReloadConstitution swaps in a new constitution and rebuilds both
// classifiers atomically. In-flight evaluations finish against the
// revision they started with. Custom classifier rules do not survive a
// reload.
func (g *Governor) ReloadConstitution(c *constitution.Constitution) error {
	if c == nil {
		return fmt.Errorf("nil constitution")
	}
	hash := c.IntegrityHash()

	g.mu.Lock()
	g.cons = c
	g.hash = hash
	g.in = classifier.NewInput(c)
	g.out = classifier.NewOutput(c)
	g.mu.Unlock()

	g.monitor.SetConstitution(c)

	e := audit.NewEntry(audit.LevelInfo, audit.CategorySystem, "constitution reloaded")
	e.Metadata = map[string]string{
		"constitution": hash,
		"version":      c.Version,
		"principles":   strconv.Itoa(len(c.Principles)),
	}
	g.append(e)
	return nil
}

// LiftSuspension clears an agent's suspension on operator authority.
func (g *Governor) LiftSuspension(agentID, reason string) error {
	if err := g.trust.LiftSuspension(agentID, reason); err != nil {
		return err
	}
	e := audit.NewEntry(audit.LevelWarning, audit.CategoryTrust, "suspension lifted")
	e.Agent = agentID
	e.Metadata = map[string]string{"reason": reason}
	g.append(e)
	return nil
}

// agentLock returns the per-agent evaluation lock, created on first sight.
// Locks are never removed: the map grows with the agent population, not
// with traffic.
func (g *Governor) agentLock(agentID string) *sync.Mutex {
	g.locksMu.Lock()
	defer g.locksMu.Unlock()
	l := g.agentLocks[agentID]
	if l == nil {
		l = &sync.Mutex{}
		g.agentLocks[agentID] = l
	}
	return l
}

func (g *Governor) setFrame(agentID string, fr *evalFrame) {
	g.framesMu.Lock()
	g.frames[agentID] = fr
	g.framesMu.Unlock()
}

func (g *Governor) clearFrame(agentID string) {
	g.framesMu.Lock()
	delete(g.frames, agentID)
	g.framesMu.Unlock()
}

func (g *Governor) frame(agentID string) *evalFrame {
	g.framesMu.Lock()
	defer g.framesMu.Unlock()
	return g.frames[agentID]
}

func (g *Governor) frameFiled(agentID string) bool {
	g.framesMu.Lock()
	defer g.framesMu.Unlock()
	fr := g.frames[agentID]
	return fr != nil && fr.filed
}

func (g *Governor) frameCharged(agentID string) bool {
	g.framesMu.Lock()
	defer g.framesMu.Unlock()
	fr := g.frames[agentID]
	return fr != nil && fr.charged
}

func (g *Governor) frameVerdictID(agentID string) string {
	g.framesMu.Lock()
	defer g.framesMu.Unlock()
	if fr := g.frames[agentID]; fr != nil {
		return fr.verdictID
	}
	return ""
}

// append writes an audit entry. Sink faults are already swallowed and
// counted by the multi sink.
func (g *Governor) append(e *audit.Entry) {
	_ = g.sink.Append(e)
}

func (g *Governor) actionEntry(level audit.Level, cat audit.Category, msg string, a *model.EnforcementAction) {
	e := audit.NewEntry(level, cat, msg)
	e.Agent = a.AgentID
	e.VerdictID = g.frameVerdictID(a.AgentID)
	e.Metadata = map[string]string{
		"action":   string(a.Type),
		"reason":   a.Reason,
		"severity": string(a.Severity),
	}
	g.append(e)
}

// dispatch posts an alert event if a notifier is configured.
func (g *Governor) dispatch(ev alert.Event) {
	if g.notifier == nil {
		return
	}
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	ev.Mode = string(g.enforcer.Mode())
	g.notifier.Dispatch(ev)
}

func (g *Governor) auditVerdict(v *model.Verdict) {
	level := audit.LevelInfo
	msg := string(v.Direction) + " approved"
	if !v.Approved {
		level = audit.LevelWarning
		msg = string(v.Direction) + " denied"
	}
	if v.Report.Result == model.ResultCritical {
		level = audit.LevelCritical
	}

	md := map[string]string{
		"result":     string(v.Report.Result),
		"confidence": strconv.FormatFloat(v.Report.Confidence, 'f', 2, 64),
		"severity":   string(v.Report.Severity),
		"trust":      strconv.FormatFloat(v.Trust.Score, 'f', 3, 64),
		"excerpt":    v.ContentExcerpt,
	}
	if v.RequiresHumanReview {
		md["requires_review"] = "true"
	}
	if v.Suspicion != nil {
		md["suspicion"] = strconv.FormatFloat(v.Suspicion.Score, 'f', 1, 64)
	}

	e := audit.NewEntry(level, audit.CategoryEvaluation, msg)
	e.Agent = v.AgentID
	e.VerdictID = v.ID
	e.Metadata = md
	g.append(e)
}

func sinceMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
