// Package trust maintains per-agent trust scores. Violations subtract a
// weighted impact, good behavior earns credit back slowly, and either a
// critical violation or a score below the auto-suspend threshold puts the
// agent into a time-boxed suspension.
package trust

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-hq/praetor/internal/model"
)

const (
	// InitialScore is the trust assigned to an agent on first sight.
	InitialScore = 0.7

	// AutoSuspendThreshold suspends any agent whose score falls below it.
	AutoSuspendThreshold = 0.3

	// DefaultSuspension is the sentence for crossing the auto-suspend threshold.
	DefaultSuspension = 24 * time.Hour

	// CriticalSuspension is the sentence for any critical-severity violation,
	// regardless of the resulting score.
	CriticalSuspension = 30 * time.Minute

	// GoodActionCredit is the flat recovery per good action.
	GoodActionCredit = 0.02

	// GoodActionStreak is the consecutive-good count at which the escalating
	// bonus starts; the bonus is 0.01 per action past the streak start,
	// capped at GoodActionBonusCap.
	GoodActionStreak   = 5
	GoodActionBonusCap = 0.05

	// DecayHalfLife is the age at which a past violation's influence on
	// temporal decay halves.
	DecayHalfLife = 24 * time.Hour

	// EventHistoryCap bounds the in-memory event history per agent.
	// Oldest entries are evicted first.
	EventHistoryCap = 100
)

// violationWeights grades how much each violation type costs at medium
// severity. Structural attacks on the control channel cost the most.
var violationWeights = map[model.ViolationType]float64{
	model.ViolationJailbreak:            0.35,
	model.ViolationMaliciousCode:        0.35,
	model.ViolationPromptInjection:      0.30,
	model.ViolationSecurityBypass:       0.30,
	model.ViolationDataExfiltration:     0.30,
	model.ViolationPrivilegeEscalation:  0.25,
	model.ViolationCodeInjection:        0.25,
	model.ViolationSocialEngineering:    0.15,
	model.ViolationDangerousInstruction: 0.15,
	model.ViolationPolicy:               0.10,
}

// severityMultipliers scale the type weight by the observed severity.
var severityMultipliers = map[model.Severity]float64{
	model.SeverityLow:      0.5,
	model.SeverityMedium:   1.0,
	model.SeverityHigh:     1.5,
	model.SeverityCritical: 2.0,
}

// EventKind names one class of trust mutation.
type EventKind string

const (
	EventViolation  EventKind = "violation"
	EventGoodAction EventKind = "good_action"
	EventDecay      EventKind = "decay"
	EventSuspension EventKind = "suspension"
	EventLift       EventKind = "lift"
	EventReset      EventKind = "reset"
)

// Event is one immutable entry in an agent's trust history. Impact is the
// raw score delta before clamping.
type Event struct {
	ID          string              `json:"id"`
	AgentID     string              `json:"agent_id"`
	Kind        EventKind           `json:"kind"`
	Type        model.ViolationType `json:"violation_type,omitempty"`
	Severity    model.Severity      `json:"severity,omitempty"`
	Impact      float64             `json:"impact"`
	Description string              `json:"description,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// record is the mutable per-agent state. All fields are guarded by mu.
type record struct {
	mu               sync.Mutex
	agentID          string
	score            float64
	consecutiveGood  int
	suspended        bool
	suspensionReason string
	suspensionExpiry time.Time
	events           []Event
	updatedAt        time.Time
}

func newRecord(agentID string, now time.Time) *record {
	return &record{agentID: agentID, score: InitialScore, updatedAt: now}
}

func (r *record) snapshotLocked() model.TrustSnapshot {
	return model.TrustSnapshot{
		AgentID:          r.agentID,
		Score:            r.score,
		ConsecutiveGood:  r.consecutiveGood,
		Suspended:        r.suspended,
		SuspensionReason: r.suspensionReason,
		SuspensionExpiry: r.suspensionExpiry,
		EventCount:       len(r.events),
		UpdatedAt:        r.updatedAt,
	}
}

func (r *record) appendLocked(ev Event) {
	if len(r.events) >= EventHistoryCap {
		copy(r.events, r.events[1:])
		r.events[len(r.events)-1] = ev
		return
	}
	r.events = append(r.events, ev)
}

// suspendLocked records a suspension trigger. An existing longer sentence
// is never shortened; a longer one replaces reason and expiry.
func (r *record) suspendLocked(now time.Time, d time.Duration, reason string) Event {
	expiry := now.Add(d)
	if !r.suspended || expiry.After(r.suspensionExpiry) {
		r.suspended = true
		r.suspensionReason = reason
		r.suspensionExpiry = expiry
	}
	ev := Event{
		ID:          uuid.NewString(),
		AgentID:     r.agentID,
		Kind:        EventSuspension,
		Description: reason,
		Timestamp:   now,
	}
	r.appendLocked(ev)
	return ev
}

// Engine tracks trust for every agent the governor has seen. Records are
// created lazily and keyed by agent id; mutations on different agents run
// in parallel, mutations on the same agent serialize on its record lock.
type Engine struct {
	mu     sync.RWMutex
	agents map[string]*record
	store  *Store
}

// New returns an engine with no persistence.
func New() *Engine {
	return &Engine{agents: make(map[string]*record)}
}

// NewPersistent returns an engine backed by store, rehydrating every agent
// the store knows about. Mutations are persisted asynchronously; see Store.
func NewPersistent(store *Store) (*Engine, error) {
	e := &Engine{agents: make(map[string]*record), store: store}
	snaps, err := store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load trust state: %w", err)
	}
	for _, snap := range snaps {
		r := &record{
			agentID:          snap.AgentID,
			score:            snap.Score,
			consecutiveGood:  snap.ConsecutiveGood,
			suspended:        snap.Suspended,
			suspensionReason: snap.SuspensionReason,
			suspensionExpiry: snap.SuspensionExpiry,
			updatedAt:        snap.UpdatedAt,
		}
		evs, err := store.Events(snap.AgentID, EventHistoryCap)
		if err != nil {
			return nil, fmt.Errorf("load trust events for %s: %w", snap.AgentID, err)
		}
		r.events = evs
		e.agents[snap.AgentID] = r
	}
	return e, nil
}

func (e *Engine) get(agentID string) *record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.agents[agentID]
}

func (e *Engine) getOrCreate(agentID string) *record {
	e.mu.RLock()
	r := e.agents[agentID]
	e.mu.RUnlock()
	if r != nil {
		return r
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if r = e.agents[agentID]; r != nil {
		return r
	}
	r = newRecord(agentID, time.Now())
	e.agents[agentID] = r
	return r
}

func (e *Engine) persist(snap model.TrustSnapshot, evs []Event) {
	if e.store == nil {
		return
	}
	e.store.SaveAsync(snap, evs)
}

// GetOrCreate returns the agent's current trust state, creating the record
// at InitialScore on first sight. Records persist on their first mutation.
func (e *Engine) GetOrCreate(agentID string) model.TrustSnapshot {
	r := e.getOrCreate(agentID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Snapshot returns the agent's trust state without creating a record.
func (e *Engine) Snapshot(agentID string) (model.TrustSnapshot, bool) {
	r := e.get(agentID)
	if r == nil {
		return model.TrustSnapshot{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(), true
}

// RecordViolation applies one violation to the agent's score. The impact is
// -(type weight x severity multiplier), clamped to [0,1]. Critical severity
// always suspends for CriticalSuspension; a score falling below
// AutoSuspendThreshold suspends for DefaultSuspension.
func (e *Engine) RecordViolation(agentID string, vt model.ViolationType, sev model.Severity, description string) model.TrustSnapshot {
	r := e.getOrCreate(agentID)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	weight, ok := violationWeights[vt]
	if !ok {
		weight = violationWeights[model.ViolationPolicy]
	}
	mult, ok := severityMultipliers[sev]
	if !ok {
		mult = severityMultipliers[model.SeverityMedium]
	}
	impact := -(weight * mult)
	r.score = clamp01(r.score + impact)
	r.consecutiveGood = 0
	r.updatedAt = now

	evs := []Event{{
		ID:          uuid.NewString(),
		AgentID:     agentID,
		Kind:        EventViolation,
		Type:        vt,
		Severity:    sev,
		Impact:      impact,
		Description: description,
		Timestamp:   now,
	}}
	r.appendLocked(evs[0])

	if sev == model.SeverityCritical {
		evs = append(evs, r.suspendLocked(now, CriticalSuspension,
			fmt.Sprintf("critical violation: %s", vt)))
	}
	if r.score < AutoSuspendThreshold {
		evs = append(evs, r.suspendLocked(now, DefaultSuspension,
			fmt.Sprintf("trust %.2f below auto-suspend threshold %.2f", r.score, AutoSuspendThreshold)))
	}

	snap := r.snapshotLocked()
	e.persist(snap, evs)
	return snap
}

// RecordGoodAction credits the agent GoodActionCredit, plus an escalating
// bonus once the consecutive-good streak reaches GoodActionStreak.
func (e *Engine) RecordGoodAction(agentID, description string) model.TrustSnapshot {
	r := e.getOrCreate(agentID)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.consecutiveGood++
	credit := GoodActionCredit
	if r.consecutiveGood >= GoodActionStreak {
		bonus := 0.01 * float64(r.consecutiveGood-GoodActionStreak+1)
		if bonus > GoodActionBonusCap {
			bonus = GoodActionBonusCap
		}
		credit += bonus
	}
	r.score = clamp01(r.score + credit)
	r.updatedAt = now

	ev := Event{
		ID:          uuid.NewString(),
		AgentID:     agentID,
		Kind:        EventGoodAction,
		Impact:      credit,
		Description: description,
		Timestamp:   now,
	}
	r.appendLocked(ev)

	snap := r.snapshotLocked()
	e.persist(snap, []Event{ev})
	return snap
}

// Suspend places the agent under an explicit suspension for d (the
// default sentence when d is not positive). A longer active sentence
// stays in force.
func (e *Engine) Suspend(agentID, reason string, d time.Duration) model.TrustSnapshot {
	r := e.getOrCreate(agentID)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if d <= 0 {
		d = DefaultSuspension
	}
	ev := r.suspendLocked(now, d, reason)
	snap := r.snapshotLocked()
	e.persist(snap, []Event{ev})
	return snap
}

// CheckSuspension reports whether the agent is currently suspended and why.
// A suspension past its expiry is cleared on the way through.
func (e *Engine) CheckSuspension(agentID string) (bool, string) {
	r := e.getOrCreate(agentID)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.suspended {
		return false, ""
	}
	if now.After(r.suspensionExpiry) {
		expired := r.suspensionReason
		r.suspended = false
		r.suspensionReason = ""
		r.suspensionExpiry = time.Time{}
		r.updatedAt = now
		ev := Event{
			ID:          uuid.NewString(),
			AgentID:     agentID,
			Kind:        EventLift,
			Description: "suspension expired: " + expired,
			Timestamp:   now,
		}
		r.appendLocked(ev)
		e.persist(r.snapshotLocked(), []Event{ev})
		return false, ""
	}
	return true, r.suspensionReason
}

// LiftSuspension clears an active suspension. Unknown or unsuspended
// agents are an error so operators notice a no-op lift.
func (e *Engine) LiftSuspension(agentID, reason string) error {
	r := e.get(agentID)
	if r == nil {
		return fmt.Errorf("unknown agent %q", agentID)
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.suspended {
		return fmt.Errorf("agent %q is not suspended", agentID)
	}
	r.suspended = false
	r.suspensionReason = ""
	r.suspensionExpiry = time.Time{}
	r.updatedAt = now

	ev := Event{
		ID:          uuid.NewString(),
		AgentID:     agentID,
		Kind:        EventLift,
		Description: "lifted: " + reason,
		Timestamp:   now,
	}
	r.appendLocked(ev)
	e.persist(r.snapshotLocked(), []Event{ev})
	return nil
}

// ApplyTemporalDecay re-derives a hypothetical score from the violation
// history, weighting each violation by 0.5^(age/DecayHalfLife), and blends
// it 50/50 with the current score. Old violations fade; a clean history
// pulls the score back toward 1.
func (e *Engine) ApplyTemporalDecay(agentID string) model.TrustSnapshot {
	r := e.getOrCreate(agentID)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	sum := 0.0
	for _, ev := range r.events {
		if ev.Kind != EventViolation {
			continue
		}
		age := now.Sub(ev.Timestamp)
		w := math.Pow(0.5, age.Hours()/DecayHalfLife.Hours())
		sum += w * math.Abs(ev.Impact)
	}
	decayed := clamp01(1 - sum)
	next := clamp01(0.5*r.score + 0.5*decayed)
	delta := next - r.score
	r.score = next
	r.updatedAt = now

	ev := Event{
		ID:          uuid.NewString(),
		AgentID:     agentID,
		Kind:        EventDecay,
		Impact:      delta,
		Description: "temporal decay",
		Timestamp:   now,
	}
	r.appendLocked(ev)

	snap := r.snapshotLocked()
	e.persist(snap, []Event{ev})
	return snap
}

// Reset restores the agent to its initial state. The in-memory history is
// replaced by a single reset marker; persisted events are kept, the store's
// event log is append-only.
func (e *Engine) Reset(agentID string) model.TrustSnapshot {
	r := e.getOrCreate(agentID)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.score = InitialScore
	r.consecutiveGood = 0
	r.suspended = false
	r.suspensionReason = ""
	r.suspensionExpiry = time.Time{}
	r.updatedAt = now

	ev := Event{
		ID:          uuid.NewString(),
		AgentID:     agentID,
		Kind:        EventReset,
		Description: "trust reset",
		Timestamp:   now,
	}
	r.events = r.events[:0]
	r.appendLocked(ev)

	snap := r.snapshotLocked()
	e.persist(snap, []Event{ev})
	return snap
}

// Events returns a copy of the agent's retained trust history, oldest first.
func (e *Engine) Events(agentID string) []Event {
	r := e.get(agentID)
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Agents returns every known agent id, sorted.
func (e *Engine) Agents() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.agents))
	for id := range e.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
