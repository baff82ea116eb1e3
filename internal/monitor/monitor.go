// Package monitor watches agent behavior over time. Individual events are
// scored against behavioral patterns and constitution red flags; per-agent
// suspicion aggregates recent activity, denied attempts, flag rate, decayed
// history, and cross-agent correlation into a [0,100] score.
package monitor

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-hq/praetor/internal/constitution"
	"github.com/praetor-hq/praetor/internal/model"
)

const (
	// EventHistoryCap bounds the per-agent event history. Oldest evicted first.
	EventHistoryCap = 200

	// SuspicionHistoryCap bounds the per-agent suspicion history.
	SuspicionHistoryCap = 50

	// PerEventCap is the most one event can contribute, applied after the
	// thought multiplier.
	PerEventCap = 50.0

	// FlagThreshold marks an event as flagged when its contribution reaches it.
	FlagThreshold = 25.0

	// ViolationThreshold is the suspicion score at which behavior becomes
	// a violation in its own right.
	ViolationThreshold = 80.0

	// ActivityWindow bounds which events count toward the recent-activity sum.
	ActivityWindow = 10 * time.Minute

	// CorrelationWindow bounds cross-agent correlation.
	CorrelationWindow = 5 * time.Minute

	thoughtMultiplier  = 1.5
	redFlagPoints      = 10.0
	deniedPoints       = 10.0
	deniedCap          = 30.0
	flagRateMinEvents  = 10
	flagRateCap        = 20.0
	historicalCap      = 15.0
	historicalHalfLife = 30 * time.Minute
	correlationPoints  = 10.0
	correlationCap     = 30.0
)

// EventType tags what kind of agent activity an event captures. Internal
// reasoning weighs heavier than visible output.
type EventType string

const (
	EventMessage  EventType = "message"
	EventThought  EventType = "thought"
	EventToolCall EventType = "tool_call"
)

// Event is one scored observation of agent activity.
type Event struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Type      EventType `json:"type"`
	Excerpt   string    `json:"excerpt"`
	Matches   []string  `json:"matches,omitempty"`
	RedFlags  []string  `json:"red_flags,omitempty"`
	Score     float64   `json:"score"`
	Flagged   bool      `json:"flagged"`
	Timestamp time.Time `json:"timestamp"`
}

type agentState struct {
	events  []Event
	denied  int
	history []model.SuspicionScore
}

// Monitor tracks behavioral state for every observed agent. One lock guards
// the whole registry: suspicion scoring reads across agents for correlation.
type Monitor struct {
	mu           sync.Mutex
	constitution *constitution.Constitution
	agents       map[string]*agentState
}

// New returns a monitor scoring red flags against c.
func New(c *constitution.Constitution) *Monitor {
	return &Monitor{
		constitution: c,
		agents:       make(map[string]*agentState),
	}
}

// SetConstitution swaps the red-flag source. Agent histories are untouched.
func (m *Monitor) SetConstitution(c *constitution.Constitution) {
	m.mu.Lock()
	m.constitution = c
	m.mu.Unlock()
}

func (m *Monitor) stateLocked(agentID string) *agentState {
	st := m.agents[agentID]
	if st == nil {
		st = &agentState{}
		m.agents[agentID] = st
	}
	return st
}

// RecordEvent scores one piece of agent activity and appends it to the
// agent's history.
func (m *Monitor) RecordEvent(agentID string, etype EventType, content string) Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateLocked(agentID)

	var matches []string
	score := 0.0
	for _, rule := range suspicionRules {
		if rule.re.MatchString(content) {
			score += rule.weight
			matches = append(matches, rule.category+": "+rule.src)
		}
	}
	redFlags := m.constitution.CheckRedFlags(content)
	score += redFlagPoints * float64(len(redFlags))

	// The cap applies after the thought multiplier.
	if etype == EventThought {
		score *= thoughtMultiplier
	}
	if score > PerEventCap {
		score = PerEventCap
	}

	ev := Event{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Type:      etype,
		Excerpt:   model.Excerpt(content),
		Matches:   matches,
		RedFlags:  redFlags,
		Score:     score,
		Flagged:   score >= FlagThreshold,
		Timestamp: time.Now(),
	}

	if len(st.events) >= EventHistoryCap {
		copy(st.events, st.events[1:])
		st.events[len(st.events)-1] = ev
	} else {
		st.events = append(st.events, ev)
	}
	return ev
}

// RecordDenied counts one denied attempt against the agent.
func (m *Monitor) RecordDenied(agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateLocked(agentID).denied++
}

// CalculateSuspicion aggregates the agent's current suspicion score and
// appends it to the suspicion history.
func (m *Monitor) CalculateSuspicion(agentID string) model.SuspicionScore {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateLocked(agentID)
	now := time.Now()
	var factors []model.SuspicionFactor
	total := 0.0

	// Recent activity: per-event contributions inside the window.
	recent := 0.0
	inWindow := 0
	for _, ev := range st.events {
		if now.Sub(ev.Timestamp) <= ActivityWindow {
			recent += ev.Score
			inWindow++
		}
	}
	if recent > 0 {
		factors = append(factors, model.SuspicionFactor{
			Name:   "recent_activity",
			Points: recent,
			Detail: fmt.Sprintf("%d events in window", inWindow),
		})
		total += recent
	}

	// Denied attempts.
	if st.denied > 0 {
		pts := math.Min(deniedCap, deniedPoints*float64(st.denied))
		factors = append(factors, model.SuspicionFactor{
			Name:   "denied_attempts",
			Points: pts,
			Detail: fmt.Sprintf("%d denied", st.denied),
		})
		total += pts
	}

	// Flag rate, once enough history exists to be meaningful.
	if len(st.events) >= flagRateMinEvents {
		flagged := 0
		for _, ev := range st.events {
			if ev.Flagged {
				flagged++
			}
		}
		if flagged > 0 {
			pts := math.Min(flagRateCap, flagRateCap*float64(flagged)/float64(len(st.events)))
			factors = append(factors, model.SuspicionFactor{
				Name:   "flag_rate",
				Points: pts,
				Detail: fmt.Sprintf("%d/%d flagged", flagged, len(st.events)),
			})
			total += pts
		}
	}

	// Decayed historical average of prior suspicion scores.
	if len(st.history) > 0 {
		var weighted, weights float64
		for _, prev := range st.history {
			age := now.Sub(prev.Timestamp)
			w := math.Pow(0.5, age.Minutes()/historicalHalfLife.Minutes())
			weighted += w * prev.Score
			weights += w
		}
		if weights > 0 {
			mean := weighted / weights
			pts := math.Min(historicalCap, 0.2*mean)
			if pts > 0 {
				factors = append(factors, model.SuspicionFactor{
					Name:   "historical",
					Points: pts,
					Detail: fmt.Sprintf("decayed mean %.1f over %d scores", mean, len(st.history)),
				})
				total += pts
			}
		}
	}

	// Cross-agent correlation: only meaningful when this agent and at least
	// one other are concurrently suspicious.
	if hasFlaggedWithin(st, now, CorrelationWindow) {
		others := 0
		for id, other := range m.agents {
			if id == agentID {
				continue
			}
			if hasFlaggedWithin(other, now, CorrelationWindow) {
				others++
			}
		}
		if others > 0 {
			pts := math.Min(correlationCap, correlationPoints*float64(others))
			factors = append(factors, model.SuspicionFactor{
				Name:   "cross_agent_correlation",
				Points: pts,
				Detail: fmt.Sprintf("%d other flagged agents in window", others),
			})
			total += pts
		}
	}

	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	score := model.SuspicionScore{
		AgentID:     agentID,
		Score:       total,
		Factors:     factors,
		IsViolation: total >= ViolationThreshold,
		Timestamp:   now,
	}

	if len(st.history) >= SuspicionHistoryCap {
		copy(st.history, st.history[1:])
		st.history[len(st.history)-1] = score
	} else {
		st.history = append(st.history, score)
	}
	return score
}

func hasFlaggedWithin(st *agentState, now time.Time, window time.Duration) bool {
	for i := len(st.events) - 1; i >= 0; i-- {
		if now.Sub(st.events[i].Timestamp) > window {
			return false
		}
		if st.events[i].Flagged {
			return true
		}
	}
	return false
}

// MonitorAgent records a transcript, any internal reasoning, and any tool
// calls, then calculates suspicion in one pass.
func (m *Monitor) MonitorAgent(agentID, transcript string, thoughts []string, toolCalls []string) model.SuspicionScore {
	if transcript != "" {
		m.RecordEvent(agentID, EventMessage, transcript)
	}
	for _, t := range thoughts {
		if t != "" {
			m.RecordEvent(agentID, EventThought, t)
		}
	}
	for _, tc := range toolCalls {
		if tc != "" {
			m.RecordEvent(agentID, EventToolCall, tc)
		}
	}
	return m.CalculateSuspicion(agentID)
}

// History returns a copy of the agent's suspicion history, oldest first.
func (m *Monitor) History(agentID string) []model.SuspicionScore {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.agents[agentID]
	if st == nil {
		return nil
	}
	out := make([]model.SuspicionScore, len(st.history))
	copy(out, st.history)
	return out
}

// Events returns a copy of the agent's event history, oldest first.
func (m *Monitor) Events(agentID string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.agents[agentID]
	if st == nil {
		return nil
	}
	out := make([]Event, len(st.events))
	copy(out, st.events)
	return out
}

// FlaggedAgents returns every agent with a flagged event inside the window,
// sorted.
func (m *Monitor) FlaggedAgents(window time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var ids []string
	for id, st := range m.agents {
		if hasFlaggedWithin(st, now, window) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
