package governor

import (
	"sync"
	"sync/atomic"

	"github.com/praetor-hq/praetor/internal/model"
)

// metrics holds the governor's internal counters. Scalars are atomic; the
// per-result and per-type breakdowns share one mutex.
type metrics struct {
	evaluations    atomic.Uint64
	approved       atomic.Uint64
	denied         atomic.Uint64
	reviews        atomic.Uint64
	escalations    atomic.Uint64
	suspensions    atomic.Uint64
	faults         atomic.Uint64
	callbackFaults atomic.Uint64
	latencyMicros  atomic.Int64

	mu       sync.Mutex
	byResult map[model.Result]uint64
	byType   map[model.ViolationType]uint64
}

func (m *metrics) init() {
	m.byResult = make(map[model.Result]uint64)
	m.byType = make(map[model.ViolationType]uint64)
}

// observe folds one finished verdict into the counters.
func (m *metrics) observe(v *model.Verdict, report *model.ClassificationReport) {
	if v.Approved {
		m.approved.Add(1)
	} else {
		m.denied.Add(1)
	}
	if v.RequiresHumanReview {
		m.reviews.Add(1)
	}
	m.latencyMicros.Add(int64(v.LatencyMS * 1000))

	m.mu.Lock()
	m.byResult[report.Result]++
	for _, vt := range report.ViolationTypes {
		m.byType[vt]++
	}
	m.mu.Unlock()
}

// Metrics is a point-in-time snapshot of governor activity.
type Metrics struct {
	State            State                         `json:"state"`
	Mode             model.Mode                    `json:"mode"`
	Evaluations      uint64                        `json:"evaluations"`
	Approved         uint64                        `json:"approved"`
	Denied           uint64                        `json:"denied"`
	Reviews          uint64                        `json:"reviews"`
	Escalations      uint64                        `json:"escalations"`
	Suspensions      uint64                        `json:"suspensions"`
	EvaluationFaults uint64                        `json:"evaluation_faults"`
	CallbackFaults   uint64                        `json:"callback_faults"`
	SinkFaults       uint64                        `json:"sink_faults"`
	ByResult         map[model.Result]uint64       `json:"by_result"`
	ByViolationType  map[model.ViolationType]uint64 `json:"by_violation_type"`
	AvgLatencyMS     float64                       `json:"avg_latency_ms"`
}

// Metrics returns a snapshot of the governor's counters.
func (g *Governor) Metrics() Metrics {
	m := Metrics{
		State:            g.State(),
		Mode:             g.enforcer.Mode(),
		Evaluations:      g.metrics.evaluations.Load(),
		Approved:         g.metrics.approved.Load(),
		Denied:           g.metrics.denied.Load(),
		Reviews:          g.metrics.reviews.Load(),
		Escalations:      g.metrics.escalations.Load(),
		Suspensions:      g.metrics.suspensions.Load(),
		EvaluationFaults: g.metrics.faults.Load(),
		CallbackFaults:   g.metrics.callbackFaults.Load(),
		SinkFaults:       g.sink.Faults(),
		ByResult:         make(map[model.Result]uint64),
		ByViolationType:  make(map[model.ViolationType]uint64),
	}

	g.metrics.mu.Lock()
	for k, v := range g.metrics.byResult {
		m.ByResult[k] = v
	}
	for k, v := range g.metrics.byType {
		m.ByViolationType[k] = v
	}
	g.metrics.mu.Unlock()

	if m.Evaluations > 0 {
		m.AvgLatencyMS = float64(g.metrics.latencyMicros.Load()) / 1000.0 / float64(m.Evaluations)
	}
	return m
}

// AgentStatus is the operator view of one governed agent.
type AgentStatus struct {
	AgentID          string                `json:"agent_id"`
	Known            bool                  `json:"known"`
	Trust            model.TrustSnapshot   `json:"trust"`
	Suspended        bool                  `json:"suspended"`
	SuspensionReason string                `json:"suspension_reason,omitempty"`
	Suspicion        *model.SuspicionScore `json:"suspicion,omitempty"`
}

// AgentStatus reports trust, suspension and the latest suspicion score for
// an agent. Unknown agents come back with Known=false and zero trust state;
// asking never creates a record.
func (g *Governor) AgentStatus(agentID string) AgentStatus {
	st := AgentStatus{AgentID: agentID}

	snap, known := g.trust.Snapshot(agentID)
	st.Known = known
	if known {
		st.Trust = snap
		st.Suspended, st.SuspensionReason = g.trust.CheckSuspension(agentID)
	}

	if hist := g.monitor.History(agentID); len(hist) > 0 {
		last := hist[len(hist)-1]
		st.Suspicion = &last
	}
	return st
}

// Agents lists every agent the trust engine has seen, sorted.
func (g *Governor) Agents() []string {
	return g.trust.Agents()
}
