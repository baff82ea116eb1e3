package enforce

import "github.com/praetor-hq/praetor/internal/model"

// Policy maps classification severity to the actions the engine takes.
type Policy struct {
	Mode    model.Mode
	Actions map[model.Severity][]model.ActionType

	// RequireAdminOnCritical forces escalate_to_admin onto every
	// critical-severity action list that lacks it.
	RequireAdminOnCritical bool

	// Adaptive shifts the severity lookup by the agent's trust band:
	// trusted agents get one level softer, distrusted one level harder.
	Adaptive bool

	// ObserveOnly suppresses type-specific action unioning: the policy
	// logs what it sees and nothing else.
	ObserveOnly bool
}

// policies are the built-in enforcement postures. Coercive blocks early and
// suspends on critical; normative prefers warnings and human escalation;
// adaptive is normative with a trust-shifted lookup; passive only observes.
var policies = map[model.Mode]Policy{
	model.ModeCoercive: {
		Mode: model.ModeCoercive,
		Actions: map[model.Severity][]model.ActionType{
			model.SeverityLow:      {model.ActionWarn, model.ActionLogWarning},
			model.SeverityMedium:   {model.ActionBlockRequest, model.ActionReduceTrust},
			model.SeverityHigh:     {model.ActionBlockRequest, model.ActionReduceTrust, model.ActionEscalateAdmin},
			model.SeverityCritical: {model.ActionBlockRequest, model.ActionSuspendAgent, model.ActionEscalateAdmin},
		},
		RequireAdminOnCritical: true,
	},
	model.ModeNormative: {
		Mode:                   model.ModeNormative,
		Actions:                normativeActions,
		RequireAdminOnCritical: true,
	},
	model.ModeAdaptive: {
		Mode:                   model.ModeAdaptive,
		Actions:                normativeActions,
		RequireAdminOnCritical: true,
		Adaptive:               true,
	},
	model.ModePassive: {
		Mode: model.ModePassive,
		Actions: map[model.Severity][]model.ActionType{
			model.SeverityLow:      {model.ActionLogInfo},
			model.SeverityMedium:   {model.ActionLogInfo},
			model.SeverityHigh:     {model.ActionLogWarning},
			model.SeverityCritical: {model.ActionLogWarning},
		},
		ObserveOnly: true,
	},
}

var normativeActions = map[model.Severity][]model.ActionType{
	model.SeverityLow:      {model.ActionLogInfo},
	model.SeverityMedium:   {model.ActionWarn, model.ActionReduceTrust},
	model.SeverityHigh:     {model.ActionBlockRequest, model.ActionReduceTrust, model.ActionEscalateHuman},
	model.SeverityCritical: {model.ActionBlockRequest, model.ActionReduceTrust, model.ActionEscalateAdmin},
}

// typeActions are unioned into the policy list when the matching violation
// type was detected, regardless of severity.
var typeActions = map[model.ViolationType][]model.ActionType{
	model.ViolationJailbreak:        {model.ActionSuspendAgent},
	model.ViolationDataExfiltration: {model.ActionEscalateAdmin},
	model.ViolationMaliciousCode:    {model.ActionEscalateAdmin},
}

// Trust bands for the adaptive lookup shift.
const (
	adaptiveSoftenAt = 0.8
	adaptiveHardenAt = 0.4
)

// lookupSeverity returns the severity the adaptive policy consults for an
// agent at the given trust score.
func (p Policy) lookupSeverity(sev model.Severity, trustScore float64) model.Severity {
	if !p.Adaptive {
		return sev
	}
	if trustScore >= adaptiveSoftenAt {
		return sev.Lower()
	}
	if trustScore < adaptiveHardenAt {
		return sev.Raise()
	}
	return sev
}

// PolicyFor returns the built-in policy for mode.
func PolicyFor(mode model.Mode) (Policy, bool) {
	p, ok := policies[mode]
	return p, ok
}
