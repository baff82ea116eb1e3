package model

import "fmt"

// Result is the outcome class of one classification.
type Result string

const (
	ResultSafe        Result = "safe"
	ResultSuspicious  Result = "suspicious"
	ResultViolation   Result = "violation"
	ResultCritical    Result = "critical"
	ResultNeedsReview Result = "needs_review"
)

// Severity grades how serious a detection or action is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityRank maps severity to a comparable integer for escalation ordering.
var SeverityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Raise returns the severity one step above s, saturating at critical.
func (s Severity) Raise() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// Lower returns the severity one step below s, saturating at low.
func (s Severity) Lower() Severity {
	switch s {
	case SeverityCritical:
		return SeverityHigh
	case SeverityHigh:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ViolationType names one class of constitutional violation.
type ViolationType string

const (
	ViolationJailbreak            ViolationType = "jailbreak"
	ViolationPromptInjection      ViolationType = "prompt_injection"
	ViolationMaliciousCode        ViolationType = "malicious_code"
	ViolationSecurityBypass       ViolationType = "security_bypass"
	ViolationDataExfiltration     ViolationType = "data_exfiltration"
	ViolationPrivilegeEscalation  ViolationType = "privilege_escalation"
	ViolationCodeInjection        ViolationType = "code_injection"
	ViolationSocialEngineering    ViolationType = "social_engineering"
	ViolationDangerousInstruction ViolationType = "dangerous_instruction"
	ViolationPolicy               ViolationType = "policy_violation"
)

// ActionType is the fixed set of enforcement effects the engine can take.
type ActionType string

const (
	ActionAllow          ActionType = "allow"
	ActionWarn           ActionType = "warn"
	ActionBlockRequest   ActionType = "block_request"
	ActionBlockAgent     ActionType = "block_agent"
	ActionReduceTrust    ActionType = "reduce_trust"
	ActionSuspendAgent   ActionType = "suspend_agent"
	ActionEscalateHuman  ActionType = "escalate_to_human"
	ActionEscalateAdmin  ActionType = "escalate_to_admin"
	ActionLogInfo        ActionType = "log_info"
	ActionLogWarning     ActionType = "log_warning"
)

// Direction tells which side of an agent turn is being evaluated.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Mode selects how aggressively classifications translate into actions.
type Mode string

const (
	ModeCoercive  Mode = "coercive"
	ModeNormative Mode = "normative"
	ModeAdaptive  Mode = "adaptive"
	ModePassive   Mode = "passive"
)

// ParseMode parses an enforcement mode name. Unknown names are an error:
// mode selection fails closed at construction rather than defaulting open.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCoercive, ModeNormative, ModeAdaptive, ModePassive:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown enforcement mode %q", s)
}

// Category classifies a constitutional principle's intent.
type Category string

const (
	CategoryAllow    Category = "ALLOW"
	CategoryDisallow Category = "DISALLOW"
	CategoryEscalate Category = "ESCALATE"
	CategoryMonitor  Category = "MONITOR"
)

// ParseCategory validates a principle category. Rejecting an unknown
// category is the constitution's only construction-time error.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryAllow, CategoryDisallow, CategoryEscalate, CategoryMonitor:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown principle category %q", s)
}
