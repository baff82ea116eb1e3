package classifier

import (
	"github.com/praetor-hq/praetor/internal/constitution"
	"github.com/praetor-hq/praetor/internal/model"
)

// inputCriticalTypes deny outright when structurally detected on input.
var inputCriticalTypes = map[model.ViolationType]bool{
	model.ViolationJailbreak:       true,
	model.ViolationMaliciousCode:   true,
	model.ViolationPromptInjection: true,
	model.ViolationSecurityBypass:  true,
}

// inputHighTypes mark violations one step below critical on input.
var inputHighTypes = map[model.ViolationType]bool{
	model.ViolationDataExfiltration:    true,
	model.ViolationPrivilegeEscalation: true,
	model.ViolationCodeInjection:       true,
}

// InputClassifier scores content arriving at an agent: prompt injection,
// jailbreak personas, destructive commands, bypass and escalation phrasing.
type InputClassifier struct {
	core
}

// NewInput builds the input classifier over the given constitution.
func NewInput(c *constitution.Constitution) *InputClassifier {
	return &InputClassifier{core{
		direction:     model.DirectionInput,
		constitution:  c,
		patterns:      inputPatterns,
		keywords:      inputKeywords,
		criticalTypes: inputCriticalTypes,
		highTypes:     inputHighTypes,
	}}
}
