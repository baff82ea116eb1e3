package classifier

import (
	"github.com/praetor-hq/praetor/internal/constitution"
	"github.com/praetor-hq/praetor/internal/model"
)

// outputCriticalTypes deny outright when detected in produced content.
// Leaked secret material is the one unconditional critical on output.
var outputCriticalTypes = map[model.ViolationType]bool{
	model.ViolationDataExfiltration: true,
}

// outputHighTypes mark violations one step below critical on output.
var outputHighTypes = map[model.ViolationType]bool{
	model.ViolationMaliciousCode: true,
}

// OutputClassifier scores content an agent produced: credential leakage,
// destructive commands, and harm walkthroughs.
type OutputClassifier struct {
	core
}

// NewOutput builds the output classifier over the given constitution.
func NewOutput(c *constitution.Constitution) *OutputClassifier {
	return &OutputClassifier{core{
		direction:     model.DirectionOutput,
		constitution:  c,
		patterns:      outputPatterns,
		keywords:      outputKeywords,
		criticalTypes: outputCriticalTypes,
		highTypes:     outputHighTypes,
	}}
}
