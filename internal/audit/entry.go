package audit

import "time"

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Level classifies how serious an entry is. Sinks may filter on it.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// rank orders levels for min-level filtering. Unknown levels rank as info.
func (l Level) rank() int {
	switch l {
	case LevelWarning:
		return 1
	case LevelError:
		return 2
	case LevelCritical:
		return 3
	default:
		return 0
	}
}

// Category names the subsystem an entry came from.
type Category string

const (
	CategoryEvaluation  Category = "evaluation"
	CategoryEnforcement Category = "enforcement"
	CategoryTrust       Category = "trust"
	CategoryMonitor     Category = "monitor"
	CategorySystem      Category = "system"
	CategoryReview      Category = "review"
)

// Entry is one line in the audit log. Metadata stays map[string]string:
// json.Marshal sorts map keys, so the marshaled line (and therefore its
// hash) is reproducible.
type Entry struct {
	Timestamp string            `json:"ts"`
	Level     Level             `json:"level"`
	Category  Category          `json:"category"`
	Message   string            `json:"message"`
	Agent     string            `json:"agent,omitempty"`
	VerdictID string            `json:"verdict_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	PrevHash  string            `json:"prev_hash,omitempty"`
}

// NewEntry builds a stamped entry. Callers fill Agent, VerdictID and
// Metadata before handing it to a sink.
func NewEntry(level Level, category Category, message string) *Entry {
	return &Entry{
		Timestamp: time.Now().UTC().Format(TimestampFormat),
		Level:     level,
		Category:  category,
		Message:   message,
	}
}
