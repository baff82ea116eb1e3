package alert

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Event kinds a webhook can subscribe to.
const (
	EventViolation  = "violation"
	EventEscalation = "escalation"
	EventSuspension = "suspension"
	EventReview     = "review"
)

// Config defines a webhook alert destination.
type Config struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // ["violation", "escalation", "suspension", "review"]
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Event is the payload sent to webhook endpoints.
type Event struct {
	Timestamp  string  `json:"timestamp"`
	Kind       string  `json:"kind"`
	Agent      string  `json:"agent"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
	VerdictID  string  `json:"verdict_id,omitempty"`
	Mode       string  `json:"mode,omitempty"`
	TrustScore float64 `json:"trust_score,omitempty"`
}

// alertsSchema parses only the alerts section of a constitution document.
// The constitution loader ignores the key, so destinations ride along in
// the same file without affecting the integrity hash.
type alertsSchema struct {
	Alerts []Config `yaml:"alerts"`
}

// LoadConfigs reads webhook destinations from the alerts section of a
// constitution file. An empty path falls back to
// ~/.praetor/constitution.yaml; a missing file means no destinations.
func LoadConfigs(path string) ([]Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil
		}
		path = filepath.Join(home, ".praetor", "constitution.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read alert config: %w", err)
	}

	var schema alertsSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse alerts section: %w", err)
	}
	return schema.Alerts, nil
}
