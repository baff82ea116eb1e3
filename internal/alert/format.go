package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event Event) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("praetor: %s", event.Kind),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Agent:* %s", event.Agent)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Severity:* %s", event.Severity)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Mode:* %s", event.Mode)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Detail:* %s", event.Message)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event Event) ([]byte, error) {
	severity := "info"
	switch event.Severity {
	case "critical":
		severity = "critical"
	case "high":
		severity = "error"
	case "medium":
		severity = "warning"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("praetor %s: %s", event.Kind, event.Message),
			"severity": severity,
			"source":   "praetor",
			"custom_details": map[string]any{
				"agent":       event.Agent,
				"severity":    event.Severity,
				"verdict_id":  event.VerdictID,
				"mode":        event.Mode,
				"trust_score": event.TrustScore,
			},
		},
	}
	return json.Marshal(payload)
}
