package alert

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3

	// Escalations and suspensions page humans; their retries back off in
	// fractions of a second instead of whole ones so a flapping receiver
	// does not sit on an unacknowledged critical.
	urgentBackoff  = 250 * time.Millisecond
	routineBackoff = 1 * time.Second
)

var httpClient = &http.Client{Timeout: requestTimeout}

func backoffUnit(kind string) time.Duration {
	switch kind {
	case EventEscalation, EventSuspension:
		return urgentBackoff
	default:
		return routineBackoff
	}
}

// Send posts an alert event to a webhook endpoint with retry on 5xx.
// The event kind rides in an X-Praetor-Event header so receivers can
// route suspensions and escalations without parsing the body.
func Send(cfg Config, event Event) error {
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return fmt.Errorf("format %s alert: %w", event.Kind, err)
	}

	unit := backoffUnit(event.Kind)
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * unit)
		}

		req, err := http.NewRequest(http.MethodPost, cfg.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Praetor-Event", event.Kind)
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("%s alert for %s rejected: HTTP %d", event.Kind, event.Agent, resp.StatusCode)
		}
		// 5xx — retry
		lastErr = fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s alert for %s failed after %d attempts: %w", event.Kind, event.Agent, maxRetries, lastErr)
}
