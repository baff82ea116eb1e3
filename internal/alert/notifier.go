package alert

import (
	"fmt"
	"os"
)

// Notifier fans out alert events to matching webhook configurations.
type Notifier struct {
	configs []Config
}

// NewNotifier creates a Notifier from webhook configurations.
// Returns nil if configs is empty; callers treat nil as disabled.
func NewNotifier(configs []Config) *Notifier {
	if len(configs) == 0 {
		return nil
	}
	return &Notifier{configs: configs}
}

// Dispatch sends the event to every webhook whose Events list contains
// its kind. Fires goroutines and never blocks the caller; delivery
// failures go to stderr.
func (n *Notifier) Dispatch(event Event) {
	for _, cfg := range n.configs {
		if matches(cfg.Events, event.Kind) {
			go func(cfg Config) {
				if err := Send(cfg, event); err != nil {
					fmt.Fprintf(os.Stderr, "praetor: alert: %v\n", err)
				}
			}(cfg)
		}
	}
}

func matches(events []string, kind string) bool {
	for _, e := range events {
		if e == kind {
			return true
		}
	}
	return false
}
