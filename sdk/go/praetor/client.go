package praetor

import (
	"fmt"

	"github.com/praetor-hq/praetor/internal/alert"
	"github.com/praetor-hq/praetor/internal/audit"
	"github.com/praetor-hq/praetor/internal/constitution"
	"github.com/praetor-hq/praetor/internal/governor"
	"github.com/praetor-hq/praetor/internal/model"
	"github.com/praetor-hq/praetor/internal/review"
	"github.com/praetor-hq/praetor/internal/trust"
)

// Client holds an in-process governor. Thread-safe for concurrent tool
// calls; evaluations for different agents run in parallel.
type Client struct {
	cfg   clientConfig
	gov   *governor.Governor
	store *trust.Store
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	cons, _, err := constitution.LoadWithHash(cfg.constitutionPath)
	if err != nil {
		return nil, fmt.Errorf("praetor: load constitution: %w", err)
	}

	mode := model.ModeNormative
	if cfg.mode != "" {
		mode, err = model.ParseMode(cfg.mode)
		if err != nil {
			return nil, fmt.Errorf("praetor: %w", err)
		}
	}

	gopts := governor.Options{Mode: mode}

	if cfg.auditLogPath != "" {
		sink, err := audit.OpenFile(cfg.auditLogPath)
		if err != nil {
			return nil, fmt.Errorf("praetor: open audit log: %w", err)
		}
		gopts.AuditSinks = append(gopts.AuditSinks, sink)
	}

	var store *trust.Store
	if cfg.trustDBPath != "" {
		store, err = trust.OpenStore(cfg.trustDBPath)
		if err != nil {
			return nil, fmt.Errorf("praetor: open trust store: %w", err)
		}
		gopts.TrustStore = store
	}

	dir := cfg.reviewDir
	if dir == "" {
		dir = review.DefaultDir()
	}
	reviews, err := review.NewStore(dir)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("praetor: open review store: %w", err)
	}
	gopts.ReviewStore = reviews

	if configs, err := alert.LoadConfigs(cfg.constitutionPath); err == nil && len(configs) > 0 {
		gopts.Notifier = alert.NewNotifier(configs)
	}

	if cfg.onViolation != nil {
		fn := cfg.onViolation
		gopts.Callbacks.OnViolation = func(v *model.Verdict) { fn(toResult(v)) }
	}
	if cfg.onEscalation != nil {
		fn := cfg.onEscalation
		gopts.Callbacks.OnEscalation = func(v *model.Verdict) { fn(toResult(v)) }
	}

	gov, err := governor.New(cons, gopts)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("praetor: %w", err)
	}

	return &Client{cfg: cfg, gov: gov, store: store}, nil
}

// EvaluateInput runs the governance pipeline over content arriving at an
// agent.
func (c *Client) EvaluateInput(agentID, content string) Result {
	return toResult(c.gov.EvaluateInput(agentID, content, nil))
}

// EvaluateOutput runs the pipeline over content an agent produced.
func (c *Client) EvaluateOutput(agentID, content string) Result {
	return toResult(c.gov.EvaluateOutput(agentID, content, nil))
}

// LiftSuspension clears an agent's suspension on operator authority.
func (c *Client) LiftSuspension(agentID, reason string) error {
	return c.gov.LiftSuspension(agentID, reason)
}

// Governor exposes the underlying engine for advanced wiring: mode
// changes, constitution reloads, metrics.
func (c *Client) Governor() *governor.Governor {
	return c.gov
}

// Close stops the governor and releases the trust store. Evaluations
// after Close fail closed.
func (c *Client) Close() error {
	err := c.gov.Stop()
	if c.store != nil {
		if cerr := c.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
