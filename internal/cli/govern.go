package cli

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

// buildGovernor assembles a governor from the persistent flags. The
// returned close function stops the governor (which closes the audit
// sinks) and releases the trust store.
func buildGovernor() (*governor.Governor, func(), error) {
	cons, _, err := constitution.LoadWithHash(flagConstitution)
	if err != nil {
		return nil, nil, err
	}

	mode := model.ModeNormative
	if flagMode != "" {
		mode, err = model.ParseMode(flagMode)
		if err != nil {
			return nil, nil, err
		}
	}

	opts := governor.Options{Mode: mode}

	if flagAuditLog != "" {
		sink, err := audit.OpenFile(flagAuditLog)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit log: %w", err)
		}
		opts.AuditSinks = append(opts.AuditSinks, sink)
	}

	var store *trust.Store
	if flagTrustDB != "" {
		store, err = trust.OpenStore(flagTrustDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open trust store: %w", err)
		}
		opts.TrustStore = store
	}

	dir := flagReviewDir
	if dir == "" {
		dir = review.DefaultDir()
	}
	reviews, err := review.NewStore(dir)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, fmt.Errorf("open review store: %w", err)
	}
	opts.ReviewStore = reviews

	// Webhook destinations ride along in the constitution file.
	if configs, err := alert.LoadConfigs(flagConstitution); err == nil && len(configs) > 0 {
		opts.Notifier = alert.NewNotifier(configs)
	}

	gov, err := governor.New(cons, opts)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		_ = gov.Stop()
		if store != nil {
			_ = store.Close()
		}
	}
	return gov, cleanup, nil
}
