package praetor

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	constitutionPath string
	mode             string
	auditLogPath     string
	trustDBPath      string
	reviewDir        string
	onViolation      func(Result)
	onEscalation     func(Result)
}

// WithConstitution sets the path to a constitution YAML file.
func WithConstitution(path string) Option {
	return func(c *clientConfig) { c.constitutionPath = path }
}

// WithMode sets the enforcement mode ("normative", "adaptive", "passive").
func WithMode(mode string) Option {
	return func(c *clientConfig) { c.mode = mode }
}

// WithAuditLog appends every audit entry to the hash-chained log at path.
func WithAuditLog(path string) Option {
	return func(c *clientConfig) { c.auditLogPath = path }
}

// WithTrustDB persists trust state in a SQLite database at path.
func WithTrustDB(path string) Option {
	return func(c *clientConfig) { c.trustDBPath = path }
}

// WithReviewDir sets the directory for the human review queue.
func WithReviewDir(dir string) Option {
	return func(c *clientConfig) { c.reviewDir = dir }
}

// WithOnViolation registers a callback fired on violation or critical
// verdicts. The callback runs on the evaluation goroutine; panics are
// contained.
func WithOnViolation(fn func(Result)) Option {
	return func(c *clientConfig) { c.onViolation = fn }
}

// WithOnEscalation registers a callback fired when a verdict requires
// human review.
func WithOnEscalation(fn func(Result)) Option {
	return func(c *clientConfig) { c.onEscalation = fn }
}

// WrapOption configures a single Wrap call.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	actionType string
	session    string
}

// WrapWithActionType labels evaluations from this wrap with an action type.
func WrapWithActionType(actionType string) WrapOption {
	return func(w *wrapConfig) { w.actionType = actionType }
}

// WrapWithSession tags evaluations from this wrap with a session ID.
func WrapWithSession(session string) WrapOption {
	return func(w *wrapConfig) { w.session = session }
}
