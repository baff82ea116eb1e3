package trust

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/praetor-hq/praetor/internal/model"
)

// SaveQueueCap bounds the async persistence queue. When the queue is full
// saves are dropped and counted; decisions never block on the database.
const SaveQueueCap = 256

type saveReq struct {
	snap   model.TrustSnapshot
	events []Event
}

// Store persists trust state to a sqlite database. All writes flow through
// a single goroutine, so concurrent evaluations never contend on the driver;
// the event log is append-only.
type Store struct {
	db      *sql.DB
	path    string
	queue   chan saveReq
	done    chan struct{}
	dropped atomic.Uint64
	once    sync.Once
}

// OpenStore creates or opens the trust database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trust db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open trust db: %w", err)
	}
	// Single connection: one writer goroutine plus occasional reads.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:    db,
		path:  path,
		queue: make(chan saveReq, SaveQueueCap),
		done:  make(chan struct{}),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init trust schema: %w", err)
	}

	go s.writer()
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close drains the save queue and closes the database.
func (s *Store) Close() error {
	s.once.Do(func() {
		close(s.queue)
		<-s.done
	})
	return s.db.Close()
}

// Dropped reports how many saves were discarded because the queue was full.
func (s *Store) Dropped() uint64 {
	return s.dropped.Load()
}

// SaveAsync queues the snapshot and its new events for persistence. It
// never blocks: a full queue drops the save and increments Dropped.
func (s *Store) SaveAsync(snap model.TrustSnapshot, events []Event) {
	select {
	case s.queue <- saveReq{snap: snap, events: events}:
	default:
		s.dropped.Add(1)
	}
}

func (s *Store) writer() {
	defer close(s.done)
	for req := range s.queue {
		if err := s.save(req); err != nil {
			fmt.Fprintf(os.Stderr, "praetor: trust save failed: %v\n", err)
		}
	}
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trust_agents (
		agent_id TEXT PRIMARY KEY,
		score REAL NOT NULL,
		consecutive_good INTEGER NOT NULL DEFAULT 0,
		suspended INTEGER NOT NULL DEFAULT 0,
		suspension_reason TEXT NOT NULL DEFAULT '',
		suspension_expiry INTEGER NOT NULL DEFAULT 0,
		event_count INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trust_events (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		violation_type TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL DEFAULT '',
		impact REAL NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trust_events_agent ON trust_events(agent_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) save(req saveReq) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var expiry int64
	if !req.snap.SuspensionExpiry.IsZero() {
		expiry = req.snap.SuspensionExpiry.UnixNano()
	}
	_, err = tx.Exec(`
		INSERT INTO trust_agents (agent_id, score, consecutive_good, suspended,
			suspension_reason, suspension_expiry, event_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			score = excluded.score,
			consecutive_good = excluded.consecutive_good,
			suspended = excluded.suspended,
			suspension_reason = excluded.suspension_reason,
			suspension_expiry = excluded.suspension_expiry,
			event_count = excluded.event_count,
			updated_at = excluded.updated_at
	`, req.snap.AgentID, req.snap.Score, req.snap.ConsecutiveGood, boolInt(req.snap.Suspended),
		req.snap.SuspensionReason, expiry, req.snap.EventCount, req.snap.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save agent %s: %w", req.snap.AgentID, err)
	}

	for _, ev := range req.events {
		_, err = tx.Exec(`
			INSERT OR IGNORE INTO trust_events (id, agent_id, kind, violation_type,
				severity, impact, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, ev.ID, ev.AgentID, string(ev.Kind), string(ev.Type), string(ev.Severity),
			ev.Impact, ev.Description, ev.Timestamp.UnixNano())
		if err != nil {
			return fmt.Errorf("save event %s: %w", ev.ID, err)
		}
	}

	return tx.Commit()
}

// LoadAll returns the persisted snapshot of every known agent.
func (s *Store) LoadAll() ([]model.TrustSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT agent_id, score, consecutive_good, suspended, suspension_reason,
			suspension_expiry, event_count, updated_at
		FROM trust_agents
		ORDER BY agent_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []model.TrustSnapshot
	for rows.Next() {
		var snap model.TrustSnapshot
		var suspended int
		var expiry, updated int64
		if err := rows.Scan(&snap.AgentID, &snap.Score, &snap.ConsecutiveGood, &suspended,
			&snap.SuspensionReason, &expiry, &snap.EventCount, &updated); err != nil {
			return nil, err
		}
		snap.Suspended = suspended != 0
		if expiry != 0 {
			snap.SuspensionExpiry = time.Unix(0, expiry)
		}
		snap.UpdatedAt = time.Unix(0, updated)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Events returns the agent's most recent events, oldest first, at most limit.
func (s *Store) Events(agentID string, limit int) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT id, agent_id, kind, violation_type, severity, impact, description, created_at
		FROM trust_events
		WHERE agent_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []Event
	for rows.Next() {
		var ev Event
		var kind, vt, sev string
		var created int64
		if err := rows.Scan(&ev.ID, &ev.AgentID, &kind, &vt, &sev,
			&ev.Impact, &ev.Description, &created); err != nil {
			return nil, err
		}
		ev.Kind = EventKind(kind)
		ev.Type = model.ViolationType(vt)
		ev.Severity = model.Severity(sev)
		ev.Timestamp = time.Unix(0, created)
		evs = append(evs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Flip newest-first to oldest-first.
	for i, j := 0, len(evs)-1; i < j; i, j = i+1, j-1 {
		evs[i], evs[j] = evs[j], evs[i]
	}
	return evs, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
