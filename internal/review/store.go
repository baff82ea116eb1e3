// Package review holds verdicts waiting for a human decision. Items are
// single JSON files in one directory so operators can inspect and resolve
// them with nothing but a text editor when the CLI is unavailable.
package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-hq/praetor/internal/model"
)

// DefaultTTL is how long a pending item waits before Cleanup expires it.
const DefaultTTL = 72 * time.Hour

// validKey matches alphanumeric, dash, underscore, and dot characters only.
var validKey = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// validateKey rejects keys that could cause path traversal.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("key must not contain '..'")
	}
	if !validKey.MatchString(key) {
		return fmt.Errorf("key contains invalid characters: only alphanumeric, dash, underscore, and dot are allowed")
	}
	return nil
}

// Status represents the state of a review item.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
)

// Item is one verdict escalated for human review.
type Item struct {
	Key       string          `json:"key"`
	Agent     string          `json:"agent"`
	Direction model.Direction `json:"direction"`
	Excerpt   string          `json:"excerpt"`
	Reason    string          `json:"reason"`
	VerdictID string          `json:"verdict_id"`
	Status    Status          `json:"status"`
	Created   time.Time       `json:"created"`
	Decided   *time.Time      `json:"decided,omitempty"`
	DecidedBy string          `json:"decided_by,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// Store manages review item files on disk.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store backed by the given directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create review directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the default review store directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "praetor-reviews")
	}
	return filepath.Join(home, ".praetor", "reviews")
}

// Request files a new pending item and returns it. The excerpt is capped
// so review files never hold full agent transcripts.
func (s *Store) Request(agent string, direction model.Direction, content, reason, verdictID string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := Item{
		Key:       uuid.NewString(),
		Agent:     agent,
		Direction: direction,
		Excerpt:   model.Excerpt(content),
		Reason:    reason,
		VerdictID: verdictID,
		Status:    StatusPending,
		Created:   time.Now().UTC(),
	}

	if err := s.writeAtomic(s.path(item.Key), item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Approve resolves a pending item. Decided items cannot be re-decided.
func (s *Store) Approve(key, by, note string) error {
	return s.decide(key, StatusApproved, by, note)
}

// Deny resolves a pending item.
func (s *Store) Deny(key, by, note string) error {
	return s.decide(key, StatusDenied, by, note)
}

func (s *Store) decide(key string, status Status, by, note string) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("invalid review key: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.read(key)
	if err != nil {
		return fmt.Errorf("review item %q not found: %w", key, err)
	}
	if item.Status != StatusPending {
		return fmt.Errorf("review item %q already %s", key, item.Status)
	}

	item.Status = status
	now := time.Now().UTC()
	item.Decided = &now
	item.DecidedBy = by
	item.Note = note

	return s.writeAtomic(s.path(key), *item)
}

// Get returns a single item by key.
func (s *Store) Get(key string) (*Item, error) {
	if err := validateKey(key); err != nil {
		return nil, fmt.Errorf("invalid review key: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.read(key)
	if err != nil {
		return nil, fmt.Errorf("review item %q not found", key)
	}
	return item, nil
}

// List returns items with the given status, oldest first. An empty
// status returns everything.
func (s *Store) List(status Status) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var items []Item
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		key := strings.TrimSuffix(e.Name(), ".json")
		item, err := s.read(key)
		if err != nil {
			continue
		}
		if status != "" && item.Status != status {
			continue
		}
		items = append(items, *item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Created.Before(items[j].Created) })
	return items, nil
}

// Cleanup expires pending items older than maxAge (DefaultTTL when
// non-positive) and returns how many it expired.
func (s *Store) Cleanup(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	expired := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		key := strings.TrimSuffix(e.Name(), ".json")
		item, err := s.read(key)
		if err != nil {
			continue
		}
		if item.Status != StatusPending || item.Created.After(cutoff) {
			continue
		}
		item.Status = StatusExpired
		now := time.Now().UTC()
		item.Decided = &now
		item.Note = "expired unreviewed"
		if err := s.writeAtomic(s.path(key), *item); err != nil {
			return expired, err
		}
		expired++
	}

	return expired, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) read(key string) (*Item, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}

	return &item, nil
}

func (s *Store) writeAtomic(path string, item Item) error {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
