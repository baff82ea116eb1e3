package audit

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Sink receives audit entries. Implementations must be safe for
// concurrent use.
type Sink interface {
	Append(e *Entry) error
	Close() error
}

// ConsoleSink renders entries at or above a minimum level as single
// lines on a writer.
type ConsoleSink struct {
	mu  sync.Mutex
	w   io.Writer
	min Level
}

func NewConsoleSink(w io.Writer, minLevel Level) *ConsoleSink {
	return &ConsoleSink{w: w, min: minLevel}
}

func (s *ConsoleSink) Append(e *Entry) error {
	if e.Level.rank() < s.min.rank() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, FormatLine(e))
	return err
}

func (s *ConsoleSink) Close() error { return nil }

// MemorySinkCap is the ring capacity NewMemorySink falls back to when
// given a non-positive one.
const MemorySinkCap = 1000

// MemorySink keeps the newest entries in memory, oldest evicted first.
type MemorySink struct {
	mu      sync.Mutex
	cap     int
	entries []Entry
}

func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = MemorySinkCap
	}
	return &MemorySink{cap: capacity}
}

func (s *MemorySink) Append(e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	if len(s.entries) > s.cap {
		s.entries = s.entries[len(s.entries)-s.cap:]
	}
	return nil
}

// Entries returns a copy, oldest first.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *MemorySink) Close() error { return nil }

// Multi fans entries out to several sinks. A failing sink is counted
// and skipped: one bad sink must never block a decision.
type Multi struct {
	sinks  []Sink
	faults atomic.Uint64
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Append(e *Entry) error {
	for _, s := range m.sinks {
		if err := s.Append(e); err != nil {
			m.faults.Add(1)
		}
	}
	return nil
}

// Faults reports how many sink appends have failed since start.
func (m *Multi) Faults() uint64 { return m.faults.Load() }

func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
