package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Replay streams entries from a JSONL audit log in file order, skipping
// malformed lines. The walk stops early when fn returns false.
func Replay(path string, fn func(e *Entry) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if !fn(&e) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}
	return nil
}

// Tail returns the newest n entries, oldest first. Non-positive n
// defaults to 20.
func Tail(path string, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	var out []Entry
	err := Replay(path, func(e *Entry) bool {
		out = append(out, *e)
		if len(out) > n {
			out = out[1:]
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
