package constitution

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault coalesces editor write bursts into one reload.
const debounceDefault = 200 * time.Millisecond

// Watcher reloads a constitution file whenever it changes on disk.
// A parse failure keeps the previous constitution in force.
type Watcher struct {
	path     string
	onChange func(*Constitution)
	debounce time.Duration
}

// NewWatcher creates a watcher for the constitution at path. onChange
// receives every successfully loaded revision.
func NewWatcher(path string, onChange func(*Constitution)) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: debounceDefault,
	}
}

// Run watches the file until ctx is cancelled. The parent directory is
// watched rather than the file itself: editors replace files by rename,
// which drops a direct file watch.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Base(w.path)

	// Single debounce timer, reset on each relevant event.
	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounceTimer.C:
			w.reload()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = err
		}
	}
}

// reload parses the file and hands the result to onChange. Failures are
// reported to stderr and the previous revision stays active.
func (w *Watcher) reload() {
	c, err := Load(w.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "praetor: constitution reload failed, keeping previous: %v\n", err)
		return
	}
	w.onChange(c)
}
