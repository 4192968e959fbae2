package oracle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the graph database and documentation sources and clears
// both cache tiers when the reindex collaborator rewrites them. Mtime checks
// on every lookup already prevent stale reads; the watcher reclaims the disk
// and memory those stale entries would otherwise hold until touched.
type Watcher struct {
	oracle  *Oracle
	files   []string // exact file targets
	dirs    []string // directory targets, matched by prefix
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher over the given paths. Paths naming files are
// matched exactly (their parent directory is registered); paths naming
// directories match any file beneath them. Nonexistent paths are skipped.
func NewWatcher(o *Oracle, paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{oracle: o, watcher: fw, done: make(chan struct{})}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.IsDir() {
			w.dirs = append(w.dirs, filepath.Clean(p))
		} else {
			w.files = append(w.files, filepath.Clean(p))
		}
	}
	return w, nil
}

// Start registers the watch points and begins invalidating in the
// background.
func (w *Watcher) Start() error {
	registered := make(map[string]bool)
	for _, f := range w.files {
		dir := filepath.Dir(f)
		if !registered[dir] {
			if err := w.watcher.Add(dir); err != nil {
				return err
			}
			registered[dir] = true
		}
	}
	for _, d := range w.dirs {
		if !registered[d] {
			if err := w.watcher.Add(d); err != nil {
				return err
			}
			registered[d] = true
		}
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: a reindex touches the database many times in a burst; one
	// clear at the end is enough.
	const debounce = 250 * time.Millisecond
	var pending bool
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if pending {
					w.invalidate()
				}
				return
			}
			if w.matches(event.Name) && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending = true
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.oracle.log.Warn("source watcher error", "error", err)
		case <-ticker.C:
			if pending {
				pending = false
				w.invalidate()
			}
		}
	}
}

// matches filters events down to the configured targets, so unrelated files
// in a shared directory (the cache database in particular) don't trigger an
// invalidation loop.
func (w *Watcher) matches(name string) bool {
	name = filepath.Clean(name)
	for _, f := range w.files {
		if name == f || strings.HasPrefix(name, f+"-") {
			// The suffix form catches SQLite WAL/SHM sidecars.
			return true
		}
	}
	for _, d := range w.dirs {
		if strings.HasPrefix(name, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) invalidate() {
	if err := w.oracle.InvalidateAll(context.Background()); err != nil {
		w.oracle.log.Warn("cache clear after source change failed", "error", err)
	}
}
