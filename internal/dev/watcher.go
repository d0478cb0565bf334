package dev

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ChangeOp represents the kind of file change.
type ChangeOp int

const (
	OpWrite ChangeOp = iota
	OpRemove
)

// Change represents a detected file change.
type Change struct {
	Path string
	Op   ChangeOp
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Root is the directory to watch.
	Root string

	// Extra are additional paths outside Root to watch.
	Extra []string

	// Ignore patterns to skip (doublestar globs, matched against the
	// slash-normalized path relative to Root and against the base name).
	Ignore []string

	// Debounce is the polling interval.
	Debounce time.Duration
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"dist",
	".modkit",
	"**/*.tmp",
	"**/*.swp",
	"**/*~",
}

// Watcher monitors files for changes by polling modification times.
type Watcher struct {
	config      WatcherConfig
	onChange    func(Change)
	mu          sync.Mutex
	running     bool
	initialized bool
	stopCh      chan struct{}
	timestamps  map[string]time.Time
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	config.Ignore = append(append([]string{}, DefaultIgnore...), config.Ignore...)

	return &Watcher{
		config:     config,
		timestamps: make(map[string]time.Time),
	}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start begins watching for file changes. It blocks until ctx is done or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	w.scanInitial()

	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) roots() []string {
	return append([]string{w.config.Root}, w.config.Extra...)
}

// scanInitial builds the initial timestamp map.
func (w *Watcher) scanInitial() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, root := range w.roots() {
		w.walk(root, func(p string, modTime time.Time) {
			w.timestamps[p] = modTime
		})
	}

	w.initialized = true
}

// checkForChanges scans for modified and deleted files.
func (w *Watcher) checkForChanges() {
	w.mu.Lock()
	callback := w.onChange
	initialized := w.initialized
	w.mu.Unlock()

	if callback == nil {
		return
	}

	var changes []Change

	for _, root := range w.roots() {
		w.walk(root, func(p string, modTime time.Time) {
			w.mu.Lock()
			lastMod, exists := w.timestamps[p]
			if !exists || modTime.After(lastMod) {
				w.timestamps[p] = modTime
				if exists || initialized {
					changes = append(changes, Change{Path: p, Op: OpWrite})
				}
			}
			w.mu.Unlock()
		})
	}

	w.mu.Lock()
	for p := range w.timestamps {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			delete(w.timestamps, p)
			changes = append(changes, Change{Path: p, Op: OpRemove})
		}
	}
	w.mu.Unlock()

	for _, change := range changes {
		callback(change)
	}
}

func (w *Watcher) walk(root string, visit func(p string, modTime time.Time)) {
	filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if p != root && w.shouldIgnore(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.shouldIgnore(p) {
			visit(p, info.ModTime())
		}
		return nil
	})
}

// shouldIgnore checks if a path matches any ignore glob.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	rel := filepath.ToSlash(fullPath)
	if r, err := filepath.Rel(w.config.Root, fullPath); err == nil && !strings.HasPrefix(r, "..") {
		rel = filepath.ToSlash(r)
	}

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
	}

	return false
}
