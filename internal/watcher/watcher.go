// Package watcher re-scans a project when its files change. File system
// events are debounced into batches and scans run one at a time on a
// single goroutine.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"archgraph/internal/detect"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one file change, with Path relative to the project root
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// ScanFunc runs one scan for a batch of changed paths
type ScanFunc func(ctx context.Context, changed []Event) error

// Config contains watcher configuration
type Config struct {
	DebounceMs int
	// StoreDir is ignored so scan output never triggers another scan
	StoreDir string
	Excludes []string
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() Config {
	return Config{DebounceMs: 500}
}

// Watcher watches a project tree
type Watcher struct {
	root   string
	config Config
	logger *slog.Logger
	scan   ScanFunc
	fsw    *fsnotify.Watcher
	batch  *BatchDebouncer

	mu      sync.Mutex
	pending []Event
	wake    chan struct{}

	scans  int
	errors int
}

// New creates a watcher for root. Call Run to start it.
func New(root string, config Config, logger *slog.Logger, scan ScanFunc) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if config.DebounceMs <= 0 {
		config.DebounceMs = DefaultConfig().DebounceMs
	}
	if config.StoreDir != "" && !filepath.IsAbs(config.StoreDir) {
		config.StoreDir = filepath.Join(abs, config.StoreDir)
	}
	w := &Watcher{
		root:   abs,
		config: config,
		logger: logger,
		scan:   scan,
		fsw:    fsw,
		wake:   make(chan struct{}, 1),
	}
	w.batch = NewBatchDebouncer(time.Duration(config.DebounceMs)*time.Millisecond, w.enqueue)
	return w, nil
}

// Run watches until ctx is cancelled. Batches that arrive while a scan is
// running are merged and scanned once it finishes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	w.logger.Info("Watching project",
		"root", w.root,
		"debounceMs", w.config.DebounceMs,
	)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.scanLoop(ctx)
	}()

	defer func() {
		w.batch.Cancel()
		cancel()
		<-done
		w.logger.Info("Watcher stopped", "scans", w.Scans())
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, ok := w.relative(ev.Name)
	if !ok || w.ignored(rel) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", rel, "error", err)
			}
		}
	}
	w.batch.Add(Event{Type: convertOp(ev.Op), Path: rel, Timestamp: time.Now()})
}

func (w *Watcher) enqueue(events []Event) {
	w.mu.Lock()
	w.pending = append(w.pending, events...)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Watcher) scanLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}

		w.mu.Lock()
		events := w.pending
		w.pending = nil
		w.mu.Unlock()
		if len(events) == 0 {
			continue
		}

		w.logger.Debug("Changes detected", "events", len(events))
		err := w.scan(ctx, events)

		w.mu.Lock()
		w.scans++
		if err != nil {
			w.errors++
		}
		w.mu.Unlock()

		if err != nil && ctx.Err() == nil {
			w.logger.Error("Scan after change failed", "error", err)
		}
	}
}

// Scans returns how many scans the watcher has run
func (w *Watcher) Scans() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scans
}

// Stats returns watcher statistics
func (w *Watcher) Stats() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return map[string]interface{}{
		"root":       w.root,
		"debounceMs": w.config.DebounceMs,
		"scans":      w.scans,
		"errors":     w.errors,
		"pending":    len(w.pending) + w.batch.EventCount(),
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(p); ok && rel != "." && w.ignored(rel) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *Watcher) relative(p string) (string, bool) {
	rel, err := filepath.Rel(w.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) ignored(rel string) bool {
	if store := w.config.StoreDir; store != "" {
		if s, ok := w.relative(store); ok && (rel == s || strings.HasPrefix(rel, s+"/")) {
			return true
		}
	}
	base := filepath.Base(rel)
	if strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, "~") {
		return true
	}
	return detect.Ignored(rel, w.config.Excludes)
}

func convertOp(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreate
	case op.Has(fsnotify.Remove):
		return EventDelete
	case op.Has(fsnotify.Rename):
		return EventRename
	default:
		return EventModify
	}
}
