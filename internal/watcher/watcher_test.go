package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/slogutil"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBatchDebouncer_CoalescesByPath(t *testing.T) {
	var mu sync.Mutex
	var batches [][]Event
	b := NewBatchDebouncer(20*time.Millisecond, func(events []Event) {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
	})

	b.Add(Event{Type: EventCreate, Path: "b.go"})
	b.Add(Event{Type: EventModify, Path: "a.go"})
	b.Add(Event{Type: EventDelete, Path: "b.go"})
	assert.Equal(t, 2, b.EventCount())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches[0], 2)
	assert.Equal(t, "a.go", batches[0][0].Path)
	assert.Equal(t, "b.go", batches[0][1].Path)
	assert.Equal(t, EventDelete, batches[0][1].Type)
}

func TestBatchDebouncer_FlushAndCancel(t *testing.T) {
	var got []Event
	b := NewBatchDebouncer(time.Hour, func(events []Event) { got = events })

	b.Add(Event{Path: "x.go"})
	b.Flush()
	assert.Len(t, got, 1)
	assert.Zero(t, b.EventCount())

	got = nil
	b.Add(Event{Path: "y.go"})
	b.Cancel()
	b.Flush()
	assert.Nil(t, got)
}

func TestWatcher_IgnoresStoreAndSkippedDirs(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Config{DebounceMs: 10, StoreDir: ".archgraph", Excludes: []string{"generated"}},
		slogutil.NewDiscardLogger(), func(context.Context, []Event) error { return nil })
	require.NoError(t, err)
	defer w.fsw.Close()

	tests := []struct {
		rel  string
		want bool
	}{
		{".archgraph/index.json", true},
		{"node_modules/pkg/index.js", true},
		{"generated/api.ts", true},
		{"src/app.go.swp", true},
		{"src/app.go", false},
		{"archgraph.go", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.ignored(tt.rel), tt.rel)
	}
}

func TestWatcher_ScansOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".archgraph"), 0o755))

	var mu sync.Mutex
	var seen []string
	scan := func(_ context.Context, events []Event) error {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			seen = append(seen, e.Path)
		}
		return nil
	}

	w, err := New(root, Config{DebounceMs: 20, StoreDir: filepath.Join(root, ".archgraph")}, slogutil.NewDiscardLogger(), scan)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// give the watcher time to register directories
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".archgraph", "index.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "db.go"), []byte("package src\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, "src/db.go")
	assert.NotContains(t, seen, ".archgraph/index.json")
	assert.GreaterOrEqual(t, w.Scans(), 1)
}

func TestWatcher_ScansAreSerial(t *testing.T) {
	w := &Watcher{
		logger: slogutil.NewDiscardLogger(),
		wake:   make(chan struct{}, 1),
	}
	var mu sync.Mutex
	running, maxRunning := 0, 0
	w.scan = func(context.Context, []Event) error {
		mu.Lock()
		running++
		if running > maxRunning {
			maxRunning = running
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.scanLoop(ctx)
	}()

	for i := 0; i < 10; i++ {
		w.enqueue([]Event{{Path: "a.go"}})
		time.Sleep(time.Millisecond)
	}
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.pending) == 0
	}, time.Second, 5*time.Millisecond)
	// let the last scan finish
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxRunning)
	assert.GreaterOrEqual(t, w.Scans(), 1)
	assert.LessOrEqual(t, w.Scans(), 10)
}
