package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"archgraph/internal/slogutil"
)

func setupHistory(t *testing.T) (*History, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".archgraph", "history.db")
	h, err := OpenHistory(path, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Failed to open history: %v", err)
	}
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("Failed to close history: %v", err)
		}
	})
	return h, path
}

func TestHistory_SchemaVersion(t *testing.T) {
	h, _ := setupHistory(t)
	version, err := h.db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestHistory_ReopenRunsMigrations(t *testing.T) {
	h, path := setupHistory(t)
	if _, err := h.RecordRun(context.Background(), &ScanRun{StartedAt: time.Now(), Mode: ModeFull}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	again, err := OpenHistory(path, nil)
	if err != nil {
		t.Fatalf("Failed to reopen history: %v", err)
	}
	defer again.Close()

	runs, err := again.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 run after reopen, got %d", len(runs))
	}
}

func TestHistory_RecordAndList(t *testing.T) {
	ctx := context.Background()
	h, _ := setupHistory(t)

	start := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	first := &ScanRun{
		StartedAt:    start,
		Duration:     1500 * time.Millisecond,
		Mode:         ModeFull,
		Commit:       "abc123",
		FilesTotal:   40,
		FilesScanned: 40,
		FilesAdded:   40,
		Components:   12,
		Connections:  30,
	}
	id, err := h.RecordRun(ctx, first)
	if err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if id == 0 || first.ID != id {
		t.Fatalf("Expected run ID to be set, got %d / %d", id, first.ID)
	}

	second := &ScanRun{
		StartedAt:      start.Add(time.Hour),
		Duration:       200 * time.Millisecond,
		Mode:           ModeIncremental,
		FilesTotal:     39,
		FilesScanned:   2,
		FilesModified:  2,
		FilesRemoved:   1,
		FilesUnchanged: 37,
		RecordsWritten: 3,
		Warnings: []RunWarning{
			{Type: "removed-file", Message: "file removed from project", File: "old.go"},
			{Type: "parse-error", Message: "bad json", File: "package.json"},
		},
	}
	if _, err := h.RecordRun(ctx, second); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := h.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].Mode != ModeIncremental || runs[1].Mode != ModeFull {
		t.Errorf("Expected newest first, got %s then %s", runs[0].Mode, runs[1].Mode)
	}
	if runs[0].WarningCount != 2 {
		t.Errorf("Expected warning count 2, got %d", runs[0].WarningCount)
	}
	if runs[1].Commit != "abc123" || runs[1].Duration != 1500*time.Millisecond {
		t.Errorf("Unexpected first run: %+v", runs[1])
	}
	if !runs[1].StartedAt.Equal(start) {
		t.Errorf("Expected started_at %v, got %v", start, runs[1].StartedAt)
	}

	limited, err := h.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d runs", len(limited))
	}

	detail, err := h.Run(ctx, second.ID)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(detail.Warnings) != 2 || detail.Warnings[0].File != "old.go" {
		t.Errorf("Unexpected warnings: %+v", detail.Warnings)
	}

	missing, err := h.Run(ctx, 999)
	if err != nil || missing != nil {
		t.Errorf("Expected nil run for missing ID, got %+v, %v", missing, err)
	}
}

func TestHistory_Prune(t *testing.T) {
	ctx := context.Background()
	h, _ := setupHistory(t)
	for i := 0; i < 5; i++ {
		run := &ScanRun{StartedAt: time.Now(), Mode: ModeFull, Warnings: []RunWarning{{Type: "x", Message: "y"}}}
		if _, err := h.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	n, err := h.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 pruned runs, got %d", n)
	}
	runs, err := h.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("Expected 2 remaining runs, got %d", len(runs))
	}
}
