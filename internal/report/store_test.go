package report

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_SaveLoad(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	r := sampleReport()
	if err := store.Save(r); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(r.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != r.ID || len(loaded.Steps) != len(r.Steps) {
		t.Errorf("loaded report differs: %+v", loaded)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	if _, err := store.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := NewRunReport(false)
		r.ID = base.Add(time.Duration(i) * time.Minute).Format("20060102-150405")
		r.Finish(nil)
		if err := store.Save(r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(ids))
	}
	if ids[0] != "20260830-100200" {
		t.Errorf("expected newest first, got %v", ids)
	}

	last, err := store.LastRun()
	if err != nil {
		t.Fatalf("LastRun failed: %v", err)
	}
	if last.ID != ids[0] {
		t.Errorf("LastRun = %s, want %s", last.ID, ids[0])
	}
}

func TestStore_ListEmpty(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	ids, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no runs, got %v", ids)
	}

	last, err := store.LastRun()
	if err != nil {
		t.Fatalf("LastRun failed: %v", err)
	}
	if last != nil {
		t.Errorf("expected nil last run, got %+v", last)
	}
}

func TestStore_Prune(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxStoredRuns+5; i++ {
		r := NewRunReport(false)
		r.ID = base.Add(time.Duration(i) * time.Minute).Format("20060102-150405")
		r.Finish(nil)
		if err := store.Save(r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != MaxStoredRuns {
		t.Errorf("expected %d runs after prune, got %d", MaxStoredRuns, len(ids))
	}

	// The oldest runs are the ones that were deleted
	oldest := base.Format("20060102-150405")
	for _, id := range ids {
		if id == oldest {
			t.Error("oldest run should have been pruned")
		}
	}
}

func TestStateDir_XDG(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)

	want := filepath.Join(tmpDir, "dotup")
	if got := StateDir(); got != want {
		t.Errorf("StateDir = %q, want %q", got, want)
	}

	t.Setenv("XDG_STATE_HOME", "")
	if got := StateDir(); got == want {
		t.Error("StateDir should fall back without XDG_STATE_HOME")
	}
}

func TestStore_RunPath(t *testing.T) {
	store := NewStoreAt("/tmp/state")
	want := fmt.Sprintf("/tmp/state/runs/%s.json", "abc")
	if got := store.runPath("abc"); got != want {
		t.Errorf("runPath = %q, want %q", got, want)
	}
}
