package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// MaxStoredRuns is the number of run reports kept on disk.
const MaxStoredRuns = 20

// Store persists run reports under the dotup state directory.
type Store struct {
	// RunsDir is the directory holding one JSON file per run.
	RunsDir string
}

// NewStore creates a store rooted at the default state directory.
func NewStore() *Store {
	return &Store{RunsDir: filepath.Join(StateDir(), "runs")}
}

// NewStoreAt creates a store rooted at the given directory.
func NewStoreAt(dir string) *Store {
	return &Store{RunsDir: filepath.Join(dir, "runs")}
}

// StateDir returns the dotup state directory. It honors XDG_STATE_HOME and
// falls back to ~/.dotup.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "dotup")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dotup"
	}
	return filepath.Join(home, ".dotup")
}

// runPath returns the path to the report file for the given run ID.
func (s *Store) runPath(id string) string {
	return filepath.Join(s.RunsDir, id+".json")
}

// Save persists a run report and prunes old reports beyond MaxStoredRuns.
func (s *Store) Save(r *RunReport) error {
	if err := os.MkdirAll(s.RunsDir, 0755); err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	if err := os.WriteFile(s.runPath(r.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}

	return s.prune()
}

// Load loads a run report by ID.
func (s *Store) Load(id string) (*RunReport, error) {
	data, err := os.ReadFile(s.runPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read run report: %w", err)
	}

	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}

	return &r, nil
}

// List returns stored run IDs, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.RunsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		ids = append(ids, entry.Name()[:len(entry.Name())-5])
	}

	// IDs are timestamp-formatted, so lexical order is chronological
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// LastRun loads the most recent run report, or nil if none exist.
func (s *Store) LastRun() (*RunReport, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Load(ids[0])
}

// prune deletes the oldest reports beyond MaxStoredRuns.
func (s *Store) prune() error {
	ids, err := s.List()
	if err != nil {
		return err
	}
	for _, id := range ids[min(len(ids), MaxStoredRuns):] {
		if err := os.Remove(s.runPath(id)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to prune run report: %w", err)
		}
	}
	return nil
}
