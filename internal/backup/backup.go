// Package backup writes point-in-time copies of the persisted planner entries
// and runs them on a cron schedule.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"daybook/internal/kv"
	appLog "daybook/internal/log"
	"daybook/internal/task"
)

const (
	filePrefix = "daybook-"
	fileSuffix = ".json"
	fileLayout = "20060102T150405.000"
)

// Snapshot is the on-disk form of one backup. Entries holds the raw stored
// value of every key that existed when the snapshot was taken.
type Snapshot struct {
	TakenAt time.Time         `json:"taken_at"`
	Entries map[string]string `json:"entries"`
}

// Write snapshots every planner key from store into dir and returns the path
// of the new file.
func Write(store kv.Store, dir string, now time.Time) (string, error) {
	snap := Snapshot{TakenAt: now.UTC(), Entries: map[string]string{}}
	for _, key := range task.Keys {
		v, ok, err := store.Get(key)
		if err != nil {
			return "", fmt.Errorf("backup: read %s: %w", key, err)
		}
		if ok {
			snap.Entries[key] = v
		}
	}

	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filePrefix+now.UTC().Format(fileLayout)+fileSuffix)

	tmp, err := os.CreateTemp(dir, ".backup-*.tmp")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the snapshot files in dir, oldest first.
func List(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	// The timestamp layout sorts lexically.
	sort.Strings(out)
	return out, nil
}

// Prune removes the oldest snapshots so that at most keep remain.
func Prune(dir string, keep int) (removed int, err error) {
	files, err := List(dir)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	for len(files) > keep {
		if err := os.Remove(files[0]); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		files = files[1:]
		removed++
	}
	return removed, nil
}

// Read loads a snapshot file.
func Read(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("backup: decode %s: %w", filepath.Base(path), err)
	}
	if snap.Entries == nil {
		snap.Entries = map[string]string{}
	}
	return snap, nil
}

// Restore writes the snapshot back into store. Keys absent from the snapshot
// are removed so the store matches it exactly. The caller reloads any
// task.Store sitting on top of the kv store.
func Restore(store kv.Store, snap Snapshot) error {
	for _, key := range task.Keys {
		v, ok := snap.Entries[key]
		var err error
		if ok {
			err = store.Set(key, v)
		} else {
			err = store.Remove(key)
		}
		if err != nil {
			return fmt.Errorf("backup: restore %s: %w", key, err)
		}
	}
	return nil
}

// Scheduler runs Write + Prune on a cron schedule.
type Scheduler struct {
	store kv.Store
	dir   string
	keep  int
	now   func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewScheduler prepares a scheduler; nothing runs until Start.
func NewScheduler(store kv.Store, dir string, keep int) *Scheduler {
	return &Scheduler{
		store: store,
		dir:   dir,
		keep:  keep,
		now:   time.Now,
	}
}

// RunOnce takes one snapshot and prunes old ones.
func (s *Scheduler) RunOnce() (string, error) {
	path, err := Write(s.store, s.dir, s.now())
	if err != nil {
		return "", err
	}
	removed, err := Prune(s.dir, s.keep)
	if err != nil {
		return path, err
	}
	appLog.Info("backup written", "path", path, "pruned", removed)
	return path, nil
}

// Start registers the job under schedule (standard 5-field cron or a
// descriptor like "@daily") and starts the cron runner. An empty schedule
// disables the job.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		appLog.Info("backup schedule disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("backup: scheduler already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.RunOnce(); err != nil {
			appLog.Error("scheduled backup failed", err, "dir", s.dir)
		}
	}); err != nil {
		return fmt.Errorf("backup: schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	appLog.Info("backup scheduler started", "schedule", schedule, "dir", s.dir, "keep", s.keep)
	return nil
}

// Stop halts the runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	appLog.Info("backup scheduler stopped")
}
