package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybook/internal/kv"
	"daybook/internal/task"
)

func seeded(t *testing.T) kv.Store {
	t.Helper()
	s := kv.NewMemory()
	require.NoError(t, s.Set(task.KeyTasks, `{"2024-05-01":{"09:00":[{"desc":"Gym"}]}}`))
	require.NoError(t, s.Set(task.KeyRecurring, `[{"repeat":"weekly","dayOfWeek":1,"time":"10:00","desc":"Standup"}]`))
	require.NoError(t, s.Set(task.KeyJournal, "notes"))
	return s
}

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)

	path, err := Write(seeded(t), dir, now)
	require.NoError(t, err)
	assert.Equal(t, "daybook-20240501T030000.000.json", filepath.Base(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	snap, err := Read(path)
	require.NoError(t, err)
	assert.True(t, snap.TakenAt.Equal(now))
	assert.Len(t, snap.Entries, 3)
	assert.Equal(t, "notes", snap.Entries[task.KeyJournal])
}

func TestWriteSkipsMissingKeys(t *testing.T) {
	s := kv.NewMemory()
	require.NoError(t, s.Set(task.KeyJournal, "only this"))

	path, err := Write(s, t.TempDir(), time.Now())
	require.NoError(t, err)
	snap, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{task.KeyJournal: "only this"}, snap.Entries)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	store := seeded(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := Write(store, dir, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600))

	removed, err := Prune(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	files, err := List(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "daybook-20240501T030000.000.json", filepath.Base(files[0]))
	assert.Equal(t, "daybook-20240501T040000.000.json", filepath.Base(files[1]))

	_, err = os.Stat(filepath.Join(dir, "unrelated.txt"))
	assert.NoError(t, err)
}

func TestListMissingDir(t *testing.T) {
	files, err := List(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err)
	assert.Empty(t, files)
}

func TestRestore(t *testing.T) {
	path, err := Write(seeded(t), t.TempDir(), time.Now())
	require.NoError(t, err)
	snap, err := Read(path)
	require.NoError(t, err)
	delete(snap.Entries, task.KeyJournal)

	target := kv.NewMemory()
	require.NoError(t, target.Set(task.KeyJournal, "stale"))
	require.NoError(t, Restore(target, snap))

	v, ok, err := target.Get(task.KeyTasks)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, v, "Gym")

	_, ok, err = target.Get(task.KeyJournal)
	require.NoError(t, err)
	assert.False(t, ok)

	ts := task.NewStore(target)
	ts.Load()
	assert.Len(t, ts.Recurring(), 1)
}

func TestSchedulerRunOnce(t *testing.T) {
	dir := t.TempDir()
	s := NewScheduler(seeded(t), dir, 1)
	tick := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	_, err := s.RunOnce()
	require.NoError(t, err)
	last, err := s.RunOnce()
	require.NoError(t, err)

	files, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{last}, files)
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(seeded(t), t.TempDir(), 3)

	assert.Error(t, s.Start("not a schedule"))
	require.NoError(t, s.Start(""))

	require.NoError(t, s.Start("@every 1h"))
	assert.Error(t, s.Start("@every 1h"))
	s.Stop()
	s.Stop()
}
