// Package task owns the one-time task index, the recurring rule list and
// the journal text, and writes every change straight through to a kv.Store.
//
// Store is not safe for concurrent use; planner.Planner serialises access.
package task

import (
	"fmt"
	"sort"

	"daybook/internal/kv"
	appLog "daybook/internal/log"
	"daybook/internal/model"
)

// Store is the in-memory source of truth for tasks, backed by kv.
type Store struct {
	kv kv.Store

	index     map[string]map[string][]model.TaskEntry
	recurring []model.RecurringRule
	journal   string
}

// NewStore returns an empty store on top of backend. Call Load to read
// previously persisted state.
func NewStore(backend kv.Store) *Store {
	return &Store{
		kv:    backend,
		index: map[string]map[string][]model.TaskEntry{},
	}
}

// Load reads all persisted collections. Absent or unparseable data becomes
// an empty default; Load never fails.
func (s *Store) Load() {
	s.index = map[string]map[string][]model.TaskEntry{}
	s.recurring = nil
	s.journal = ""

	if raw, ok := s.read(KeyTasks); ok {
		idx, err := decodeIndex(raw)
		if err != nil {
			appLog.Debug("task: ignoring unparseable one-time index", "err", err)
		} else {
			s.index = idx
		}
	}

	if raw, ok := s.read(KeyRecurring); ok {
		rules, dropped, err := decodeRules(raw)
		if err != nil {
			appLog.Debug("task: ignoring unparseable recurring list", "err", err)
		} else {
			s.recurring = rules
		}
		if dropped > 0 {
			appLog.Warn("task: dropped malformed recurring rules", "count", dropped)
		}
	}

	if raw, ok := s.read(KeyJournal); ok {
		s.journal = raw
	}

	appLog.Debug("task store loaded",
		"dates", len(s.index),
		"recurring", len(s.recurring),
		"journal_bytes", len(s.journal),
	)
}

func (s *Store) read(key string) (string, bool) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		appLog.Debug("task: store read failed; using default", "key", key, "err", err)
		return "", false
	}
	return raw, ok
}

// AddOneTime appends a task to the (date, time) slot and persists.
func (s *Store) AddOneTime(date, time, desc string) error {
	slots := s.index[date]
	if slots == nil {
		slots = map[string][]model.TaskEntry{}
		s.index[date] = slots
	}
	slots[time] = append(slots[time], model.TaskEntry{Description: desc})
	return s.saveIndex()
}

// DeleteOneTime removes the entry at index in the (date, time) slot.
// Missing date, time or index is a silent no-op. Empty slots and dates are
// pruned.
func (s *Store) DeleteOneTime(date, time string, index int) error {
	slots, ok := s.index[date]
	if !ok {
		return nil
	}
	entries, ok := slots[time]
	if !ok || index < 0 || index >= len(entries) {
		return nil
	}

	entries = append(entries[:index:index], entries[index+1:]...)
	if len(entries) == 0 {
		delete(slots, time)
	} else {
		slots[time] = entries
	}
	if len(slots) == 0 {
		delete(s.index, date)
	}
	return s.saveIndex()
}

// AddRecurring appends rule and persists.
func (s *Store) AddRecurring(rule model.RecurringRule) error {
	s.recurring = append(s.recurring, rule)
	return s.saveRecurring()
}

// DeleteRecurring removes the rule at index; out of range is a no-op.
func (s *Store) DeleteRecurring(index int) error {
	if index < 0 || index >= len(s.recurring) {
		return nil
	}
	s.recurring = append(s.recurring[:index:index], s.recurring[index+1:]...)
	return s.saveRecurring()
}

// Journal returns the journal text.
func (s *Store) Journal() string {
	return s.journal
}

// SetJournal overwrites the journal text and persists it.
func (s *Store) SetJournal(text string) error {
	s.journal = text
	if err := s.kv.Set(KeyJournal, text); err != nil {
		return fmt.Errorf("task: save %s: %w", KeyJournal, err)
	}
	return nil
}

// OneTime returns a copy of the entries in the (date, time) slot.
func (s *Store) OneTime(date, time string) []model.TaskEntry {
	entries := s.index[date][time]
	if len(entries) == 0 {
		return nil
	}
	out := make([]model.TaskEntry, len(entries))
	copy(out, entries)
	return out
}

// HasOneTimeOn reports whether any slot on date holds at least one task.
func (s *Store) HasOneTimeOn(date string) bool {
	for _, entries := range s.index[date] {
		if len(entries) > 0 {
			return true
		}
	}
	return false
}

// Recurring returns a copy of the recurring rules in storage order.
func (s *Store) Recurring() []model.RecurringRule {
	out := make([]model.RecurringRule, len(s.recurring))
	copy(out, s.recurring)
	return out
}

// Dates returns every date key with one-time tasks, sorted.
func (s *Store) Dates() []string {
	out := make([]string, 0, len(s.index))
	for d := range s.index {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Times returns the occupied slot keys of date, sorted.
func (s *Store) Times(date string) []string {
	slots := s.index[date]
	out := make([]string, 0, len(slots))
	for t := range slots {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *Store) saveIndex() error {
	raw, err := encodeIndex(s.index)
	if err != nil {
		return fmt.Errorf("task: encode %s: %w", KeyTasks, err)
	}
	if err := s.kv.Set(KeyTasks, raw); err != nil {
		return fmt.Errorf("task: save %s: %w", KeyTasks, err)
	}
	return nil
}

func (s *Store) saveRecurring() error {
	raw, err := encodeRules(s.recurring)
	if err != nil {
		return fmt.Errorf("task: encode %s: %w", KeyRecurring, err)
	}
	if err := s.kv.Set(KeyRecurring, raw); err != nil {
		return fmt.Errorf("task: save %s: %w", KeyRecurring, err)
	}
	return nil
}
