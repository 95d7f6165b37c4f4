package task

import (
	"encoding/json"

	"daybook/internal/model"
)

// Persisted keys in the kv store.
const (
	KeyTasks     = "tasks"
	KeyRecurring = "recurringTasks"
	KeyJournal   = "journalEntry"
)

// Keys lists every key the task store owns.
var Keys = []string{KeyTasks, KeyRecurring, KeyJournal}

// wireEntry is the persisted shape of a one-time task: {"desc": "..."}.
type wireEntry struct {
	Desc string `json:"desc"`
}

// wireRule is the persisted shape of a recurring rule. Weekly rules carry
// dayOfWeek, yearly rules carry month/day.
type wireRule struct {
	Repeat    string `json:"repeat"`
	Time      string `json:"time"`
	Desc      string `json:"desc"`
	DayOfWeek *int   `json:"dayOfWeek,omitempty"`
	Month     *int   `json:"month,omitempty"`
	Day       *int   `json:"day,omitempty"`
}

func encodeIndex(idx map[string]map[string][]model.TaskEntry) (string, error) {
	out := make(map[string]map[string][]wireEntry, len(idx))
	for date, slots := range idx {
		ws := make(map[string][]wireEntry, len(slots))
		for tm, entries := range slots {
			we := make([]wireEntry, len(entries))
			for i, e := range entries {
				we[i] = wireEntry{Desc: e.Description}
			}
			ws[tm] = we
		}
		out[date] = ws
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeIndex parses the one-time index and drops empty slots/dates so the
// pruning invariant holds even for hand-edited data.
func decodeIndex(raw string) (map[string]map[string][]model.TaskEntry, error) {
	var in map[string]map[string][]wireEntry
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, err
	}
	idx := make(map[string]map[string][]model.TaskEntry, len(in))
	for date, slots := range in {
		for tm, entries := range slots {
			if len(entries) == 0 {
				continue
			}
			list := make([]model.TaskEntry, len(entries))
			for i, e := range entries {
				list[i] = model.TaskEntry{Description: e.Desc}
			}
			if idx[date] == nil {
				idx[date] = map[string][]model.TaskEntry{}
			}
			idx[date][tm] = list
		}
	}
	return idx, nil
}

func encodeRules(rules []model.RecurringRule) (string, error) {
	out := make([]wireRule, 0, len(rules))
	for _, r := range rules {
		w := wireRule{Repeat: string(r.Repeat), Time: r.Time, Desc: r.Description}
		switch r.Repeat {
		case model.RepeatWeekly:
			dow := r.DayOfWeek
			w.DayOfWeek = &dow
		case model.RepeatYearly:
			m, d := r.Month, r.Day
			w.Month = &m
			w.Day = &d
		}
		out = append(out, w)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeRules parses the recurring list. Rules with an unknown repeat or
// missing variant fields are skipped and counted in dropped.
func decodeRules(raw string) (rules []model.RecurringRule, dropped int, err error) {
	var in []wireRule
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, 0, err
	}
	rules = make([]model.RecurringRule, 0, len(in))
	for _, w := range in {
		switch model.Repeat(w.Repeat) {
		case model.RepeatWeekly:
			if w.DayOfWeek == nil {
				dropped++
				continue
			}
			rules = append(rules, model.Weekly(*w.DayOfWeek, w.Time, w.Desc))
		case model.RepeatYearly:
			if w.Month == nil || w.Day == nil {
				dropped++
				continue
			}
			rules = append(rules, model.Yearly(*w.Month, *w.Day, w.Time, w.Desc))
		default:
			dropped++
		}
	}
	return rules, dropped, nil
}
