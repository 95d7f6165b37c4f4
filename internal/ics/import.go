package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"daybook/internal/dateutil"
	appLog "daybook/internal/log"
	"daybook/internal/model"
	"daybook/internal/planner"
	"daybook/internal/recur"
)

const defaultMaxOccurrencesPerEvent = 500

// ImportConfig controls how parsed events become tasks.
type ImportConfig struct {
	// RangeStart / RangeEnd bound the occurrences generated for recurrences
	// that cannot be stored as a weekly or yearly rule.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps expansion of a single event. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ImportResult is what an ICS payload turns into.
type ImportResult struct {
	OneTime []planner.Imported
	Rules   []model.RecurringRule

	// Expanded records UIDs whose recurrence was flattened into one-time
	// tasks inside the import range.
	Expanded []string
	// Truncated records UIDs that hit MaxOccurrencesPerEvent.
	Truncated []string
}

// Convert maps events onto daybook tasks:
//
//   - single events become one-time tasks in the slot of their start hour
//     (minutes are dropped, all-day events land in 00:00)
//   - weekly-by-weekday and yearly-by-date RRULEs without EXDATE or
//     overrides become recurring rules
//   - any other recurrence is expanded into one-time tasks within
//     [RangeStart, RangeEnd], honouring EXDATE and RECURRENCE-ID overrides
func Convert(events []ParsedEvent, cfg ImportConfig) (ImportResult, error) {
	var res ImportResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return res, errors.New("ics: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	overridesByUID := make(map[string][]ParsedEvent)
	hasBase := make(map[string]bool)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			hasBase[ev.UID] = true
		}
	}

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			// Overrides of an imported series are applied during expansion.
			if !hasBase[ev.UID] {
				res.OneTime = append(res.OneTime, oneTimeAt(ev.Start, ev.Title()))
			}
			continue
		}

		if ev.RawRRule == "" {
			res.OneTime = append(res.OneTime, oneTimeAt(ev.Start, ev.Title()))
			continue
		}

		opt, err := rrule.StrToROption(ev.RawRRule)
		if err != nil {
			appLog.Error("ics import: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
			continue
		}

		overrides := overridesByUID[ev.UID]
		if len(ev.ExDates) == 0 && len(overrides) == 0 {
			rule, err := recur.FromROption(opt, ev.Start, slotKey(ev.Start), ev.Title())
			if err == nil {
				res.Rules = append(res.Rules, rule)
				continue
			}
		}

		occ, hitCap := expandRecurring(ev, opt, overrides, cfg)
		res.OneTime = append(res.OneTime, occ...)
		res.Expanded = append(res.Expanded, ev.UID)
		if hitCap {
			res.Truncated = append(res.Truncated, ev.UID)
			appLog.Warn("ics import: truncated occurrences for UID due to cap",
				"uid", ev.UID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	return res, nil
}

func expandRecurring(ev ParsedEvent, opt *rrule.ROption, overrides []ParsedEvent, cfg ImportConfig) ([]planner.Imported, bool) {
	out := make([]planner.Imported, 0)

	o := *opt
	o.Dtstart = ev.Start
	r, err := rrule.NewRRule(o)
	if err != nil {
		appLog.Error("ics import: invalid recurrence", err, "uid", ev.UID)
		return out, false
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	times := set.Between(cfg.RangeStart.In(ev.Start.Location()), cfg.RangeEnd.In(ev.Start.Location()), true)
	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerEvent {
		times = times[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, start := range times {
		title := ev.Title()
		if ov, ok := findOverrideForStart(overrides, start); ok {
			start = ov.Start
			title = ov.Title()
		}
		out = append(out, oneTimeAt(start, title))
	}
	return out, hitCap
}

// findOverrideForStart finds the override whose RECURRENCE-ID equals start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func oneTimeAt(start time.Time, title string) planner.Imported {
	local := start.In(time.Local)
	return planner.Imported{
		Date:        dateutil.DateKeyOf(local),
		Time:        slotKey(local),
		Description: title,
	}
}

func slotKey(t time.Time) string {
	return dateutil.HourKey(t.In(time.Local).Hour())
}
