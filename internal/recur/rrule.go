package recur

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"daybook/internal/dateutil"
	"daybook/internal/model"
)

// Indexed by time.Weekday (Sunday = 0).
var weekdays = []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ToROption expresses rule as an RFC 5545 recurrence. anchor supplies the
// DTSTART date; its clock is replaced by the rule's slot hour.
func ToROption(rule model.RecurringRule, anchor time.Time) (rrule.ROption, error) {
	var opt rrule.ROption

	switch rule.Repeat {
	case model.RepeatWeekly:
		if rule.DayOfWeek < 0 || rule.DayOfWeek >= len(weekdays) {
			return opt, fmt.Errorf("recur: weekday %d out of range", rule.DayOfWeek)
		}
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{weekdays[rule.DayOfWeek]}
	case model.RepeatYearly:
		if !possibleDay(rule.Month, rule.Day) {
			return opt, fmt.Errorf("recur: %02d-%02d never occurs", rule.Month, rule.Day)
		}
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{rule.Month}
		opt.Bymonthday = []int{rule.Day}
	default:
		return opt, fmt.Errorf("recur: unsupported repeat %q", rule.Repeat)
	}

	if !anchor.IsZero() {
		opt.Dtstart = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), slotHour(rule.Time), 0, 0, 0, anchor.Location())
	}
	return opt, nil
}

// RRuleString returns the RRULE value (without DTSTART) for rule,
// e.g. "FREQ=WEEKLY;BYDAY=MO".
func RRuleString(rule model.RecurringRule) (string, error) {
	opt, err := ToROption(rule, time.Time{})
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}

// NextOccurrence returns the first time at or after `after` when rule fires
// at its slot hour.
func NextOccurrence(rule model.RecurringRule, after time.Time) (time.Time, bool) {
	opt, err := ToROption(rule, after)
	if err != nil {
		return time.Time{}, false
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, false
	}
	next := r.After(after, true)
	return next, !next.IsZero()
}

// ErrNotExpressible is returned by FromROption for recurrences outside the
// weekly-by-weekday / yearly-by-date subset.
var ErrNotExpressible = errors.New("recur: recurrence not expressible as weekly or yearly rule")

// FromROption converts a parsed RRULE back into a rule. Only plain weekly
// rules with one BYDAY and plain yearly rules with one BYMONTH/BYMONTHDAY
// are accepted; dtstart fills in missing BY* parts like RFC 5545 does.
func FromROption(opt *rrule.ROption, dtstart time.Time, tm, desc string) (model.RecurringRule, error) {
	if opt == nil {
		return model.RecurringRule{}, ErrNotExpressible
	}
	if opt.Interval > 1 || opt.Count > 0 || !opt.Until.IsZero() {
		return model.RecurringRule{}, ErrNotExpressible
	}
	// These parts narrow or multiply occurrences in ways a rule cannot hold.
	if len(opt.Bysetpos) > 0 || len(opt.Byweekno) > 0 || len(opt.Byhour) > 0 ||
		len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 || len(opt.Byeaster) > 0 {
		return model.RecurringRule{}, ErrNotExpressible
	}

	switch opt.Freq {
	case rrule.WEEKLY:
		if len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 || len(opt.Byyearday) > 0 {
			return model.RecurringRule{}, ErrNotExpressible
		}
		dow := int(dtstart.Weekday())
		switch len(opt.Byweekday) {
		case 0:
			if dtstart.IsZero() {
				return model.RecurringRule{}, ErrNotExpressible
			}
		case 1:
			wd := opt.Byweekday[0]
			if wd.N() != 0 {
				return model.RecurringRule{}, ErrNotExpressible
			}
			// rrule-go numbers weekdays from Monday = 0.
			dow = (wd.Day() + 1) % 7
		default:
			return model.RecurringRule{}, ErrNotExpressible
		}
		return model.Weekly(dow, tm, desc), nil

	case rrule.YEARLY:
		month, day := int(dtstart.Month()), dtstart.Day()
		if len(opt.Bymonth) > 1 || len(opt.Bymonthday) > 1 || len(opt.Byweekday) > 0 || len(opt.Byyearday) > 0 {
			return model.RecurringRule{}, ErrNotExpressible
		}
		if len(opt.Bymonth) == 1 {
			month = opt.Bymonth[0]
		}
		if len(opt.Bymonthday) == 1 {
			day = opt.Bymonthday[0]
		}
		if (dtstart.IsZero() && (len(opt.Bymonth) == 0 || len(opt.Bymonthday) == 0)) || !possibleDay(month, day) {
			return model.RecurringRule{}, ErrNotExpressible
		}
		return model.Yearly(month, day, tm, desc), nil

	default:
		return model.RecurringRule{}, ErrNotExpressible
	}
}

func possibleDay(month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	// 2024 is a leap year, so Feb 29 counts as possible.
	return day <= dateutil.DaysIn(2024, time.Month(month))
}

func slotHour(tm string) int {
	h, _, _ := strings.Cut(tm, ":")
	n, err := strconv.Atoi(h)
	if err != nil || n < 0 || n > 23 {
		return 0
	}
	return n
}
