// Package recur decides which recurring rules apply to a calendar date.
package recur

import (
	"time"

	"daybook/internal/dateutil"
	"daybook/internal/model"
)

// Source is the read side of the task store the matcher needs.
type Source interface {
	HasOneTimeOn(date string) bool
	Recurring() []model.RecurringRule
}

// Indexed is a rule together with its position in the stored list, which is
// its deletion identity.
type Indexed struct {
	Index int
	Rule  model.RecurringRule
}

// Matches reports whether rule fires on date, ignoring time of day.
func Matches(rule model.RecurringRule, date time.Time) bool {
	switch rule.Repeat {
	case model.RepeatWeekly:
		return int(date.Weekday()) == rule.DayOfWeek
	case model.RepeatYearly:
		return int(date.Month()) == rule.Month && date.Day() == rule.Day
	default:
		return false
	}
}

// HasAnyTaskOn reports whether dateKey has a one-time task in any slot or any
// recurring rule matches it. A malformed key only gets the one-time check.
func HasAnyTaskOn(src Source, dateKey string) bool {
	if src.HasOneTimeOn(dateKey) {
		return true
	}
	date, err := dateutil.ParseDateKey(dateKey)
	if err != nil {
		return false
	}
	for _, r := range src.Recurring() {
		if Matches(r, date) {
			return true
		}
	}
	return false
}

// RecurringAt returns the rules firing on dateKey at slot tm, in storage order.
func RecurringAt(src Source, dateKey, tm string) []Indexed {
	date, err := dateutil.ParseDateKey(dateKey)
	if err != nil {
		return nil
	}
	var out []Indexed
	for i, r := range src.Recurring() {
		if r.Time == tm && Matches(r, date) {
			out = append(out, Indexed{Index: i, Rule: r})
		}
	}
	return out
}
