// Package dateutil holds the date-key and time-slot helpers shared by the
// task store, the recurrence matcher and the calendar views.
package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKeyLayout is the canonical YYYY-MM-DD layout used for date keys.
const DateKeyLayout = "2006-01-02"

// SlotsPerDay is the number of whole-hour time slots in a day.
const SlotsPerDay = 24

// FormatDateKey zero-pads month and day to produce YYYY-MM-DD.
// Calendar correctness is the caller's job (day 31 in February is accepted).
func FormatDateKey(year, month, day int) string {
	return fmt.Sprintf("%d-%02d-%02d", year, month, day)
}

// DateKeyOf returns the date key of t in t's own location.
func DateKeyOf(t time.Time) string {
	return FormatDateKey(t.Year(), int(t.Month()), t.Day())
}

// ParseDateKey parses a YYYY-MM-DD key as a civil date at local midnight.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateKeyLayout, strings.TrimSpace(key), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("dateutil: invalid date key %q: %w", key, err)
	}
	return t, nil
}

// To12Hour converts "HH:MM" to "h:MM AM/PM". The minute part is passed
// through unchanged. Malformed input yields a best-effort string.
func To12Hour(time24 string) string {
	hourStr, minute, _ := strings.Cut(time24, ":")
	hour, _ := strconv.Atoi(hourStr)

	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%s %s", hour, minute, ampm)
}

// HourKey returns the slot key for hour h, e.g. 9 -> "09:00".
func HourKey(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// HourKeys returns the 24 slot keys "00:00" .. "23:00".
func HourKeys() []string {
	keys := make([]string, SlotsPerDay)
	for h := range keys {
		keys[h] = HourKey(h)
	}
	return keys
}

// IsHourKey reports whether s is a valid whole-hour slot key.
func IsHourKey(s string) bool {
	if len(s) != 5 || s[2] != ':' || s[3:] != "00" {
		return false
	}
	h, err := strconv.Atoi(s[:2])
	return err == nil && h >= 0 && h < SlotsPerDay
}

// DaysIn returns the number of days in the given month (1-12) of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
