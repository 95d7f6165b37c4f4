package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"daybook/internal/calendar"
	"daybook/internal/dateutil"
	appLog "daybook/internal/log"
	"daybook/internal/model"
	"daybook/internal/recur"
)

const (
	productID = "-//daybook//Task Export//EN"
	// Floating local time: daybook has no timezone of its own.
	localLayout = "20060102T150405"
)

// TaskSource is the read side of the task store the exporter walks.
type TaskSource interface {
	Dates() []string
	Times(date string) []string
	OneTime(date, time string) []model.TaskEntry
	Recurring() []model.RecurringRule
}

// Export renders every one-time task and recurring rule as a VEVENT lasting
// one hour. Recurring rules start at their first occurrence on or after
// anchor. Rules that can never fire are skipped and logged.
func Export(src TaskSource, anchor, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, date := range src.Dates() {
		day, err := dateutil.ParseDateKey(date)
		if err != nil {
			appLog.Warn("ics export: skipping malformed date key", "date", date)
			continue
		}
		for _, tm := range src.Times(date) {
			for i, e := range src.OneTime(date, tm) {
				start := time.Date(day.Year(), day.Month(), day.Day(), hourOf(tm), 0, 0, 0, day.Location())
				uid := fmt.Sprintf("task-%s-%s-%d%s", date, strings.ReplaceAll(tm, ":", ""), i, uidDomain)
				addEvent(cal, uid, stamp, start, e.Description)
			}
		}
	}

	for i, r := range src.Recurring() {
		rr, err := recur.RRuleString(r)
		if err != nil {
			appLog.Warn("ics export: skipping recurring rule", "index", i, "err", err)
			continue
		}
		from := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
		start, ok := recur.NextOccurrence(r, from)
		if !ok {
			appLog.Warn("ics export: recurring rule has no occurrence", "index", i)
			continue
		}
		ev := addEvent(cal, fmt.Sprintf("rule-%d%s", i, uidDomain), stamp, start, r.Description)
		ev.AddRrule(rr)
	}

	return cal.Serialize()
}

// uidDomain marks events written by Export. Their SUMMARY may be the
// display placeholder; DESCRIPTION carries the stored text.
const uidDomain = "@daybook"

func addEvent(cal *ical.Calendar, uid string, stamp, start time.Time, desc string) *ical.VEvent {
	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(stamp)
	ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(localLayout))
	ev.SetProperty(ical.ComponentPropertyDtEnd, start.Add(time.Hour).Format(localLayout))
	summary := desc
	if summary == "" {
		summary = calendar.NoDescription
	}
	ev.SetSummary(summary)
	if desc != "" {
		ev.SetDescription(desc)
	}
	return ev
}

func hourOf(tm string) int {
	var h int
	if _, err := fmt.Sscanf(tm, "%d:", &h); err != nil {
		return 0
	}
	return h
}
