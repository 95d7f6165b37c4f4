package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "daybook/internal/log"
)

// ParsedEvent is the part of a VEVENT the importer cares about.
type ParsedEvent struct {
	Source Source

	UID         string
	Summary     string
	Description string

	// Start is converted to the local zone; daybook has no zone of its own.
	Start  time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, local zone
	IsOverride bool
}

// Title is what the imported task is called: the summary, falling back to
// the description. Events exported by daybook use the description as is, so
// an empty task stays empty.
func (e ParsedEvent) Title() string {
	if strings.HasSuffix(e.UID, uidDomain) {
		return strings.TrimSpace(e.Description)
	}
	if s := strings.TrimSpace(e.Summary); s != "" {
		return s
	}
	return strings.TrimSpace(e.Description)
}

// ParseICS parses a single ICS payload. Events that cannot be parsed are
// logged and skipped.
func ParseICS(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "source", src.Name())
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "source", src.Name())
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "source", src.Name(), "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{Source: src}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = unescapeText(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	start, allDay, err := parsePropTime(dtStart.Value, dtStart.ICalParameters)
	if err != nil {
		return out, err
	}
	out.Start = start
	out.AllDay = allDay

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE may repeat and may hold comma-separated values.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, _, err := parsePropTime(part, p.ICalParameters); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, _, err := parsePropTime(p.Value, p.ICalParameters); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parsePropTime parses a DATE or DATE-TIME value, honouring TZID, and
// returns it in the local zone. The bool reports a date-only value.
func parsePropTime(v string, params map[string][]string) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	loc := time.Local
	if tz := firstParam(params, "TZID"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			appLog.Debug("ics: unknown TZID, using local", "tzid", tz)
		}
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t.In(time.Local), false, err
	}

	// Local or zoned date-time, e.g. 20250101T090000
	if strings.Contains(v, "T") {
		t, err := time.ParseInLocation(localLayout, v, loc)
		return t.In(time.Local), false, err
	}

	// Date-only (all-day), e.g. 20250101. Kept as a civil date.
	t, err := time.ParseInLocation("20060102", v, time.Local)
	return t, true, err
}

func firstParam(params map[string][]string, key string) string {
	if params == nil {
		return ""
	}
	if vs, ok := params[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

var textUnescaper = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

func unescapeText(s string) string {
	return textUnescaper.Replace(s)
}
