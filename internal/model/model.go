package model

// Repeat identifies how a task repeats.
type Repeat string

const (
	RepeatNone   Repeat = "none"
	RepeatWeekly Repeat = "weekly"
	RepeatYearly Repeat = "yearly"
)

// TaskEntry is a single one-time task inside a time slot.
type TaskEntry struct {
	Description string
}

// RecurringRule is either a weekly (DayOfWeek) or a yearly (Month/Day) rule.
// Only the fields of the active variant are meaningful.
type RecurringRule struct {
	Repeat Repeat

	// DayOfWeek is 0 (Sunday) .. 6 (Saturday); weekly rules only.
	DayOfWeek int

	// Month is 1..12 and Day 1..31; yearly rules only.
	Month int
	Day   int

	// Time is the HH:00 slot key.
	Time        string
	Description string
}

// Weekly builds a weekly rule.
func Weekly(dayOfWeek int, time, desc string) RecurringRule {
	return RecurringRule{Repeat: RepeatWeekly, DayOfWeek: dayOfWeek, Time: time, Description: desc}
}

// Yearly builds a yearly rule.
func Yearly(month, day int, time, desc string) RecurringRule {
	return RecurringRule{Repeat: RepeatYearly, Month: month, Day: day, Time: time, Description: desc}
}

// Suffix is the display suffix for recurring entries, e.g. "(Weekly)".
func (r RecurringRule) Suffix() string {
	switch r.Repeat {
	case RepeatWeekly:
		return "(Weekly)"
	case RepeatYearly:
		return "(Yearly)"
	default:
		return ""
	}
}

// CalendarCell is one of the 42 cells of a month grid.
type CalendarCell struct {
	DayNumber int    `json:"day"`
	Inactive  bool   `json:"inactive"`
	Today     bool   `json:"today"`
	HasTask   bool   `json:"has_task"`
	DateKey   string `json:"date,omitempty"`
}

// RefKind tells which collection a DeleteRef points into.
type RefKind string

const (
	RefOneTime   RefKind = "one-time"
	RefRecurring RefKind = "recurring"
)

// DeleteRef carries the identity needed to delete an agenda entry:
// date+time+index for one-time tasks, index for recurring rules.
type DeleteRef struct {
	Kind  RefKind `json:"kind"`
	Date  string  `json:"date,omitempty"`
	Time  string  `json:"time,omitempty"`
	Index int     `json:"index"`
}

// AgendaEntry is a task as shown in a day's time slot.
type AgendaEntry struct {
	Description string    `json:"description"`
	Display     string    `json:"display"`
	Recurring   bool      `json:"recurring"`
	Repeat      Repeat    `json:"repeat"`
	Ref         DeleteRef `json:"ref"`
}

// AgendaSlot is one hour of a day view.
type AgendaSlot struct {
	Time    string        `json:"time"`
	Label   string        `json:"label"`
	Entries []AgendaEntry `json:"entries"`
}
