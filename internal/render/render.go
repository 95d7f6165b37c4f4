// Package render draws the month grid, day agenda and rule lists for the
// terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"daybook/internal/calendar"
	"daybook/internal/dateutil"
	"daybook/internal/model"
	"daybook/internal/planner"
	"daybook/internal/recur"
)

var weekdays = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

var weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

const (
	colorMuted  = lipgloss.Color("#6c757d")
	colorAccent = lipgloss.Color("#d16d7a")
	colorTime   = lipgloss.Color("#5f9fb0")
)

// Renderer holds styles bound to one output. Colours are dropped
// automatically when the output is not a terminal.
type Renderer struct {
	title    lipgloss.Style
	header   lipgloss.Style
	inactive lipgloss.Style
	today    lipgloss.Style
	marked   lipgloss.Style
	slot     lipgloss.Style
	muted    lipgloss.Style
	frame    lipgloss.Style
}

// New returns a Renderer for w.
func New(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		title:    r.NewStyle().Bold(true),
		header:   r.NewStyle().Foreground(colorMuted).Bold(true),
		inactive: r.NewStyle().Foreground(colorMuted).Faint(true),
		today:    r.NewStyle().Reverse(true).Bold(true),
		marked:   r.NewStyle().Foreground(colorAccent).Bold(true),
		slot:     r.NewStyle().Foreground(colorTime),
		muted:    r.NewStyle().Foreground(colorMuted),
		frame:    r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// Month draws a 42-cell grid as six week rows. Days with tasks carry a "*".
func (r *Renderer) Month(title string, cells []model.CalendarCell) string {
	const cellWidth = 4

	var rows []string
	rows = append(rows, lipgloss.PlaceHorizontal(cellWidth*7, lipgloss.Center, r.title.Render(title)))

	var hdr strings.Builder
	for _, d := range weekdays {
		hdr.WriteString(r.header.Render(fmt.Sprintf("%*s ", cellWidth-1, d)))
	}
	rows = append(rows, hdr.String())

	for i := 0; i+7 <= len(cells); i += 7 {
		var line strings.Builder
		for _, c := range cells[i : i+7] {
			line.WriteString(r.cell(c, cellWidth))
		}
		rows = append(rows, line.String())
	}
	return r.frame.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (r *Renderer) cell(c model.CalendarCell, width int) string {
	num := fmt.Sprintf("%*d", width-1, c.DayNumber)
	switch {
	case c.Inactive:
		return r.inactive.Render(num) + " "
	case c.Today:
		num = r.today.Render(num)
	}
	if c.HasTask {
		return num + r.marked.Render("*")
	}
	return num + " "
}

// Day lists the slots of one agenda. Empty slots are skipped unless all is
// set. One-time entries show their deletion index in brackets.
func (r *Renderer) Day(dateKey string, slots []model.AgendaSlot, all bool) string {
	var b strings.Builder
	b.WriteString(r.title.Render(dayHeading(dateKey)))
	b.WriteString("\n")

	printed := false
	for _, s := range slots {
		if len(s.Entries) == 0 && !all {
			continue
		}
		printed = true
		label := r.slot.Render(fmt.Sprintf("%8s", s.Label))
		if len(s.Entries) == 0 {
			b.WriteString(label + "\n")
			continue
		}
		for i, e := range s.Entries {
			prefix := label
			if i > 0 {
				prefix = strings.Repeat(" ", 8)
			}
			b.WriteString(fmt.Sprintf("%s  %s %s\n", prefix, r.ref(e), e.Display))
		}
	}
	if !printed {
		b.WriteString(r.muted.Render("  no tasks") + "\n")
	}
	return b.String()
}

func (r *Renderer) ref(e model.AgendaEntry) string {
	if e.Recurring {
		return r.muted.Render(fmt.Sprintf("[r%d]", e.Ref.Index))
	}
	return r.muted.Render(fmt.Sprintf("[%d]", e.Ref.Index))
}

// Upcoming draws several day agendas one after another.
func (r *Renderer) Upcoming(days []planner.DayAgenda) string {
	if len(days) == 0 {
		return r.muted.Render("nothing planned") + "\n"
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, r.Day(d.Date, d.Slots, false))
	}
	return strings.Join(parts, "\n")
}

// Rules lists recurring rules with their deletion index.
func (r *Renderer) Rules(rules []recur.Indexed) string {
	if len(rules) == 0 {
		return r.muted.Render("no recurring tasks") + "\n"
	}
	var b strings.Builder
	for _, ir := range rules {
		b.WriteString(fmt.Sprintf("%s %-18s %s  %s\n",
			r.muted.Render(fmt.Sprintf("[%d]", ir.Index)),
			when(ir.Rule),
			r.slot.Render(ir.Rule.Time),
			displayRule(ir.Rule),
		))
	}
	return b.String()
}

func when(rule model.RecurringRule) string {
	switch rule.Repeat {
	case model.RepeatWeekly:
		if rule.DayOfWeek >= 0 && rule.DayOfWeek < len(weekdayNames) {
			return "every " + weekdayNames[rule.DayOfWeek]
		}
	case model.RepeatYearly:
		return fmt.Sprintf("every %02d-%02d", rule.Month, rule.Day)
	}
	return string(rule.Repeat)
}

func displayRule(rule model.RecurringRule) string {
	if rule.Description == "" {
		return calendar.NoDescription
	}
	return rule.Description
}

// dayHeading formats a date key as e.g. "Tuesday, May 14 2024".
func dayHeading(dateKey string) string {
	d, err := dateutil.ParseDateKey(dateKey)
	if err != nil {
		return dateKey
	}
	return d.Format("Monday, January 2 2006")
}
