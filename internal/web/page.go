package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	appLog "daybook/internal/log"
	"daybook/internal/model"
	"daybook/internal/planner"
)

// upcomingDays is how far ahead the month page lists tasks.
const upcomingDays = 7

//go:embed templates/calendar.html
var templateFS embed.FS

var calendarTmpl = template.Must(template.ParseFS(templateFS, "templates/calendar.html"))

var weekdayHeaders = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type yearMonth struct {
	Year  int
	Month int
}

type calendarPage struct {
	Year     int
	Month    int
	Title    string
	Weekdays []string
	Rows     [][]model.CalendarCell
	Prev     yearMonth
	Next     yearMonth
	Upcoming []planner.DayAgenda
	Journal  string
}

// handleCalendarPage renders the month as static HTML. The root element
// carries data-ready="true" once rendered, which the capture command waits
// for.
//
// GET /calendar?year=2024&month=5
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.yearMonthParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := s.month(year, month)
	cur := planner.Cursor{Year: year, Month0: month - 1}
	prev, next := cur.Shift(-1), cur.Shift(1)

	page := calendarPage{
		Year:     year,
		Month:    month,
		Title:    resp.Title,
		Weekdays: weekdayHeaders,
		Rows:     weeks(resp.Cells),
		Prev:     yearMonth{Year: prev.Year, Month: prev.Month0 + 1},
		Next:     yearMonth{Year: next.Year, Month: next.Month0 + 1},
		Upcoming: s.planner.Upcoming(s.planner.Now(), upcomingDays),
		Journal:  s.planner.Journal(),
	}

	var buf bytes.Buffer
	if err := calendarTmpl.Execute(&buf, page); err != nil {
		appLog.Error("render calendar page failed", err, "year", year, "month", month)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// weeks splits a grid into rows of seven.
func weeks(cells []model.CalendarCell) [][]model.CalendarCell {
	rows := make([][]model.CalendarCell, 0, len(cells)/7)
	for i := 0; i+7 <= len(cells); i += 7 {
		rows = append(rows, cells[i:i+7])
	}
	return rows
}
