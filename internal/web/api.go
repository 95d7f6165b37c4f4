package web

import (
	"errors"
	"net/http"
	"strconv"

	"daybook/internal/calendar"
	"daybook/internal/dateutil"
	"daybook/internal/ics"
	appLog "daybook/internal/log"
	"daybook/internal/model"
	"daybook/internal/planner"
	"daybook/internal/task"
)

// monthResponse is the JSON shape for /api/month. Month is 1-based.
type monthResponse struct {
	Year  int                  `json:"year"`
	Month int                  `json:"month"`
	Title string               `json:"title"`
	Cells []model.CalendarCell `json:"cells"`
}

func buildMonthResponse(p *planner.Planner, year, month int) monthResponse {
	return monthResponse{
		Year:  year,
		Month: month,
		Title: calendar.MonthTitle(year, month-1),
		Cells: p.Month(year, month-1),
	}
}

// dayResponse is the JSON shape for /api/day.
type dayResponse struct {
	Date  string             `json:"date"`
	Slots []model.AgendaSlot `json:"slots"`
}

// submitRequest is the body of POST /api/tasks.
type submitRequest struct {
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Description string       `json:"description"`
	Repeat      model.Repeat `json:"repeat"`
}

// recurringDTO is a JSON-friendly view of a recurring rule.
type recurringDTO struct {
	Index       int          `json:"index"`
	Repeat      model.Repeat `json:"repeat"`
	DayOfWeek   *int         `json:"dayOfWeek,omitempty"`
	Month       *int         `json:"month,omitempty"`
	Day         *int         `json:"day,omitempty"`
	Time        string       `json:"time"`
	Description string       `json:"description"`
	Display     string       `json:"display"`
}

type journalBody struct {
	Text string `json:"text"`
}

// handleMonth returns the 42-cell grid.
//
// GET /api/month?year=2024&month=5
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.yearMonthParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.month(year, month))
}

// handleDay returns the 24 slots of one day.
//
// GET /api/day?date=2024-05-01 (default: today)
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = dateutil.DateKeyOf(s.planner.Now())
	}
	if _, err := dateutil.ParseDateKey(date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{Date: date, Slots: s.planner.Day(date)})
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Date != "" {
		if _, err := dateutil.ParseDateKey(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}
	if req.Time != "" && !dateutil.IsHourKey(req.Time) {
		writeError(w, http.StatusBadRequest, "time must be a whole hour HH:00")
		return
	}

	err := s.planner.SubmitTask(req.Date, req.Time, req.Description, req.Repeat)
	switch {
	case errors.Is(err, planner.ErrUnknownRepeat):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		appLog.Error("submit task failed", err, "date", req.Date, "time", req.Time)
		writeError(w, http.StatusInternalServerError, "failed to save task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteTask removes a one-time task.
//
// DELETE /api/tasks?date=2024-05-01&time=09:00&index=0
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	index, err := strconv.Atoi(q.Get("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	if err := s.planner.DeleteOneTime(q.Get("date"), q.Get("time"), index); err != nil {
		appLog.Error("delete task failed", err, "date", q.Get("date"), "time", q.Get("time"), "index", index)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecurring(w http.ResponseWriter, _ *http.Request) {
	rules := s.planner.Rules()
	out := make([]recurringDTO, 0, len(rules))
	for _, ir := range rules {
		out = append(out, toRecurringDTO(ir.Index, ir.Rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func toRecurringDTO(index int, r model.RecurringRule) recurringDTO {
	dto := recurringDTO{
		Index:       index,
		Repeat:      r.Repeat,
		Time:        r.Time,
		Description: r.Description,
		Display:     calendar.DisplayText(r.Description, r.Suffix()),
	}
	switch r.Repeat {
	case model.RepeatWeekly:
		dow := r.DayOfWeek
		dto.DayOfWeek = &dow
	case model.RepeatYearly:
		m, d := r.Month, r.Day
		dto.Month, dto.Day = &m, &d
	}
	return dto
}

// handleDeleteRecurring removes a recurring rule.
//
// DELETE /api/recurring?index=0
func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	if err := s.planner.DeleteRecurring(index); err != nil {
		appLog.Error("delete recurring failed", err, "index", index)
		writeError(w, http.StatusInternalServerError, "failed to delete recurring task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJournal(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, journalBody{Text: s.planner.Journal()})
}

func (s *Server) handleSetJournal(w http.ResponseWriter, r *http.Request) {
	var body journalBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.planner.SetJournal(body.Text); err != nil {
		appLog.Error("save journal failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save journal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport serves every task as an iCalendar feed.
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	now := s.planner.Now()
	var body string
	s.planner.Snapshot(func(st *task.Store) {
		body = ics.Export(st, now, now)
	})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="daybook.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
