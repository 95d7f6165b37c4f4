package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybook/internal/config"
	"daybook/internal/kv"
	"daybook/internal/planner"
	"daybook/internal/task"
)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *planner.Planner) {
	t.Helper()
	store := task.NewStore(kv.NewMemory())
	store.Load()
	p := planner.New(store)
	p.SetClock(func() time.Time { return time.Date(2024, 5, 15, 10, 0, 0, 0, time.Local) })
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := NewServer(cfg, p)
	t.Cleanup(s.Close)
	return s, p
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMonth_DefaultsToCurrentMonth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/month", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp monthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2024, resp.Year)
	assert.Equal(t, 5, resp.Month)
	assert.Equal(t, "May 2024", resp.Title)
	require.Len(t, resp.Cells, 42)

	// May 2024 starts on a Wednesday.
	assert.True(t, resp.Cells[0].Inactive)
	assert.Equal(t, 28, resp.Cells[0].DayNumber)
	assert.Equal(t, 1, resp.Cells[3].DayNumber)
	assert.True(t, resp.Cells[17].Today)
}

func TestMonth_BadParams(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, target := range []string{"/api/month?month=13", "/api/month?month=0", "/api/month?year=abc"} {
		rec := do(t, s.Handler(), http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestSubmitInvalidatesMonthCache(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	first := do(t, h, http.MethodGet, "/api/month?year=2024&month=5", "")
	assert.NotContains(t, first.Body.String(), `"has_task":true`)

	rec := do(t, h, http.MethodPost, "/api/tasks", `{"date":"2024-05-01","time":"09:00","description":"Gym","repeat":"none"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	second := do(t, h, http.MethodGet, "/api/month?year=2024&month=5", "")
	var resp monthResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.True(t, resp.Cells[3].HasTask)
	assert.False(t, resp.Cells[4].HasTask)
}

func TestMonthBuiltBeforeChangeIsNotCached(t *testing.T) {
	s, p := newTestServer(t, nil)

	// A request reads the generation and builds its grid...
	s.monthMu.RLock()
	gen := s.monthGen
	s.monthMu.RUnlock()
	stale := buildMonthResponse(p, 2024, 5)

	// ...then a submit lands before it stores the result.
	require.NoError(t, p.SubmitTask("2024-05-01", "09:00", "Gym", "none"))
	assert.False(t, s.storeMonth(gen, "2024-05-15", "2024-05", stale))

	resp := s.month(2024, 5)
	assert.True(t, resp.Cells[3].HasTask)
	assert.True(t, s.month(2024, 5).Cells[3].HasTask)
}

func TestDay(t *testing.T) {
	s, p := newTestServer(t, nil)
	require.NoError(t, p.SubmitTask("2024-05-07", "10:00", "Standup", "weekly"))
	require.NoError(t, p.SubmitTask("2024-05-14", "10:00", "", "none"))

	rec := do(t, s.Handler(), http.MethodGet, "/api/day?date=2024-05-14", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-05-14", resp.Date)
	require.Len(t, resp.Slots, 24)
	slot := resp.Slots[10]
	assert.Equal(t, "10:00 AM", slot.Label)
	require.Len(t, slot.Entries, 2)
	assert.Equal(t, "No Description", slot.Entries[0].Display)
	assert.Equal(t, "Standup (Weekly)", slot.Entries[1].Display)

	rec = do(t, s.Handler(), http.MethodGet, "/api/day?date=2024-5-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitValidation(t *testing.T) {
	s, p := newTestServer(t, nil)
	h := s.Handler()

	cases := []struct {
		body string
		want int
	}{
		{`{"date":"2024-05-01","time":"09:00","repeat":"daily"}`, http.StatusBadRequest},
		{`{"date":"2024-05-01","time":"09:30","repeat":"none"}`, http.StatusBadRequest},
		{`{"date":"05/01/2024","time":"09:00","repeat":"none"}`, http.StatusBadRequest},
		{`{"date":"2024-05-01","time":"09:00","extra":true}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
		// Missing selection is a silent no-op.
		{`{"date":"","time":"09:00","description":"ignored"}`, http.StatusNoContent},
		{`{"date":"2024-05-01","time":"","description":"ignored"}`, http.StatusNoContent},
	}
	for _, tc := range cases {
		rec := do(t, h, http.MethodPost, "/api/tasks", tc.body)
		assert.Equal(t, tc.want, rec.Code, tc.body)
	}
	assert.False(t, p.HasAnyTaskOn("2024-05-01"))
}

func TestDeleteTask(t *testing.T) {
	s, p := newTestServer(t, nil)
	h := s.Handler()
	require.NoError(t, p.SubmitTask("2024-05-01", "09:00", "a", "none"))
	require.NoError(t, p.SubmitTask("2024-05-01", "09:00", "b", "none"))

	rec := do(t, h, http.MethodDelete, "/api/tasks?date=2024-05-01&time=09:00&index=0", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	slots := p.Day("2024-05-01")
	require.Len(t, slots[9].Entries, 1)
	assert.Equal(t, "b", slots[9].Entries[0].Description)

	rec = do(t, h, http.MethodDelete, "/api/tasks?date=2024-05-01&time=09:00&index=7", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/tasks?date=2024-05-01&time=09:00&index=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecurringListAndDelete(t *testing.T) {
	s, p := newTestServer(t, nil)
	h := s.Handler()
	require.NoError(t, p.SubmitTask("2024-05-07", "10:00", "Standup", "weekly"))
	require.NoError(t, p.SubmitTask("2024-12-25", "08:00", "Gifts", "yearly"))

	rec := do(t, h, http.MethodGet, "/api/recurring", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rules []recurringDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	require.Len(t, rules, 2)
	require.NotNil(t, rules[0].DayOfWeek)
	assert.Equal(t, 2, *rules[0].DayOfWeek)
	assert.Nil(t, rules[0].Month)
	require.NotNil(t, rules[1].Month)
	assert.Equal(t, 12, *rules[1].Month)
	assert.Equal(t, 25, *rules[1].Day)
	assert.Equal(t, "Gifts (Yearly)", rules[1].Display)

	rec = do(t, h, http.MethodDelete, "/api/recurring?index=0", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, p.Rules(), 1)
	assert.Equal(t, "Gifts", p.Rules()[0].Rule.Description)
}

func TestJournal(t *testing.T) {
	s, p := newTestServer(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPut, "/api/journal", `{"text":"dear diary"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "dear diary", p.Journal())

	rec = do(t, h, http.MethodGet, "/api/journal", "")
	assert.JSONEq(t, `{"text":"dear diary"}`, rec.Body.String())
}

func TestExportEndpoint(t *testing.T) {
	s, p := newTestServer(t, nil)
	require.NoError(t, p.SubmitTask("2024-05-01", "09:00", "Gym", "none"))

	rec := do(t, s.Handler(), http.MethodGet, "/calendar.ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "SUMMARY:Gym")
}

func TestCalendarPage(t *testing.T) {
	s, p := newTestServer(t, nil)
	require.NoError(t, p.SubmitTask("2024-05-16", "09:00", "Dentist", "none"))
	require.NoError(t, p.SetJournal("remember milk"))

	rec := do(t, s.Handler(), http.MethodGet, "/calendar?year=2024&month=12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-ready="true"`)
	assert.Contains(t, body, "December 2024")
	assert.Contains(t, body, "year=2024&amp;month=11")
	assert.Contains(t, body, "year=2025&amp;month=1")
	assert.Equal(t, 6, strings.Count(body, "<tr>\n"))
	assert.Contains(t, body, "Dentist")
	assert.Contains(t, body, "remember milk")

	rec = do(t, s.Handler(), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "me", Password: "secret"}
	s, _ := newTestServer(t, cfg)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)

	rec := do(t, h, http.MethodGet, "/api/month", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/month", nil)
	req.SetBasicAuth("me", "secret")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/month", nil)
	req.SetBasicAuth("me", "wrong")
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/month", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWeeks(t *testing.T) {
	_, p := newTestServer(t, nil)
	rows := weeks(p.Month(2024, 1))
	require.Len(t, rows, 6)
	for _, r := range rows {
		assert.Len(t, r, 7)
	}
}
