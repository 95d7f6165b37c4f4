package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"daybook/internal/dateutil"
	"daybook/internal/model"
)

type fakeSource struct {
	oneTime map[string]bool
	rules   []model.RecurringRule
}

func (f fakeSource) HasOneTimeOn(date string) bool      { return f.oneTime[date] }
func (f fakeSource) Recurring() []model.RecurringRule { return f.rules }

func day(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := dateutil.ParseDateKey(key)
	require.NoError(t, err)
	return d
}

// Weekdays come from the civil date. 2024-05-07 is a Tuesday, so it matches
// dayOfWeek 2; a UTC-parsed reading would shift it to Monday (1) in zones
// west of UTC, which would also move yearly matches off their day.
func TestMatches_Weekly(t *testing.T) {
	standup := model.Weekly(2, "10:00", "Standup") // Tuesday
	assert.True(t, Matches(standup, day(t, "2024-05-07")))
	assert.True(t, Matches(standup, day(t, "2024-05-14")))
	assert.False(t, Matches(standup, day(t, "2024-05-08")))
}

func TestMatches_YearlyAcrossYears(t *testing.T) {
	xmas := model.Yearly(12, 25, "08:00", "")
	assert.True(t, Matches(xmas, day(t, "2023-12-25")))
	assert.True(t, Matches(xmas, day(t, "2030-12-25")))
	assert.False(t, Matches(xmas, day(t, "2024-12-24")))
	assert.False(t, Matches(xmas, day(t, "2024-11-25")))
}

func TestMatches_UnknownRepeat(t *testing.T) {
	assert.False(t, Matches(model.RecurringRule{Repeat: "monthly"}, day(t, "2024-05-07")))
}

func TestHasAnyTaskOn(t *testing.T) {
	src := fakeSource{
		oneTime: map[string]bool{"2024-05-01": true},
		rules:   []model.RecurringRule{model.Weekly(2, "10:00", "Standup")},
	}
	assert.True(t, HasAnyTaskOn(src, "2024-05-01"), "one-time task")
	assert.True(t, HasAnyTaskOn(src, "2024-05-07"), "weekly on Tuesday")
	assert.False(t, HasAnyTaskOn(src, "2024-05-08"))
	assert.False(t, HasAnyTaskOn(src, "not-a-date"))
}

func TestRecurringAt_PreservesIndexAndOrder(t *testing.T) {
	src := fakeSource{rules: []model.RecurringRule{
		model.Weekly(2, "10:00", "first"),
		model.Weekly(2, "11:00", "other slot"),
		model.Yearly(5, 7, "10:00", "birthday"),
		model.Weekly(3, "10:00", "wednesday"),
	}}

	got := RecurringAt(src, "2024-05-07", "10:00")
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, "first", got[0].Rule.Description)
	assert.Equal(t, 2, got[1].Index)
	assert.Equal(t, "birthday", got[1].Rule.Description)

	assert.Empty(t, RecurringAt(src, "2024-05-07", "12:00"))
	assert.Empty(t, RecurringAt(src, "bogus", "10:00"))
}

func TestRRuleString(t *testing.T) {
	s, err := RRuleString(model.Weekly(1, "10:00", ""))
	require.NoError(t, err)
	assert.Contains(t, s, "FREQ=WEEKLY")
	assert.Contains(t, s, "BYDAY=MO")
	assert.NotContains(t, s, "DTSTART")

	s, err = RRuleString(model.Yearly(12, 25, "08:00", ""))
	require.NoError(t, err)
	assert.Contains(t, s, "FREQ=YEARLY")
	assert.Contains(t, s, "BYMONTH=12")
	assert.Contains(t, s, "BYMONTHDAY=25")

	_, err = RRuleString(model.Yearly(2, 30, "08:00", ""))
	assert.Error(t, err)
	_, err = RRuleString(model.Weekly(7, "08:00", ""))
	assert.Error(t, err)
}

func TestNextOccurrence_AgreesWithMatches(t *testing.T) {
	rules := []model.RecurringRule{
		model.Weekly(0, "09:00", ""),
		model.Weekly(4, "23:00", ""),
		model.Yearly(2, 29, "00:00", ""),
		model.Yearly(7, 4, "12:00", ""),
	}
	after := time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)

	for _, r := range rules {
		next, ok := NextOccurrence(r, after)
		require.True(t, ok, r)
		assert.False(t, next.Before(after))
		assert.True(t, Matches(r, next), "%v fires on %v", r, next)
		assert.Equal(t, slotHour(r.Time), next.Hour())
	}
}

func TestNextOccurrence_SameDayLaterSlot(t *testing.T) {
	r := model.Weekly(int(time.Friday), "14:00", "")
	after := time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local) // a Friday

	next, ok := NextOccurrence(r, after)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 14, 0, 0, 0, time.Local), next)
}

func TestFromROption(t *testing.T) {
	opt, err := rrule.StrToROption("FREQ=WEEKLY;BYDAY=SU")
	require.NoError(t, err)
	r, err := FromROption(opt, time.Time{}, "09:00", "Church")
	require.NoError(t, err)
	assert.Equal(t, model.Weekly(0, "09:00", "Church"), r)

	opt, err = rrule.StrToROption("FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25")
	require.NoError(t, err)
	r, err = FromROption(opt, time.Time{}, "08:00", "Gifts")
	require.NoError(t, err)
	assert.Equal(t, model.Yearly(12, 25, "08:00", "Gifts"), r)

	// Missing BY* parts come from DTSTART.
	opt, err = rrule.StrToROption("FREQ=YEARLY")
	require.NoError(t, err)
	r, err = FromROption(opt, time.Date(2020, 6, 3, 8, 0, 0, 0, time.Local), "08:00", "Anniversary")
	require.NoError(t, err)
	assert.Equal(t, model.Yearly(6, 3, "08:00", "Anniversary"), r)

	for _, s := range []string{
		"FREQ=DAILY",
		"FREQ=MONTHLY;BYMONTHDAY=1",
		"FREQ=WEEKLY;INTERVAL=2;BYDAY=MO",
		"FREQ=WEEKLY;BYDAY=MO,WE",
		"FREQ=WEEKLY;COUNT=3;BYDAY=MO",
		// Every Monday in June only.
		"FREQ=WEEKLY;BYDAY=MO;BYMONTH=6",
		"FREQ=WEEKLY;BYDAY=MO;BYSETPOS=1",
		"FREQ=WEEKLY;BYDAY=MO;BYMONTHDAY=1",
		"FREQ=WEEKLY;BYDAY=MO;BYHOUR=9,17",
		"FREQ=WEEKLY;BYDAY=MO;BYMINUTE=30",
		"FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25;BYWEEKNO=1",
		"FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25;BYSECOND=10",
		"FREQ=YEARLY;BYEASTER=0",
	} {
		opt, err := rrule.StrToROption(s)
		require.NoError(t, err, s)
		_, err = FromROption(opt, time.Time{}, "09:00", "")
		assert.ErrorIs(t, err, ErrNotExpressible, s)
	}
}

func TestRoundTripThroughRRule(t *testing.T) {
	for _, r := range []model.RecurringRule{
		model.Weekly(3, "07:00", "Bins"),
		model.Yearly(1, 1, "00:00", "New year"),
	} {
		s, err := RRuleString(r)
		require.NoError(t, err)
		opt, err := rrule.StrToROption(s)
		require.NoError(t, err)
		back, err := FromROption(opt, time.Time{}, r.Time, r.Description)
		require.NoError(t, err)
		assert.Equal(t, r, back)
	}
}
