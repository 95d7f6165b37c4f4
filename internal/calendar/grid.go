// Package calendar builds the transient month-grid and day-agenda views from
// the task store. Nothing here is cached; callers rebuild after every change.
package calendar

import (
	"time"

	"daybook/internal/dateutil"
	"daybook/internal/model"
	"daybook/internal/recur"
)

// GridCells is the fixed size of a month grid: six full weeks.
const GridCells = 42

// BuildGrid returns the 42 cells for month0 (0 = January) of year, weeks
// starting on Sunday. Leading and trailing cells belong to the neighbouring
// months and are inactive. month0 outside 0..11 rolls over into adjacent
// years the way time.Date does.
func BuildGrid(year, month0 int, today time.Time, src recur.Source) []model.CalendarCell {
	first := time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, time.Local)
	year, month := first.Year(), first.Month()

	firstDayWeekday := int(first.Weekday())
	daysInMonth := dateutil.DaysIn(year, month)
	prevMonthDays := first.AddDate(0, 0, -1).Day()

	cells := make([]model.CalendarCell, GridCells)
	for i := range cells {
		switch {
		case i < firstDayWeekday:
			cells[i] = model.CalendarCell{
				DayNumber: prevMonthDays - firstDayWeekday + i + 1,
				Inactive:  true,
			}
		case i >= firstDayWeekday+daysInMonth:
			cells[i] = model.CalendarCell{
				DayNumber: i - firstDayWeekday - daysInMonth + 1,
				Inactive:  true,
			}
		default:
			dayNumber := i - firstDayWeekday + 1
			key := dateutil.FormatDateKey(year, int(month), dayNumber)
			cells[i] = model.CalendarCell{
				DayNumber: dayNumber,
				DateKey:   key,
				Today:     dayNumber == today.Day() && month == today.Month() && year == today.Year(),
				HasTask:   recur.HasAnyTaskOn(src, key),
			}
		}
	}
	return cells
}

// MonthTitle returns e.g. "May 2024" for month0 of year, normalised like
// BuildGrid.
func MonthTitle(year, month0 int) string {
	return time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, time.Local).Format("January 2006")
}
