package planner

import "time"

// Cursor is the month currently on display.
type Cursor struct {
	Year   int
	Month0 int // 0 = January
}

// CursorAt returns the cursor for t's month.
func CursorAt(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month0: int(t.Month()) - 1}
}

// Shift moves the cursor by delta months, carrying into adjacent years.
func (c Cursor) Shift(delta int) Cursor {
	first := time.Date(c.Year, time.Month(c.Month0+1+delta), 1, 0, 0, 0, 0, time.UTC)
	return Cursor{Year: first.Year(), Month0: int(first.Month()) - 1}
}
