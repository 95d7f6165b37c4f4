// Package planner is the single controller in front of the task store. It
// turns user submissions into store mutations and tells subscribers when
// the month grid and day agenda have to be rebuilt.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/dateutil"
	appLog "daybook/internal/log"
	"daybook/internal/model"
	"daybook/internal/recur"
	"daybook/internal/task"
)

var (
	ErrUnknownRepeat = errors.New("planner: unknown repeat mode")
)

// ChangeKind says what a mutation touched.
type ChangeKind string

const (
	ChangeTasks   ChangeKind = "tasks"
	ChangeJournal ChangeKind = "journal"
)

// Change is the rebuild signal sent to subscribers after a mutation has been
// persisted. Date is the affected date key, empty for recurring rules and
// the journal.
type Change struct {
	Kind ChangeKind
	Date string
}

// Planner serialises every operation behind one mutex so the task store sees
// a single actor even when front ends call it concurrently.
type Planner struct {
	mu    sync.Mutex
	store *task.Store
	now   func() time.Time

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Change)
}

// New returns a Planner owning store. store should already be loaded.
func New(store *task.Store) *Planner {
	return &Planner{
		store: store,
		now:   time.Now,
		subs:  map[int]func(Change){},
	}
}

// SetClock overrides the time source used for "today".
func (p *Planner) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Now returns the planner's current time.
func (p *Planner) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now()
}

// Subscribe registers fn for rebuild signals and returns a cancel func.
func (p *Planner) Subscribe(fn func(Change)) (cancel func()) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Planner) notify(c Change) {
	p.subMu.Lock()
	fns := make([]func(Change), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// SubmitTask adds a one-time task or a recurring rule for the selected date
// and slot. A missing date or time is a silent no-op.
func (p *Planner) SubmitTask(date, tm, desc string, repeat model.Repeat) error {
	if date == "" || tm == "" {
		return nil
	}
	desc = strings.TrimSpace(desc)

	change, err := p.submit(date, tm, desc, repeat)
	if err != nil {
		return err
	}
	appLog.Info("task submitted", "date", date, "time", tm, "repeat", string(repeat))
	p.notify(change)
	return nil
}

func (p *Planner) submit(date, tm, desc string, repeat model.Repeat) (Change, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch repeat {
	case model.RepeatNone, "":
		if err := p.store.AddOneTime(date, tm, desc); err != nil {
			return Change{}, err
		}
		return Change{Kind: ChangeTasks, Date: date}, nil

	case model.RepeatWeekly, model.RepeatYearly:
		d, err := dateutil.ParseDateKey(date)
		if err != nil {
			return Change{}, err
		}
		rule := model.Weekly(int(d.Weekday()), tm, desc)
		if repeat == model.RepeatYearly {
			rule = model.Yearly(int(d.Month()), d.Day(), tm, desc)
		}
		if err := p.store.AddRecurring(rule); err != nil {
			return Change{}, err
		}
		return Change{Kind: ChangeTasks}, nil

	default:
		return Change{}, fmt.Errorf("%w: %q", ErrUnknownRepeat, repeat)
	}
}

// DeleteOneTime removes a one-time task. Unknown targets are a no-op but
// still signal a rebuild, which is harmless.
func (p *Planner) DeleteOneTime(date, tm string, index int) error {
	p.mu.Lock()
	err := p.store.DeleteOneTime(date, tm, index)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.notify(Change{Kind: ChangeTasks, Date: date})
	return nil
}

// DeleteRecurring removes the recurring rule at index.
func (p *Planner) DeleteRecurring(index int) error {
	p.mu.Lock()
	err := p.store.DeleteRecurring(index)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.notify(Change{Kind: ChangeTasks})
	return nil
}

// Delete removes whatever ref points at.
func (p *Planner) Delete(ref model.DeleteRef) error {
	switch ref.Kind {
	case model.RefOneTime:
		return p.DeleteOneTime(ref.Date, ref.Time, ref.Index)
	case model.RefRecurring:
		return p.DeleteRecurring(ref.Index)
	default:
		return fmt.Errorf("planner: unknown ref kind %q", ref.Kind)
	}
}

// Journal returns the journal text.
func (p *Planner) Journal() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Journal()
}

// SetJournal overwrites the journal text.
func (p *Planner) SetJournal(text string) error {
	p.mu.Lock()
	err := p.store.SetJournal(text)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.notify(Change{Kind: ChangeJournal})
	return nil
}

// Month builds the grid for month0 (0 = January) of year.
func (p *Planner) Month(year, month0 int) []model.CalendarCell {
	p.mu.Lock()
	defer p.mu.Unlock()
	return calendar.BuildGrid(year, month0, p.now(), p.store)
}

// Day builds the agenda for dateKey.
func (p *Planner) Day(dateKey string) []model.AgendaSlot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return calendar.BuildAgenda(dateKey, p.store)
}

// HasAnyTaskOn reports whether dateKey has any task at all.
func (p *Planner) HasAnyTaskOn(dateKey string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return recur.HasAnyTaskOn(p.store, dateKey)
}

// Rules returns the recurring rules with their deletion index.
func (p *Planner) Rules() []recur.Indexed {
	p.mu.Lock()
	defer p.mu.Unlock()
	rules := p.store.Recurring()
	out := make([]recur.Indexed, len(rules))
	for i, r := range rules {
		out[i] = recur.Indexed{Index: i, Rule: r}
	}
	return out
}

// DayAgenda is one non-empty day in an Upcoming listing.
type DayAgenda struct {
	Date  string
	Slots []model.AgendaSlot
}

// Upcoming returns the agendas of the days in [from, from+days) that have at
// least one task, with empty slots dropped.
func (p *Planner) Upcoming(from time.Time, days int) []DayAgenda {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []DayAgenda
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for i := 0; i < days; i++ {
		key := dateutil.DateKeyOf(start.AddDate(0, 0, i))
		if !recur.HasAnyTaskOn(p.store, key) {
			continue
		}
		var busy []model.AgendaSlot
		for _, s := range calendar.BuildAgenda(key, p.store) {
			if len(s.Entries) > 0 {
				busy = append(busy, s)
			}
		}
		out = append(out, DayAgenda{Date: key, Slots: busy})
	}
	return out
}

// Snapshot runs fn with exclusive read access to the store, for exporters.
func (p *Planner) Snapshot(fn func(s *task.Store)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.store)
}

// Import adds many tasks under one lock and sends a single rebuild signal.
func (p *Planner) Import(oneTime []Imported, rules []model.RecurringRule) error {
	p.mu.Lock()
	var err error
	for _, it := range oneTime {
		if err = p.store.AddOneTime(it.Date, it.Time, it.Description); err != nil {
			break
		}
	}
	if err == nil {
		for _, r := range rules {
			if err = p.store.AddRecurring(r); err != nil {
				break
			}
		}
	}
	p.mu.Unlock()

	if len(oneTime)+len(rules) > 0 {
		p.notify(Change{Kind: ChangeTasks})
	}
	return err
}

// Imported is a one-time task produced by an importer.
type Imported struct {
	Date        string
	Time        string
	Description string
}
