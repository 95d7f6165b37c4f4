package calendar

import (
	"daybook/internal/dateutil"
	"daybook/internal/model"
	"daybook/internal/recur"
)

// NoDescription is shown for tasks saved with an empty description.
const NoDescription = "No Description"

// AgendaSource is what BuildAgenda reads from the task store.
type AgendaSource interface {
	recur.Source
	OneTime(date, time string) []model.TaskEntry
}

// BuildAgenda returns the 24 hourly slots of dateKey. Each slot lists the
// one-time tasks first, then the matching recurring rules, both in storage
// order.
func BuildAgenda(dateKey string, src AgendaSource) []model.AgendaSlot {
	slots := make([]model.AgendaSlot, 0, dateutil.SlotsPerDay)
	for _, tm := range dateutil.HourKeys() {
		slot := model.AgendaSlot{
			Time:    tm,
			Label:   dateutil.To12Hour(tm),
			Entries: []model.AgendaEntry{},
		}

		for i, e := range src.OneTime(dateKey, tm) {
			slot.Entries = append(slot.Entries, model.AgendaEntry{
				Description: e.Description,
				Display:     DisplayText(e.Description, ""),
				Repeat:      model.RepeatNone,
				Ref:         model.DeleteRef{Kind: model.RefOneTime, Date: dateKey, Time: tm, Index: i},
			})
		}

		for _, ir := range recur.RecurringAt(src, dateKey, tm) {
			slot.Entries = append(slot.Entries, model.AgendaEntry{
				Description: ir.Rule.Description,
				Display:     DisplayText(ir.Rule.Description, ir.Rule.Suffix()),
				Recurring:   true,
				Repeat:      ir.Rule.Repeat,
				Ref:         model.DeleteRef{Kind: model.RefRecurring, Index: ir.Index},
			})
		}

		slots = append(slots, slot)
	}
	return slots
}

// HasEntries reports whether any slot of an agenda holds a task.
func HasEntries(slots []model.AgendaSlot) bool {
	for _, s := range slots {
		if len(s.Entries) > 0 {
			return true
		}
	}
	return false
}

// DisplayText is the text shown for a task: the description (or
// NoDescription) followed by the recurrence suffix, if any.
func DisplayText(desc, suffix string) string {
	if desc == "" {
		desc = NoDescription
	}
	if suffix == "" {
		return desc
	}
	return desc + " " + suffix
}
