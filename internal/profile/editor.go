package profile

import (
	"errors"

	"paga/internal/core"
)

var (
	ErrEditorOpen   = errors.New("a day is already open for editing")
	ErrEditorClosed = errors.New("no day is open for editing")
	ErrIndexRange   = errors.New("staged entry index out of range")
)

// Editor stages edits to one day's entry list without touching the
// store until an explicit Save. Only one day can be open at a time;
// the current session must save or cancel before opening another.
type Editor struct {
	store  *Store
	open   bool
	year   int
	month  int
	day    int
	staged []core.WorkEntry
}

func NewEditor(store *Store) *Editor {
	return &Editor{store: store}
}

// Open snapshots the day's entries from the store's selected month
// into the staging buffer. The snapshot is a copy: staged edits can
// never mutate stored data in place.
func (e *Editor) Open(day int) error {
	if e.open {
		return ErrEditorOpen
	}
	p := e.store.Profile()
	if err := core.ValidateDay(p.Year, p.Month, day); err != nil {
		return err
	}
	e.year, e.month, e.day = p.Year, p.Month, day
	e.staged = core.CloneEntries(e.store.MonthEntries(p.Year, p.Month)[day])
	e.open = true
	return nil
}

// Day returns the open day, or false when the editor is closed.
func (e *Editor) Day() (int, bool) {
	return e.day, e.open
}

// Entries returns a copy of the staging buffer.
func (e *Editor) Entries() ([]core.WorkEntry, error) {
	if !e.open {
		return nil, ErrEditorClosed
	}
	return core.CloneEntries(e.staged), nil
}

// Add appends a fresh staged entry: zero hours, and the weekend rate
// preselected when the open day falls on a Saturday or Sunday.
func (e *Editor) Add() error {
	if !e.open {
		return ErrEditorClosed
	}
	weekend := core.IsWeekend(e.year, e.month, e.day)
	e.staged = append(e.staged, core.WorkEntry{Bonus: core.DefaultBonus(weekend)})
	return nil
}

// Update replaces the hours and bonus of the staged entry at idx.
// Negative hours are treated as zero; the bonus must be an allowed
// rate for the open day. Constraints live here, at the edit boundary,
// not in the store.
func (e *Editor) Update(idx int, hours, bonus float64) error {
	if !e.open {
		return ErrEditorClosed
	}
	if idx < 0 || idx >= len(e.staged) {
		return ErrIndexRange
	}
	if !core.ValidBonus(bonus, core.IsWeekend(e.year, e.month, e.day)) {
		return core.ErrInvalidBonus
	}
	if hours < 0 {
		hours = 0
	}
	e.staged[idx] = core.WorkEntry{Hours: hours, Bonus: bonus}
	return nil
}

// Remove deletes the staged entry at idx, preserving order.
func (e *Editor) Remove(idx int) error {
	if !e.open {
		return ErrEditorClosed
	}
	if idx < 0 || idx >= len(e.staged) {
		return ErrIndexRange
	}
	e.staged = append(e.staged[:idx], e.staged[idx+1:]...)
	return nil
}

// Save commits the staging buffer to the store (zero-hour entries are
// pruned there) and closes the editor.
func (e *Editor) Save() error {
	if !e.open {
		return ErrEditorClosed
	}
	e.store.CommitDayEdits(e.year, e.month, e.day, e.staged)
	e.reset()
	return nil
}

// Cancel discards the staging buffer without touching the store.
func (e *Editor) Cancel() error {
	if !e.open {
		return ErrEditorClosed
	}
	e.reset()
	return nil
}

func (e *Editor) reset() {
	e.open = false
	e.day = 0
	e.staged = nil
}
