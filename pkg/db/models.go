package db

import "time"

// Note is a single to-do item.
type Note struct {
	// ID is assigned by the database. Zero means the note has not been saved yet.
	ID          int64  `json:"id"`
	Header      string `json:"header"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
	// DateTime is the due date in epoch milliseconds. Zero means no due date is set.
	DateTime int64 `json:"date_time"` //nolint:tagliatelle // snake_case for export files
}

// Persisted reports whether the note has been saved to the database.
func (n Note) Persisted() bool {
	return n.ID != 0
}

// Due returns the due date of the note and whether one is set.
func (n Note) Due() (time.Time, bool) {
	if n.DateTime == 0 {
		return time.Time{}, false
	}

	return time.UnixMilli(n.DateTime), true
}

// Toggled returns a copy of the note with Done flipped.
func (n Note) Toggled() Note {
	n.Done = !n.Done

	return n
}

// Millis converts t to the epoch milliseconds used by Note.DateTime. The zero time maps to 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixMilli()
}
