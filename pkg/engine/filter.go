package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matt-steen/todo-notes/pkg/db"
)

// ErrUnknownStatus is returned by ParseStatus.
var ErrUnknownStatus = errors.New("unknown status")

// FilterKind identifies a filter variant. A filter set holds at most one filter per kind.
type FilterKind int

// These constants list the filter kinds in the order they are applied.
const (
	KindStatus FilterKind = iota
	KindKeyword
	KindDate
)

// Filter narrows the note list. Filters compose as an intersection, so the order they
// are applied in never changes the result.
type Filter interface {
	Kind() FilterKind
	Match(note db.Note) bool
}

// Status selects notes by their done flag.
type Status int

// These constants list the statuses a StatusFilter can select.
const (
	StatusNone Status = iota
	StatusDone
	StatusUndone
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusUndone:
		return "undone"
	default:
		return "all"
	}
}

// ParseStatus accepts the names printed by Status.String, plus "none" and "" for StatusNone.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "none":
		return StatusNone, nil
	case "done":
		return StatusDone, nil
	case "undone":
		return StatusUndone, nil
	}

	return StatusNone, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// StatusFilter keeps done notes, undone notes, or everything for StatusNone.
type StatusFilter struct {
	Status Status
}

// Kind implements Filter.
func (StatusFilter) Kind() FilterKind { return KindStatus }

// Match implements Filter.
func (f StatusFilter) Match(note db.Note) bool {
	switch f.Status {
	case StatusDone:
		return note.Done
	case StatusUndone:
		return !note.Done
	default:
		return true
	}
}

// KeywordFilter keeps notes whose header or description contains Keyword, ignoring case.
type KeywordFilter struct {
	Keyword string
}

// Kind implements Filter.
func (KeywordFilter) Kind() FilterKind { return KindKeyword }

// Match implements Filter.
func (f KeywordFilter) Match(note db.Note) bool {
	keyword := strings.ToLower(f.Keyword)

	return strings.Contains(strings.ToLower(note.Header), keyword) ||
		strings.Contains(strings.ToLower(note.Description), keyword)
}

// DateFilter keeps notes whose DateTime lies in [Since, To]. Bounds are not checked:
// Since > To matches nothing.
type DateFilter struct {
	Since int64
	To    int64
}

// Kind implements Filter.
func (DateFilter) Kind() FilterKind { return KindDate }

// Match implements Filter.
func (f DateFilter) Match(note db.Note) bool {
	return f.Since <= note.DateTime && note.DateTime <= f.To
}

// Apply returns the notes matched by every filter, in their original order.
func Apply(notes []db.Note, filters ...Filter) []db.Note {
	filtered := make([]db.Note, 0, len(notes))

outer:
	for _, note := range notes {
		for _, f := range filters {
			if !f.Match(note) {
				continue outer
			}
		}

		filtered = append(filtered, note)
	}

	return filtered
}

// Filters is an immutable active filter set. The status filter is always present and
// defaults to StatusNone; keyword and date filters are optional. The zero value matches
// every note.
type Filters struct {
	status     StatusFilter
	keyword    KeywordFilter
	hasKeyword bool
	date       DateFilter
	hasDate    bool
}

// WithStatus returns a copy with the status filter replaced.
func (f Filters) WithStatus(status Status) Filters {
	f.status = StatusFilter{Status: status}

	return f
}

// WithKeyword returns a copy with the keyword filter replaced, or removed if keyword is empty.
func (f Filters) WithKeyword(keyword string) Filters {
	f.keyword = KeywordFilter{Keyword: keyword}
	f.hasKeyword = keyword != ""

	if !f.hasKeyword {
		f.keyword = KeywordFilter{}
	}

	return f
}

// WithDate returns a copy with the date filter replaced by [since, to], or removed if remove is set.
func (f Filters) WithDate(since, to int64, remove bool) Filters {
	f.date = DateFilter{}
	f.hasDate = !remove

	if f.hasDate {
		f.date = DateFilter{Since: since, To: to}
	}

	return f
}

// Status returns the selected status.
func (f Filters) Status() Status {
	return f.status.Status
}

// Keyword returns the keyword filter text, if one is active.
func (f Filters) Keyword() (string, bool) {
	return f.keyword.Keyword, f.hasKeyword
}

// DateRange returns the date filter, if one is active.
func (f Filters) DateRange() (DateFilter, bool) {
	return f.date, f.hasDate
}

// Active returns the active filters ordered by kind.
func (f Filters) Active() []Filter {
	active := []Filter{f.status}

	if f.hasKeyword {
		active = append(active, f.keyword)
	}

	if f.hasDate {
		active = append(active, f.date)
	}

	return active
}

// Apply returns the notes matching every active filter.
func (f Filters) Apply(notes []db.Note) []db.Note {
	return Apply(notes, f.Active()...)
}
