package engine

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matt-steen/todo-notes/pkg/db"
)

// ErrUnknownSort is returned by ParseSort.
var ErrUnknownSort = errors.New("unknown sort mode")

// SortMode orders the view.
type SortMode int

// These constants list the supported sort modes.
const (
	// SortDefault keeps the store's natural order.
	SortDefault SortMode = iota
	// SortEarlier orders by ascending due date.
	SortEarlier
	// SortLater is the exact reverse of SortEarlier, ties included.
	SortLater
)

func (m SortMode) String() string {
	switch m {
	case SortEarlier:
		return "earlier"
	case SortLater:
		return "later"
	default:
		return "default"
	}
}

// ParseSort accepts the names printed by SortMode.String; "" means SortDefault.
func ParseSort(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return SortDefault, nil
	case "earlier":
		return SortEarlier, nil
	case "later":
		return SortLater, nil
	}

	return SortDefault, fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

// Apply returns a sorted copy of notes.
func (m SortMode) Apply(notes []db.Note) []db.Note {
	sorted := slices.Clone(notes)

	if m == SortDefault {
		return sorted
	}

	slices.SortStableFunc(sorted, func(a, b db.Note) int {
		return cmp.Compare(a.DateTime, b.DateTime)
	})

	if m == SortLater {
		slices.Reverse(sorted)
	}

	return sorted
}

// Derive computes the view list: the base list filtered, then sorted.
func Derive(base []db.Note, filters Filters, mode SortMode) []db.Note {
	return mode.Apply(filters.Apply(base))
}
