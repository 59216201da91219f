// Package engine keeps the active filters and sort mode for the note list and derives the
// list to display from them.
//
// The engine owns four cells: the base list fed by the store, the filter set, the sort
// mode and the derived view. Every change to one of the first three recomputes the view
// the same way, view = sort(filter(base)), and publishes it to subscribers.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/matt-steen/todo-notes/pkg/feed"
	"github.com/rs/zerolog/log"
)

// NoteStore is the storage the engine reads from and forwards mutations to.
type NoteStore interface {
	FetchAll(ctx context.Context) ([]db.Note, error)
	FetchByID(ctx context.Context, id int64) (db.Note, bool, error)
	Observe(ctx context.Context) (<-chan []db.Note, error)
	Upsert(ctx context.Context, note db.Note) (db.Note, error)
	Delete(ctx context.Context, note db.Note) error
}

// View is a snapshot of the derived list together with the state it was derived from.
type View struct {
	Notes   []db.Note
	Filters Filters
	Sort    SortMode
}

// Engine derives the view list from the store's notes, the active filters and the sort mode.
// It is safe for concurrent use.
type Engine struct {
	store NoteStore

	mu      sync.Mutex
	base    []db.Note
	filters Filters
	sort    SortMode
	view    View

	// baseGen counts base list replacements so a slow re-read can tell it went stale.
	baseGen uint64

	views feed.Feed[View]
}

// New creates an engine over store with no notes loaded, StatusNone and SortDefault.
// Call Run or Load to fill the base list.
func New(store NoteStore) *Engine {
	e := &Engine{store: store}
	e.view = View{Notes: Derive(nil, e.filters, e.sort)}

	return e
}

// update applies change to the input cells, recomputes the view and publishes it.
func (e *Engine) update(change func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	change()

	e.view = View{
		Notes:   Derive(e.base, e.filters, e.sort),
		Filters: e.filters,
		Sort:    e.sort,
	}

	e.views.Publish(e.view)
}

func (e *Engine) setBase(notes []db.Note) {
	e.update(func() {
		e.base = notes
		e.baseGen++
	})
}

// Run feeds the base list from the store's live stream until ctx is done or the store
// closes the stream.
func (e *Engine) Run(ctx context.Context) error {
	notes, err := e.store.Observe(ctx)
	if err != nil {
		return fmt.Errorf("error observing notes: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case list, ok := <-notes:
			if !ok {
				log.Debug().Msg("note stream closed")

				return nil
			}

			log.Debug().Int("notes", len(list)).Msg("base list changed")
			e.setBase(list)
		}
	}
}

// Load replaces the base list with a point-in-time read from the store.
func (e *Engine) Load(ctx context.Context) error {
	notes, err := e.store.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("error loading notes: %w", err)
	}

	e.setBase(notes)

	return nil
}

// SetKeywordFilter replaces the keyword filter; an empty keyword removes it.
func (e *Engine) SetKeywordFilter(keyword string) {
	log.Debug().Str("keyword", keyword).Msg("setting keyword filter")

	e.update(func() {
		e.filters = e.filters.WithKeyword(keyword)
	})
}

// SetDateFilter replaces the date filter with [since, to], or removes it if remove is set.
func (e *Engine) SetDateFilter(since, to int64, remove bool) {
	log.Debug().Int64("since", since).Int64("to", to).Bool("remove", remove).Msg("setting date filter")

	e.update(func() {
		e.filters = e.filters.WithDate(since, to, remove)
	})
}

// SetStatusFilter replaces the status filter.
func (e *Engine) SetStatusFilter(status Status) {
	log.Debug().Stringer("status", status).Msg("setting status filter")

	e.update(func() {
		e.filters = e.filters.WithStatus(status)
	})
}

// ApplySort sets the sort mode. SortDefault also re-reads the base list from the store;
// if that read fails the mode still changes and the cached list is kept. A re-read is
// dropped when the store delivered a newer list before it completed.
func (e *Engine) ApplySort(ctx context.Context, mode SortMode) error {
	log.Debug().Stringer("sort", mode).Msg("applying sort")

	e.mu.Lock()
	gen := e.baseGen
	e.mu.Unlock()

	var (
		notes   []db.Note
		fetched bool
		err     error
	)

	if mode == SortDefault {
		notes, err = e.store.FetchAll(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("error re-reading notes for default sort")

			err = fmt.Errorf("error loading notes: %w", err)
		}

		fetched = err == nil
	}

	e.update(func() {
		e.sort = mode

		// a newer list arrived from the store while the read was in flight
		if fetched && e.baseGen == gen {
			e.base = notes
			e.baseGen++
		}
	})

	return err
}

// Subscribe returns a channel that receives the current view now and after every change.
// A slow reader only sees the latest view. The channel closes when ctx is done or the
// engine is closed.
func (e *Engine) Subscribe(ctx context.Context) <-chan View {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.views.Subscribe(ctx, e.view)
}

// View returns the current view.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.view
}

// Filters returns the active filter set.
func (e *Engine) Filters() Filters {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.filters
}

// Sort returns the active sort mode.
func (e *Engine) Sort() SortMode {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.sort
}

// Close closes every subscriber channel.
func (e *Engine) Close() {
	e.views.Close()
}
