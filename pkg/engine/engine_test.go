package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/matt-steen/todo-notes/pkg/engine"
	"github.com/stretchr/testify/assert"
)

// waitFor reads views until one satisfies ok.
func waitFor(t *testing.T, ch <-chan engine.View, ok func(engine.View) bool) engine.View {
	t.Helper()

	deadline := time.After(5 * time.Second)

	for {
		select {
		case view, open := <-ch:
			if !open {
				t.Fatal("view channel closed")
			}

			if ok(view) {
				return view
			}
		case <-deadline:
			t.Fatal("timed out waiting for view")
		}
	}
}

func loaded(t *testing.T, store *memStore) *engine.Engine {
	t.Helper()

	e := engine.New(store)
	assert.Nil(t, e.Load(context.Background()))

	return e
}

func TestNewEngineIsEmpty(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	e := engine.New(newMemStore(sampleNotes()...))

	view := e.View()
	assert.Empty(view.Notes)
	assert.Equal(engine.SortDefault, view.Sort)
	assert.Equal(engine.StatusNone, view.Filters.Status())
}

func TestSetStatusFilter(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	e := loaded(t, newMemStore(
		db.Note{ID: 1, Done: false, DateTime: 100},
		db.Note{ID: 2, Done: true, DateTime: 50},
	))

	e.SetStatusFilter(engine.StatusDone)

	assert.Equal([]int64{2}, ids(e.View().Notes))
	assert.Equal(engine.StatusDone, e.Filters().Status())

	e.SetStatusFilter(engine.StatusNone)
	assert.Equal([]int64{1, 2}, ids(e.View().Notes))
}

func TestSetKeywordFilter(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	e := loaded(t, newMemStore(sampleNotes()...))

	e.SetKeywordFilter("TITLE")
	assert.Equal([]int64{1, 3}, ids(e.View().Notes))

	e.SetKeywordFilter("")
	assert.Len(e.View().Notes, len(sampleNotes()))

	_, ok := e.Filters().Keyword()
	assert.False(ok)
}

func TestSetDateFilter(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	e := loaded(t, newMemStore(sampleNotes()...))

	e.SetDateFilter(10, 20, false)
	assert.Equal([]int64{3, 4}, ids(e.View().Notes))

	e.SetDateFilter(0, 0, true)
	assert.Len(e.View().Notes, len(sampleNotes()))
}

func TestFiltersCompose(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	e := loaded(t, newMemStore(sampleNotes()...))

	e.SetStatusFilter(engine.StatusUndone)
	e.SetKeywordFilter("title")
	e.SetDateFilter(10, 20, false)

	assert.Equal([]int64{3}, ids(e.View().Notes))

	// clearing the date filter leaves the others alone
	e.SetDateFilter(0, 0, true)
	assert.Equal([]int64{1, 3}, ids(e.View().Notes))
	assert.Equal(engine.StatusUndone, e.Filters().Status())
}

func TestApplySort(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	e := loaded(t, newMemStore(
		db.Note{ID: 1, DateTime: 10},
		db.Note{ID: 2, DateTime: 5},
	))

	assert.Nil(e.ApplySort(context.Background(), engine.SortEarlier))
	assert.Equal([]int64{2, 1}, ids(e.View().Notes))
	assert.Equal(engine.SortEarlier, e.Sort())

	assert.Nil(e.ApplySort(context.Background(), engine.SortLater))
	assert.Equal([]int64{1, 2}, ids(e.View().Notes))

	assert.Nil(e.ApplySort(context.Background(), engine.SortDefault))
	assert.Equal([]int64{1, 2}, ids(e.View().Notes))
}

func TestSortSurvivesFilterChanges(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	e := loaded(t, newMemStore(sampleNotes()...))

	assert.Nil(e.ApplySort(context.Background(), engine.SortLater))

	e.SetStatusFilter(engine.StatusUndone)
	assert.Equal([]int64{1, 3, 5}, ids(e.View().Notes))

	e.SetKeywordFilter("o")
	assert.Equal([]int64{3, 5}, ids(e.View().Notes))
	assert.Equal(engine.SortLater, e.View().Sort)
}

func TestApplySortDefaultRereadsStore(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := newMemStore(sampleNotes()...)
	e := loaded(t, store)

	store.reorder()

	// other modes reorder the cached list only
	assert.Nil(e.ApplySort(context.Background(), engine.SortEarlier))
	assert.Equal([]int64{5, 3, 4, 2, 1}, ids(e.View().Notes))

	assert.Nil(e.ApplySort(context.Background(), engine.SortDefault))
	assert.Equal([]int64{5, 4, 3, 2, 1}, ids(e.View().Notes))
}

func TestApplySortDefaultStoreFailure(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := newMemStore(sampleNotes()...)
	e := loaded(t, store)

	assert.Nil(e.ApplySort(context.Background(), engine.SortLater))

	store.setFail(true)

	err := e.ApplySort(context.Background(), engine.SortDefault)
	assert.True(errors.Is(err, errStoreDown))

	assert.Equal(engine.SortDefault, e.Sort())
	assert.Equal([]int64{1, 2, 3, 4, 5}, ids(e.View().Notes))
}

func TestApplySortDefaultKeepsNewerStreamList(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore(db.Note{ID: 1, Header: "one", Description: "a"})
	e := engine.New(store)

	go func() {
		_ = e.Run(ctx)
	}()

	views := e.Subscribe(ctx)
	waitFor(t, views, func(v engine.View) bool { return len(v.Notes) == 1 })

	// the store changes after the re-read took its snapshot but before it returns
	store.setAfterFetch(func() {
		store.setAfterFetch(nil)

		_, err := store.Upsert(ctx, db.Note{Header: "two", Description: "b"})
		assert.Nil(err)

		waitFor(t, views, func(v engine.View) bool { return len(v.Notes) == 2 })
	})

	assert.Nil(e.ApplySort(ctx, engine.SortDefault))
	assert.Equal([]int64{1, 2}, ids(e.View().Notes))

	// a re-read with nothing newer in between still replaces the list
	store.reorder()
	assert.Nil(e.ApplySort(ctx, engine.SortDefault))
	assert.Equal([]int64{2, 1}, ids(e.View().Notes))
}

func TestApplySortDefaultEmptiedStore(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := newMemStore(sampleNotes()...)
	e := loaded(t, store)

	store.empty()

	assert.Nil(e.ApplySort(context.Background(), engine.SortDefault))
	assert.Empty(e.View().Notes)
}

func TestLoadFailure(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := newMemStore(sampleNotes()...)
	store.setFail(true)

	e := engine.New(store)

	err := e.Load(context.Background())
	assert.True(errors.Is(err, errStoreDown))
	assert.Empty(e.View().Notes)
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := newMemStore(sampleNotes()...)
	e := engine.New(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views := e.Subscribe(ctx)

	first := <-views
	assert.Empty(first.Notes)

	go e.Run(ctx) //nolint:errcheck // ends with ctx

	waitFor(t, views, func(v engine.View) bool { return len(v.Notes) == len(sampleNotes()) })

	e.SetStatusFilter(engine.StatusDone)

	view := waitFor(t, views, func(v engine.View) bool { return v.Filters.Status() == engine.StatusDone })
	assert.Equal([]int64{2, 4}, ids(view.Notes))

	// a store change is filtered the same way
	_, err := e.Save(ctx, db.Note{Header: "new", Description: "done already", Done: true})
	assert.Nil(err)

	view = waitFor(t, views, func(v engine.View) bool { return len(v.Notes) == 3 })
	assert.Equal([]int64{2, 4, 6}, ids(view.Notes))

	cancel()

	for range views {
	}
}

func TestRunReturnsWhenStreamCloses(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := newMemStore(sampleNotes()...)
	e := engine.New(store)

	done := make(chan error, 1)

	go func() {
		done <- e.Run(context.Background())
	}()

	views := e.Subscribe(context.Background())
	waitFor(t, views, func(v engine.View) bool { return len(v.Notes) == len(sampleNotes()) })

	store.live.Close()

	select {
	case err := <-done:
		assert.Nil(err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	e.Close()

	for range views {
	}
}

func TestSaveValidates(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	e := engine.New(newMemStore())

	_, err := e.Save(context.Background(), db.Note{Description: "d"})
	assert.True(errors.Is(err, engine.ErrEmptyHeader))

	_, err = e.Save(context.Background(), db.Note{Header: "h"})
	assert.True(errors.Is(err, engine.ErrEmptyDescription))

	saved, err := e.Save(context.Background(), db.Note{Header: "h", Description: "d"})
	assert.Nil(err)
	assert.True(saved.Persisted())
}

func TestNoteToggleDelete(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store := newMemStore(sampleNotes()...)
	e := engine.New(store)

	note, ok, err := e.Note(context.Background(), 1)
	assert.Nil(err)
	assert.True(ok)
	assert.False(note.Done)

	toggled, err := e.ToggleDone(context.Background(), note)
	assert.Nil(err)
	assert.True(toggled.Done)

	note, _, _ = e.Note(context.Background(), 1)
	assert.True(note.Done)

	assert.Nil(e.Delete(context.Background(), note))

	_, ok, err = e.Note(context.Background(), 1)
	assert.Nil(err)
	assert.False(ok)
}
