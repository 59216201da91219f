package engine_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/matt-steen/todo-notes/pkg/feed"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory NoteStore.
type memStore struct {
	mu     sync.Mutex
	notes  []db.Note
	nextID int64
	fail   bool
	live   feed.Feed[[]db.Note]

	// afterFetch runs once FetchAll has taken its snapshot, before it returns.
	afterFetch func()
}

func newMemStore(notes ...db.Note) *memStore {
	s := &memStore{notes: slices.Clone(notes)}

	for _, n := range notes {
		s.nextID = max(s.nextID, n.ID)
	}

	return s
}

func (s *memStore) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fail = fail
}

func (s *memStore) FetchAll(_ context.Context) ([]db.Note, error) {
	s.mu.Lock()

	if s.fail {
		s.mu.Unlock()

		return nil, errStoreDown
	}

	notes, hook := slices.Clone(s.notes), s.afterFetch
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	return notes, nil
}

func (s *memStore) setAfterFetch(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.afterFetch = hook
}

func (s *memStore) FetchByID(_ context.Context, id int64) (db.Note, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notes {
		if n.ID == id {
			return n, true, nil
		}
	}

	return db.Note{}, false, nil
}

func (s *memStore) Observe(ctx context.Context) (<-chan []db.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.live.Subscribe(ctx, slices.Clone(s.notes)), nil
}

func (s *memStore) Upsert(_ context.Context, note db.Note) (db.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !note.Persisted() {
		s.nextID++
		note.ID = s.nextID
		s.notes = append(s.notes, note)
	} else {
		i := slices.IndexFunc(s.notes, func(n db.Note) bool { return n.ID == note.ID })
		if i >= 0 {
			s.notes[i] = note
		} else {
			s.notes = append(s.notes, note)
		}
	}

	s.live.Publish(slices.Clone(s.notes))

	return note, nil
}

func (s *memStore) Delete(_ context.Context, note db.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = slices.DeleteFunc(s.notes, func(n db.Note) bool { return n.ID == note.ID })
	s.live.Publish(slices.Clone(s.notes))

	return nil
}

// empty drops every note, leaving a nil list, without publishing.
func (s *memStore) empty() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = nil
}

// reorder changes the store's natural order without publishing, so only an explicit
// re-read picks it up.
func (s *memStore) reorder() {
	s.mu.Lock()
	defer s.mu.Unlock()

	slices.Reverse(s.notes)
}
