package engine

import (
	"context"
	"errors"

	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/rs/zerolog/log"
)

// These errors are returned by Save for notes the user hasn't finished filling in.
var (
	ErrEmptyHeader      = errors.New("title must not be empty")
	ErrEmptyDescription = errors.New("description must not be empty")
)

// Note returns the note with the given id for editing. ok is false if it doesn't exist.
func (e *Engine) Note(ctx context.Context, id int64) (db.Note, bool, error) {
	return e.store.FetchByID(ctx, id)
}

// Save validates note and inserts or replaces it. The view picks the change up from the
// store's live stream.
func (e *Engine) Save(ctx context.Context, note db.Note) (db.Note, error) {
	if note.Header == "" {
		return db.Note{}, ErrEmptyHeader
	}

	if note.Description == "" {
		return db.Note{}, ErrEmptyDescription
	}

	return e.store.Upsert(ctx, note)
}

// Delete removes note from the store.
func (e *Engine) Delete(ctx context.Context, note db.Note) error {
	log.Debug().Int64("id", note.ID).Msg("deleting note")

	return e.store.Delete(ctx, note)
}

// ToggleDone saves a copy of note with its done flag flipped.
func (e *Engine) ToggleDone(ctx context.Context, note db.Note) (db.Note, error) {
	return e.store.Upsert(ctx, note.Toggled())
}
