// Package export writes a filtered, sorted note list to a file without starting the UI.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/matt-steen/todo-notes/pkg/config"
	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/matt-steen/todo-notes/pkg/engine"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
)

// ErrUnknownFormat is returned for formats other than json and txt.
var ErrUnknownFormat = errors.New("unknown export format")

const dueLayout = "2006-01-02 15:04"

// Configure installs the filters and sort order described by opts on e.
func Configure(ctx context.Context, e *engine.Engine, opts config.Export) error {
	status, err := engine.ParseStatus(opts.Status)
	if err != nil {
		return err
	}

	mode, err := engine.ParseSort(opts.Sort)
	if err != nil {
		return err
	}

	since, to, remove, err := engine.DayRange(opts.Since, opts.To, time.Local)
	if err != nil {
		return err
	}

	e.SetStatusFilter(status)
	e.SetKeywordFilter(opts.Keyword)
	e.SetDateFilter(since, to, remove)

	return e.ApplySort(ctx, mode)
}

// Run loads every note from store, narrows and orders them as opts describes and writes
// the result to opts.File. It returns the number of notes written.
func Run(ctx context.Context, store engine.NoteStore, opts config.Export) (int, error) {
	e := engine.New(store)
	defer e.Close()

	if err := e.Load(ctx); err != nil {
		return 0, err
	}

	if err := Configure(ctx, e, opts); err != nil {
		return 0, err
	}

	notes := e.View().Notes

	if err := WriteFile(opts.File, opts.Format, notes); err != nil {
		return 0, err
	}

	log.Info().Str("file", opts.File).Int("notes", len(notes)).Msg("exported notes")

	return len(notes), nil
}

// WriteFile atomically replaces path with notes encoded in format.
func WriteFile(path, format string, notes []db.Note) error {
	var buf bytes.Buffer

	if err := Encode(&buf, format, notes); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}

	return nil
}

// Encode writes notes to w as an indented JSON array ("json") or as a markdown style
// checklist ("txt").
func Encode(w io.Writer, format string, notes []db.Note) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if notes == nil {
			notes = []db.Note{}
		}

		if err := enc.Encode(notes); err != nil {
			return fmt.Errorf("error encoding notes: %w", err)
		}

		return nil
	case "txt":
		for _, note := range notes {
			if _, err := fmt.Fprintln(w, Line(note)); err != nil {
				return fmt.Errorf("error writing notes: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// Line renders a note as a single checklist line.
func Line(note db.Note) string {
	mark := " "
	if note.Done {
		mark = "x"
	}

	line := fmt.Sprintf("- [%s] %s: %s", mark, note.Header, note.Description)

	if due, ok := note.Due(); ok {
		line += fmt.Sprintf(" (due %s)", due.Format(dueLayout))
	}

	return line
}
