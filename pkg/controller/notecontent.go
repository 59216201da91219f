package controller

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/rivo/tview"
)

const (
	descTitleRatio = 2
	dueLayout      = "2006-01-02 15:04"
)

var columns = []string{"done", "title", "description", "due"}

// NoteContent implements tview.TableContent, which tview.Table uses to update data.
// Row 0 holds the column headers; note i is on row i+1.
type NoteContent struct {
	tview.TableContentReadOnly
	notes []db.Note
}

// SetNotes replaces the notes shown.
func (n *NoteContent) SetNotes(notes []db.Note) {
	n.notes = notes
}

// Note returns the note displayed on row, if any.
func (n *NoteContent) Note(row int) (db.Note, bool) {
	if idx := row - 1; idx >= 0 && idx < len(n.notes) {
		return n.notes[idx], true
	}

	return db.Note{}, false
}

// Row returns the row displaying the note with the given id, or -1.
func (n *NoteContent) Row(id int64) int {
	for i, note := range n.notes {
		if note.ID == id {
			return i + 1
		}
	}

	return -1
}

// GetCell returns the cell at the given position or nil if no cell.
func (n *NoteContent) GetCell(row, col int) *tview.TableCell {
	if col < 0 || col >= len(columns) {
		return nil
	}

	if row == 0 {
		expansion := 1
		if col == 2 {
			expansion = descTitleRatio
		}

		return tview.NewTableCell(columns[col]).SetExpansion(expansion).
			SetTextColor(tcell.ColorYellow).SetSelectable(false)
	}

	note, ok := n.Note(row)
	if !ok {
		return nil
	}

	color := tcell.ColorWhite
	if note.Done {
		color = tcell.ColorGray
	}

	switch col {
	case 0:
		mark := ""
		if note.Done {
			mark = "✓"
		}

		return tview.NewTableCell(mark).SetTextColor(tcell.ColorGreen)
	case 1:
		return tview.NewTableCell(tview.Escape(note.Header)).SetExpansion(1).SetTextColor(color).SetReference(note)
	case 2:
		return tview.NewTableCell(tview.Escape(note.Description)).SetExpansion(descTitleRatio).SetTextColor(color)
	default:
		due := ""
		if t, ok := note.Due(); ok {
			due = t.Format(dueLayout)
		}

		return tview.NewTableCell(due).SetExpansion(1).SetTextColor(tcell.ColorGreen)
	}
}

// GetRowCount returns the number of rows in the table.
func (n *NoteContent) GetRowCount() int {
	return len(n.notes) + 1
}

// GetColumnCount returns the number of columns in the table.
func (n *NoteContent) GetColumnCount() int {
	return len(columns)
}
