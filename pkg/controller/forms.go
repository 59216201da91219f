package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/matt-steen/todo-notes/pkg/engine"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	titleMax       = 50
	descriptionMax = 500
	dueMax         = 16
)

// ErrBadDueDate is returned by ParseDue.
var ErrBadDueDate = errors.New("due date must look like 2006-01-02 or 2006-01-02 15:04")

// ParseDue parses the due date field into epoch milliseconds. Blank means no due date.
// A date without a time is due at midnight.
func ParseDue(text string, loc *time.Location) (int64, error) {
	if text == "" {
		return 0, nil
	}

	for _, layout := range []string{dueLayout, filterDayLayout} {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return db.Millis(t), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrBadDueDate, text)
}

// FormatDue is the inverse of ParseDue.
func FormatDue(note db.Note) string {
	due, ok := note.Due()
	if !ok {
		return ""
	}

	return due.Format(dueLayout)
}

// switchToForm opens the note form, filled with the selected note if edit is set.
func (c *Controller) switchToForm(edit bool) {
	title := "New Note"
	c.editing = db.Note{}

	if edit {
		title = "Edit Note"

		// read the stored note rather than the row, which may be a stale view
		note, ok, err := c.engine.Note(c.ctx, c.selected.ID)
		if err != nil {
			c.reportError("load note", err)

			return
		}

		if !ok {
			c.setMessage("[red]the note no longer exists")

			return
		}

		c.editing = note
	}

	c.titleField.SetText(c.editing.Header)
	c.descField.SetText(c.editing.Description)
	c.dueField.SetText(FormatDue(c.editing))

	c.setFormTitle(pageNoteForm, title)

	c.noteForm.SetFocus(0)

	c.pages.SwitchToPage(pageNoteForm)

	c.app.SetInputCapture(c.handleFormKeys)
}

func (c *Controller) switchToDateForm() {
	c.setFormTitle(pageDateFilter, "Filter by Due Date")

	if date, ok := c.view.Filters.DateRange(); ok {
		c.sinceField.SetText(dayBound(date.Since, ""))
		c.toField.SetText(dayBound(date.To, ""))
	}

	c.dateForm.SetFocus(0)

	c.pages.SwitchToPage(pageDateFilter)

	c.app.SetInputCapture(c.handleFormKeys)
}

func (c *Controller) getFormGrid() *tview.Grid {
	grid := tview.NewGrid().SetBorders(true)

	c.initFormHeader(pageNoteForm)
	c.initForm()

	grid.AddItem(c.formHeaderTables[pageNoteForm], 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.noteForm, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) getDateFormGrid() *tview.Grid {
	grid := tview.NewGrid().SetBorders(true)

	c.initFormHeader(pageDateFilter)
	c.initDateForm()

	grid.AddItem(c.formHeaderTables[pageDateFilter], 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.dateForm, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) setFormTitle(tableName, title string) {
	c.formHeaderTables[tableName].SetCell(0, 0, tview.NewTableCell(fmt.Sprintf("[yellow]%s", title)))
	c.setFormError(tableName, "")
}

// setFormError shows msg below the form shortcuts; an empty msg clears it.
func (c *Controller) setFormError(tableName, msg string) {
	table := c.formHeaderTables[tableName]
	row := len(c.formEvents) + 1

	if msg == "" {
		table.SetCell(row, 0, tview.NewTableCell(""))

		return
	}

	table.SetCell(row, 0, tview.NewTableCell("[red]"+tview.Escape(msg)))
}

func (c *Controller) initFormHeader(name string) {
	c.formHeaderTables[name] = tview.NewTable().SetBorders(false).SetSelectable(false, false)
	row := 1

	for key, event := range c.formEvents {
		text := fmt.Sprintf("[orange]<%s>[white] %s", KeyName(key), event.Description)
		c.formHeaderTables[name].SetCell(row, 0, tview.NewTableCell(text))
		row++
	}
}

func (c *Controller) initForm() {
	c.noteForm = tview.NewForm().
		AddInputField("Title", "", titleMax, nil, nil).
		AddInputField("Description", "", descriptionMax, nil, nil).
		AddInputField("Due", "", dueMax, nil, nil)

	c.titleField, _ = c.noteForm.GetFormItemByLabel("Title").(*tview.InputField)
	c.descField, _ = c.noteForm.GetFormItemByLabel("Description").(*tview.InputField)
	c.dueField, _ = c.noteForm.GetFormItemByLabel("Due").(*tview.InputField)

	c.noteForm.AddButton("Save", c.saveNote)
	c.noteForm.AddButton("Cancel", c.showList)
}

// saveNote replaces the edited note, or inserts a new one, from the form fields.
func (c *Controller) saveNote() {
	due, err := ParseDue(c.dueField.GetText(), time.Local)
	if err != nil {
		c.setFormError(pageNoteForm, err.Error())

		return
	}

	note := db.Note{
		ID:          c.editing.ID,
		Header:      c.titleField.GetText(),
		Description: c.descField.GetText(),
		Done:        c.editing.Done,
		DateTime:    due,
	}

	log.Debug().Int64("id", note.ID).Msgf("saving note with title '%s'", note.Header)

	saved, err := c.engine.Save(c.ctx, note)
	if err != nil {
		log.Err(err).Msg("error saving the note")
		c.setFormError(pageNoteForm, err.Error())

		return
	}

	c.titleField.SetText("")
	c.descField.SetText("")
	c.dueField.SetText("")

	// select the new/edited note once the view catches up
	c.selected, c.hasSelected = saved, true
	c.setMessage("")
	c.showList()
}

func (c *Controller) initDateForm() {
	c.dateForm = tview.NewForm().
		AddInputField("Since", "", len(filterDayLayout), nil, nil).
		AddInputField("To", "", len(filterDayLayout), nil, nil)

	c.sinceField, _ = c.dateForm.GetFormItemByLabel("Since").(*tview.InputField)
	c.toField, _ = c.dateForm.GetFormItemByLabel("To").(*tview.InputField)

	c.dateForm.AddButton("Apply", func() {
		since, to, remove, err := engine.DayRange(c.sinceField.GetText(), c.toField.GetText(), time.Local)
		if err != nil {
			c.setFormError(pageDateFilter, err.Error())

			return
		}

		c.engine.SetDateFilter(since, to, remove)
		c.showList()
	})

	c.dateForm.AddButton("Clear", func() {
		c.sinceField.SetText("")
		c.toField.SetText("")

		c.engine.SetDateFilter(0, 0, true)
		c.showList()
	})
}
