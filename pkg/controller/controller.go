package controller

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/matt-steen/todo-notes/pkg/engine"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	pageList       = "list"
	pageNoteForm   = "form"
	pageDateFilter = "dateFilter"
)

// Controller mediates between the engine and the view.
type Controller struct {
	ctx    context.Context
	engine *engine.Engine
	app    *tview.Application
	pages  *tview.Pages

	header  *tview.Table
	search  *tview.InputField
	table   *tview.Table
	content *NoteContent
	view    engine.View
	message string

	// selected is the note under the cursor; hasSelected is false for an empty list.
	selected    db.Note
	hasSelected bool

	// editing is the note shown in the note form; a zero ID means a new note.
	editing db.Note

	noteForm   *tview.Form
	titleField *tview.InputField
	descField  *tview.InputField
	dueField   *tview.InputField

	dateForm   *tview.Form
	sinceField *tview.InputField
	toField    *tview.InputField

	formHeaderTables map[string]*tview.Table

	events     map[tcell.Key]KeyEvent
	formEvents map[tcell.Key]KeyEvent
}

// KeyEvent defines an event associated with a keypress.
type KeyEvent struct {
	Description string
	Action      func(*tcell.EventKey) *tcell.EventKey
}

// NewController creates a new Controller to run the app.
func NewController(ctx context.Context, e *engine.Engine) (*Controller, error) {
	c := Controller{
		ctx:              ctx,
		engine:           e,
		app:              tview.NewApplication(),
		pages:            tview.NewPages(),
		content:          &NoteContent{},
		formHeaderTables: map[string]*tview.Table{},
		view:             e.View(),
	}

	c.initEvents()

	c.pages.AddPage(pageList, c.getListGrid(), true, true)
	c.pages.AddPage(pageNoteForm, c.getFormGrid(), true, false)
	c.pages.AddPage(pageDateFilter, c.getDateFormGrid(), true, false)

	c.setView(c.view)

	return &c, nil
}

// Go starts the app and blocks until it stops.
func (c *Controller) Go() error {
	ctx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	views := c.engine.Subscribe(ctx)

	go func() {
		for view := range views {
			c.app.QueueUpdateDraw(func() {
				c.setView(view)
			})
		}
	}()

	go func() {
		<-ctx.Done()
		c.app.Stop()
	}()

	c.showList()

	if err := c.app.SetRoot(c.pages, true).Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}

	return nil
}

// setView shows a new view, keeping the cursor on the same note where possible.
func (c *Controller) setView(view engine.View) {
	c.view = view
	c.content.SetNotes(view.Notes)
	c.updateHeader()

	row := -1
	if c.hasSelected {
		row = c.content.Row(c.selected.ID)
	}

	if row < 0 {
		row, _ = c.table.GetSelection()
	}

	c.selectRow(row)
}

func (c *Controller) selectRow(row int) {
	count := len(c.view.Notes)

	switch {
	case count == 0:
		c.setSelectedNote(-1)

		return
	case row < 1:
		row = 1
	case row > count:
		row = count
	}

	c.table.Select(row, 0)
	c.setSelectedNote(row)
}

func (c *Controller) setSelectedNote(row int) {
	c.selected, c.hasSelected = c.content.Note(row)

	log.Debug().
		Int("row", row).
		Int("len", len(c.view.Notes)).
		Int64("id", c.selected.ID).
		Msgf("setting selected note to '%s'", c.selected.Header)
}

// setMessage shows msg under the filter summary until the next message.
func (c *Controller) setMessage(msg string) {
	c.message = msg
	c.updateHeader()
}

func (c *Controller) reportError(action string, err error) {
	log.Warn().Err(err).Msgf("error while trying to %s", action)

	c.setMessage(fmt.Sprintf("[red]could not %s: %s", action, tview.Escape(err.Error())))
}

func (c *Controller) showList() {
	c.app.SetInputCapture(c.handleKeys)
	c.pages.SwitchToPage(pageList)
	c.app.SetFocus(c.table)
}

func (c *Controller) keyboard(events map[tcell.Key]KeyEvent, evt *tcell.EventKey) *tcell.EventKey {
	if k, ok := events[AsKey(evt)]; ok {
		return k.Action(evt)
	}

	return evt
}

func (c *Controller) handleKeys(evt *tcell.EventKey) *tcell.EventKey {
	// typing in the search box must not trigger shortcuts
	if c.search.HasFocus() {
		return evt
	}

	return c.keyboard(c.events, evt)
}

func (c *Controller) handleFormKeys(evt *tcell.EventKey) *tcell.EventKey {
	return c.keyboard(c.formEvents, evt)
}
