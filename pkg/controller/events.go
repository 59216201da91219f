package controller

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-notes/pkg/engine"
	"github.com/rs/zerolog/log"
)

func (c *Controller) initEvents() {
	c.events = map[tcell.Key]KeyEvent{}
	c.formEvents = map[tcell.Key]KeyEvent{}

	c.initNoteEvents(c.events)
	c.initShowEvents(c.events)
	c.initSortEvents(c.events)
	c.initExitEvent(c.events)

	c.formEvents[tcell.KeyEscape] = KeyEvent{
		Description: "Cancel",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.showList()

			return nil
		},
	}
}

func (c *Controller) getExitAction() func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		log.Debug().Msg("exit requested")

		c.app.Stop()

		return nil
	}
}

func (c *Controller) initExitEvent(events map[tcell.Key]KeyEvent) {
	events[KeyQ] = KeyEvent{
		Description: "Exit",
		Action:      c.getExitAction(),
	}
}

func (c *Controller) initNoteEvents(events map[tcell.Key]KeyEvent) {
	events[KeyN] = KeyEvent{
		Description: "New",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchToForm(false)

			return nil
		},
	}

	edit := KeyEvent{
		Description: "Edit",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			if c.hasSelected {
				c.switchToForm(true)
			}

			return nil
		},
	}
	events[KeyE] = edit
	events[tcell.KeyEnter] = edit

	events[KeyD] = KeyEvent{
		Description: "Delete",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			if !c.hasSelected {
				return nil
			}

			if err := c.engine.Delete(c.ctx, c.selected); err != nil {
				c.reportError("delete note", err)
			}

			return nil
		},
	}

	events[KeySpace] = KeyEvent{
		Description: "Toggle done",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			if !c.hasSelected {
				return nil
			}

			if _, err := c.engine.ToggleDone(c.ctx, c.selected); err != nil {
				c.reportError("change note status", err)
			}

			return nil
		},
	}

	events[KeySlash] = KeyEvent{
		Description: "Search",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.app.SetFocus(c.search)

			return nil
		},
	}

	events[KeyF] = KeyEvent{
		Description: "Filter by due date",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchToDateForm()

			return nil
		},
	}
}

func (c *Controller) getShowAction(status engine.Status) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		c.engine.SetStatusFilter(status)

		return nil
	}
}

func (c *Controller) initShowEvents(events map[tcell.Key]KeyEvent) {
	events[KeyShiftA] = KeyEvent{
		Description: "Show All",
		Action:      c.getShowAction(engine.StatusNone),
	}

	events[KeyShiftD] = KeyEvent{
		Description: "Show Done",
		Action:      c.getShowAction(engine.StatusDone),
	}

	events[KeyShiftU] = KeyEvent{
		Description: "Show Undone",
		Action:      c.getShowAction(engine.StatusUndone),
	}
}

func (c *Controller) getSortAction(mode engine.SortMode) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		if err := c.engine.ApplySort(c.ctx, mode); err != nil {
			c.reportError("reload notes", err)
		}

		return nil
	}
}

func (c *Controller) initSortEvents(events map[tcell.Key]KeyEvent) {
	events[Key1] = KeyEvent{
		Description: "Sort Default",
		Action:      c.getSortAction(engine.SortDefault),
	}

	events[Key2] = KeyEvent{
		Description: "Sort Earlier first",
		Action:      c.getSortAction(engine.SortEarlier),
	}

	events[Key3] = KeyEvent{
		Description: "Sort Later first",
		Action:      c.getSortAction(engine.SortLater),
	}
}
