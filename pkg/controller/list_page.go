package controller

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-notes/pkg/engine"
	"github.com/rivo/tview"
)

const filterDayLayout = "2006-01-02"

func (c *Controller) getListGrid() *tview.Grid {
	c.header = tview.NewTable().SetBorders(false).SetSelectable(false, false)
	c.search = c.getSearchField()
	c.table = c.getTable()

	grid := tview.NewGrid().SetRows(0, 1, 0).SetBorders(true)

	grid.AddItem(c.header, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.search, 1, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.table, 2, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) getSearchField() *tview.InputField {
	search := tview.NewInputField().SetLabel("search: ")

	search.SetChangedFunc(func(text string) {
		c.engine.SetKeywordFilter(text)
	})

	// enter keeps the keyword, escape clears it; both go back to the list
	search.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			search.SetText("")
		}

		c.app.SetFocus(c.table)
	})

	return search
}

func (c *Controller) getTable() *tview.Table {
	table := tview.NewTable().SetBorders(false)

	table.SetContent(c.content)
	table.SetSelectable(true, false)
	table.SetFixed(1, 0)
	table.SetSelectionChangedFunc(c.setCurrentRow)

	return table
}

// when the row selection changes, update the selected note.
func (c *Controller) setCurrentRow(row, _ int) {
	c.setSelectedNote(row)
}

// updateHeader redraws the header: the filter and sort summary, the last message, and
// three columns of keyboard shortcuts. The first column holds misc shortcuts, the second
// "Show ..." filters and the third "Sort ..." orders; each is sorted alphabetically.
func (c *Controller) updateHeader() {
	table := c.header
	table.Clear()

	row := 0
	table.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("[yellow]notes[white] (%d)", len(c.view.Notes))))
	table.SetCell(row, 1, tview.NewTableCell(Summary(c.view.Filters, c.view.Sort)).SetExpansion(1))
	row++

	if c.message != "" {
		table.SetCell(row, 0, tview.NewTableCell(c.message))
		row++
	}

	shortcuts := map[int][]string{
		0: {},
		1: {},
		2: {},
	}

	for key, event := range c.events {
		text := fmt.Sprintf("[orange]<%s>[white] %s", KeyName(key), event.Description)

		switch {
		case strings.HasPrefix(event.Description, "Show"):
			shortcuts[1] = append(shortcuts[1], text)
		case strings.HasPrefix(event.Description, "Sort"):
			shortcuts[2] = append(shortcuts[2], text)
		default:
			shortcuts[0] = append(shortcuts[0], text)
		}
	}

	for col := 0; col < 3; col++ {
		sort.Strings(shortcuts[col])
	}

	for i := 0; i < len(shortcuts[0]) || i < len(shortcuts[1]) || i < len(shortcuts[2]); i++ {
		for col := 0; col < 3; col++ {
			if i < len(shortcuts[col]) {
				table.SetCell(row, col, tview.NewTableCell(shortcuts[col][i]).SetExpansion(1))
			}
		}

		row++
	}
}

// Summary describes the active filters and sort mode for the list header.
func Summary(filters engine.Filters, mode engine.SortMode) string {
	parts := []string{"status: " + filters.Status().String()}

	if keyword, ok := filters.Keyword(); ok {
		parts = append(parts, fmt.Sprintf("keyword: %q", keyword))
	}

	if date, ok := filters.DateRange(); ok {
		parts = append(parts, "due: "+dayBound(date.Since, "…")+" to "+dayBound(date.To, "…"))
	}

	parts = append(parts, "sort: "+mode.String())

	return tview.Escape(strings.Join(parts, ", "))
}

// dayBound renders a date filter bound as a day, or open for an open-ended bound.
func dayBound(millis int64, open string) string {
	t := time.UnixMilli(millis)
	if t.Year() < 1 || t.Year() > 9999 {
		return open
	}

	return t.Format(filterDayLayout)
}
