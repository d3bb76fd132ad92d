// Package tui provides a k9s-style terminal dashboard for a KubeROS API
// server.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"gopkg.in/yaml.v3"
)

// DefaultInterval is how often the dashboard polls the API server.
const DefaultInterval = 5 * time.Second

// Options configures the dashboard.
type Options struct {
	// Context and Server are shown in the header.
	Context string
	Server  string
	// Interval between background refreshes. Zero means DefaultInterval.
	Interval time.Duration
}

// App is the dashboard application. It polls the API server and shows
// clusters, fleets, deployments and batch jobs in a navigable table.
type App struct {
	app         *tview.Application
	pages       *tview.Pages
	header      *tview.TextView
	footer      *tview.TextView
	table       *tview.Table
	filterInput *tview.InputField
	detailView  *tview.TextView
	layout      *tview.Flex
	mainFlex    *tview.Flex

	src  Source
	opts Options

	mu          sync.Mutex
	currentView View
	filter      string
	data        snapshot
	lastErr     error
	lastUpdate  time.Time

	describeOpen bool
	filterOpen   bool
}

// NewApp creates a dashboard reading from src.
func NewApp(src Source, opts Options) *App {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	a := &App{
		app:         tview.NewApplication(),
		src:         src,
		opts:        opts,
		currentView: ViewDeployments,
	}

	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.header.SetBackgroundColor(tcell.ColorDarkBlue)

	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	a.table = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0).
		SetSeparator(tview.Borders.Vertical)
	a.table.SetBorder(false)
	a.table.SetBorderPadding(0, 0, 1, 1)

	a.filterInput = tview.NewInputField().
		SetLabel(" Filter: ").
		SetFieldWidth(40).
		SetFieldBackgroundColor(tcell.ColorBlack).
		SetLabelColor(tcell.ColorYellow)
	a.filterInput.SetDoneFunc(func(key tcell.Key) {
		a.mu.Lock()
		switch key {
		case tcell.KeyEnter:
			a.filter = a.filterInput.GetText()
		case tcell.KeyEscape:
			a.filter = ""
			a.filterInput.SetText("")
		}
		a.mu.Unlock()
		a.hideFilter()
		a.updateHeader()
		a.updateTable()
	})

	a.detailView = tview.NewTextView().
		SetDynamicColors(false).
		SetScrollable(true).
		SetWrap(true)
	a.detailView.SetBorder(true).
		SetTitle(" Describe ").
		SetBorderColor(tcell.ColorDodgerBlue)

	a.layout = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(a.table, 0, 1, true)

	a.mainFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.layout, 0, 1, true).
		AddItem(a.footer, 1, 0, false)

	a.pages = tview.NewPages().
		AddPage("main", a.mainFlex, true, true)

	a.updateHeader()
	a.updateFooter()
	a.setupKeyBindings()

	a.app.SetRoot(a.pages, true).SetFocus(a.table)

	return a
}

// Run refreshes once, starts the background poller and runs the event loop
// until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.refresh(ctx)
	a.updateTable()

	go func() {
		ticker := time.NewTicker(a.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				a.app.Stop()
				return
			case <-ticker.C:
				a.refresh(ctx)
				a.app.QueueUpdateDraw(a.updateTable)
			}
		}
	}()

	return a.app.Run()
}

// ---------------------------------------------------------------------------
// Key bindings
// ---------------------------------------------------------------------------

func (a *App) setupKeyBindings() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.filterOpen {
			return event
		}
		if front, _ := a.pages.GetFrontPage(); front != "main" {
			return event
		}
		if a.describeOpen && event.Key() == tcell.KeyEscape {
			a.hideDescribe()
			return nil
		}

		switch event.Key() {
		case tcell.KeyRune:
			for _, v := range views {
				if event.Rune() == v.key {
					a.switchView(v.view)
					return nil
				}
			}
			switch event.Rune() {
			case '/':
				a.showFilter()
				return nil
			case 'q':
				a.app.Stop()
				return nil
			case 'r':
				a.refreshAsync()
				return nil
			case 'd':
				a.confirmDelete()
				return nil
			case 'j':
				row, _ := a.table.GetSelection()
				if row < a.table.GetRowCount()-1 {
					a.table.Select(row+1, 0)
				}
				return nil
			case 'k':
				row, _ := a.table.GetSelection()
				if row > 1 {
					a.table.Select(row-1, 0)
				}
				return nil
			}
		case tcell.KeyEnter:
			a.showDescribe()
			return nil
		case tcell.KeyEscape:
			a.mu.Lock()
			hadFilter := a.filter != ""
			a.filter = ""
			a.mu.Unlock()
			if hadFilter {
				a.updateHeader()
				a.updateTable()
			}
			return nil
		}

		return event
	})
}

func (a *App) switchView(view View) {
	a.mu.Lock()
	a.currentView = view
	a.data = snapshot{}
	a.mu.Unlock()

	a.hideDescribe()
	a.updateHeader()
	a.updateTable()
	a.refreshAsync()
}

// ---------------------------------------------------------------------------
// Data refresh
// ---------------------------------------------------------------------------

func (a *App) refresh(ctx context.Context) {
	a.mu.Lock()
	view := a.currentView
	a.mu.Unlock()

	data, err := fetch(ctx, a.src, view)

	a.mu.Lock()
	defer a.mu.Unlock()
	if view != a.currentView {
		return
	}
	a.data = data
	a.lastErr = err
	a.lastUpdate = time.Now()
}

func (a *App) refreshAsync() {
	go func() {
		a.refresh(context.Background())
		a.app.QueueUpdateDraw(a.updateTable)
	}()
}

// ---------------------------------------------------------------------------
// Table rendering
// ---------------------------------------------------------------------------

func (a *App) updateTable() {
	a.table.Clear()

	a.mu.Lock()
	view := a.currentView
	filter := a.filter
	data := a.data
	err := a.lastErr
	a.mu.Unlock()

	if err != nil {
		a.setTableHeaders([]string{"ERROR"})
		a.table.SetCell(1, 0,
			tview.NewTableCell(fmt.Sprintf("Error: %v", err)).
				SetTextColor(tcell.ColorRed))
		return
	}

	a.setTableHeaders(headers(view))
	statusCol := statusColumn(view)
	for i, r := range rows(view, data, filter) {
		for col, text := range r {
			cell := tview.NewTableCell(text).SetExpansion(1)
			if col == statusCol {
				cell.SetTextColor(phaseColor(text))
			}
			a.table.SetCell(i+1, col, cell)
		}
	}

	if a.table.GetRowCount() > 1 {
		a.table.Select(1, 0)
	}
	a.updateFooter()
}

func (a *App) setTableHeaders(headers []string) {
	for col, h := range headers {
		cell := tview.NewTableCell(h).
			SetTextColor(tcell.ColorWhite).
			SetBackgroundColor(tcell.ColorDarkCyan).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false).
			SetExpansion(1)
		a.table.SetCell(0, col, cell)
	}
}

func (a *App) selectedName() (string, bool) {
	row, _ := a.table.GetSelection()
	if row < 1 || row >= a.table.GetRowCount() {
		return "", false
	}
	return a.table.GetCell(row, 0).Text, true
}

// ---------------------------------------------------------------------------
// Describe (detail panel)
// ---------------------------------------------------------------------------

func (a *App) showDescribe() {
	name, ok := a.selectedName()
	if !ok {
		return
	}

	a.mu.Lock()
	view := a.currentView
	a.mu.Unlock()

	var detail string
	obj, err := describe(context.Background(), a.src, view, name)
	if err == nil {
		var out []byte
		out, err = yaml.Marshal(obj)
		detail = string(out)
	}
	if err != nil {
		detail = fmt.Sprintf("Error: %v", err)
	}

	a.detailView.SetText(detail).ScrollToBeginning()
	if !a.describeOpen {
		a.layout.AddItem(a.detailView, 0, 1, false)
		a.describeOpen = true
	}
}

func (a *App) hideDescribe() {
	if a.describeOpen {
		a.layout.RemoveItem(a.detailView)
		a.describeOpen = false
		a.app.SetFocus(a.table)
	}
}

// ---------------------------------------------------------------------------
// Filter
// ---------------------------------------------------------------------------

func (a *App) showFilter() {
	if a.filterOpen {
		return
	}
	a.filterOpen = true
	a.mu.Lock()
	a.filterInput.SetText(a.filter)
	a.mu.Unlock()

	a.mainFlex.RemoveItem(a.footer)
	a.mainFlex.AddItem(a.filterInput, 1, 0, true)
	a.app.SetFocus(a.filterInput)
}

func (a *App) hideFilter() {
	if !a.filterOpen {
		return
	}
	a.filterOpen = false

	a.mainFlex.RemoveItem(a.filterInput)
	a.mainFlex.AddItem(a.footer, 1, 0, false)
	a.app.SetFocus(a.table)
}

// ---------------------------------------------------------------------------
// Delete with confirmation
// ---------------------------------------------------------------------------

func (a *App) confirmDelete() {
	name, ok := a.selectedName()
	if !ok {
		return
	}

	a.mu.Lock()
	view := a.currentView
	a.mu.Unlock()
	action := deleteAction(view)

	modal := tview.NewModal().
		SetText(fmt.Sprintf("%s %q?", action, name)).
		AddButtons([]string{action, "Cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("confirm")
			a.app.SetFocus(a.table)
			if buttonLabel == action {
				a.deleteResource(view, name)
			}
		})
	modal.SetBackgroundColor(tcell.ColorDarkRed)

	a.pages.AddPage("confirm", modal, true, true)
}

func (a *App) deleteResource(view View, name string) {
	go func() {
		msg, err := remove(context.Background(), a.src, view, name)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.flash(fmt.Sprintf("[red]%s failed: %v[-]", deleteAction(view), tview.Escape(err.Error())))
				return
			}
			if msg == "" {
				msg = fmt.Sprintf("%s %q done", deleteAction(view), name)
			}
			a.flash("[green]" + tview.Escape(msg) + "[-]")
		})
		a.refresh(context.Background())
		a.app.QueueUpdateDraw(a.updateTable)
	}()
}

// flash shows a message in the footer for a few seconds.
func (a *App) flash(text string) {
	a.footer.SetText(" " + text)
	go func() {
		time.Sleep(3 * time.Second)
		a.app.QueueUpdateDraw(a.updateFooter)
	}()
}

// ---------------------------------------------------------------------------
// Header & Footer
// ---------------------------------------------------------------------------

func (a *App) updateHeader() {
	a.mu.Lock()
	current := a.currentView
	filter := a.filter
	a.mu.Unlock()

	var parts []string
	for _, v := range views {
		if v.view == current {
			parts = append(parts, fmt.Sprintf("[::b]<%c>[%s][::-]", v.key, v.title))
		} else {
			parts = append(parts, fmt.Sprintf("<%c>%s", v.key, v.title))
		}
	}

	filterInfo := ""
	if filter != "" {
		filterInfo = fmt.Sprintf(" | [yellow]filter: %s[-]", tview.Escape(filter))
	}

	a.header.SetText(fmt.Sprintf(" [::b]KubeROS[::-] | %s (%s) | %s%s",
		a.opts.Context, a.opts.Server, strings.Join(parts, "  "), filterInfo))
}

func (a *App) updateFooter() {
	a.mu.Lock()
	view := a.currentView
	updated := a.lastUpdate
	a.mu.Unlock()

	stamp := "-"
	if !updated.IsZero() {
		stamp = updated.Format("15:04:05")
	}
	a.footer.SetText(fmt.Sprintf(" [yellow]<enter>[white]Describe  [yellow]<d>[white]%s  [yellow]</>[white]Filter  [yellow]<r>[white]Refresh  [yellow]<q>[white]Quit  [gray]updated %s[-]",
		deleteAction(view), stamp))
}
