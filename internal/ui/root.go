package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Baser interface {
	SetSize(width, height int)
	SetTheme(theme Theme)
}

// View is the interface that all views must implement.
type View interface {
	Baser

	Init() tea.Cmd
	Update(tea.Msg) (View, tea.Cmd)
	View() string
	KeyMap() string
	Breadcrumb() string
}

// Root owns the view stack. The bottom view is the user list; log and alert
// views are pushed on top of it and popped when dismissed.
type Root struct {
	width, height int
	theme         Theme

	stack    []View
	quitting bool

	logger *UILogger
}

// NewRoot creates the root model. logger may be nil, which disables the log view.
func NewRoot(theme Theme, logger *UILogger, first View) *Root {
	r := &Root{
		theme:  theme,
		logger: logger,
	}
	r.stack = []View{r.prepare(first)}
	return r
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(tick(), r.stack[0].Init())
}

func (r *Root) prepare(v View) View {
	v.SetSize(r.width, r.height)
	v.SetTheme(r.theme)
	return v
}

func (r *Root) top() View {
	return r.stack[len(r.stack)-1]
}

// topIs reports whether the view on top of the stack is a T.
func topIs[T View](r *Root) bool {
	_, ok := r.top().(T)
	return ok
}

func (r *Root) changeView(msg pushViewMsg) tea.Cmd {
	switch msg.pushType {
	case Push:
		r.stack = append(r.stack, r.prepare(msg.view))
		return msg.view.Init()
	case Replace:
		r.stack[len(r.stack)-1] = r.prepare(msg.view)
		return msg.view.Init()
	case Pop:
		// the list itself is never popped
		if len(r.stack) > 1 {
			r.stack = r.stack[:len(r.stack)-1]
		}
	}
	return nil
}

// handleKey processes global keys. It reports true if the key was consumed.
func (r *Root) handleKey(k tea.KeyMsg) (bool, tea.Cmd) {
	switch k.String() {
	case "ctrl+c":
		r.quitting = true
		return true, tea.Quit
	case "q":
		// on stacked views q means go back and is left to them
		if len(r.stack) == 1 {
			r.quitting = true
			return true, tea.Quit
		}
	case "L":
		if r.logger == nil {
			return false, nil
		}
		if topIs[*LogView](r) {
			return true, PushChangeView(Pop, nil)
		}
		return true, PushChangeView(Push, NewLogView(r.logger))
	}
	return false, nil
}

func (r *Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch v := msg.(type) {
	case pushViewMsg:
		return r, r.changeView(v)

	case alertMsg:
		pt := Push
		if topIs[*AlertView](r) {
			pt = Replace
		}
		return r, PushChangeView(pt, &AlertView{Title: v.Title, Err: v.Err})

	case TickMsg:
		cmds = append(cmds, tick())

	case tea.WindowSizeMsg:
		// one line is reserved for the status bar
		r.width, r.height = v.Width, v.Height-1
		for _, view := range r.stack {
			view.SetSize(r.width, r.height)
		}

	case tea.KeyMsg:
		if consumed, cmd := r.handleKey(v); consumed {
			return r, cmd
		}
	}

	// fetch results and timers belong to the list, even while it is covered
	last := len(r.stack) - 1
	if _, isKey := msg.(tea.KeyMsg); !isKey && last > 0 {
		var cmd tea.Cmd
		r.stack[0], cmd = r.stack[0].Update(msg)
		cmds = append(cmds, cmd)
	}

	// keys only go to the view on top
	var cmd tea.Cmd
	r.stack[last], cmd = r.stack[last].Update(msg)
	cmds = append(cmds, cmd)

	return r, tea.Batch(cmds...)
}

func (r *Root) renderBar(breadcrumbs string, help string) string {
	breadcrumbsRender := r.theme.BreadcrumbBarStyle.Render(breadcrumbs)

	var logRender string
	if r.logger != nil {
		info, warn, errs := r.logger.unread()
		switch {
		case warn+errs > 0:
			logRender = r.theme.LoggerBarStyle.Render(fmt.Sprintf("🔔 %dw|%de (L)", warn, errs))
		case info > 0:
			logRender = r.theme.MutedTextStyle.Render(fmt.Sprintf(" %di ", info))
		}
	}

	helpRender := r.theme.HelpBarStyle.
		Width(max(r.width-lipgloss.Width(breadcrumbsRender)-lipgloss.Width(logRender), 0)).
		MaxHeight(1).
		Render(help)

	return lipgloss.JoinHorizontal(lipgloss.Top, helpRender, breadcrumbsRender, logRender)
}

func (r *Root) View() string {
	if r.width == 0 && r.height == 0 {
		return "" // no size yet
	}
	if r.quitting {
		// keeps the last frame from staying in the terminal after exit
		return r.theme.MutedTextStyle.Render("Bye!")
	}

	crumbs := make([]string, len(r.stack))
	for i, view := range r.stack {
		crumbs[i] = view.Breadcrumb()
	}

	top := r.top()
	return top.View() + "\n" + r.renderBar(strings.Join(crumbs, " ⟩ "), top.KeyMap())
}
