package ui

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/loog-project/rulist/internal/controller"
	"github.com/loog-project/rulist/internal/filter"
	"github.com/loog-project/rulist/internal/user"
)

const (
	heading = "Welcome to the User List"

	arrowRight = "▸"

	// every row is two name lines plus a separator
	rowHeight      = 3
	pageScrollSkip = 5
)

type UserListView struct {
	Base

	controller *controller.Controller
	filter     *filter.Filter
	layout     Layout

	viewport viewport.Model
	spinner  spinner.Model
	header   string

	// visible holds the rows that passed the filter, in list order
	visible      []user.Record
	cursor       int
	filterFailed bool
}

var _ View = (*UserListView)(nil)

func NewUserListView(c *controller.Controller, f *filter.Filter, layout Layout) *UserListView {
	return &UserListView{
		controller: c,
		filter:     f,
		layout:     layout,
		viewport:   viewport.New(5, 5), // will be overwritten by SetSize
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (lv *UserListView) Init() tea.Cmd {
	return lv.controller.LoadInitial()
}

func (lv *UserListView) Breadcrumb() string {
	return "users"
}

func (lv *UserListView) SetSize(width, height int) {
	lv.Base.SetSize(width, height)
	lv.resize()
}

func (lv *UserListView) SetTheme(theme Theme) {
	lv.Base.SetTheme(theme)
	lv.spinner.Style = theme.SpinnerStyle
}

// resize fits the viewport below the header.
func (lv *UserListView) resize() {
	lv.viewport.Width = max(lv.Width, 1)
	lv.viewport.Height = max(lv.Height-lipgloss.Height(lv.header), 1)
}

func (lv *UserListView) Update(msg tea.Msg) (View, tea.Cmd) {
	var cmds []tea.Cmd

	if handled, cmd := lv.controller.Update(msg); handled {
		cmds = append(cmds, cmd)
	} else {
		switch v := msg.(type) {
		case spinner.TickMsg:
			// stop ticking once the refresh settled
			if lv.controller.State().Refreshing {
				var cmd tea.Cmd
				lv.spinner, cmd = lv.spinner.Update(v)
				cmds = append(cmds, cmd)
			}

		case tea.KeyMsg:
			cmds = append(cmds, lv.handleKey(v))

		case tea.MouseMsg:
			cmds = append(cmds, lv.handleMouse(v))

		case TickMsg:
			// only re-render the relative times
		}
	}

	cmds = append(cmds, lv.render())
	return lv, tea.Batch(cmds...)
}

func (lv *UserListView) refresh() tea.Cmd {
	cmd := lv.controller.Refresh()
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, lv.spinner.Tick)
}

func (lv *UserListView) handleKey(k tea.KeyMsg) tea.Cmd {
	switch k.String() {
	case "r", "ctrl+r", "f5":
		return lv.refresh()
	case "a", "+":
		return lv.controller.AddOne()
	case "up", "k":
		lv.moveCursor(-1)
	case "down", "j":
		lv.moveCursor(1)
	case "pgup":
		lv.moveCursor(-pageScrollSkip)
	case "pgdown":
		lv.moveCursor(pageScrollSkip)
	case "home", "g":
		lv.moveCursor(-len(lv.visible))
	case "end", "G":
		lv.moveCursor(len(lv.visible))
	}
	return nil
}

// handleMouse scrolls with the wheel. Scrolling up past the top of the list
// is the terminal version of pull to refresh.
func (lv *UserListView) handleMouse(m tea.MouseMsg) tea.Cmd {
	if m.Action != tea.MouseActionPress {
		return nil
	}
	switch m.Button {
	case tea.MouseButtonWheelUp:
		if lv.viewport.AtTop() && lv.cursor == 0 {
			return lv.refresh()
		}
		lv.moveCursor(-1)
	case tea.MouseButtonWheelDown:
		lv.moveCursor(1)
	}
	return nil
}

func (lv *UserListView) moveCursor(delta int) {
	lv.cursor = clamp(lv.cursor+delta, 0, max(len(lv.visible)-1, 0))
	lv.keepVisible()
}

func (lv *UserListView) keepVisible() {
	top := lv.cursor * rowHeight
	bottom := top + rowHeight
	if top < lv.viewport.YOffset {
		lv.viewport.SetYOffset(top)
	}
	if bottom > lv.viewport.YOffset+lv.viewport.Height {
		lv.viewport.SetYOffset(bottom - lv.viewport.Height)
	}
}

// render rebuilds the header and the rows from the controller state.
func (lv *UserListView) render() tea.Cmd {
	var cmd tea.Cmd
	state := lv.controller.State()

	lv.visible = lv.visible[:0]
	for _, r := range state.Users {
		if lv.filter.MatchAll() {
			lv.visible = append(lv.visible, r)
			continue
		}
		pass, err := lv.filter.Match(r)
		if err != nil {
			// show everything rather than hiding users behind a broken filter
			pass = true
			if !lv.filterFailed {
				lv.filterFailed = true
				cmd = PushAlert("when evaluating filter expression", err)
			}
		}
		if pass {
			lv.visible = append(lv.visible, r)
		}
	}
	lv.cursor = clamp(lv.cursor, 0, max(len(lv.visible)-1, 0))

	lv.header = lv.renderHeader(state)
	lv.resize()

	var b strings.Builder
	if len(lv.visible) == 0 {
		b.WriteString(lv.Theme.MutedTextStyle.Render(
			ternary(len(state.Users) == 0,
				"No users yet. Press r to refresh or a to add one.",
				"No user matches the filter "+lv.filter.String())))
	}
	for i, r := range lv.visible {
		b.WriteString(lv.renderRow(r, i == lv.cursor))
		b.WriteString("\n")
	}
	lv.viewport.SetContent(b.String())
	lv.keepVisible()
	return cmd
}

func (lv *UserListView) renderHeader(state controller.State) string {
	title := lv.Theme.HeadingTextStyle.
		Width(lv.Width).
		Align(lipgloss.Center).
		Render(heading)
	if lv.layout == LayoutLeading {
		title = "\n" + title
	}

	var status []string
	if state.Refreshing {
		status = append(status, lv.spinner.View()+" "+lv.Theme.MutedTextStyle.Render("Refreshing users..."))
	}
	if state.FeedbackVisible {
		status = append(status, lv.Theme.FeedbackBannerStyle.Render("✔ Users refreshed"))
	}
	if !state.Refreshing && state.LastError != nil {
		status = append(status, lv.Theme.ErrorTextStyle.Render("Last fetch failed")+
			lv.Theme.MutedTextStyle.Render(" (L for details)"))
	}
	statusLine := lipgloss.PlaceHorizontal(lv.Width, lipgloss.Center, strings.Join(status, "  "))

	return title + "\n" + statusLine
}

func (lv *UserListView) renderRow(r user.Record, selected bool) string {
	names := lipgloss.JoinVertical(lipgloss.Left,
		lv.Theme.ListFirstNameTextStyle.Render(r.FirstName),
		lv.Theme.ListLastNameTextStyle.Render(r.LastName))
	avatar := lv.renderAvatar(r)

	// 2 for the cursor column
	width := max(lv.viewport.Width-2, 0)

	var row string
	switch lv.layout {
	case LayoutLeading:
		row = lipgloss.JoinHorizontal(lipgloss.Top, avatar, "  ", names)
	default:
		gap := max(width-lipgloss.Width(names)-lipgloss.Width(avatar), 1)
		row = lipgloss.JoinHorizontal(lipgloss.Top, names, strings.Repeat(" ", gap), avatar)
	}

	cursor := ternary(selected, lv.Theme.ListCurrentArrowTextStyle.Render(arrowRight), " ")
	row = lipgloss.JoinHorizontal(lipgloss.Top, cursor+" ", row)
	separator := lv.Theme.ListSeparatorStyle.Render(strings.Repeat("─", max(width, 1)))
	return row + "\n" + separator
}

// renderAvatar draws an initials badge; the same name always gets the same color.
func (lv *UserListView) renderAvatar(r user.Record) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(r.FullName()))
	color := AvatarColors[h.Sum32()%uint32(len(AvatarColors))]
	return lv.Theme.AvatarStyle.Background(color).Render(r.Initials())
}

func (lv *UserListView) View() string {
	return lv.header + "\n" + lv.viewport.View()
}

func (lv *UserListView) KeyMap() string {
	state := lv.controller.State()

	counts := fmt.Sprintf("%d users", len(state.Users))
	if !lv.filter.MatchAll() {
		counts += fmt.Sprintf(", %d shown", len(lv.visible))
	}
	if !state.LastSettled.IsZero() {
		counts += ", updated " + humanize.Time(state.LastSettled)
	}

	return fmt.Sprintf("[%s] %s",
		lv.Theme.PrimaryTextStyle.Render(counts),
		NewShortcuts().
			Add("q", "quit").
			AddIf(!state.Refreshing, "r", "refresh").
			Add("a", "add user").
			Add("↑/↓", "move").
			Add("L", "log").
			Render(lv.Theme))
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
