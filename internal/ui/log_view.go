package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var levelBadges = map[LogLevel]lipgloss.Style{
	LogLevelInfo: lipgloss.NewStyle().
		Foreground(ColorBrightBlue).
		Padding(0, 1),
	LogLevelWarning: lipgloss.NewStyle().
		Background(ColorOrange).
		Foreground(ColorBlack).
		Padding(0, 1),
	LogLevelError: lipgloss.NewStyle().
		Background(ColorRed).
		Foreground(ColorWhite).
		Bold(true).
		Padding(0, 1),
}

var levelNames = map[LogLevel]string{
	LogLevelInfo:    "INFO ",
	LogLevelWarning: "WARN ",
	LogLevelError:   "ERROR",
}

// LogView lists the lines collected by a UILogger, newest at the bottom.
type LogView struct {
	Base

	logger   *UILogger
	viewport viewport.Model

	minLevel   LogLevel
	shown      int
	autoscroll bool
}

var _ View = (*LogView)(nil)

func NewLogView(logger *UILogger) *LogView {
	lv := &LogView{
		logger:     logger,
		viewport:   viewport.New(10, 10),
		autoscroll: true,
	}
	lv.reload()
	return lv
}

func (lv *LogView) SetSize(width, height int) {
	lv.Base.SetSize(width, height)
	// title line, empty line and the border take 4 rows, the border 2 columns
	lv.viewport.Width = max(width-2, 1)
	lv.viewport.Height = max(height-4, 1)
	lv.follow()
}

func (lv *LogView) Breadcrumb() string {
	return "log"
}

// reload renders all lines at or above minLevel and marks them as read.
func (lv *LogView) reload() {
	var b strings.Builder
	lv.shown = 0
	for _, msg := range lv.logger.Messages() {
		if msg.Level < lv.minLevel {
			continue
		}
		if lv.shown > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %-10s %s",
			msg.Time.Format("15:04:05"),
			renderLevel(msg.Level),
			msg.Source,
			msg.Text)
		lv.shown++
	}
	lv.viewport.SetContent(b.String())
	lv.logger.markRead()
	lv.follow()
}

func (lv *LogView) follow() {
	if lv.autoscroll {
		lv.viewport.GotoBottom()
	}
}

func (lv *LogView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch v := msg.(type) {
	case LogMsg:
		lv.reload()
	case tea.KeyMsg:
		switch v.String() {
		case "q", "esc":
			return lv, PushChangeView(Pop, nil)
		case "s":
			lv.autoscroll = !lv.autoscroll
			lv.follow()
		case "w":
			// cycle between everything, warnings and errors only
			lv.minLevel = (lv.minLevel + 1) % (LogLevelError + 1)
			lv.reload()
		default:
			return lv, ScrollViewport(v, &lv.viewport)
		}
	}
	return lv, nil
}

func (lv *LogView) View() string {
	return fmt.Sprintf("Log: %d lines, %s and above, autoscroll %s\n\n%s",
		lv.shown,
		strings.TrimSpace(levelNames[lv.minLevel]),
		ternary(lv.autoscroll, "on", "off"),
		lv.Theme.BorderIdleContainerStyle.Render(lv.viewport.View()))
}

func (lv *LogView) KeyMap() string {
	return NewShortcuts(
		"q/esc", "back",
		"s", "autoscroll",
		"w", "min level",
		"↑/↓/pgup/pgdn", "scroll",
	).Render(lv.Theme)
}

func renderLevel(level LogLevel) string {
	style, ok := levelBadges[level]
	if !ok {
		return "?"
	}
	return style.Render(levelNames[level])
}
