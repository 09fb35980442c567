package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterView records what reaches it.
type counterView struct {
	Base
	name string
	keys []string
	msgs int
}

func (c *counterView) Update(msg tea.Msg) (View, tea.Cmd) {
	c.msgs++
	if k, ok := msg.(tea.KeyMsg); ok {
		c.keys = append(c.keys, k.String())
	}
	return c, nil
}
func (c *counterView) View() string       { return c.name }
func (c *counterView) KeyMap() string     { return "" }
func (c *counterView) Breadcrumb() string { return c.name }

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers msg and resolves view changes the way the program would.
func send(r *Root, msg tea.Msg) tea.Cmd {
	_, cmd := r.Update(msg)
	if cmd == nil {
		return nil
	}
	switch m := cmd().(type) {
	case pushViewMsg, alertMsg:
		return send(r, m)
	}
	return cmd
}

func TestRootPushAndPop(t *testing.T) {
	list := &counterView{name: "users"}
	r := NewRoot(DarkTheme, NewUILogger(), list)
	send(r, tea.WindowSizeMsg{Width: 80, Height: 25})
	assert.Equal(t, 24, list.Height)

	send(r, key("L"))
	require.Len(t, r.stack, 2)
	assert.IsType(t, &LogView{}, r.top())
	assert.Contains(t, r.View(), "users ⟩ log")

	send(r, key("L"))
	assert.Len(t, r.stack, 1)
}

func TestRootQuitOnlyFromBottomView(t *testing.T) {
	r := NewRoot(DarkTheme, NewUILogger(), &counterView{name: "users"})
	send(r, PushAlert("loading", errors.New("boom"))())
	require.Len(t, r.stack, 2)

	// q closes the alert instead of quitting
	send(r, key("q"))
	assert.Len(t, r.stack, 1)
	assert.False(t, r.quitting)

	_, cmd := r.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, r.quitting)
}

func TestRootAlertReplacesAlert(t *testing.T) {
	r := NewRoot(DarkTheme, nil, &counterView{name: "users"})
	send(r, NewAlert("first", errors.New("a")))
	send(r, NewAlert("second", errors.New("b")))
	require.Len(t, r.stack, 2)
	assert.Equal(t, "second", r.top().(*AlertView).Title)
}

func TestRootForwardsNonKeyMessagesToCoveredList(t *testing.T) {
	list := &counterView{name: "users"}
	r := NewRoot(DarkTheme, NewUILogger(), list)
	send(r, key("L"))

	before := list.msgs
	r.Update(TickMsg{})
	assert.Equal(t, before+1, list.msgs)

	send(r, key("x"))
	assert.NotContains(t, list.keys, "x")
}

func TestRootWithoutLoggerIgnoresLogKey(t *testing.T) {
	list := &counterView{name: "users"}
	r := NewRoot(DarkTheme, nil, list)
	send(r, key("L"))
	assert.Len(t, r.stack, 1)
	assert.Contains(t, list.keys, "L")
}

func TestUILoggerMirrorsZerologEvents(t *testing.T) {
	l := NewUILogger()
	logger := zerolog.New(l).With().Str("component", "source").Logger()

	logger.Debug().Msg("dropped")
	logger.Info().Msg("Users loaded")
	logger.Error().Err(errors.New("timeout")).Msg("Cannot fetch users")

	msgs := l.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, LogLevelInfo, msgs[0].Level)
	assert.Equal(t, "source", msgs[0].Source)
	assert.Equal(t, LogLevelError, msgs[1].Level)
	assert.Equal(t, "Cannot fetch users: timeout", msgs[1].Text)

	info, warn, errs := l.unread()
	assert.Equal(t, [3]int{1, 0, 1}, [3]int{info, warn, errs})
	l.markRead()
	info, warn, errs = l.unread()
	assert.Zero(t, info+warn+errs)
}

func TestUILoggerKeepsBoundedHistory(t *testing.T) {
	l := NewUILogger()
	for i := 0; i < maxLogLines+5; i++ {
		l.Infof("test", "line %d", i)
	}
	msgs := l.Messages()
	require.Len(t, msgs, maxLogLines)
	assert.Equal(t, "line 5", msgs[0].Text)
}

func TestLogViewLevelFilter(t *testing.T) {
	l := NewUILogger()
	l.Infof("app", "hello")
	l.Warningf("controller", "duplicate")
	l.Errorf("source", "offline")

	lv := NewLogView(l)
	lv.SetTheme(DarkTheme)
	lv.SetSize(80, 20)
	assert.Equal(t, 3, lv.shown)

	lv.Update(key("w"))
	assert.Equal(t, 2, lv.shown)
	lv.Update(key("w"))
	assert.Equal(t, 1, lv.shown)
	assert.Contains(t, lv.View(), "offline")
	lv.Update(key("w"))
	assert.Equal(t, 3, lv.shown)

	_, cmd := lv.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, Pop, cmd().(pushViewMsg).pushType)
}
