package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loog-project/rulist/internal/controller"
	"github.com/loog-project/rulist/internal/filter"
	"github.com/loog-project/rulist/internal/user"
)

// runHeadless loads the first page without a TUI and prints it.
func runHeadless(ctrl *controller.Controller, f *filter.Filter, out io.Writer) error {
	drain(ctrl, ctrl.LoadInitial())

	state := ctrl.State()
	if state.LastError != nil {
		return fmt.Errorf("loading users: %w", state.LastError)
	}

	users := make([]user.Record, 0, len(state.Users))
	for _, r := range state.Users {
		if f.MatchAll() {
			users = append(users, r)
			continue
		}
		pass, err := f.Match(r)
		if err != nil {
			return fmt.Errorf("evaluating filter for user %s: %w", r.ID, err)
		}
		if pass {
			users = append(users, r)
		}
	}

	_, err := fmt.Fprintln(out, renderUsersTable(users))
	return err
}

// drain runs cmd synchronously and feeds its messages back into the
// controller until no follow-up is left. It stands in for the bubbletea
// event loop when there is no program.
func drain(ctrl *controller.Controller, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(ctrl, c)
		}
	default:
		if handled, next := ctrl.Update(msg); handled {
			drain(ctrl, next)
		}
	}
}
