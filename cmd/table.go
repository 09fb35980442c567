package cmd

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/loog-project/rulist/internal/store"
	"github.com/loog-project/rulist/internal/user"
)

var (
	gray      = lipgloss.Color("245")
	lightGray = lipgloss.Color("241")
	purple    = lipgloss.Color("99")
	red       = lipgloss.Color("1")

	HeaderStyle = lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center)
	CellStyle = lipgloss.NewStyle().
			Padding(0, 1)
	OddRowStyle = CellStyle.
			Foreground(gray)
	EvenRowStyle = CellStyle.
			Foreground(lightGray)

	FailedStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)
)

func tableStyleFunc(row, _ int) lipgloss.Style {
	switch {
	case row == table.HeaderRow:
		return HeaderStyle
	case row%2 == 0:
		return EvenRowStyle
	default:
		return OddRowStyle
	}
}

func renderUsersTable(users []user.Record) string {
	t := table.New().StyleFunc(tableStyleFunc)
	t.Headers("#", "ID", "First Name", "Last Name", "Avatar")
	for i, u := range users {
		t.Row(strconv.Itoa(i+1), u.ID.String(), u.FirstName, u.LastName, u.AvatarURL)
	}
	return t.Render()
}

func renderBatchesTable(batches []*store.Batch, now time.Time) string {
	t := table.New().StyleFunc(tableStyleFunc)
	t.Headers("Batch", "Op", "When", "Requested", "Received", "Error")
	for _, b := range batches {
		requested := "1"
		if b.Requested > 0 {
			requested = strconv.Itoa(b.Requested)
		}
		errStr := ""
		if b.Failed() {
			errStr = FailedStyle.Render(b.Error)
		}
		t.Row(
			b.ID.String(),
			b.Op,
			humanize.RelTime(b.Time, now, "ago", "from now"),
			requested,
			strconv.Itoa(len(b.Users)),
			errStr,
		)
	}
	return t.Render()
}
