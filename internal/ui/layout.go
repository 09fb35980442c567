package ui

import (
	"fmt"
	"strings"
)

// Layout is the presentation variant of the user list.
type Layout uint8

const (
	// LayoutTrailing renders names first and the avatar at the end of the row.
	LayoutTrailing Layout = iota
	// LayoutLeading renders the avatar first and offsets the heading from the top.
	LayoutLeading
)

func (l Layout) String() string {
	switch l {
	case LayoutTrailing:
		return "trailing"
	case LayoutLeading:
		return "leading"
	default:
		return "unknown"
	}
}

// LayoutNames lists the accepted values for ParseLayout, used for flag completion.
var LayoutNames = []string{"trailing", "leading", "ios", "android"}

// ParseLayout accepts the layout names and their platform aliases.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trailing", "ios":
		return LayoutTrailing, nil
	case "leading", "android":
		return LayoutLeading, nil
	}
	return 0, fmt.Errorf("unknown layout %q, want one of %s", s, strings.Join(LayoutNames, ", "))
}
