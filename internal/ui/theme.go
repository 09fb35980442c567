package ui

import "github.com/charmbracelet/lipgloss"

// Some predefined colors

var (
	ColorRed         = lipgloss.Color("1")
	ColorGreen       = lipgloss.Color("2")
	ColorBlack       = lipgloss.Color("0")
	ColorWhite       = lipgloss.Color("7")
	ColorBrightBlue  = lipgloss.Color("33")
	ColorLightGray   = lipgloss.Color("243")
	ColorGray        = lipgloss.Color("238")
	ColorMutedPurple = lipgloss.Color("92")
	ColorOrange      = lipgloss.Color("214")
)

// AvatarColors are picked per user so the same name always gets the same badge.
var AvatarColors = []lipgloss.Color{
	lipgloss.Color("12"),
	lipgloss.Color("4"),
	lipgloss.Color("13"),
	lipgloss.Color("5"),
	lipgloss.Color("14"),
	lipgloss.Color("6"),
	lipgloss.Color("92"),
	lipgloss.Color("166"),
}

type Theme struct {
	HeadingTextStyle          lipgloss.Style
	ListFirstNameTextStyle    lipgloss.Style
	ListLastNameTextStyle     lipgloss.Style
	ListCurrentArrowTextStyle lipgloss.Style
	ListSeparatorStyle        lipgloss.Style
	AvatarStyle               lipgloss.Style

	FeedbackBannerStyle lipgloss.Style
	SpinnerStyle        lipgloss.Style

	AlertDialogContainerStyle lipgloss.Style
	BorderIdleContainerStyle  lipgloss.Style

	MutedTextStyle   lipgloss.Style
	ErrorTextStyle   lipgloss.Style
	PrimaryTextStyle lipgloss.Style

	BreadcrumbBarStyle lipgloss.Style
	HelpBarStyle       lipgloss.Style
	LoggerBarStyle     lipgloss.Style
}

var DarkTheme = Theme{
	HeadingTextStyle: lipgloss.NewStyle().
		Bold(true).
		MarginBottom(1),
	ListFirstNameTextStyle: lipgloss.NewStyle().
		Bold(true),
	ListLastNameTextStyle: lipgloss.NewStyle().
		Foreground(ColorLightGray),
	ListCurrentArrowTextStyle: lipgloss.NewStyle().
		Foreground(ColorBrightBlue),
	ListSeparatorStyle: lipgloss.NewStyle().
		Foreground(ColorGray),
	AvatarStyle: lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Padding(0, 1),

	FeedbackBannerStyle: lipgloss.NewStyle().
		Background(ColorGreen).
		Foreground(ColorBlack).
		Bold(true).
		Padding(0, 1),
	SpinnerStyle: lipgloss.NewStyle().
		Foreground(ColorOrange),

	AlertDialogContainerStyle: lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ColorRed).
		Padding(2, 4),
	BorderIdleContainerStyle: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorGray),

	MutedTextStyle: lipgloss.NewStyle().
		Foreground(ColorLightGray),
	ErrorTextStyle: lipgloss.NewStyle().
		Foreground(ColorRed).
		Bold(true),
	PrimaryTextStyle: lipgloss.NewStyle().
		Foreground(ColorBrightBlue),

	BreadcrumbBarStyle: lipgloss.NewStyle().
		Padding(0, 1).
		Background(ColorBrightBlue).
		Foreground(ColorWhite),
	HelpBarStyle: lipgloss.NewStyle().
		Padding(0, 1),
	LoggerBarStyle: lipgloss.NewStyle().
		Padding(0, 1).
		Background(ColorOrange).
		Foreground(ColorBlack),
}
