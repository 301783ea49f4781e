package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy   = lipgloss.Color("#1B2A41")
	ColorBlue   = lipgloss.Color("#4C9AFF")
	ColorGold   = lipgloss.Color("#E8B04A")
	ColorGreen  = lipgloss.Color("#44CC77")
	ColorYellow = lipgloss.Color("#FFAA00")
	ColorRed    = lipgloss.Color("#FF6666")
	ColorGray   = lipgloss.Color("#7A869A")
	ColorWhite  = lipgloss.Color("#F4F5F7")
)

var (
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorNavy).
			Padding(0, 1)

	activeSectionStyle = sectionStyle.
				BorderForeground(ColorBlue)

	titleStyle = lipgloss.NewStyle().
			Foreground(ColorGold).
			Bold(true)

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorNavy).
				Background(ColorBlue)

	currentRowStyle = lipgloss.NewStyle().
			Foreground(ColorGold).
			Bold(true)

	pastRowStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	futureRowStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

// subsystemStyles colours each subsystem's bar in the fraction chart.
var subsystemStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Background(lipgloss.Color("39")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Background(lipgloss.Color("208")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Background(lipgloss.Color("220")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Background(lipgloss.Color("201")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("48")).Background(lipgloss.Color("48")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Background(lipgloss.Color("141")),
}

func subsystemStyle(i int) lipgloss.Style {
	return subsystemStyles[i%len(subsystemStyles)]
}
