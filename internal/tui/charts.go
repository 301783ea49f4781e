package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/unfold/internal/deploy"
)

const fractionsChartHeight = 6

// renderFractionsPanel draws one bar per subsystem showing how far it has
// deployed, with a legend of exact percentages beside it.
func renderFractionsPanel(fractions []deploy.SubsystemFraction, width int) string {
	style := sectionStyle.Width(max(width-2, 20))
	title := chartTitleStyle.Render("Subsystems")
	if len(fractions) == 0 {
		return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, helpStyle.Render("No data available")))
	}

	legendWidth := 26
	chartWidth := max(len(fractions)*3, width-legendWidth-6)
	barWidth := max((chartWidth-(len(fractions)-1))/len(fractions), 1)

	bc := barchart.New(chartWidth, fractionsChartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(barWidth),
		barchart.WithNoAxis(),
		barchart.WithMaxValue(1),
	)
	for i, f := range fractions {
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: string(f.Subsystem), Value: f.Fraction, Style: subsystemStyle(i)},
			},
		})
	}
	bc.Draw()

	legend := renderFractionsLegend(fractions)
	body := lipgloss.JoinHorizontal(lipgloss.Top, bc.View(), "  ", legend)
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func renderFractionsLegend(fractions []deploy.SubsystemFraction) string {
	lines := make([]string, 0, len(fractions))
	for i, f := range fractions {
		swatch := subsystemStyle(i).Render("█")
		label := f.Label
		if f.Active {
			label = currentRowStyle.Render(label)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", swatch, label, helpStyle.Render(formatPercent(f.Fraction))))
	}
	return strings.Join(lines, "\n")
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%3.0f%%", f*100)
}
