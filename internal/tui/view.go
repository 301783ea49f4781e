package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

const (
	minContentWidth = 40
	defaultWidth    = 100
)

func contentWidth(width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	return max(width-2, minContentWidth)
}

func (m *DashboardModel) renderDashboard(width, height int) string {
	if !m.hasSnap {
		return renderLoadingPlaceholder(max(width, minContentWidth), max(height, 3), m.currentError())
	}
	w := contentWidth(width)

	sections := []string{
		m.renderHeader(w),
		m.renderProgress(w),
		m.renderEvent(w),
	}
	chartWidth := w / 2
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
		renderFractionsPanel(m.snap.Fractions, chartWidth),
		renderStatePanel(m.snap.State, w-chartWidth),
	))
	sections = append(sections, m.renderStatusBar(w), helpStyle.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *DashboardModel) renderHeader(width int) string {
	title := titleStyle.Render("unfold") + helpStyle.Render("  observatory deployment")
	page := helpStyle.Render("[dashboard]")
	gap := width - lipgloss.Width(title) - lipgloss.Width(page)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + page
}

func (m *DashboardModel) renderProgress(width int) string {
	pb := m.snap.Playback
	m.progress.Width = max(width-12, 10)
	bar := m.progress.ViewAs(pb.OverallProgress)
	return fmt.Sprintf("%s %6.2f%%", bar, pb.OverallProgress*100)
}

func (m *DashboardModel) renderEvent(width int) string {
	ev := m.snap.Event
	heading := fmt.Sprintf("Day %d %s  %s", ev.Day, ev.Time, ev.Label)
	counter := fmt.Sprintf("%d/%d", m.snap.EventIndex+1, m.snap.EventCount)
	body := lipgloss.JoinVertical(lipgloss.Left,
		chartTitleStyle.Render(heading)+"  "+helpStyle.Render(counter),
		lipgloss.NewStyle().Width(width-4).Render(ev.Description),
		helpStyle.Render("stage: "+string(m.snap.State.Stage)),
	)
	return activeSectionStyle.Width(width - 2).Render(body)
}

func (m *DashboardModel) renderStatusBar(width int) string {
	pb := m.snap.Playback
	left := fmt.Sprintf(" %s  %sx", runStateLabel(pb.RunState), formatSpeed(pb.SpeedMultiplier))
	right := m.dataSource + " "
	if errText := m.currentError(); errText != "" {
		right = errorStyle.Background(ColorNavy).Render(errText) + statusBarStyle.Render("  "+right)
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return statusBarStyle.Render(left+strings.Repeat(" ", gap)) + statusBarStyle.Render(right)
}

func runStateLabel(s model.RunState) string {
	switch s {
	case model.Playing:
		return "▶ playing"
	case model.Paused:
		return "⏸ paused"
	default:
		return "■ stopped"
	}
}

// formatSpeed rounds half away from zero to two decimals.
func formatSpeed(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// renderStatePanel prints the evaluated mechanical state as a readout.
func renderStatePanel(s deploy.State, width int) string {
	layers := make([]string, len(s.SunshieldLayerOffsets))
	for i, off := range s.SunshieldLayerOffsets {
		layers[i] = fmt.Sprintf("%.3f", off)
	}
	lines := []string{
		chartTitleStyle.Render("Mechanical state"),
		fmt.Sprintf("solar array     %7.2f°", s.SolarArrayAngle),
		fmt.Sprintf("sunshield       %s", strings.Join(layers, " ")),
		fmt.Sprintf("tension         %7.3f", s.SunshieldTension),
		fmt.Sprintf("secondary       %7.3f", s.SecondaryMirrorExtension),
		fmt.Sprintf("wings           %7.2f° %7.2f°", s.MirrorWingRotations[0], s.MirrorWingRotations[1]),
	}
	return sectionStyle.Width(max(width-2, 20)).Render(strings.Join(lines, "\n"))
}

func (m *DashboardModel) renderTimeline(width, height int) string {
	w := contentWidth(width)
	if len(m.timeline) == 0 {
		return renderLoadingPlaceholder(max(width, minContentWidth), max(height, 3), m.currentError())
	}

	header := titleStyle.Render("unfold") + helpStyle.Render("  milestones")
	rows := make([]string, 0, len(m.timeline))
	for i, ev := range m.timeline {
		marker := "  "
		if m.hasSnap && i == m.snap.EventIndex {
			marker = "▶ "
		}
		line := fmt.Sprintf("%s%2d  Day %2d %s  %-34s %s", marker, i+1, ev.Day, ev.Time, ev.Label, ev.Stage)
		rows = append(rows, m.timelineRowStyle(i).Width(w-4).Render(line))
	}

	// Keep the selected row visible on short terminals.
	visible := len(rows)
	if height > 0 {
		visible = max(height-6, 3)
	}
	start := 0
	if len(rows) > visible {
		start = min(max(m.selected-visible/2, 0), len(rows)-visible)
		rows = rows[start : start+visible]
	}

	list := activeSectionStyle.Width(w - 2).Render(strings.Join(rows, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		list,
		m.renderStatusBarOrEmpty(w),
		helpStyle.Render(m.help.View(m.keys)),
	)
}

func (m *DashboardModel) timelineRowStyle(i int) lipgloss.Style {
	switch {
	case i == m.selected:
		return selectedRowStyle
	case m.hasSnap && i == m.snap.EventIndex:
		return currentRowStyle
	case m.hasSnap && i < m.snap.EventIndex:
		return pastRowStyle
	default:
		return futureRowStyle
	}
}

func (m *DashboardModel) renderStatusBarOrEmpty(width int) string {
	if !m.hasSnap {
		return ""
	}
	return m.renderStatusBar(width)
}

func renderLoadingPlaceholder(width, height int, errText string) string {
	text := helpStyle.Italic(true).Render("Connecting to engine...")
	if errText != "" {
		text = errorStyle.Render(errText)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, text)
}
