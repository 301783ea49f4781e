package tui

import tea "github.com/charmbracelet/bubbletea"

// Page represents a top-level screen in the TUI (dashboard, timeline).
type Page interface {
	ID() string
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Cmd, *PageNav)
	View(width, height int) string
}

// PageNav is returned from Update to request a page switch.
type PageNav struct {
	PageID string
}

// NextPage asks the App to cycle to the page after the active one.
const NextPage = "__next__"

// Page IDs.
const (
	PageDashboard = "dashboard"
	PageTimeline  = "timeline"
)

// DashboardPage renders the live deployment view.
type DashboardPage struct {
	m *DashboardModel
}

// NewDashboardPage wraps a DashboardModel as the dashboard page.
func NewDashboardPage(m *DashboardModel) *DashboardPage {
	return &DashboardPage{m: m}
}

func (p *DashboardPage) ID() string    { return PageDashboard }
func (p *DashboardPage) Init() tea.Cmd { return p.m.Init() }

func (p *DashboardPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	return p.m.update(msg)
}

func (p *DashboardPage) View(width, height int) string {
	return p.m.renderDashboard(width, height)
}

// TimelinePage lists every milestone with the current and selected rows marked.
type TimelinePage struct {
	m *DashboardModel
}

// NewTimelinePage wraps a DashboardModel as the timeline page. It shares
// state with the dashboard page built from the same model.
func NewTimelinePage(m *DashboardModel) *TimelinePage {
	return &TimelinePage{m: m}
}

func (p *TimelinePage) ID() string    { return PageTimeline }
func (p *TimelinePage) Init() tea.Cmd { return p.m.Init() }

func (p *TimelinePage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	return p.m.update(msg)
}

func (p *TimelinePage) View(width, height int) string {
	return p.m.renderTimeline(width, height)
}
