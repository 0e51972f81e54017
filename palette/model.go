package palette

import (
	"context"
	"fmt"
	"strings"

	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var groupLabels = map[string]string{
	services.SearchResultPatient:     "Patients",
	services.SearchResultVisit:       "Visits",
	services.SearchResultAppointment: "Appointments",
}

// Model is the terminal front end: a Ctrl+K search palette over the coordinator
// and a notification dropdown over the live feed.
type Model struct {
	coordinator *services.SearchCoordinator
	feed        *services.NotificationFeed
	events      *Events
	keys        KeyMap
	ctx         context.Context

	clinicName string
	input      textinput.Model
	cursor     int

	showNotifications bool
	noteCursor        int

	route  string
	width  int
	height int
}

// New creates the palette. ctx bounds the feed calls issued from key presses.
func New(ctx context.Context, coordinator *services.SearchCoordinator, feed *services.NotificationFeed, events *Events, clinicName string) Model {
	ti := textinput.New()
	ti.Placeholder = "Search patients, visits, appointments"
	ti.Prompt = "> "
	ti.CharLimit = 100

	return Model{
		coordinator: coordinator,
		feed:        feed,
		events:      events,
		keys:        DefaultKeyMap(),
		ctx:         ctx,
		clinicName:  clinicName,
		input:       ti,
		width:       80,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return m.events.wait()
}

// Route is the last page navigated to
func (m Model) Route() string {
	return m.route
}

// Update handles messages for the palette.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 8
		return m, nil

	case searchChangedMsg:
		state := services.SearchState(msg)
		if state.Query == "" && m.input.Value() != "" {
			m.input.Reset()
		}
		if m.cursor >= len(state.Results) {
			m.cursor = 0
		}
		return m, m.events.wait()

	case feedChangedMsg:
		if n := len(m.feed.Notifications()); m.noteCursor >= n {
			m.noteCursor = max(0, n-1)
		}
		return m, m.events.wait()

	case NavigateMsg:
		m.route = string(msg)
		m.showNotifications = false
		return m, m.events.wait()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// global shortcuts come first and are consumed
	wasOpen := m.coordinator.IsOpen()
	if m.coordinator.HandleKey(msg) {
		if m.coordinator.IsOpen() && !wasOpen {
			m.showNotifications = false
			m.cursor = 0
			return m, m.input.Focus()
		}
		m.input.Blur()
		return m, nil
	}

	if m.coordinator.IsOpen() {
		return m.updateSearch(msg)
	}
	if key.Matches(msg, m.keys.Notifications) {
		m.showNotifications = !m.showNotifications
		m.noteCursor = 0
		return m, nil
	}
	if m.showNotifications {
		return m.updateNotifications(msg)
	}
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.coordinator.State().Results

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(results)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(results) {
			selected := results[m.cursor]
			m.input.Reset()
			m.input.Blur()
			m.cursor = 0
			coordinator := m.coordinator
			return m, func() tea.Msg {
				coordinator.Select(selected)
				return nil
			}
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.cursor = 0
		m.coordinator.SetQuery(value)
	}
	return m, cmd
}

func (m Model) updateNotifications(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.feed.Notifications()
	feed, ctx := m.feed, m.ctx

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.noteCursor < len(items)-1 {
			m.noteCursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.noteCursor > 0 {
			m.noteCursor--
		}
	case key.Matches(msg, m.keys.Select):
		if m.noteCursor < len(items) {
			n := items[m.noteCursor]
			return m, func() tea.Msg {
				feed.Select(ctx, n)
				return nil
			}
		}
	case key.Matches(msg, m.keys.MarkAllRead):
		return m, func() tea.Msg {
			feed.MarkAllRead(ctx)
			return nil
		}
	case key.Matches(msg, m.keys.Delete):
		if m.noteCursor < len(items) {
			id := items[m.noteCursor].ID
			return m, func() tea.Msg {
				feed.Delete(ctx, id)
				return nil
			}
		}
	case msg.Type == tea.KeyEsc:
		m.showNotifications = false
	}
	return m, nil
}

// View renders the palette.
func (m Model) View() string {
	sections := []string{m.headerView()}

	if m.coordinator.IsOpen() {
		sections = append(sections, m.searchView())
	} else if m.showNotifications {
		sections = append(sections, m.notificationsView())
	}

	status := "ctrl+k search · ctrl+n notifications · q quit"
	if m.route != "" {
		status = "opened " + m.route + " · " + status
	}
	sections = append(sections, statusBarStyle.Width(m.width).Render(status))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	title := "Clinic Flow"
	if m.clinicName != "" {
		title += " · " + m.clinicName
	}
	header := headerStyle.Render(title)

	bell := mutedStyle.Render(" notifications")
	if label := services.BadgeLabel(m.feed.UnreadCount()); label != "" {
		bell += " " + badgeStyle.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, header, bell)
}

func (m Model) searchView() string {
	state := m.coordinator.State()
	lines := []string{m.input.View()}

	switch {
	case m.clinicName == "":
		lines = append(lines, mutedStyle.Render("No clinic is associated with this account"))
	case state.Loading:
		lines = append(lines, mutedStyle.Render("Searching..."))
	case state.NoMatches():
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("No results for %q", strings.TrimSpace(state.Query))))
	}

	lastGroup := ""
	for i, r := range state.Results {
		if r.Type != lastGroup {
			lines = append(lines, groupStyle.Render(groupLabels[r.Type]))
			lastGroup = r.Type
		}
		line := "  " + r.Title
		if r.Subtitle != "" {
			line += mutedStyle.Render("  " + r.Subtitle)
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	return panelStyle.Width(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
}

func (m Model) notificationsView() string {
	items := m.feed.Notifications()
	lines := []string{groupStyle.Render("Notifications") + mutedStyle.Render("  a mark all read · d delete")}

	switch {
	case m.feed.Loading():
		lines = append(lines, mutedStyle.Render("Loading..."))
	case len(items) == 0:
		lines = append(lines, mutedStyle.Render("No notifications"))
	}

	for i, n := range items {
		lines = append(lines, notificationLine(n, i == m.noteCursor))
	}
	lines = append(lines, mutedStyle.Render("View all: "+services.RouteNotifications))

	return panelStyle.Width(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
}

func notificationLine(n models.Notification, selected bool) string {
	marker := "  "
	if !n.IsRead {
		marker = "• "
	}
	line := marker + n.Title
	if n.Message != nil && *n.Message != "" {
		line += mutedStyle.Render("  " + *n.Message)
	}
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}
