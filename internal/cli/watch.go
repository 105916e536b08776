package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/db"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

const alertPollInterval = 2 * time.Second

// watchTheme holds the color scheme for the alert watch display.
type watchTheme struct {
	Pending  lipgloss.Color
	Resolved lipgloss.Color
	High     lipgloss.Color
	Hint     lipgloss.Color
}

var defaultWatchTheme = watchTheme{
	Pending:  lipgloss.Color("#FFAF00"), // amber
	Resolved: lipgloss.Color("#00D787"), // green
	High:     lipgloss.Color("#FF005F"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
}

func (t watchTheme) pendingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Pending).Bold(true)
}

func (t watchTheme) resolvedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Resolved)
}

func (t watchTheme) highStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.High).Bold(true)
}

func (t watchTheme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// alertTickMsg triggers polling the alert queue.
type alertTickMsg time.Time

// alertsUpdateMsg carries the refreshed queue.
type alertsUpdateMsg struct {
	alerts []models.EscalationAlert
	err    error
}

// watchModel is the bubbletea model for the alert queue view.
type watchModel struct {
	db       *db.Client
	alerts   []models.EscalationAlert
	progress progress.Model
	theme    watchTheme
	err      error
	loaded   bool
}

func newWatchModel(client *db.Client) watchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return watchModel{
		db:       client,
		progress: prog,
		theme:    defaultWatchTheme,
	}
}

// Init returns the initial command (start polling immediately).
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchAlerts(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case alertTickMsg:
		return m, m.fetchAlerts()

	case alertsUpdateMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.alerts = msg.alerts
		m.loaded = true
		return m, alertTickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the queue with a resolution-rate bar.
func (m watchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m watchModel) renderContent() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if !m.loaded {
		return "Loading alert queue...\n"
	}

	var pending, resolved int
	for _, a := range m.alerts {
		if a.Status == models.AlertStatusResolved {
			resolved++
		} else {
			pending++
		}
	}

	var rate float64
	if len(m.alerts) > 0 {
		rate = float64(resolved) / float64(len(m.alerts))
	}

	out := fmt.Sprintf("Escalation queue: %s pending, %s resolved\n",
		m.theme.pendingStyle().Render(fmt.Sprintf("%d", pending)),
		m.theme.resolvedStyle().Render(fmt.Sprintf("%d", resolved)))
	out += fmt.Sprintf("Resolution rate %s %.0f%%\n\n", m.progress.ViewAs(rate), rate*100)

	shown := 0
	for _, a := range m.alerts {
		if a.Status != models.AlertStatusPending {
			continue
		}
		if shown >= 10 {
			out += m.theme.hintStyle().Render(fmt.Sprintf("  ... and %d more pending\n", pending-shown))
			break
		}
		priority := a.Priority
		if priority == models.AlertPriorityHigh {
			priority = m.theme.highStyle().Render(priority)
		}
		out += fmt.Sprintf("  %s [%s] user %s: %s\n", a.AlertID, priority, a.UserID, a.Reason)
		shown++
	}
	if pending == 0 {
		out += m.theme.resolvedStyle().Render("  Queue is clear.\n")
	}

	out += "\n" + m.theme.hintStyle().Render("Press q to quit")
	return out
}

// fetchAlerts polls the queue in a command goroutine to keep Update()
// non-blocking.
func (m watchModel) fetchAlerts() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		alerts, err := m.db.ListAlerts(ctx, "")
		return alertsUpdateMsg{alerts: alerts, err: err}
	}
}

func alertTickCmd() tea.Cmd {
	return tea.Tick(alertPollInterval, func(t time.Time) tea.Msg {
		return alertTickMsg(t)
	})
}

// watchAlerts runs the interactive alert queue UI.
func watchAlerts(client *db.Client) error {
	p := tea.NewProgram(newWatchModel(client))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("watch UI error: %w", err)
	}
	if m, ok := finalModel.(watchModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
