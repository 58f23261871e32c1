package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fenilmodi00/market-backend/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#9CA3AF"))

	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	flatStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	priceStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9FAFB"))
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

type keyMap struct {
	Quit  key.Binding
	Clear key.Binding
}

var keys = keyMap{
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Clear: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear history")),
}

type tickMsg models.TickSnapshot

type streamClosedMsg struct {
	err error
}

type watchModel struct {
	url         string
	historySize int

	ticks     <-chan models.TickSnapshot
	streamErr <-chan error

	history  []models.TickSnapshot
	received int
	closed   error
}

func newWatchModel(url string, historySize int, ticks <-chan models.TickSnapshot, streamErr <-chan error) *watchModel {
	if historySize <= 0 {
		historySize = 10
	}
	return &watchModel{
		url:         url,
		historySize: historySize,
		ticks:       ticks,
		streamErr:   streamErr,
	}
}

func (m *watchModel) Init() tea.Cmd {
	return m.waitForTick()
}

// waitForTick blocks until the next snapshot or the end of the stream
func (m *watchModel) waitForTick() tea.Cmd {
	return func() tea.Msg {
		select {
		case tick := <-m.ticks:
			return tickMsg(tick)
		case err := <-m.streamErr:
			return streamClosedMsg{err: err}
		}
	}
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Clear):
			m.history = nil
		}

	case tickMsg:
		m.received++
		// Newest first
		m.history = append([]models.TickSnapshot{models.TickSnapshot(msg)}, m.history...)
		if len(m.history) > m.historySize {
			m.history = m.history[:m.historySize]
		}
		return m, m.waitForTick()

	case streamClosedMsg:
		m.closed = msg.err
	}

	return m, nil
}

func (m *watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Market Stream"))
	b.WriteString(" ")
	b.WriteString(sourceStyle.Render(m.url))
	b.WriteString("\n")
	b.WriteString(counterStyle.Render(fmt.Sprintf("%d ticks received", m.received)))
	b.WriteString("\n")

	var rows strings.Builder
	rows.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %-14s %12s %10s", "TIME", "SYMBOL", "PRICE", "CHANGE")))
	for i, tick := range m.history {
		var previous *models.TickSnapshot
		if i+1 < len(m.history) {
			previous = &m.history[i+1]
		}
		rows.WriteString("\n")
		rows.WriteString(fmt.Sprintf("%-10s %-14s ", tick.Timestamp.Local().Format("15:04:05"), tick.Symbol))
		rows.WriteString(priceStyle.Render(fmt.Sprintf("%12.2f", tick.Price)))
		rows.WriteString(" ")
		rows.WriteString(renderChange(previous, tick))
	}
	if len(m.history) == 0 {
		rows.WriteString("\n")
		rows.WriteString(flatStyle.Render("waiting for ticks..."))
	}
	b.WriteString(panelStyle.Render(rows.String()))
	b.WriteString("\n")

	if m.closed != nil {
		b.WriteString(errorStyle.Render("stream closed: " + m.closed.Error()))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(fmt.Sprintf("%s %s • %s %s",
		keys.Quit.Help().Key, keys.Quit.Help().Desc,
		keys.Clear.Help().Key, keys.Clear.Help().Desc)))
	return b.String()
}

// renderChange colors the move from the previous tick of the same symbol
func renderChange(previous *models.TickSnapshot, current models.TickSnapshot) string {
	if previous == nil || previous.Symbol != current.Symbol {
		return flatStyle.Render(fmt.Sprintf("%10s", "-"))
	}

	delta := current.Price - previous.Price
	text := fmt.Sprintf("%+10.2f", delta)
	switch {
	case delta > 0:
		return upStyle.Render(text)
	case delta < 0:
		return downStyle.Render(text)
	default:
		return flatStyle.Render(text)
	}
}
