package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fpsboost/fpsboost/internal/booster"
)

// Booster is the part of the engine the shell drives.
type Booster interface {
	Start() bool
	Stop() int
	Running() bool
	SetTurbo(on bool)
	Turbo() bool
	SetStatusHandler(fn booster.StatusHandler)
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1a1a1a")).Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var boxStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(1, 2)

var messageStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("229")).
	Background(lipgloss.Color("57")).
	Padding(0, 1)

const (
	colorBoosting = "#0f4c1a"
	colorLimited  = "#8a6d00"
	colorIdle     = "#666666"
	colorStopped  = "#999999"
	colorWarming  = "#555555"
)

type statusMsg booster.Status

type startedMsg struct{ started bool }

type stoppedMsg struct{ restored int }

type tuiModel struct {
	engine      Booster
	status      booster.Status
	ready       bool
	running     bool
	turbo       bool
	busy        bool
	message     string
	messageTime time.Time
	width       int
}

func initialModel(engine Booster) tuiModel {
	return tuiModel{
		engine: engine,
		ready:  true,
		status: booster.Status{
			Headline: "Ready",
			Detail:   "Press s to enable live fullscreen detection and performance tuning.",
			Phase:    booster.PhaseStopped,
		},
		running: engine.Running(),
		turbo:   engine.Turbo(),
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) start() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		return startedMsg{started: engine.Start()}
	}
}

// stop runs off the event loop: Stop waits for the monitoring goroutine,
// which may itself be delivering a status to this program.
func (m tuiModel) stop() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		return stoppedMsg{restored: engine.Stop()}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case statusMsg:
		m.status = booster.Status(msg)
		m.ready = false
		return m, nil

	case startedMsg:
		m.busy = false
		m.running = m.engine.Running()
		return m, nil

	case stoppedMsg:
		m.busy = false
		m.running = m.engine.Running()
		m.message = fmt.Sprintf("Restored %d process(es)", msg.restored)
		m.messageTime = time.Now()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s", "enter":
			if m.running || m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.start()
		case "x":
			if !m.running || m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.stop()
		case "t":
			m.turbo = !m.turbo
			m.engine.SetTurbo(m.turbo)
			return m, nil
		}
	}
	return m, nil
}

func statusColor(s booster.Status, ready bool) lipgloss.Color {
	if ready {
		return lipgloss.Color(colorIdle)
	}
	switch s.Phase {
	case booster.PhaseWarming:
		return lipgloss.Color(colorWarming)
	case booster.PhaseStopped:
		return lipgloss.Color(colorStopped)
	}
	switch s.Severity {
	case booster.SeverityBoosting:
		return lipgloss.Color(colorBoosting)
	case booster.SeverityPermissionLimited:
		return lipgloss.Color(colorLimited)
	}
	return lipgloss.Color(colorIdle)
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("FPS Booster Pro") + "\n")
	b.WriteString(subtitleStyle.Render("High-performance boosts for any fullscreen app to reduce choppy gameplay") + "\n\n")

	status := lipgloss.NewStyle().Foreground(statusColor(m.status, m.ready)).Bold(true).Render(m.status.Headline)
	body := status + "\n" + detailStyle.Render(m.status.Detail)
	box := boxStyle
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	b.WriteString(box.Render(body) + "\n\n")

	check := "[ ]"
	if m.turbo {
		check = "[x]"
	}
	b.WriteString(fmt.Sprintf("%s Turbo mode (maximum boost, may affect multitasking)\n", check))

	state := "stopped"
	if m.running {
		state = "running"
	}
	if m.busy {
		state += "..."
	}
	b.WriteString(helpStyle.Render("Booster: "+state) + "\n")

	if m.message != "" && time.Since(m.messageTime) < 3*time.Second {
		b.WriteString("\n" + messageStyle.Render(m.message) + "\n")
	}

	b.WriteString(helpStyle.Render("\n  s: start • x: stop • t: turbo • q: quit") + "\n")
	return b.String()
}

// Run shows the shell until the user quits, then stops the engine.
func Run(engine Booster) error {
	p := tea.NewProgram(initialModel(engine), tea.WithAltScreen())
	engine.SetStatusHandler(func(s booster.Status) {
		p.Send(statusMsg(s))
	})

	_, err := p.Run()

	engine.SetStatusHandler(nil)
	engine.Stop()
	return err
}
