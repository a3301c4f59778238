// Package tui provides the Bubble Tea greeting card interface.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/greetcard/internal/card"
	"github.com/verte-zerg/greetcard/internal/schedule"
)

const frameInterval = 50 * time.Millisecond

const imageHint = "To add an image: greetcard image <path or URL>"

type taskMsg struct {
	id int
}

type frameMsg time.Time

// Model implements the Bubble Tea card UI.
type Model struct {
	orch *card.Orchestrator
	keys keyMap
	help help.Model
	now  func() time.Time

	width  int
	height int
	hint   string

	nextTaskID int
	pending    map[int]schedule.Task
	animating  bool
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	bodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	fadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	pageStyle   = lipgloss.NewStyle().
			Padding(1, 3).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	imageStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#ff69b4"))
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	primaryButtonStyle = buttonStyle.BorderForeground(lipgloss.Color("#C89A3A")).Bold(true)
)

// NewModel constructs a card TUI model around orch.
func NewModel(orch *card.Orchestrator) *Model {
	return &Model{
		orch:    orch,
		keys:    defaultKeyMap(),
		help:    help.New(),
		now:     time.Now,
		pending: map[int]schedule.Task{},
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case taskMsg:
		return m, m.runTask(msg.id)
	case frameMsg:
		if m.orch.Confetti().Prune(time.Time(msg)) == 0 {
			m.animating = false
			return m, nil
		}
		return m, frameTick()
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.orch.Close()
		return m, tea.Quit
	}
	m.orch.Interact()
	m.hint = ""
	if key.Matches(msg, m.keys.Image) {
		m.hint = imageHint
		return m, nil
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	switch m.orch.Phase() {
	case card.Intro:
		if key.Matches(msg, m.keys.Start) {
			return m, m.schedule(m.orch.Start())
		}
	case card.Card:
		switch {
		case key.Matches(msg, m.keys.Next):
			_, tasks := m.orch.OnAdvance()
			return m, m.schedule(tasks)
		case key.Matches(msg, m.keys.Back):
			m.orch.OnRetreat()
		}
	}
	return m, nil
}

// schedule turns task descriptors into timer commands.
func (m *Model) schedule(tasks []schedule.Task) tea.Cmd {
	if len(tasks) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(tasks))
	for _, task := range tasks {
		m.nextTaskID++
		id := m.nextTaskID
		m.pending[id] = task
		cmds = append(cmds, tea.Tick(task.Delay, func(time.Time) tea.Msg {
			return taskMsg{id: id}
		}))
	}
	return tea.Batch(cmds...)
}

func (m *Model) runTask(id int) tea.Cmd {
	task, ok := m.pending[id]
	if !ok {
		return nil
	}
	delete(m.pending, id)
	task.Run()
	if m.orch.Phase() == card.Finale && !m.animating && len(m.orch.Confetti().Live()) > 0 {
		m.animating = true
		return frameTick()
	}
	return nil
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.orch.Phase() {
	case card.Intro:
		content = m.renderIntro()
	case card.Card:
		content = m.renderCard()
	default:
		return m.renderFinale()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	footerHeight := lipgloss.Height(footer)
	body := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, footerHeight, lipgloss.Center, lipgloss.Bottom, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderIntro() string {
	title, prompt, button := titleStyle, bodyStyle, primaryButtonStyle
	if m.orch.Leaving() {
		title, prompt = fadingStyle, fadingStyle
		button = buttonStyle.Foreground(lipgloss.Color("#4A4A4A"))
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		title.Render("Someone made you a card 💌"),
		"",
		prompt.Render("Would you like to open it?"),
		"",
		button.Render("Yes!"),
	)
}

func (m *Model) renderCard() string {
	pages := m.orch.Pages()
	page := pages[m.orch.Current()]

	parts := []string{}
	if m.orch.ShowImage() {
		parts = append(parts, imageStyle.Render("🖼  "+m.orch.ImageRef()), "")
	}
	parts = append(parts, titleStyle.Render(page.Title))
	if page.Body != "" {
		parts = append(parts, "", bodyStyle.Render(page.Body))
	}
	inner := lipgloss.JoinVertical(lipgloss.Center, parts...)
	style := pageStyle.Align(lipgloss.Center)
	if m.width > 0 {
		style = style.Width(pageWidth(m.width))
	}
	if m.orch.Leaving() {
		style = style.BorderForeground(lipgloss.Color("#4A4A4A"))
	}
	box := style.Render(inner)

	return lipgloss.JoinVertical(lipgloss.Center,
		box,
		"",
		renderDots(m.orch.PageTags()),
		"",
		m.renderButtons(),
	)
}

func (m *Model) renderButtons() string {
	next := primaryButtonStyle.Render(m.orch.NextLabel())
	if !m.orch.BackVisible() {
		return next
	}
	back := buttonStyle.Render("← Back")
	return lipgloss.JoinHorizontal(lipgloss.Center, back, "  ", next)
}

func (m *Model) renderFinale() string {
	message := lipgloss.JoinVertical(lipgloss.Center,
		accentStyle.Bold(true).Render("✨ Happy celebrating! ✨"),
		"",
		bodyStyle.Render("Thank you for opening this card."),
	)
	if m.width == 0 || m.height == 0 {
		return message
	}
	msgHeight := lipgloss.Height(message)
	fieldHeight := m.height - msgHeight - 1
	if fieldHeight < 1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, message)
	}
	field := renderConfetti(m.orch.Confetti().Live(), m.now(), m.width, fieldHeight)
	return field + "\n" + lipgloss.Place(m.width, msgHeight+1, lipgloss.Center, lipgloss.Top, message)
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.orch.Phase() == card.Card {
		segments = append(segments, fmt.Sprintf("Page %d/%d", m.orch.Current()+1, len(m.orch.Pages())))
	}
	segments = append(segments, m.help.View(m.keys))
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.hint != "" {
		footer = accentStyle.Render(m.hint) + "\n" + footer
	}
	return footer
}

func pageWidth(total int) int {
	w := int(float64(total) * 0.60)
	if w < 20 {
		w = total
	}
	if w > 72 {
		w = 72
	}
	return w
}
