package tui

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/greetcard/internal/card"
	"github.com/verte-zerg/greetcard/internal/effects"
	"github.com/verte-zerg/greetcard/internal/model"
)

type stubMusic struct {
	interactions int
	stops        int
	attempts     int
}

func (s *stubMusic) SetSource(string) {}
func (s *stubMusic) AttemptPlay()     { s.attempts++ }
func (s *stubMusic) OnInteraction()   { s.interactions++ }
func (s *stubMusic) Stop()            { s.stops++ }

type stubPrefs struct{}

func (stubPrefs) Load(context.Context) (model.Preferences, error) {
	return model.Preferences{ImageRef: "https://example.com/cake.png"}, nil
}
func (stubPrefs) SetImageRef(context.Context, string) error { return nil }
func (stubPrefs) SetAudioRef(context.Context, string) error { return nil }

var testEpoch = time.Unix(100, 0)

func newTestModel(t *testing.T) (*Model, *stubMusic) {
	t.Helper()
	music := &stubMusic{}
	pages := []model.Page{
		{Title: "Cover", Body: "hello"},
		{Title: "Middle"},
		{Title: "Last"},
	}
	orch, err := card.New(pages, music, effects.NewWithSource(rand.NewSource(4)), stubPrefs{}, card.Options{
		Now: func() time.Time { return testEpoch },
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	orch.Restore(context.Background())
	m := NewModel(orch)
	m.now = func() time.Time { return testEpoch }
	return m, music
}

func press(m *Model, msg tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func runPending(m *Model) tea.Cmd {
	ids := make([]int, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var last tea.Cmd
	for _, id := range ids {
		_, last = m.Update(taskMsg{id: id})
	}
	return last
}

func TestWalkThroughCard(t *testing.T) {
	m, music := newTestModel(t)
	if !strings.Contains(m.View(), "Would you like to open it?") {
		t.Fatalf("expected intro screen, got %q", m.View())
	}

	if cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter}); cmd == nil {
		t.Fatalf("expected transition timer")
	}
	if len(m.pending) != 1 {
		t.Fatalf("expected one pending task, got %d", len(m.pending))
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.pending) != 1 {
		t.Fatalf("repeated start should not schedule again")
	}
	runPending(m)
	if m.orch.Phase() != card.Card || music.attempts != 1 {
		t.Fatalf("expected card phase with one play attempt")
	}
	view := m.View()
	for _, want := range []string{"Cover", "cake.png", card.LabelNext, "Page 1/3"} {
		if !strings.Contains(view, want) {
			t.Fatalf("card view missing %q: %s", want, view)
		}
	}
	if strings.Contains(view, "← Back") {
		t.Fatalf("back button should be hidden on first page")
	}

	press(m, tea.KeyMsg{Type: tea.KeyRight})
	press(m, runes("l"))
	view = m.View()
	for _, want := range []string{"Last", card.LabelComplete, "← Back", "Page 3/3"} {
		if !strings.Contains(view, want) {
			t.Fatalf("last page view missing %q: %s", want, view)
		}
	}
	if strings.Contains(view, "cake.png") {
		t.Fatalf("image should only show on the cover")
	}

	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.orch.Current() != 1 {
		t.Fatalf("expected back to page 2, got %d", m.orch.Current()+1)
	}
	press(m, runes("n"))

	if cmd := press(m, runes("n")); cmd == nil {
		t.Fatalf("expected finale timer")
	}
	if cmd := runPending(m); cmd == nil {
		t.Fatalf("expected confetti animation to start")
	}
	if m.orch.Phase() != card.Finale || m.orch.Bursts() != 1 {
		t.Fatalf("expected finale with one burst")
	}
	if len(m.orch.Confetti().Live()) != 50 {
		t.Fatalf("expected 50 particles, got %d", len(m.orch.Confetti().Live()))
	}
	if !strings.Contains(m.View(), "Happy celebrating!") {
		t.Fatalf("expected finale message")
	}

	_, cmd := m.Update(frameMsg(testEpoch.Add(time.Second)))
	if cmd == nil {
		t.Fatalf("expected animation to continue while particles live")
	}
	_, cmd = m.Update(frameMsg(testEpoch.Add(effects.Lifetime)))
	if cmd != nil || m.animating {
		t.Fatalf("expected animation to stop after particles expire")
	}
	if len(m.orch.Confetti().Live()) != 0 {
		t.Fatalf("expected all particles removed")
	}

	if music.interactions == 0 {
		t.Fatalf("expected key presses to count as interactions")
	}
}

func TestRenderWithWindowSize(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	press(m, runes("y"))
	runPending(m)
	view := m.View()
	if lines := strings.Count(view, "\n") + 1; lines != 24 {
		t.Fatalf("expected 24 lines, got %d", lines)
	}
	for i := 0; i < 3; i++ {
		press(m, runes(" "))
	}
	runPending(m)
	view = m.View()
	if !strings.Contains(view, "Happy celebrating!") {
		t.Fatalf("expected finale in sized view")
	}
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, runes("?"))
	if !m.help.ShowAll {
		t.Fatalf("expected full help")
	}
	if !strings.Contains(m.View(), "open") {
		t.Fatalf("expected full help to list the open key")
	}
}

func TestImageKeyShowsHint(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	if !strings.Contains(m.View(), "greetcard image") {
		t.Fatalf("expected image hint in view")
	}
	if m.orch.Phase() != card.Intro {
		t.Fatalf("hint key should not start the card")
	}
	press(m, runes("x"))
	if strings.Contains(m.View(), "greetcard image") {
		t.Fatalf("hint should clear on the next key")
	}
}

func TestQuitStopsMusic(t *testing.T) {
	m, music := newTestModel(t)
	cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if music.stops != 1 {
		t.Fatalf("expected music stopped on quit")
	}
}

func TestUnknownTaskIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	if _, cmd := m.Update(taskMsg{id: 42}); cmd != nil {
		t.Fatalf("expected no command for unknown task")
	}
}
