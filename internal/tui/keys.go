package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start key.Binding
	Next  key.Binding
	Back  key.Binding
	Image key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start: key.NewBinding(
			key.WithKeys("enter", " ", "y"),
			key.WithHelp("enter", "open"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l", "n", "enter", " "),
			key.WithHelp("→/l", "next"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h", "p", "backspace"),
			key.WithHelp("←/h", "back"),
		),
		Image: key.NewBinding(
			key.WithKeys("ctrl+i", "tab"),
			key.WithHelp("tab", "add image"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Next, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Start, k.Next, k.Back}, {k.Image, k.Help, k.Quit}}
}
