package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the stepper's keyboard shortcuts.
type KeyMap struct {
	Step     key.Binding
	StepBack key.Binding
	Tab      key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Step: key.NewBinding(
			key.WithKeys("n", " "),
			key.WithHelp("n/space", "step forward"),
		),
		StepBack: key.NewBinding(
			key.WithKeys("N", "b"),
			key.WithHelp("N/b", "step backward"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.StepBack, k.Tab, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Step, k.StepBack}, {k.Tab, k.Quit}}
}
