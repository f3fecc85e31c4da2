package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all messages and advances the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Step):
			m.stepForwardOne()
			return m, nil
		case key.Matches(msg, m.keys.StepBack):
			m.replayTo(m.cursor - 1)
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			if m.focused == InstructionsPane {
				m.focused = StatePane
			} else {
				m.focused = InstructionsPane
			}
			return m, nil
		}
	}
	return m, nil
}
