package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/symbex/internal/trace"
	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/facade"
)

// Pane identifies which half of the split view has keyboard focus.
type Pane int

const (
	InstructionsPane Pane = iota
	StatePane
)

// stepResult records the outcome of processing one instruction, kept
// alongside the trace record it came from for rendering.
type stepResult struct {
	inst      *facade.Instruction
	supported bool
	err       error
}

// Model is the symbexplorer TUI's state: a recorded trace, the
// facade.Session replaying it, and how far the user has stepped in.
type Model struct {
	records []trace.RawInstruction
	archID  arch.ID

	sess    *facade.Session
	cursor  int // number of records processed so far
	results []stepResult

	focused       Pane
	keys          KeyMap
	width, height int
	statusMessage string
}

// NewModel builds a fresh stepper over records, initialised but not
// yet stepped.
func NewModel(records []trace.RawInstruction, archID arch.ID) Model {
	m := Model{
		records: records,
		archID:  archID,
		keys:    DefaultKeyMap(),
	}
	m.sess = newSession(archID)
	return m
}

func newSession(id arch.ID) *facade.Session {
	s := facade.New(facade.Options{Arch: id})
	s.Init()
	return s
}

func (m Model) Init() tea.Cmd { return nil }

// processOne resolves and processes records[i], assuming the session
// state already reflects records[0:i].
func (m *Model) processOne(i int) stepResult {
	raw := m.records[i]
	inst, err := trace.Resolve(raw, m.sess.LookupRegister)
	if err != nil {
		return stepResult{err: err}
	}
	ok, err := m.sess.Processing(inst)
	return stepResult{inst: inst, supported: ok, err: err}
}

// stepForwardOne processes the next unprocessed record, if any.
func (m *Model) stepForwardOne() {
	if m.cursor >= len(m.records) {
		m.statusMessage = "at end of trace"
		return
	}
	r := m.processOne(m.cursor)
	m.results = append(m.results, r)
	m.cursor++
	if r.err != nil {
		m.statusMessage = r.err.Error()
	} else {
		m.statusMessage = ""
	}
}

// replayTo resets the session and reprocesses records[0:n], the only
// way to step backward since the engines never undo a write.
func (m *Model) replayTo(n int) {
	if n < 0 {
		n = 0
	}
	m.sess = newSession(m.archID)
	m.results = nil
	for i := 0; i < n; i++ {
		m.results = append(m.results, m.processOne(i))
	}
	m.cursor = n
}

func (m Model) currentResult() (stepResult, bool) {
	if m.cursor == 0 {
		return stepResult{}, false
	}
	return m.results[m.cursor-1], true
}
