package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joshuapare/symbex/internal/trace"
	"github.com/joshuapare/symbex/pkg/facade"
)

func (m Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("symbexplorer  —  instruction %d/%d", m.cursor, len(m.records)))

	instStyle, stateStyle := paneStyle, paneStyle
	if m.focused == InstructionsPane {
		instStyle = activePaneStyle
	} else {
		stateStyle = activePaneStyle
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		instStyle.Render(m.renderInstructions()),
		stateStyle.Render(m.renderState()),
	)

	status := m.statusMessage
	if status == "" {
		status = "n/space step · N/b back · tab switch pane · q quit"
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, panes, statusStyle.Render(status))
}

func (m Model) renderInstructions() string {
	var b strings.Builder
	b.WriteString("Instructions\n")
	for i, raw := range m.records {
		line := fmt.Sprintf("%#08x  %-6s %s", raw.Address, raw.Mnemonic, operandSummary(raw))
		if i == m.cursor-1 {
			line = currentInstructionStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func operandSummary(raw trace.RawInstruction) string {
	parts := make([]string, 0, len(raw.Operands))
	for _, op := range raw.Operands {
		switch op.Kind {
		case facade.OperandRegister:
			parts = append(parts, op.RegName)
		case facade.OperandImmediate:
			parts = append(parts, fmt.Sprintf("0x%x", op.ImmValue))
		case facade.OperandMemory:
			parts = append(parts, fmt.Sprintf("[%#x]", op.MemAddress))
		}
	}
	return strings.Join(parts, ", ")
}

func (m Model) renderState() string {
	var b strings.Builder
	b.WriteString("State\n")

	result, ok := m.currentResult()
	if !ok {
		b.WriteString("(nothing processed yet)\n")
		return b.String()
	}
	if result.err != nil {
		b.WriteString(errorStyle.Render(result.err.Error()))
		b.WriteByte('\n')
		return b.String()
	}

	fmt.Fprintf(&b, "supported: %v\n", result.supported)
	fmt.Fprintf(&b, "tainted input: %v\n", result.inst.Tainted)
	fmt.Fprintf(&b, "symbolized input: %v\n", result.inst.Symbolized)
	b.WriteString("\nregisters touched:\n")

	for _, op := range result.inst.Operands {
		if op.Kind != facade.OperandRegister {
			continue
		}
		val, _ := m.sess.GetConcreteRegisterValue(op.Reg)
		line := fmt.Sprintf("  %#x", val)
		if m.sess.Taint().IsRegisterTainted(op.Reg) {
			line = taintedStyle.Render(line + " tainted")
		} else {
			line = cleanStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	pcs := m.sess.Symbolic().GetPathConstraints()
	fmt.Fprintf(&b, "\npath constraints: %d\n", len(pcs))
	for _, pc := range pcs {
		var out bytes.Buffer
		_ = m.sess.PrintAstRepresentation(&out, pc.Taken)
		fmt.Fprintf(&b, "  %#08x: %s\n", pc.InstructionAddress, out.String())
	}

	return b.String()
}
