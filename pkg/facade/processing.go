package facade

import (
	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/symbolic"
	"github.com/joshuapare/symbex/pkg/types"
)

// Processing drives one instruction through the full pipeline:
// disassemble (when a disassembler is configured and the instruction
// carries raw bytes), then lift. Processing reports false only for
// "instruction not supported"; any other failure is surfaced as an
// error.
func (s *Session) Processing(inst *Instruction) (bool, error) {
	if err := s.checkInitialised(); err != nil {
		return false, err
	}
	if s.disasm != nil && len(inst.Raw) > 0 {
		if err := s.disasm.Disassemble(inst); err != nil {
			return false, err
		}
	}
	return s.BuildSemantics(inst)
}

// BuildSemantics lifts one already-decoded instruction: look up its
// lifter, gate on the taint/symbolized optimizations, run it, and
// return whether the instruction was recognised.
func (s *Session) BuildSemantics(inst *Instruction) (bool, error) {
	if err := s.checkInitialised(); err != nil {
		return false, err
	}
	if s.reentrancyDepth > 0 {
		return false, types.New(types.ErrKindCallbackFailure, "BuildSemantics called re-entrantly from within a callback")
	}

	lifter, ok := s.lifters[inst.Mnemonic]
	if !ok {
		s.logger.WithField("mnemonic", inst.Mnemonic).Debug("facade: no lifter registered, instruction not supported")
		return false, nil
	}

	inst.Tainted = s.anyInputTainted(inst)
	inst.Symbolized = s.anyInputSymbolized(inst)

	if !s.sym.ShouldCreateExpression(inst.Tainted, inst.Symbolized) {
		s.logger.WithField("address", inst.Address).Debug("facade: skipping purely concrete/untainted instruction")
		return true, nil
	}

	s.reentrancyDepth++
	defer func() { s.reentrancyDepth-- }()

	inst.Context = symbolic.InstructionContext{}
	ctx := &LiftContext{Session: s, Inst: inst, ic: &inst.Context}
	if err := lifter(ctx); err != nil {
		s.logger.WithError(err).WithField("address", inst.Address).Error("facade: processing failed")
		return false, err
	}
	return true, nil
}

// anyInputTainted reports whether any of inst's read operands are
// currently tainted, consulted before bothering to lift at all when
// ONLY_ON_TAINTED is set.
func (s *Session) anyInputTainted(inst *Instruction) bool {
	for _, op := range inst.inputs() {
		if s.tnt.IsTainted(toTaintOperand(op)) {
			return true
		}
	}
	return false
}

// anyInputSymbolized reports whether any of inst's read operands
// already resolve to a non-constant AST, consulted for
// ONLY_ON_SYMBOLIZED.
func (s *Session) anyInputSymbolized(inst *Instruction) bool {
	for _, op := range inst.inputs() {
		var node *ast.Node
		var err error
		switch op.Kind {
		case OperandRegister:
			node, err = s.sym.BuildSymbolicRegister(op.Reg)
		case OperandMemory:
			node, err = s.sym.BuildSymbolicMemory(op.Mem.Address, op.Mem.Size)
		default:
			continue
		}
		if err != nil || node == nil {
			continue
		}
		if node.Kind != ast.KindConst {
			return true
		}
	}
	return false
}
