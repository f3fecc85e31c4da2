package taint

import "github.com/joshuapare/symbex/pkg/arch"

// SetTaintRegister forces reg's parent register's taint to flag.
func (e *Engine) SetTaintRegister(reg arch.RegisterID, flag bool) error {
	if err := e.checkTaint(); err != nil {
		return err
	}
	e.setTaintRegister(reg, flag)
	return nil
}

// SetTaintMemory forces the taint of every byte in mem to flag.
func (e *Engine) SetTaintMemory(mem Operand, flag bool) error {
	if err := e.checkTaint(); err != nil {
		return err
	}
	for i := 0; i < mem.Size; i++ {
		e.setTaintMemory(mem.Address+uint64(i), flag)
	}
	return nil
}

// The named propagation primitives below cover the {Memory, Register}
// destination x {Immediate, Memory, Register} source cross-product for
// both policies. TaintUnion and TaintAssignment dispatch on operand
// kinds so most callers never name a primitive directly, but lifters
// that know their operand shapes statically can skip the dispatch.

// TaintUnionMemoryImmediate leaves dst's taint unchanged (an immediate
// is never tainted) and returns it.
func (e *Engine) TaintUnionMemoryImmediate(dst Operand) (bool, error) {
	return e.TaintUnion(dst, Imm())
}

// TaintUnionMemoryMemory unions src's taint into dst.
func (e *Engine) TaintUnionMemoryMemory(dst, src Operand) (bool, error) {
	return e.TaintUnion(dst, src)
}

// TaintUnionMemoryRegister unions src's taint into dst.
func (e *Engine) TaintUnionMemoryRegister(dst Operand, src arch.RegisterID) (bool, error) {
	return e.TaintUnion(dst, Reg(src))
}

// TaintUnionRegisterImmediate leaves dst's taint unchanged and
// returns it.
func (e *Engine) TaintUnionRegisterImmediate(dst arch.RegisterID) (bool, error) {
	return e.TaintUnion(Reg(dst), Imm())
}

// TaintUnionRegisterMemory unions src's taint into dst.
func (e *Engine) TaintUnionRegisterMemory(dst arch.RegisterID, src Operand) (bool, error) {
	return e.TaintUnion(Reg(dst), src)
}

// TaintUnionRegisterRegister unions src's taint into dst.
func (e *Engine) TaintUnionRegisterRegister(dst, src arch.RegisterID) (bool, error) {
	return e.TaintUnion(Reg(dst), Reg(src))
}

// TaintAssignmentMemoryImmediate untaints dst and returns false.
func (e *Engine) TaintAssignmentMemoryImmediate(dst Operand) (bool, error) {
	return e.TaintAssignment(dst, Imm())
}

// TaintAssignmentMemoryMemory overwrites dst's taint with src's.
func (e *Engine) TaintAssignmentMemoryMemory(dst, src Operand) (bool, error) {
	return e.TaintAssignment(dst, src)
}

// TaintAssignmentMemoryRegister overwrites dst's taint with src's.
func (e *Engine) TaintAssignmentMemoryRegister(dst Operand, src arch.RegisterID) (bool, error) {
	return e.TaintAssignment(dst, Reg(src))
}

// TaintAssignmentRegisterImmediate untaints dst and returns false.
func (e *Engine) TaintAssignmentRegisterImmediate(dst arch.RegisterID) (bool, error) {
	return e.TaintAssignment(Reg(dst), Imm())
}

// TaintAssignmentRegisterMemory overwrites dst's taint with src's.
func (e *Engine) TaintAssignmentRegisterMemory(dst arch.RegisterID, src Operand) (bool, error) {
	return e.TaintAssignment(Reg(dst), src)
}

// TaintAssignmentRegisterRegister overwrites dst's taint with src's.
func (e *Engine) TaintAssignmentRegisterRegister(dst, src arch.RegisterID) (bool, error) {
	return e.TaintAssignment(Reg(dst), Reg(src))
}
