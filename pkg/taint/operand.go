// Package taint implements taint tracking at parent-register
// granularity for registers and byte granularity for memory
// (immediates are never tainted), independent of the AST layer: it
// answers "is this input attacker-controlled" without caring what
// expression, if any, backs it.
package taint

import "github.com/joshuapare/symbex/pkg/arch"

// OperandKind tags which of the three taintable operand shapes an
// Operand names.
type OperandKind int

const (
	Immediate OperandKind = iota
	Register
	Memory
)

// Operand identifies one taint-primitive argument: a register (parent
// granularity), a memory range (byte granularity) or an immediate
// (always untainted, never settable).
type Operand struct {
	Kind     OperandKind
	Register arch.RegisterID
	Address  uint64
	Size     int // byte count, meaningful for Kind == Memory
}

// Imm builds an immediate operand.
func Imm() Operand { return Operand{Kind: Immediate} }

// Reg builds a register operand.
func Reg(r arch.RegisterID) Operand { return Operand{Kind: Register, Register: r} }

// Mem builds a memory-range operand.
func Mem(addr uint64, size int) Operand { return Operand{Kind: Memory, Address: addr, Size: size} }
