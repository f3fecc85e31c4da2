package facade

import (
	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/symbolic"
	"github.com/joshuapare/symbex/pkg/taint"
)

// OperandKind tags which of the three operand shapes an Operand names.
type OperandKind int

const (
	OperandImmediate OperandKind = iota
	OperandRegister
	OperandMemory
)

// AccessMode tags how a lifter intends to use an operand.
type AccessMode int

const (
	AccessRead AccessMode = iota
	AccessWrite
	AccessReadWrite
)

// MemoryAccess names a byte range in the flat address space.
type MemoryAccess struct {
	Address uint64
	Size    int
}

// Operand is the disassembler's contract: the core treats it as an
// opaque, already-decoded field of an Instruction.
type Operand struct {
	Kind    OperandKind
	Imm     uint64
	ImmSize uint32
	Reg     arch.RegisterID
	Mem     MemoryAccess
	Access  AccessMode
}

// Imm builds an immediate operand of the given bit size.
func Imm(value uint64, bitSize uint32) Operand {
	return Operand{Kind: OperandImmediate, Imm: value, ImmSize: bitSize}
}

// Reg builds a register operand with the given access mode.
func Reg(r arch.RegisterID, access AccessMode) Operand {
	return Operand{Kind: OperandRegister, Reg: r, Access: access}
}

// Mem builds a memory operand covering size bytes at addr.
func Mem(addr uint64, size int, access AccessMode) Operand {
	return Operand{Kind: OperandMemory, Mem: MemoryAccess{Address: addr, Size: size}, Access: access}
}

// Disassembler decodes an instruction's raw bytes into its mnemonic
// and operand fields. The core never decodes machine code itself; a
// session with no Disassembler configured only accepts instructions
// that arrive already decoded.
type Disassembler interface {
	Disassemble(inst *Instruction) error
}

// Instruction is the opaque, already-decoded unit Processing consumes.
// Decoding machine code into one is the disassembler's job;
// Instruction models exactly the shape a lifter needs and nothing
// about how it was produced.
type Instruction struct {
	Address  uint64
	Mnemonic string
	Operands []Operand

	// Raw holds the undecoded instruction bytes, consumed by
	// Disassembly when a Disassembler is configured and ignored
	// otherwise.
	Raw []byte

	// Branch marks a conditional lifter's contract to call
	// AddPathConstraint exactly once while handling this instruction.
	Branch bool

	// Symbolic accumulates every SymbolicExpression a lifter created
	// for this instruction's outputs, filled in by Processing.
	Symbolic []*symbolic.Expression

	// Tainted records whether any input operand was tainted at lift
	// time, frozen at the start of Processing for the lifter and the
	// ONLY_ON_TAINTED optimization to consult.
	Tainted bool

	// Symbolized records whether any input operand was already a
	// non-constant symbolic expression, for ONLY_ON_SYMBOLIZED.
	Symbolized bool

	// Context accumulates the symbolic operand nodes built while
	// processing this instruction, for later inspection.
	Context symbolic.InstructionContext
}

// inputs returns inst's read/read-write operands.
func (inst *Instruction) inputs() []Operand {
	var out []Operand
	for _, op := range inst.Operands {
		if op.Access == AccessRead || op.Access == AccessReadWrite {
			out = append(out, op)
		}
	}
	return out
}

// toTaintOperand maps a façade Operand to the taint package's own
// operand shape, the cross-product {Immediate, Register, Memory} the
// taint engine's primitives dispatch on.
func toTaintOperand(op Operand) taint.Operand {
	switch op.Kind {
	case OperandRegister:
		return taint.Reg(op.Reg)
	case OperandMemory:
		return taint.Mem(op.Mem.Address, op.Mem.Size)
	default:
		return taint.Imm()
	}
}
