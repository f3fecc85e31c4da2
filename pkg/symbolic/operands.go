package symbolic

import (
	"math/big"

	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/callbacks"
)

// InstructionContext accumulates the symbolic operand nodes a façade
// builds while processing one instruction, so they can be inspected
// afterward without the symbolic package knowing anything about the
// facade.Instruction type that owns it.
type InstructionContext struct {
	Inputs []*ast.Node
}

func (ic *InstructionContext) record(n *ast.Node) {
	if ic != nil && n != nil {
		ic.Inputs = append(ic.Inputs, n)
	}
}

// BuildSymbolicImmediate lifts a concrete immediate to a constant node.
func (e *Engine) BuildSymbolicImmediate(imm uint64, bitSize uint32) (*ast.Node, error) {
	if err := e.checkSymbolic(); err != nil {
		return nil, err
	}
	n, err := ast.NewConst(bitSize, new(big.Int).SetUint64(imm))
	if err != nil {
		return nil, err
	}
	return e.pool.RecordAstNode(n), nil
}

// BuildSymbolicImmediateWithContext is BuildSymbolicImmediate, also
// recording the built node as one of ic's instruction inputs.
func (e *Engine) BuildSymbolicImmediateWithContext(ic *InstructionContext, imm uint64, bitSize uint32) (*ast.Node, error) {
	n, err := e.BuildSymbolicImmediate(imm, bitSize)
	if err == nil {
		ic.record(n)
	}
	return n, err
}

// BuildSymbolicRegister returns the AST bound to reg: the bound
// expression's node (narrowed via Extract if reg is a sub-register of
// a wider bound parent), or a concrete constant read through the
// GET_CONCRETE_REGISTER_VALUE callback chain when reg's parent has no
// binding.
func (e *Engine) BuildSymbolicRegister(reg arch.RegisterID) (*ast.Node, error) {
	if err := e.checkSymbolic(); err != nil {
		return nil, err
	}
	geom, err := e.cpu.GetRegisterGeometry(reg)
	if err != nil {
		return nil, err
	}
	if exprID, ok := e.regMap[geom.Parent]; ok {
		parent := e.expressions[exprID]
		if geom.Parent == reg {
			return parent.Node, nil
		}
		extracted, err := ast.NewExtract(geom.Low, geom.High, parent.Node)
		if err != nil {
			return nil, err
		}
		return e.pool.RecordAstNode(extracted), nil
	}

	if err := e.dispatcher.ProcessRegisterRead(callbacks.RegisterAccess{Reg: reg}); err != nil {
		return nil, err
	}
	val, err := e.cpu.GetConcreteRegisterValue(reg)
	if err != nil {
		return nil, err
	}
	n, err := ast.NewConst(uint32(geom.Size()), new(big.Int).SetUint64(val))
	if err != nil {
		return nil, err
	}
	return e.pool.RecordAstNode(n), nil
}

// BuildSymbolicRegisterWithContext is BuildSymbolicRegister, also
// recording the built node as one of ic's instruction inputs.
func (e *Engine) BuildSymbolicRegisterWithContext(ic *InstructionContext, reg arch.RegisterID) (*ast.Node, error) {
	n, err := e.BuildSymbolicRegister(reg)
	if err == nil {
		ic.record(n)
	}
	return n, err
}

// buildSymbolicByte returns the bound 8-bit expression at addr, or a
// concrete byte read through GET_CONCRETE_MEMORY_VALUE when unbound.
func (e *Engine) buildSymbolicByte(addr uint64) (*ast.Node, error) {
	if exprID, ok := e.memMap[addr]; ok {
		return e.expressions[exprID].Node, nil
	}
	if err := e.dispatcher.ProcessMemoryRead(callbacks.MemoryAccess{Address: addr, Size: 1}); err != nil {
		return nil, err
	}
	val := e.cpu.GetConcreteMemoryByte(addr)
	n, err := ast.NewConst(8, big.NewInt(int64(val)))
	if err != nil {
		return nil, err
	}
	return e.pool.RecordAstNode(n), nil
}

// BuildSymbolicMemory returns an AST covering [addr, addr+size): the
// single byte's node when size==1, otherwise a concatenation of each
// byte's node, most-significant byte first. When the ALIGNED_MEMORY
// optimization is enabled and a prior multi-byte write created exactly
// this range, the previously built combined node is returned directly
// instead of re-concatenating byte by byte.
func (e *Engine) BuildSymbolicMemory(addr uint64, size int) (*ast.Node, error) {
	if err := e.checkSymbolic(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, nil
	}
	if e.optimizations[OptAlignedMemory] {
		if entry, ok := e.alignedIndex[addr]; ok && entry.size == size {
			if expr, ok := e.expressions[entry.exprID]; ok {
				return expr.Node, nil
			}
		}
	}
	if size == 1 {
		return e.buildSymbolicByte(addr)
	}
	children := make([]*ast.Node, size)
	for i := 0; i < size; i++ {
		b, err := e.buildSymbolicByte(addr + uint64(i))
		if err != nil {
			return nil, err
		}
		children[i] = b
	}
	// Concat is most-significant-first; the highest address holds the
	// most significant byte in this little-endian memory model.
	msbFirst := make([]*ast.Node, size)
	for i := 0; i < size; i++ {
		msbFirst[i] = children[size-1-i]
	}
	n, err := ast.NewConcat(msbFirst...)
	if err != nil {
		return nil, err
	}
	return e.pool.RecordAstNode(n), nil
}

// BuildSymbolicMemoryWithContext is BuildSymbolicMemory, also
// recording the built node as one of ic's instruction inputs.
func (e *Engine) BuildSymbolicMemoryWithContext(ic *InstructionContext, addr uint64, size int) (*ast.Node, error) {
	n, err := e.BuildSymbolicMemory(addr, size)
	if err == nil {
		ic.record(n)
	}
	return n, err
}
