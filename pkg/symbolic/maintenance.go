package symbolic

import (
	"math/big"

	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/types"
)

// ConcretizeRegister severs reg's parent register's symbolic binding,
// leaving the underlying concrete state untouched. Subsequent builds
// re-read concrete state through the callback chain; nothing
// guarantees that concrete state still agrees with the symbolic value
// that was just severed.
func (e *Engine) ConcretizeRegister(reg arch.RegisterID) error {
	if err := e.checkSymbolic(); err != nil {
		return err
	}
	geom, err := e.cpu.GetRegisterGeometry(reg)
	if err != nil {
		return err
	}
	delete(e.regMap, geom.Parent)
	return nil
}

// ConcretizeRegisterBulk concretizes every register in regs.
func (e *Engine) ConcretizeRegisterBulk(regs []arch.RegisterID) error {
	for _, r := range regs {
		if err := e.ConcretizeRegister(r); err != nil {
			return err
		}
	}
	return nil
}

// ConcretizeMemory severs the byte at addr's symbolic binding.
func (e *Engine) ConcretizeMemory(addr uint64) error {
	if err := e.checkSymbolic(); err != nil {
		return err
	}
	delete(e.memMap, addr)
	delete(e.alignedIndex, addr)
	return nil
}

// ConcretizeMemoryBulk concretizes every byte in [addr, addr+size).
func (e *Engine) ConcretizeMemoryBulk(addr uint64, size int) error {
	for i := 0; i < size; i++ {
		if err := e.ConcretizeMemory(addr + uint64(i)); err != nil {
			return err
		}
	}
	return nil
}

// ConvertExpressionToSymbolicVariable replaces id's bound expression's
// node with a fresh free variable of the given width, registers the
// variable under its default name, and returns it. Because every
// register/memory map entry stores an expression id rather than a
// node pointer, rewriting the expression's Node in place automatically
// re-binds every destination that already pointed at id.
func (e *Engine) ConvertExpressionToSymbolicVariable(id uint64, bitSize uint32) (*Variable, error) {
	expr, err := e.GetExpression(id)
	if err != nil {
		return nil, err
	}
	varID := e.nextVarID
	e.nextVarID++
	name := defaultVariableName(varID)
	varNode, err := ast.NewVariable(bitSize, varID, name)
	if err != nil {
		return nil, err
	}
	varNode = e.pool.RecordAstNode(varNode)
	e.pool.RecordVariableAstNode(name, varNode)

	v := &Variable{ID: varID, Name: name, Size: bitSize}
	e.variables[varID] = v
	expr.Node = varNode
	return v, nil
}

// ConvertRegisterToSymbolicVariable converts reg's parent register's
// bound expression to a symbolic variable and records the register as
// the variable's origin.
func (e *Engine) ConvertRegisterToSymbolicVariable(reg arch.RegisterID) (*Variable, error) {
	geom, err := e.cpu.GetRegisterGeometry(reg)
	if err != nil {
		return nil, err
	}
	id, ok := e.regMap[geom.Parent]
	if !ok {
		return nil, types.New(types.ErrKindUnknownSymbolicExpressionId, "register has no bound expression")
	}
	v, err := e.ConvertExpressionToSymbolicVariable(id, uint32(geom.Size()))
	if err != nil {
		return nil, err
	}
	v.Origin = &VariableOrigin{IsRegister: true, Register: geom.Parent}
	return v, nil
}

// ConvertMemoryToSymbolicVariable converts the byte expression bound
// at addr to a symbolic variable and records the address as origin.
func (e *Engine) ConvertMemoryToSymbolicVariable(addr uint64) (*Variable, error) {
	id, ok := e.memMap[addr]
	if !ok {
		return nil, types.New(types.ErrKindUnknownSymbolicExpressionId, "memory byte has no bound expression")
	}
	v, err := e.ConvertExpressionToSymbolicVariable(id, 8)
	if err != nil {
		return nil, err
	}
	v.Origin = &VariableOrigin{IsRegister: false, Address: addr}
	return v, nil
}

// GetVariable looks up a symbolic variable by id.
func (e *Engine) GetVariable(id uint64) (*Variable, error) {
	v, ok := e.variables[id]
	if !ok {
		return nil, types.New(types.ErrKindUnknownSymbolicVariable, "no such symbolic variable id")
	}
	return v, nil
}

// AddPathConstraint records one branch decision: taken is the
// predicate that held at instAddr, alternative is its negation (the
// road not taken), both already simplified ASTs.
func (e *Engine) AddPathConstraint(instAddr uint64, taken, alternative *ast.Node) error {
	if err := e.checkSymbolic(); err != nil {
		return err
	}
	e.pathConstraints = append(e.pathConstraints, PathConstraint{
		InstructionAddress: instAddr,
		Taken:              taken,
		Alternative:        alternative,
	})
	return nil
}

// GetPathConstraints returns the recorded path constraints in order.
func (e *Engine) GetPathConstraints() []PathConstraint {
	out := make([]PathConstraint, len(e.pathConstraints))
	copy(out, e.pathConstraints)
	return out
}

// GetPathConstraintsAst conjoins every recorded taken predicate into a
// single 1-bit AST. With no recorded constraints, returns a trivially
// true 1-bit constant.
func (e *Engine) GetPathConstraintsAst() (*ast.Node, error) {
	if len(e.pathConstraints) == 0 {
		return ast.NewConst(1, big.NewInt(1))
	}
	acc := e.pathConstraints[0].Taken
	for _, pc := range e.pathConstraints[1:] {
		next, err := ast.NewLogical(ast.KindLAnd, acc, pc.Taken)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return e.pool.RecordAstNode(acc), nil
}

// ClearPathConstraints discards every recorded path constraint.
func (e *Engine) ClearPathConstraints() {
	e.pathConstraints = nil
}
