package symbolic

import (
	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/ast"
)

// newSymbolicExpression runs node through the simplification pipeline
// and stores the result as a fresh, volatile (unbound) Expression.
func (e *Engine) newSymbolicExpression(node *ast.Node, opts ExprOptions) (*Expression, error) {
	if err := e.checkSymbolic(); err != nil {
		return nil, err
	}
	simplified, err := e.pool.ProcessSimplification(node, opts.UseExternal, e.dispatcher, e.external)
	if err != nil {
		return nil, err
	}
	id := e.nextExprID
	e.nextExprID++
	expr := &Expression{
		ID:      id,
		Node:    simplified,
		Origin:  Volatile,
		Comment: opts.Comment,
		Tainted: opts.Tainted,
	}
	e.expressions[id] = expr
	return expr, nil
}

// CreateSymbolicVolatileExpression simplifies node and stores it as an
// unbound expression, without touching the register/memory maps.
func (e *Engine) CreateSymbolicVolatileExpression(node *ast.Node, opts ExprOptions) (*Expression, error) {
	return e.newSymbolicExpression(node, opts)
}

// CreateSymbolicMemoryExpression simplifies node (expected bit width
// size*8) and splits it into size 8-bit expressions bound one per byte
// starting at addr, per the invariant that every memory-bound
// expression is exactly a byte wide. The returned Expression is the
// logical whole-value write: its own Node is not itself bound to a map
// entry, only its byte-sized children are.
func (e *Engine) CreateSymbolicMemoryExpression(node *ast.Node, addr uint64, size int, opts ExprOptions) (*Expression, error) {
	full, err := e.newSymbolicExpression(node, opts)
	if err != nil {
		return nil, err
	}
	full.Origin = Memory
	full.Dest = Destination{IsMemory: true, Address: addr}

	for i := 0; i < size; i++ {
		low, high := 8*i, 8*i+7
		var byteNode *ast.Node
		if size == 1 {
			byteNode = full.Node
		} else {
			byteNode, err = ast.NewExtract(low, high, full.Node)
			if err != nil {
				return nil, err
			}
			byteNode = e.pool.RecordAstNode(byteNode)
		}
		id := e.nextExprID
		e.nextExprID++
		byteExpr := &Expression{
			ID:      id,
			Node:    byteNode,
			Origin:  Memory,
			Dest:    Destination{IsMemory: true, Address: addr + uint64(i)},
			Tainted: opts.Tainted,
		}
		e.expressions[id] = byteExpr
		e.memMap[addr+uint64(i)] = id
	}
	if size > 1 {
		e.alignedIndex[addr] = alignedEntry{exprID: full.ID, size: size}
	}
	return full, nil
}

// CreateSymbolicRegisterExpression simplifies node (expected bit width
// equal to reg's own width) and binds it into reg's parent register.
// Three cases decide what happens to the parent's other bits:
//
//   - a write that exactly spans [0, parentWidth) behaves like writing
//     the parent directly: no concatenation needed;
//   - a 32-bit write into a 64-bit parent (e.g. EAX into RAX) zero-
//     extends rather than preserving the parent's upper bits, matching
//     x86-64 sub-register semantics;
//   - any other sub-register write concatenates the parent's preserved
//     high/low slices around the new value.
func (e *Engine) CreateSymbolicRegisterExpression(node *ast.Node, reg arch.RegisterID, opts ExprOptions) (*Expression, error) {
	if err := e.checkSymbolic(); err != nil {
		return nil, err
	}
	geom, err := e.cpu.GetRegisterGeometry(reg)
	if err != nil {
		return nil, err
	}
	parentGeom, err := e.cpu.GetRegisterGeometry(geom.Parent)
	if err != nil {
		return nil, err
	}
	width := parentGeom.Size()

	valueExpr, err := e.newSymbolicExpression(node, opts)
	if err != nil {
		return nil, err
	}

	var combined *ast.Node
	switch {
	case geom.Low == 0 && geom.High == width-1:
		combined = valueExpr.Node
	case geom.Low == 0 && geom.High == 31 && width == 64:
		combined, err = ast.NewExtend(ast.KindZeroExtend, uint32(width), valueExpr.Node)
		if err != nil {
			return nil, err
		}
	default:
		parentNode, err := e.BuildSymbolicRegister(geom.Parent)
		if err != nil {
			return nil, err
		}
		var parts []*ast.Node
		if geom.High+1 <= width-1 {
			hiSlice, err := ast.NewExtract(geom.High+1, width-1, parentNode)
			if err != nil {
				return nil, err
			}
			parts = append(parts, hiSlice)
		}
		parts = append(parts, valueExpr.Node)
		if geom.Low-1 >= 0 {
			loSlice, err := ast.NewExtract(0, geom.Low-1, parentNode)
			if err != nil {
				return nil, err
			}
			parts = append(parts, loSlice)
		}
		if len(parts) == 1 {
			combined = parts[0]
		} else {
			combined, err = ast.NewConcat(parts...)
			if err != nil {
				return nil, err
			}
		}
	}
	combined = e.pool.RecordAstNode(combined)

	id := e.nextExprID
	e.nextExprID++
	parentExpr := &Expression{
		ID:      id,
		Node:    combined,
		Origin:  Register,
		Dest:    Destination{IsMemory: false, Register: geom.Parent},
		Comment: opts.Comment,
		Tainted: opts.Tainted,
	}
	e.expressions[id] = parentExpr
	e.regMap[geom.Parent] = id
	return parentExpr, nil
}

// CreateSymbolicFlagExpression binds node as a single flag bit of its
// parent flags register. Flags are modeled as ordinary 1-bit
// sub-registers (pkg/arch), so this delegates to
// CreateSymbolicRegisterExpression; it exists as a distinct entry
// point for callers that want to assert reg really is a flag.
func (e *Engine) CreateSymbolicFlagExpression(node *ast.Node, reg arch.RegisterID, opts ExprOptions) (*Expression, error) {
	return e.CreateSymbolicRegisterExpression(node, reg, opts)
}
