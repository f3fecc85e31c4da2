package symbolic

import (
	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/types"
)

// GetFullAstFromID returns the root AST of expression id. Expression
// roots reference interned nodes directly, so the full DAG is already
// reachable from the root; no reference expansion is needed.
func (e *Engine) GetFullAstFromID(id uint64) (*ast.Node, error) {
	expr, err := e.GetExpression(id)
	if err != nil {
		return nil, err
	}
	return expr.Node, nil
}

// GetSymbolicRegisterValue folds reg's current symbolic value to a
// concrete integer. The value is ground unless a symbolic variable has
// been introduced into reg's data flow, in which case the fold fails
// and the caller needs a solver model instead.
func (e *Engine) GetSymbolicRegisterValue(reg arch.RegisterID) (uint64, error) {
	node, err := e.BuildSymbolicRegister(reg)
	if err != nil {
		return 0, err
	}
	return ast.EvaluateGround(node)
}

// GetSymbolicMemoryValue folds the size-byte little-endian value at
// addr to a concrete integer, with the same ground-term restriction as
// GetSymbolicRegisterValue.
func (e *Engine) GetSymbolicMemoryValue(addr uint64, size int) (uint64, error) {
	node, err := e.BuildSymbolicMemory(addr, size)
	if err != nil {
		return 0, err
	}
	return ast.EvaluateGround(node)
}

// GetSymbolicExpressions returns the live expression table keyed by id.
// The map is a copy; the expressions themselves are shared.
func (e *Engine) GetSymbolicExpressions() map[uint64]*Expression {
	out := make(map[uint64]*Expression, len(e.expressions))
	for id, expr := range e.expressions {
		out[id] = expr
	}
	return out
}

// GetSymbolicVariables returns the live variable table keyed by id,
// copied the same way as GetSymbolicExpressions.
func (e *Engine) GetSymbolicVariables() map[uint64]*Variable {
	out := make(map[uint64]*Variable, len(e.variables))
	for id, v := range e.variables {
		out[id] = v
	}
	return out
}

// SetVariableName reassigns the variable's display name and registers
// the new name as a registry alias for the variable's node. The
// canonical SymVar_N identifier embedded in already-built AST nodes is
// unchanged; the registry resolves both names.
func (e *Engine) SetVariableName(id uint64, name string) error {
	v, err := e.GetVariable(id)
	if err != nil {
		return err
	}
	if name == "" {
		return types.New(types.ErrKindUnknownSymbolicVariable, "variable name must be non-empty")
	}
	if node, ok := e.pool.GetAstVariableNode(v.Name); ok {
		e.pool.RecordVariableAstNode(name, node)
	}
	v.Name = name
	return nil
}

// SetVariableComment replaces the variable's free-form comment.
func (e *Engine) SetVariableComment(id uint64, comment string) error {
	v, err := e.GetVariable(id)
	if err != nil {
		return err
	}
	v.Comment = comment
	return nil
}

// SetExpressionComment replaces the expression's free-form comment.
func (e *Engine) SetExpressionComment(id uint64, comment string) error {
	expr, err := e.GetExpression(id)
	if err != nil {
		return err
	}
	expr.Comment = comment
	return nil
}
