// Package solver defines the external SMT solver contract the core
// consumes and two implementations: a NullSolver for
// tests and environments with no solver installed, and a Z3Solver that
// shells out to an external `z3` binary over SMT-LIB2 text.
package solver

import (
	"github.com/joshuapare/symbex/pkg/ast"
)

// Model maps a free variable id to the concrete value an SMT solver
// assigned it in a satisfying assignment.
type Model map[uint64]uint64

// Solver is the external collaborator the symbolic engine's path
// constraints and the façade's SMT-extraction surface are checked
// against. The core never implements an SMT decision procedure
// itself; it only ever holds one of these behind an interface.
type Solver interface {
	// GetModel returns a satisfying assignment for node, or an empty
	// Model if node is unsatisfiable.
	GetModel(node *ast.Node) (Model, error)

	// GetModels returns up to limit distinct satisfying assignments
	// for node (distinct meaning they differ on at least one
	// variable). Fewer than limit may be returned if the solver
	// exhausts the search space first.
	GetModels(node *ast.Node, limit int) ([]Model, error)

	// Evaluate returns the concrete value of a variable-free node.
	// It is an error to call Evaluate on a node that still references
	// a free variable.
	Evaluate(node *ast.Node) (uint64, error)
}

// NullSolver always reports unsatisfiable. It is the default wired
// into a façade session that never called SetSolver, and the solver
// of choice for tests that exercise the SMT-extraction surface
// without needing a real decision procedure.
type NullSolver struct{}

func (NullSolver) GetModel(*ast.Node) (Model, error)                { return Model{}, nil }
func (NullSolver) GetModels(*ast.Node, int) ([]Model, error)        { return nil, nil }
func (NullSolver) Evaluate(node *ast.Node) (uint64, error) {
	return evaluateConcrete(node)
}

// evaluateConcrete folds a variable-free node to its concrete uint64
// value without involving an external process; both NullSolver and
// Z3Solver share it since evaluating a ground term never needs a real
// solver invocation.
func evaluateConcrete(node *ast.Node) (uint64, error) {
	return ast.EvaluateGround(node)
}
