package symbolic

import (
	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/callbacks"
	"github.com/joshuapare/symbex/pkg/types"
)

// State is the symbolic engine's lifecycle:
// UNINITIALISED -> INITIALISED -> RUNNING <-> BACKED_UP -> ... -> TORN_DOWN.
type State int

const (
	Uninitialised State = iota
	Initialised
	Running
	BackedUp
	TornDown
)

// Optimization toggles one engine behavior independently of the others.
type Optimization int

const (
	OptASTDictionaries Optimization = iota
	OptAlignedMemory
	OptOnlyOnTainted
	OptOnlyOnSymbolized
)

// PathConstraint is one branch predicate recorded along the trace.
type PathConstraint struct {
	InstructionAddress uint64
	Taken              *ast.Node
	Alternative        *ast.Node
}

type alignedEntry struct {
	exprID uint64
	size   int
}

// ExprOptions bundles the per-call knobs newSymbolicExpression and its
// createSymbolic* variants accept, instead of a long positional list.
type ExprOptions struct {
	Comment     string
	UseExternal bool
	// Tainted is the taint flag derived from the instruction's inputs
	// at creation time: the façade computes this from the taint
	// engine before calling in, since the symbolic engine itself
	// never queries taint state.
	Tainted bool
}

// Engine maps registers and memory bytes to symbolic expression ids,
// builds per-operand symbolic operands, creates named
// expressions/variables, records path constraints, and runs the
// simplification pipeline. One façade session owns one Engine.
type Engine struct {
	state State

	cpu        *arch.CPU
	pool       *ast.Pool
	dispatcher *callbacks.Dispatcher
	external   ast.ExternalSimplifier

	optimizations map[Optimization]bool

	memMap       map[uint64]uint64
	regMap       map[arch.RegisterID]uint64
	alignedIndex map[uint64]alignedEntry

	expressions map[uint64]*Expression
	nextExprID  uint64

	variables map[uint64]*Variable
	nextVarID uint64

	pathConstraints []PathConstraint

	backup *snapshot
}

type snapshot struct {
	memMap          map[uint64]uint64
	regMap          map[arch.RegisterID]uint64
	alignedIndex    map[uint64]alignedEntry
	expressions     map[uint64]Expression
	nextExprID      uint64
	variables       map[uint64]Variable
	nextVarID       uint64
	pathConstraints []PathConstraint
	poolAllocated   []*ast.Node
	poolVars        map[string]*ast.Node
}

// NewEngine wires an Engine to its collaborators. It starts
// Uninitialised; call Init before any other operation.
func NewEngine(cpu *arch.CPU, pool *ast.Pool, dispatcher *callbacks.Dispatcher) *Engine {
	return &Engine{
		cpu:        cpu,
		pool:       pool,
		dispatcher: dispatcher,
		external:   ast.Identity,
		optimizations: map[Optimization]bool{
			OptASTDictionaries: true,
		},
		memMap:       make(map[uint64]uint64),
		regMap:       make(map[arch.RegisterID]uint64),
		alignedIndex: make(map[uint64]alignedEntry),
		expressions:  make(map[uint64]*Expression),
		variables:    make(map[uint64]*Variable),
	}
}

// Init transitions the engine to INITIALISED.
func (e *Engine) Init() {
	if e.state == Uninitialised {
		e.state = Initialised
	}
}

// Reset clears all engine state (maps, expressions, variables, path
// constraints, the backup slot and the AST pool) but keeps the engine
// initialised.
func (e *Engine) Reset() {
	e.memMap = make(map[uint64]uint64)
	e.regMap = make(map[arch.RegisterID]uint64)
	e.alignedIndex = make(map[uint64]alignedEntry)
	e.expressions = make(map[uint64]*Expression)
	e.variables = make(map[uint64]*Variable)
	e.nextExprID = 0
	e.nextVarID = 0
	e.pathConstraints = nil
	e.backup = nil
	if e.pool != nil {
		e.pool.FreeAllAstNodes()
	}
	e.state = Initialised
}

// Remove tears the engine down; no further operations are valid.
func (e *Engine) Remove() {
	e.state = TornDown
}

// checkSymbolic enforces that query/mutation APIs require
// INITIALISED+, and advances INITIALISED -> RUNNING on first use.
func (e *Engine) checkSymbolic() error {
	switch e.state {
	case Initialised:
		e.state = Running
		return nil
	case Running, BackedUp:
		return nil
	default:
		return types.New(types.ErrKindSymbolicEngineNotInitialised, "symbolic engine not initialised")
	}
}

// SetOptimization toggles opt. OptASTDictionaries is additionally
// mirrored onto the AST pool, which is the actual owner of hash-consing.
func (e *Engine) SetOptimization(opt Optimization, enabled bool) {
	e.optimizations[opt] = enabled
	if opt == OptASTDictionaries && e.pool != nil {
		e.pool.SetDictionaryEnabled(enabled)
	}
}

// IsOptimizationEnabled reports opt's current state.
func (e *Engine) IsOptimizationEnabled(opt Optimization) bool {
	return e.optimizations[opt]
}

// ShouldCreateExpression applies ONLY_ON_TAINTED/ONLY_ON_SYMBOLIZED:
// callers (the façade's lifter dispatch) consult this before bothering
// to build a symbolic expression for a purely-concrete, untainted
// instruction.
func (e *Engine) ShouldCreateExpression(anyInputTainted, anyInputSymbolized bool) bool {
	if e.optimizations[OptOnlyOnTainted] && !anyInputTainted {
		return false
	}
	if e.optimizations[OptOnlyOnSymbolized] && !anyInputSymbolized {
		return false
	}
	return true
}

// SetExternalSimplifier wires the optional external SMT simplifier
// (see pkg/solver).
func (e *Engine) SetExternalSimplifier(ext ast.ExternalSimplifier) {
	if ext == nil {
		ext = ast.Identity
	}
	e.external = ext
}

// GetExpression looks up an expression by id.
func (e *Engine) GetExpression(id uint64) (*Expression, error) {
	if err := e.checkSymbolic(); err != nil {
		return nil, err
	}
	expr, ok := e.expressions[id]
	if !ok {
		return nil, types.New(types.ErrKindUnknownSymbolicExpressionId, "no such symbolic expression id")
	}
	return expr, nil
}

// RemoveExpression deletes an expression by id. Removal is
// irreversible outside of backup/restore.
func (e *Engine) RemoveExpression(id uint64) {
	delete(e.expressions, id)
}

// GetRegisterExpressionID returns the expression id bound to reg's
// parent register, if any.
func (e *Engine) GetRegisterExpressionID(reg arch.RegisterID) (uint64, bool) {
	geom, err := e.cpu.GetRegisterGeometry(reg)
	if err != nil {
		return 0, false
	}
	id, ok := e.regMap[geom.Parent]
	return id, ok
}

// GetMemoryExpressionID returns the expression id bound to the byte at addr.
func (e *Engine) GetMemoryExpressionID(addr uint64) (uint64, bool) {
	id, ok := e.memMap[addr]
	return id, ok
}
