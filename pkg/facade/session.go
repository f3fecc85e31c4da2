// Package facade composes the architecture/CPU model, AST layer,
// callbacks dispatcher, symbolic engine and taint engine behind one
// coherent surface: disassemble (the caller's job), process, query,
// extract constraints. It is an explicit session object, never a
// process-wide singleton.
package facade

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/callbacks"
	"github.com/joshuapare/symbex/pkg/solver"
	"github.com/joshuapare/symbex/pkg/symbolic"
	"github.com/joshuapare/symbex/pkg/taint"
	"github.com/joshuapare/symbex/pkg/types"
)

// State is the façade's own lifecycle, layered on top of (and kept in
// step with) the symbolic and taint engines' own state machines.
type State int

const (
	Uninitialised State = iota
	Initialised
	TornDown
)

// Session is the single object a caller constructs and drives. One
// Session owns exactly one CPU, one AST pool, one callbacks
// dispatcher, one symbolic engine and one taint engine; nothing here
// is shared across sessions.
type Session struct {
	state  State
	logger *logrus.Logger

	cpu        *arch.CPU
	pool       *ast.Pool
	dispatcher *callbacks.Dispatcher
	sym        *symbolic.Engine
	tnt        *taint.Engine
	slv        solver.Solver
	disasm     Disassembler

	lifters map[string]Lifter

	// lastVolatile tracks the most recently created volatile
	// expression's node, the predicate a preceding cmp/test leaves
	// behind for a conditional jump lifter to consume.
	lastVolatile *ast.Node

	// reentrancyDepth guards against mutating re-entrancy: a callback
	// firing during Processing may issue read-only queries back into
	// the session, but a mutating call from inside that nested frame
	// is rejected rather than left to silently corrupt state.
	reentrancyDepth int
}

// New constructs a Session wired per opts but does not yet initialise
// it; call Init before any other operation.
func New(opts Options) *Session {
	cpu := arch.NewCPU()
	pool := ast.NewPool()
	dispatcher := callbacks.New()
	sym := symbolic.NewEngine(cpu, pool, dispatcher)
	tnt := taint.NewEngine(cpu)

	s := &Session{
		logger:     opts.logger(),
		cpu:        cpu,
		pool:       pool,
		dispatcher: dispatcher,
		sym:        sym,
		tnt:        tnt,
		slv:        opts.solverOrNull(),
		disasm:     opts.Disassembler,
		lifters:    defaultLifters(),
	}
	if opts.Arch != arch.Invalid {
		if err := cpu.SetArchitecture(opts.Arch); err != nil {
			s.logger.WithError(err).Warn("facade: requested architecture rejected at construction")
		}
	}
	for opt, enabled := range opts.Optimizations {
		sym.SetOptimization(opt, enabled)
	}
	return s
}

// Init transitions the session, and both engines, to INITIALISED.
func (s *Session) Init() {
	if s.state != Uninitialised {
		return
	}
	s.sym.Init()
	s.tnt.Init()
	s.state = Initialised
	s.logger.Debug("facade: session initialised")
}

// Reset clears all engine state (register/memory maps, expressions,
// variables, path constraints, taint sets and the AST pool) but keeps
// the session initialised. The CPU's architecture selection survives.
func (s *Session) Reset() {
	s.sym.Reset()
	s.tnt.Reset()
	s.cpu.Clear()
	s.lastVolatile = nil
	s.logger.Debug("facade: session reset")
}

// Remove tears the session down; no further operations are valid.
func (s *Session) Remove() {
	s.sym.Remove()
	s.tnt.Remove()
	s.state = TornDown
	s.logger.Debug("facade: session removed")
}

func (s *Session) checkInitialised() error {
	if s.state != Initialised {
		return types.New(types.ErrKindSymbolicEngineNotInitialised, "facade session not initialised")
	}
	return nil
}

// --- Architecture surface ---

func (s *Session) SetArchitecture(id arch.ID) error { return s.cpu.SetArchitecture(id) }
func (s *Session) Architecture() arch.ID            { return s.cpu.Architecture() }
func (s *Session) IsArchitectureValid() bool         { return s.cpu.IsArchitectureValid() }
func (s *Session) ClearArchitecture()                { s.cpu.ClearArchitecture() }
func (s *Session) IsRegister(reg arch.RegisterID) bool { return s.cpu.IsRegister(reg) }
func (s *Session) IsFlag(reg arch.RegisterID) bool     { return s.cpu.IsFlag(reg) }
func (s *Session) IsRegisterValid(reg arch.RegisterID) bool { return s.cpu.IsRegisterValid(reg) }

// LookupRegister resolves a register's textual name (e.g. "eax") to
// its RegisterID under the session's current architecture, for
// tooling that only has a name on hand.
func (s *Session) LookupRegister(name string) (arch.RegisterID, bool) { return s.cpu.LookupRegister(name) }

func (s *Session) GetRegisterGeometry(reg arch.RegisterID) (arch.Geometry, error) {
	return s.cpu.GetRegisterGeometry(reg)
}

func (s *Session) GetConcreteRegisterValue(reg arch.RegisterID) (uint64, error) {
	return s.cpu.GetConcreteRegisterValue(reg)
}

func (s *Session) SetConcreteRegisterValue(reg arch.RegisterID, val uint64) error {
	return s.cpu.SetConcreteRegisterValue(reg, val)
}

func (s *Session) GetConcreteMemoryValue(addr uint64, size int) []byte {
	return s.cpu.ReadMemory(addr, size)
}

func (s *Session) SetConcreteMemoryValue(addr uint64, data []byte) { s.cpu.WriteMemory(addr, data) }
func (s *Session) IsMemoryMapped(addr uint64) bool                  { return s.cpu.IsMemoryMapped(addr) }
func (s *Session) UnmapMemory(addr uint64, size int)                { s.cpu.UnmapMemory(addr, size) }

// Disassembly decodes inst.Raw through the configured disassembler.
// With no disassembler configured this is an error: the caller handed
// over raw bytes nothing in the session can decode.
func (s *Session) Disassembly(inst *Instruction) error {
	if err := s.checkInitialised(); err != nil {
		return err
	}
	if s.disasm == nil {
		return types.New(types.ErrKindUnsupportedArchitecture, "no disassembler configured for this session")
	}
	return s.disasm.Disassemble(inst)
}

// --- AST surface ---

func (s *Session) FreeAllAstNodes()            { s.pool.FreeAllAstNodes() }
func (s *Session) FreeAstNodes(nodes []*ast.Node) { s.pool.FreeAstNodes(nodes) }
func (s *Session) RecordAstNode(n *ast.Node) *ast.Node { return s.pool.RecordAstNode(n) }
func (s *Session) ExtractUniqueAstNodes(root *ast.Node) []*ast.Node {
	return ast.ExtractUniqueAstNodes(root)
}
func (s *Session) RecordVariableAstNode(name string, n *ast.Node) { s.pool.RecordVariableAstNode(name, n) }
func (s *Session) GetAstVariableNode(name string) (*ast.Node, bool) {
	return s.pool.GetAstVariableNode(name)
}
func (s *Session) GetAllocatedAstNodes() []*ast.Node          { return s.pool.GetAllocatedAstNodes() }
func (s *Session) SetAllocatedAstNodes(nodes []*ast.Node)     { s.pool.SetAllocatedAstNodes(nodes) }
func (s *Session) GetAstVariableNodes() map[string]*ast.Node  { return s.pool.GetAstVariableNodes() }
func (s *Session) SetAstVariableNodes(vars map[string]*ast.Node) {
	s.pool.SetAstVariableNodes(vars)
}
func (s *Session) SetAstRepresentationMode(mode ast.RepresentationMode) {
	s.pool.SetAstRepresentationMode(mode)
}
func (s *Session) GetAstRepresentationMode() ast.RepresentationMode {
	return s.pool.GetAstRepresentationMode()
}

// PrintAstRepresentation renders node using the session's active
// representation mode.
func (s *Session) PrintAstRepresentation(w io.Writer, node *ast.Node) error {
	return s.pool.PrintAstRepresentation(w, node)
}

// --- Callbacks surface ---

func (s *Session) AddCallback(kind callbacks.Kind, handler interface{}) {
	s.dispatcher.AddCallback(kind, handler)
}
func (s *Session) RemoveCallback(kind callbacks.Kind, handler interface{}) {
	s.dispatcher.RemoveCallback(kind, handler)
}
func (s *Session) RemoveAllCallbacks() { s.dispatcher.RemoveAllCallbacks() }

// ProcessCallbacks runs kind's handler chain against payload directly.
// For the two read kinds the return value is always nil (the handlers
// act by side effect); for SymbolicSimplification it is the rewritten
// node. payload must be the kind's own payload type.
func (s *Session) ProcessCallbacks(kind callbacks.Kind, payload interface{}) (interface{}, error) {
	switch kind {
	case callbacks.GetConcreteMemoryValue:
		return nil, s.dispatcher.ProcessMemoryRead(payload.(callbacks.MemoryAccess))
	case callbacks.GetConcreteRegisterValue:
		return nil, s.dispatcher.ProcessRegisterRead(payload.(callbacks.RegisterAccess))
	default:
		return s.dispatcher.ProcessSimplification(payload)
	}
}

// --- Symbolic surface ---

func (s *Session) Symbolic() *symbolic.Engine { return s.sym }

// --- Taint surface ---

func (s *Session) Taint() *taint.Engine { return s.tnt }

// --- Solver surface ---

func (s *Session) SetSolver(slv solver.Solver) { s.slv = slv }

// SetExternalSimplifier wires an ast.ExternalSimplifier (typically a
// Z3Solver, which implements both interfaces) into the symbolic
// engine's simplification pipeline. Only expressions created with
// ExprOptions.UseExternal set pass through it; the built-in lifters
// never set UseExternal, so Processing does not consult it.
func (s *Session) SetExternalSimplifier(ext ast.ExternalSimplifier) { s.sym.SetExternalSimplifier(ext) }
func (s *Session) GetModel(node *ast.Node) (solver.Model, error)  { return s.slv.GetModel(node) }
func (s *Session) GetModels(node *ast.Node, limit int) ([]solver.Model, error) {
	return s.slv.GetModels(node, limit)
}
func (s *Session) Evaluate(node *ast.Node) (uint64, error) { return s.slv.Evaluate(node) }

// --- Lifter registry ---

// RegisterLifter installs (or overwrites) the lifter for mnemonic.
func (s *Session) RegisterLifter(mnemonic string, l Lifter) { s.lifters[mnemonic] = l }
