package taint

import (
	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/types"
)

// State mirrors the symbolic engine's lifecycle, scoped down to what
// the taint engine actually needs: it has no backed-up/running
// distinction since it holds no AST and nothing it does is re-entrant
// in a way that needs snapshotting beyond its two bitsets.
type State int

const (
	Uninitialised State = iota
	Initialised
	TornDown
)

// QueryResult is a batch taint-membership check result, grounded on
// the same "return what's missing/set" shape as a bulk presence check.
type QueryResult struct {
	Tainted []Operand
}

// Engine tracks which registers (parent granularity) and memory bytes
// are currently considered attacker-influenced, and propagates taint
// across instruction operands under a union or an assignment policy.
type Engine struct {
	state State
	cpu   *arch.CPU

	taintedRegs map[arch.RegisterID]bool
	taintedMem  map[uint64]bool
}

// NewEngine returns an uninitialised Engine bound to cpu, which it
// uses only to resolve a sub-register to its parent's id.
func NewEngine(cpu *arch.CPU) *Engine {
	return &Engine{
		cpu:         cpu,
		taintedRegs: make(map[arch.RegisterID]bool),
		taintedMem:  make(map[uint64]bool),
	}
}

// Init transitions the engine to INITIALISED.
func (e *Engine) Init() {
	if e.state == Uninitialised {
		e.state = Initialised
	}
}

// Reset clears every tainted register and memory byte, keeping the
// engine initialised.
func (e *Engine) Reset() {
	e.taintedRegs = make(map[arch.RegisterID]bool)
	e.taintedMem = make(map[uint64]bool)
	e.state = Initialised
}

// Remove tears the engine down; no further operations are valid.
func (e *Engine) Remove() {
	e.state = TornDown
}

func (e *Engine) checkTaint() error {
	if e.state != Initialised {
		return types.New(types.ErrKindTaintEngineNotInitialised, "taint engine not initialised")
	}
	return nil
}

func (e *Engine) parentOf(reg arch.RegisterID) arch.RegisterID {
	geom, err := e.cpu.GetRegisterGeometry(reg)
	if err != nil {
		return reg
	}
	return geom.Parent
}

// IsRegisterTainted reports whether reg's parent register currently
// carries taint.
func (e *Engine) IsRegisterTainted(reg arch.RegisterID) bool {
	return e.taintedRegs[e.parentOf(reg)]
}

// IsMemoryTainted reports whether addr currently carries taint.
func (e *Engine) IsMemoryTainted(addr uint64) bool {
	return e.taintedMem[addr]
}

// IsMemoryRangeTainted reports whether any byte in [addr, addr+size)
// carries taint: a memory object is considered tainted if any part of
// it is, matching how a symbolic expression built over it would also
// be tainted by any one of its constituent bytes.
func (e *Engine) IsMemoryRangeTainted(addr uint64, size int) bool {
	for i := 0; i < size; i++ {
		if e.taintedMem[addr+uint64(i)] {
			return true
		}
	}
	return false
}

// IsTainted dispatches to the right primitive query by op.Kind. An
// Immediate is never tainted.
func (e *Engine) IsTainted(op Operand) bool {
	switch op.Kind {
	case Register:
		return e.IsRegisterTainted(op.Register)
	case Memory:
		return e.IsMemoryRangeTainted(op.Address, op.Size)
	default:
		return false
	}
}

// setTaintRegister is the primitive register-taint setter; exported
// wrappers below give it the two names callers expect.
func (e *Engine) setTaintRegister(reg arch.RegisterID, tainted bool) {
	parent := e.parentOf(reg)
	if tainted {
		e.taintedRegs[parent] = true
	} else {
		delete(e.taintedRegs, parent)
	}
}

// setTaintMemory is the primitive byte-taint setter.
func (e *Engine) setTaintMemory(addr uint64, tainted bool) {
	if tainted {
		e.taintedMem[addr] = true
	} else {
		delete(e.taintedMem, addr)
	}
}

// TaintRegister marks reg's parent register tainted.
func (e *Engine) TaintRegister(reg arch.RegisterID) error {
	if err := e.checkTaint(); err != nil {
		return err
	}
	e.setTaintRegister(reg, true)
	return nil
}

// UntaintRegister clears reg's parent register's taint.
func (e *Engine) UntaintRegister(reg arch.RegisterID) error {
	if err := e.checkTaint(); err != nil {
		return err
	}
	e.setTaintRegister(reg, false)
	return nil
}

// TaintMemory marks the byte at addr tainted.
func (e *Engine) TaintMemory(addr uint64) error {
	if err := e.checkTaint(); err != nil {
		return err
	}
	e.setTaintMemory(addr, true)
	return nil
}

// UntaintMemory clears the taint on the byte at addr.
func (e *Engine) UntaintMemory(addr uint64) error {
	if err := e.checkTaint(); err != nil {
		return err
	}
	e.setTaintMemory(addr, false)
	return nil
}

// TaintMemoryRange marks every byte in [addr, addr+size) tainted.
func (e *Engine) TaintMemoryRange(addr uint64, size int) error {
	for i := 0; i < size; i++ {
		if err := e.TaintMemory(addr + uint64(i)); err != nil {
			return err
		}
	}
	return nil
}

// UntaintMemoryRange clears the taint on every byte in [addr, addr+size).
func (e *Engine) UntaintMemoryRange(addr uint64, size int) error {
	for i := 0; i < size; i++ {
		if err := e.UntaintMemory(addr + uint64(i)); err != nil {
			return err
		}
	}
	return nil
}

// setTainted dispatches to the right primitive setter by op.Kind. An
// Immediate cannot be tainted; setting one is a silent no-op since
// there's no location to record the bit against.
func (e *Engine) setTainted(op Operand, tainted bool) {
	switch op.Kind {
	case Register:
		e.setTaintRegister(op.Register, tainted)
	case Memory:
		for i := 0; i < op.Size; i++ {
			e.setTaintMemory(op.Address+uint64(i), tainted)
		}
	}
}

// TaintUnion applies the union propagation policy: dst ends up tainted
// iff dst or src was already tainted. Returns dst's resulting taint
// state.
func (e *Engine) TaintUnion(dst, src Operand) (bool, error) {
	if err := e.checkTaint(); err != nil {
		return false, err
	}
	result := e.IsTainted(dst) || e.IsTainted(src)
	e.setTainted(dst, result)
	return result, nil
}

// TaintAssignment applies the assignment propagation policy: dst's
// taint is overwritten with src's, regardless of dst's prior state.
// Returns dst's resulting taint state (== src's taint before the call).
func (e *Engine) TaintAssignment(dst, src Operand) (bool, error) {
	if err := e.checkTaint(); err != nil {
		return false, err
	}
	result := e.IsTainted(src)
	e.setTainted(dst, result)
	return result, nil
}

// QueryTainted returns every op in ops that is currently tainted,
// mirroring a batch presence check: the caller gets back only what
// matched rather than a parallel bool slice.
func (e *Engine) QueryTainted(ops []Operand) QueryResult {
	result := QueryResult{Tainted: make([]Operand, 0, len(ops))}
	for _, op := range ops {
		if e.IsTainted(op) {
			result.Tainted = append(result.Tainted, op)
		}
	}
	return result
}
