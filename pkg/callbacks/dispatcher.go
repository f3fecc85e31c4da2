// Package callbacks implements the multi-kind callback registry that
// mediates concrete reads and symbolic simplification: three ordered
// handler chains, one per kind, each kind with its own payload shape.
package callbacks

import (
	"fmt"
	"reflect"

	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/types"
)

// Kind tags which event a handler is registered for.
type Kind int

const (
	GetConcreteMemoryValue Kind = iota
	GetConcreteRegisterValue
	SymbolicSimplification
)

// MemoryAccess is the payload for GetConcreteMemoryValue: a handler is
// notified of the address being read and may populate it via the CPU
// it closes over before returning.
type MemoryAccess struct {
	Address uint64
	Size    int
}

// RegisterAccess is the payload for GetConcreteRegisterValue.
type RegisterAccess struct {
	Reg arch.RegisterID
}

// MemoryReadHandler observes a concrete memory read miss.
type MemoryReadHandler func(MemoryAccess) error

// RegisterReadHandler observes a concrete register read miss.
type RegisterReadHandler func(RegisterAccess) error

// SimplificationHandler rewrites an AST node, returning the (possibly
// new) node to feed into the next handler in the chain. The payload
// and return type are `interface{}` (expected to be *ast.Node) so this
// package never needs to import the ast package, which itself calls
// into Dispatcher.
type SimplificationHandler func(interface{}) (interface{}, error)

type handlerEntry struct {
	token   uintptr
	memory  MemoryReadHandler
	reg     RegisterReadHandler
	simpl   SimplificationHandler
}

// Dispatcher holds the three ordered handler chains. Handlers within a
// kind run in insertion order; for SymbolicSimplification each handler
// sees the previous handler's output (a left-to-right rewrite chain);
// for the two read kinds every handler is notified in order (a
// notify-all), and a handler error aborts the remaining chain for that
// single invocation without corrupting caller state.
type Dispatcher struct {
	memory []handlerEntry
	reg    []handlerEntry
	simpl  []handlerEntry
}

// New returns an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

func handlerToken(handler interface{}) uintptr {
	return reflect.ValueOf(handler).Pointer()
}

// AddCallback registers handler for kind. handler must be the Go
// function type matching kind's payload (MemoryReadHandler,
// RegisterReadHandler or SimplificationHandler); a mismatched type
// panics, mirroring a programmer error rather than a runtime
// condition a caller should branch on.
func (d *Dispatcher) AddCallback(kind Kind, handler interface{}) {
	entry := handlerEntry{token: handlerToken(handler)}
	switch kind {
	case GetConcreteMemoryValue:
		entry.memory = handler.(MemoryReadHandler)
		d.memory = append(d.memory, entry)
	case GetConcreteRegisterValue:
		entry.reg = handler.(RegisterReadHandler)
		d.reg = append(d.reg, entry)
	case SymbolicSimplification:
		entry.simpl = handler.(SimplificationHandler)
		d.simpl = append(d.simpl, entry)
	default:
		panic(fmt.Sprintf("callbacks: unknown kind %d", kind))
	}
}

// RemoveCallback removes the first handler registered under kind that
// matches handler by identity (function pointer equality).
func (d *Dispatcher) RemoveCallback(kind Kind, handler interface{}) {
	token := handlerToken(handler)
	switch kind {
	case GetConcreteMemoryValue:
		d.memory = removeToken(d.memory, token)
	case GetConcreteRegisterValue:
		d.reg = removeToken(d.reg, token)
	case SymbolicSimplification:
		d.simpl = removeToken(d.simpl, token)
	}
}

func removeToken(entries []handlerEntry, token uintptr) []handlerEntry {
	for i, e := range entries {
		if e.token == token {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}

// RemoveAllCallbacks clears every chain.
func (d *Dispatcher) RemoveAllCallbacks() {
	d.memory = nil
	d.reg = nil
	d.simpl = nil
}

// ProcessMemoryRead notifies every GetConcreteMemoryValue handler in
// order. A handler error is surfaced as CallbackFailure and aborts the
// remaining handlers for this call.
func (d *Dispatcher) ProcessMemoryRead(access MemoryAccess) error {
	for _, e := range d.memory {
		if err := e.memory(access); err != nil {
			return types.Wrap(types.ErrKindCallbackFailure, "memory read callback failed", err)
		}
	}
	return nil
}

// ProcessRegisterRead notifies every GetConcreteRegisterValue handler
// in order, with the same abort-on-error contract as ProcessMemoryRead.
func (d *Dispatcher) ProcessRegisterRead(access RegisterAccess) error {
	for _, e := range d.reg {
		if err := e.reg(access); err != nil {
			return types.Wrap(types.ErrKindCallbackFailure, "register read callback failed", err)
		}
	}
	return nil
}

// ProcessSimplification chains every SymbolicSimplification handler,
// feeding each handler's output to the next. node is typically
// *ast.Node; this package only moves it through as interface{}.
func (d *Dispatcher) ProcessSimplification(node interface{}) (interface{}, error) {
	current := node
	for _, e := range d.simpl {
		next, err := e.simpl(current)
		if err != nil {
			return current, types.Wrap(types.ErrKindCallbackFailure, "simplification callback failed", err)
		}
		current = next
	}
	return current, nil
}

// HasSimplificationHandlers reports whether any simplification
// handler is registered, letting callers skip the chain cheaply.
func (d *Dispatcher) HasSimplificationHandlers() bool { return len(d.simpl) > 0 }
