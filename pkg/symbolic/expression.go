package symbolic

import (
	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/ast"
)

// Origin tags where an Expression is bound.
type Origin int

const (
	Volatile Origin = iota
	Memory
	Register
	Undefined
)

func (o Origin) String() string {
	switch o {
	case Memory:
		return "MEMORY"
	case Register:
		return "REGISTER"
	case Volatile:
		return "VOLATILE"
	default:
		return "UNDEF"
	}
}

// Destination identifies where a non-volatile expression is bound.
type Destination struct {
	IsMemory bool
	Address  uint64          // valid when IsMemory (one byte)
	Register arch.RegisterID // valid when !IsMemory
}

// Expression is a named, stored AST root with an origin and an
// optional destination. Expressions are append-only: ids never
// recycle within a session.
type Expression struct {
	ID      uint64
	Node    *ast.Node
	Origin  Origin
	Dest    Destination
	Comment string
	Tainted bool
}
