// Package symbolic implements the engine that lifts concrete
// operands into the AST DAG, maintains the register/memory ->
// expression-id maps, and tracks path constraints and named
// variables.
package symbolic

import (
	"fmt"

	"github.com/joshuapare/symbex/pkg/arch"
)

// Variable is a free bit-vector introduced into the AST to stand for
// an unknown input.
type Variable struct {
	ID      uint64
	Name    string
	Size    uint32
	Comment string

	// Origin, when non-nil, records the concrete address or register
	// id this variable was created from during concretisation.
	Origin *VariableOrigin
}

// VariableOrigin distinguishes a memory-backed variable from a
// register-backed one.
type VariableOrigin struct {
	IsRegister bool
	Address    uint64          // valid when !IsRegister
	Register   arch.RegisterID // valid when IsRegister
}

func defaultVariableName(id uint64) string {
	return fmt.Sprintf("SymVar_%d", id)
}
