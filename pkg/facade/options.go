package facade

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/symbex/pkg/arch"
	"github.com/joshuapare/symbex/pkg/solver"
	"github.com/joshuapare/symbex/pkg/symbolic"
)

// discardLogger is the package-level default: a façade session stays
// silent unless a caller opts into logging via Options.Logger.
var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Options configures a Session at construction: a plain options
// struct passed by value rather than a chain of functional setters.
type Options struct {
	// Arch selects the register geometry a session starts with.
	// Invalid leaves the architecture unset; SetArchitecture must be
	// called before any operation that touches the CPU model.
	Arch arch.ID

	// Logger receives the session's structured, levelled logging:
	// lifecycle transitions, skipped or unsupported instructions and
	// lifter failures; the engines themselves do not log. Nil defaults
	// to a discard logger, so the core stays silent unless a caller
	// opts in.
	Logger *logrus.Logger

	// Solver backs the SMT-extraction surface (GetModel, GetModels,
	// Evaluate). Nil defaults to solver.NullSolver{}.
	Solver solver.Solver

	// Disassembler, when non-nil, lets Processing and Disassembly
	// decode Instruction.Raw before lifting. Nil means every
	// instruction must arrive already decoded.
	Disassembler Disassembler

	// Optimizations are applied to the symbolic engine when New
	// constructs the Session, in addition to its own default
	// (AST_DICTIONARIES enabled).
	Optimizations map[symbolic.Optimization]bool
}

func (o Options) logger() *logrus.Logger {
	if o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

func (o Options) solverOrNull() solver.Solver {
	if o.Solver == nil {
		return solver.NullSolver{}
	}
	return o.Solver
}
