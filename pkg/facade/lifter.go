package facade

import (
	"math/big"

	"github.com/joshuapare/symbex/pkg/ast"
	"github.com/joshuapare/symbex/pkg/symbolic"
)

// Lifter builds the symbolic expressions and destinations for one
// instruction's semantics. The engine owns how a lifter constructs
// expressions and taint events, not the semantics of every opcode:
// Lifter is the seam where an opaque per-opcode semantic layer plugs
// in. ctx gives the lifter everything it needs without reaching past
// the façade into engine internals directly.
type Lifter func(ctx *LiftContext) error

// LiftContext is the argument every Lifter receives: the instruction
// being processed, plus the session operations a lifter is allowed to
// call (operand building, expression creation, path constraints).
type LiftContext struct {
	Session *Session
	Inst    *Instruction
	ic      *symbolic.InstructionContext
}

// BuildOperand lifts op to its current symbolic AST, recording it as
// one of the instruction's tracked inputs.
func (c *LiftContext) BuildOperand(op Operand) (*ast.Node, error) {
	switch op.Kind {
	case OperandImmediate:
		return c.Session.sym.BuildSymbolicImmediateWithContext(c.ic, op.Imm, op.ImmSize)
	case OperandRegister:
		return c.Session.sym.BuildSymbolicRegisterWithContext(c.ic, op.Reg)
	case OperandMemory:
		return c.Session.sym.BuildSymbolicMemoryWithContext(c.ic, op.Mem.Address, op.Mem.Size)
	default:
		return nil, nil
	}
}

// WriteOperand binds node as op's new value, dispatching to the
// register/memory/flag creator appropriate to op.Kind, and appends
// the resulting expression to Inst.Symbolic. When the bound value is
// ground it is also written to the concrete CPU state (for memory,
// writes of up to 8 bytes); a value that still holds a free variable
// leaves the concrete state as it was.
func (c *LiftContext) WriteOperand(op Operand, node *ast.Node, comment string) (*symbolic.Expression, error) {
	opts := symbolic.ExprOptions{Comment: comment, Tainted: c.Inst.Tainted}
	var (
		expr *symbolic.Expression
		err  error
	)
	switch op.Kind {
	case OperandRegister:
		if c.Session.cpu.IsFlag(op.Reg) {
			expr, err = c.Session.sym.CreateSymbolicFlagExpression(node, op.Reg, opts)
		} else {
			expr, err = c.Session.sym.CreateSymbolicRegisterExpression(node, op.Reg, opts)
		}
	case OperandMemory:
		expr, err = c.Session.sym.CreateSymbolicMemoryExpression(node, op.Mem.Address, op.Mem.Size, opts)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Inst.Symbolic = append(c.Inst.Symbolic, expr)
	if val, evalErr := ast.EvaluateGround(expr.Node); evalErr == nil {
		switch {
		case op.Kind == OperandRegister:
			if geom, gErr := c.Session.cpu.GetRegisterGeometry(op.Reg); gErr == nil {
				_ = c.Session.cpu.SetConcreteRegisterValue(geom.Parent, val)
			}
		case op.Kind == OperandMemory && op.Mem.Size <= 8:
			for i := 0; i < op.Mem.Size; i++ {
				c.Session.cpu.SetConcreteMemoryByte(op.Mem.Address+uint64(i), byte(val>>(8*uint(i))))
			}
		}
	}
	return expr, nil
}

// AddPathConstraint records taken/alternative for the current
// instruction's address.
func (c *LiftContext) AddPathConstraint(taken, alternative *ast.Node) error {
	return c.Session.sym.AddPathConstraint(c.Inst.Address, taken, alternative)
}

func constNode(bitSize uint32, value uint64) (*ast.Node, error) {
	return ast.NewConst(bitSize, new(big.Int).SetUint64(value))
}

// defaultLifters returns the built-in reference lifter table: mov,
// add, sub, xor, and, or, cmp, test, jz/jnz. These exist to exercise
// the façade's wiring end to end; they are not an exhaustive
// instruction set, and callers with a real semantic layer register
// their own via RegisterLifter.
func defaultLifters() map[string]Lifter {
	return map[string]Lifter{
		"mov":  liftMov,
		"add":  liftBinaryArith(ast.KindBvAdd),
		"sub":  liftBinaryArith(ast.KindBvSub),
		"xor":  liftBinaryArith(ast.KindBvXor),
		"and":  liftBinaryArith(ast.KindBvAnd),
		"or":   liftBinaryArith(ast.KindBvOr),
		"cmp":  liftCompare,
		"test": liftTest,
		"jz":   liftConditionalJump(true),
		"jnz":  liftConditionalJump(false),
	}
}

// liftMov copies src into dst, propagating taint by assignment (the
// destination's prior taint is discarded, matching a real move).
func liftMov(c *LiftContext) error {
	dst, src := c.Inst.Operands[0], c.Inst.Operands[1]
	node, err := c.BuildOperand(src)
	if err != nil {
		return err
	}
	if _, err := c.WriteOperand(dst, node, "mov"); err != nil {
		return err
	}
	return propagateTaint(c.Session, dst, src, assignment)
}

// liftBinaryArith builds a same-width two-operand arithmetic/bitwise
// lifter: dst = dst <op> src, taint unions dst and src.
func liftBinaryArith(kind ast.Kind) Lifter {
	return func(c *LiftContext) error {
		dst, src := c.Inst.Operands[0], c.Inst.Operands[1]
		lhs, err := c.BuildOperand(dst)
		if err != nil {
			return err
		}
		rhs, err := c.BuildOperand(src)
		if err != nil {
			return err
		}
		result, err := ast.NewBinary(kind, lhs, rhs)
		if err != nil {
			return err
		}
		result = c.Session.pool.RecordAstNode(result)
		if _, err := c.WriteOperand(dst, result, kind.String()); err != nil {
			return err
		}
		return propagateTaint(c.Session, dst, src, union)
	}
}

// liftCompare builds the zero-flag predicate lhs == rhs without
// writing any register; a lifter that only records flags would extend
// this, but ZF alone is enough to drive jz/jnz in the reference table.
func liftCompare(c *LiftContext) error {
	lhsOp, rhsOp := c.Inst.Operands[0], c.Inst.Operands[1]
	lhs, err := c.BuildOperand(lhsOp)
	if err != nil {
		return err
	}
	rhs, err := c.BuildOperand(rhsOp)
	if err != nil {
		return err
	}
	eq, err := ast.NewComparison(ast.KindEqual, lhs, rhs)
	if err != nil {
		return err
	}
	eq = c.Session.pool.RecordAstNode(eq)
	expr, err := c.Session.sym.CreateSymbolicVolatileExpression(eq, symbolic.ExprOptions{Comment: "cmp", Tainted: c.Inst.Tainted})
	if err != nil {
		return err
	}
	c.Inst.Symbolic = append(c.Inst.Symbolic, expr)
	c.Session.lastVolatile = expr.Node
	return nil
}

// liftTest is cmp's bitwise-and sibling: it builds lhs & rhs and
// leaves the zero-ness check to the consumer of the volatile
// expression, same shape as liftCompare.
func liftTest(c *LiftContext) error {
	lhsOp, rhsOp := c.Inst.Operands[0], c.Inst.Operands[1]
	lhs, err := c.BuildOperand(lhsOp)
	if err != nil {
		return err
	}
	rhs, err := c.BuildOperand(rhsOp)
	if err != nil {
		return err
	}
	and, err := ast.NewBinary(ast.KindBvAnd, lhs, rhs)
	if err != nil {
		return err
	}
	and = c.Session.pool.RecordAstNode(and)
	expr, err := c.Session.sym.CreateSymbolicVolatileExpression(and, symbolic.ExprOptions{Comment: "test", Tainted: c.Inst.Tainted})
	if err != nil {
		return err
	}
	c.Inst.Symbolic = append(c.Inst.Symbolic, expr)
	c.Session.lastVolatile = expr.Node
	return nil
}

// liftConditionalJump records a path constraint from the most recent
// volatile expression (the comparison a preceding cmp/test lifted):
// wantZero selects jz's "branch iff last compare was equal" versus
// jnz's negation. A test leaves a multi-bit bvand result rather than a
// 1-bit predicate; for it the zero flag is built here as result == 0.
func liftConditionalJump(wantZero bool) Lifter {
	return func(c *LiftContext) error {
		pred := c.Session.lastVolatile
		if pred == nil {
			zero, err := constNode(1, 0)
			if err != nil {
				return err
			}
			pred = zero
		}
		if pred.BitSize != 1 {
			zero, err := constNode(pred.BitSize, 0)
			if err != nil {
				return err
			}
			isZero, err := ast.NewComparison(ast.KindEqual, pred, zero)
			if err != nil {
				return err
			}
			pred = isZero
		}
		taken, alt := pred, negate(pred)
		if !wantZero {
			taken, alt = alt, taken
		}
		taken = c.Session.pool.RecordAstNode(taken)
		alt = c.Session.pool.RecordAstNode(alt)
		return c.AddPathConstraint(taken, alt)
	}
}

func negate(n *ast.Node) *ast.Node {
	neg, err := ast.NewLogical(ast.KindLNot, n)
	if err != nil {
		return n
	}
	return neg
}

type taintPolicy int

const (
	union taintPolicy = iota
	assignment
)

// propagateTaint maps dst/src facade Operands to taint.Operand and
// applies the requested policy through the taint engine.
func propagateTaint(s *Session, dst, src Operand, policy taintPolicy) error {
	dstOp := toTaintOperand(dst)
	srcOp := toTaintOperand(src)
	var err error
	if policy == union {
		_, err = s.tnt.TaintUnion(dstOp, srcOp)
	} else {
		_, err = s.tnt.TaintAssignment(dstOp, srcOp)
	}
	return err
}
