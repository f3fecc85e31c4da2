// Package ast implements the immutable bit-vector expression DAG the
// symbolic engine builds instructions out of: node construction with
// operator type-checking, hash-consing via a dictionary, a GC'd node
// pool, a named-variable registry and a simplification pipeline.
package ast

import (
	"fmt"
	"math/big"

	"github.com/joshuapare/symbex/pkg/types"
)

// Kind tags the operator a Node represents.
type Kind int

const (
	KindInvalid Kind = iota
	KindConst
	KindVariable
	KindExtract
	KindConcat
	KindBvAdd
	KindBvSub
	KindBvMul
	KindBvAnd
	KindBvOr
	KindBvXor
	KindBvNot
	KindBvNeg
	KindBvShl
	KindBvLshr
	KindBvAshr
	KindZeroExtend
	KindSignExtend
	KindIte
	KindEqual
	KindDistinct
	KindBvUlt
	KindBvSlt
	KindLAnd
	KindLOr
	KindLNot
)

var kindNames = map[Kind]string{
	KindConst:      "const",
	KindVariable:   "var",
	KindExtract:    "extract",
	KindConcat:     "concat",
	KindBvAdd:      "bvadd",
	KindBvSub:      "bvsub",
	KindBvMul:      "bvmul",
	KindBvAnd:      "bvand",
	KindBvOr:       "bvor",
	KindBvXor:      "bvxor",
	KindBvNot:      "bvnot",
	KindBvNeg:      "bvneg",
	KindBvShl:      "bvshl",
	KindBvLshr:     "bvlshr",
	KindBvAshr:     "bvashr",
	KindZeroExtend: "zext",
	KindSignExtend: "sext",
	KindIte:        "ite",
	KindEqual:      "equal",
	KindDistinct:   "distinct",
	KindBvUlt:      "bvult",
	KindBvSlt:      "bvslt",
	KindLAnd:       "land",
	KindLOr:        "lor",
	KindLNot:       "lnot",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// binaryArith is the set of kinds that take two same-width children
// and produce a result of that same width.
var binaryArith = map[Kind]bool{
	KindBvAdd: true, KindBvSub: true, KindBvMul: true,
	KindBvAnd: true, KindBvOr: true, KindBvXor: true,
	KindBvShl: true, KindBvLshr: true, KindBvAshr: true,
}

// comparisons produce a 1-bit boolean result from two same-width children.
var comparisons = map[Kind]bool{
	KindEqual: true, KindDistinct: true, KindBvUlt: true, KindBvSlt: true,
}

// Node is one immutable entry in the expression DAG. Two structurally
// equal nodes share a single representative when hash-consing
// (AST_DICTIONARIES) is enabled; outside of that, equal nodes may
// coexist as distinct pointers.
type Node struct {
	Kind     Kind
	BitSize  uint32
	Children []*Node

	// Value holds the constant for KindConst.
	Value *big.Int

	// VarName/VarID identify the free variable for KindVariable.
	VarName string
	VarID   uint64

	// ExtractLow/ExtractHigh bound a KindExtract's bit range,
	// inclusive, within Children[0].
	ExtractLow  int
	ExtractHigh int

	hash uint64
}

// NewConst builds a constant node of the given bit size.
func NewConst(bitSize uint32, value *big.Int) (*Node, error) {
	if bitSize == 0 || bitSize > 512 {
		return nil, types.New(types.ErrKindAstTypingError, "bitSize out of [1,512] range")
	}
	if value == nil {
		value = new(big.Int)
	}
	n := &Node{Kind: KindConst, BitSize: bitSize, Value: new(big.Int).Set(value)}
	n.hash = computeHash(n)
	return n, nil
}

// NewVariable builds a reference node to a named free variable.
func NewVariable(bitSize uint32, varID uint64, name string) (*Node, error) {
	if bitSize == 0 || bitSize > 512 {
		return nil, types.New(types.ErrKindAstTypingError, "bitSize out of [1,512] range")
	}
	n := &Node{Kind: KindVariable, BitSize: bitSize, VarID: varID, VarName: name}
	n.hash = computeHash(n)
	return n, nil
}

// NewExtract builds a bit-extraction node over child, keeping bits
// [low, high] inclusive.
func NewExtract(low, high int, child *Node) (*Node, error) {
	if child == nil {
		return nil, types.New(types.ErrKindAstTypingError, "extract requires a child")
	}
	if low < 0 || high < low || high >= int(child.BitSize) {
		return nil, types.New(types.ErrKindAstTypingError, "extract range out of child bounds")
	}
	n := &Node{
		Kind:        KindExtract,
		BitSize:     uint32(high - low + 1),
		Children:    []*Node{child},
		ExtractLow:  low,
		ExtractHigh: high,
	}
	n.hash = computeHash(n)
	return n, nil
}

// NewConcat builds a concatenation node, most-significant child first.
func NewConcat(children ...*Node) (*Node, error) {
	if len(children) < 2 {
		return nil, types.New(types.ErrKindAstTypingError, "concat requires at least two children")
	}
	var total uint32
	for _, c := range children {
		if c == nil {
			return nil, types.New(types.ErrKindAstTypingError, "concat child is nil")
		}
		total += c.BitSize
	}
	n := &Node{Kind: KindConcat, BitSize: total, Children: append([]*Node(nil), children...)}
	n.hash = computeHash(n)
	return n, nil
}

// NewBinary builds a same-width arithmetic/bitwise node (bvadd, bvand, ...).
func NewBinary(kind Kind, lhs, rhs *Node) (*Node, error) {
	if !binaryArith[kind] {
		return nil, types.New(types.ErrKindAstTypingError, fmt.Sprintf("%s is not a binary arithmetic kind", kind))
	}
	if lhs == nil || rhs == nil {
		return nil, types.New(types.ErrKindAstTypingError, "binary op requires two children")
	}
	if lhs.BitSize != rhs.BitSize {
		return nil, types.New(types.ErrKindAstTypingError, "binary op children must share bit size")
	}
	n := &Node{Kind: kind, BitSize: lhs.BitSize, Children: []*Node{lhs, rhs}}
	n.hash = computeHash(n)
	return n, nil
}

// NewUnary builds a same-width unary node (bvnot, bvneg).
func NewUnary(kind Kind, child *Node) (*Node, error) {
	if kind != KindBvNot && kind != KindBvNeg {
		return nil, types.New(types.ErrKindAstTypingError, fmt.Sprintf("%s is not a unary arithmetic kind", kind))
	}
	if child == nil {
		return nil, types.New(types.ErrKindAstTypingError, "unary op requires a child")
	}
	n := &Node{Kind: kind, BitSize: child.BitSize, Children: []*Node{child}}
	n.hash = computeHash(n)
	return n, nil
}

// NewComparison builds a 1-bit boolean node (equal, distinct, bvult, bvslt).
func NewComparison(kind Kind, lhs, rhs *Node) (*Node, error) {
	if !comparisons[kind] {
		return nil, types.New(types.ErrKindAstTypingError, fmt.Sprintf("%s is not a comparison kind", kind))
	}
	if lhs == nil || rhs == nil {
		return nil, types.New(types.ErrKindAstTypingError, "comparison requires two children")
	}
	if lhs.BitSize != rhs.BitSize {
		return nil, types.New(types.ErrKindAstTypingError, "comparison children must share bit size")
	}
	n := &Node{Kind: kind, BitSize: 1, Children: []*Node{lhs, rhs}}
	n.hash = computeHash(n)
	return n, nil
}

// NewLogical builds a 1-bit boolean connective over 1-bit children.
func NewLogical(kind Kind, children ...*Node) (*Node, error) {
	if kind != KindLAnd && kind != KindLOr && kind != KindLNot {
		return nil, types.New(types.ErrKindAstTypingError, fmt.Sprintf("%s is not a logical kind", kind))
	}
	want := 2
	if kind == KindLNot {
		want = 1
	}
	if len(children) != want {
		return nil, types.New(types.ErrKindAstTypingError, fmt.Sprintf("%s requires %d children", kind, want))
	}
	for _, c := range children {
		if c == nil || c.BitSize != 1 {
			return nil, types.New(types.ErrKindAstTypingError, "logical op children must be 1-bit")
		}
	}
	n := &Node{Kind: kind, BitSize: 1, Children: append([]*Node(nil), children...)}
	n.hash = computeHash(n)
	return n, nil
}

// NewIte builds an if-then-else node; cond must be 1-bit and the two
// branches must share a bit size, which becomes the result's bit size.
func NewIte(cond, then, els *Node) (*Node, error) {
	if cond == nil || then == nil || els == nil {
		return nil, types.New(types.ErrKindAstTypingError, "ite requires three children")
	}
	if cond.BitSize != 1 {
		return nil, types.New(types.ErrKindAstTypingError, "ite condition must be 1-bit")
	}
	if then.BitSize != els.BitSize {
		return nil, types.New(types.ErrKindAstTypingError, "ite branches must share bit size")
	}
	n := &Node{Kind: KindIte, BitSize: then.BitSize, Children: []*Node{cond, then, els}}
	n.hash = computeHash(n)
	return n, nil
}

// NewExtend builds a zero- or sign-extension node widening child to bitSize.
func NewExtend(kind Kind, bitSize uint32, child *Node) (*Node, error) {
	if kind != KindZeroExtend && kind != KindSignExtend {
		return nil, types.New(types.ErrKindAstTypingError, fmt.Sprintf("%s is not an extend kind", kind))
	}
	if child == nil {
		return nil, types.New(types.ErrKindAstTypingError, "extend requires a child")
	}
	if bitSize < child.BitSize {
		return nil, types.New(types.ErrKindAstTypingError, "extend target must be >= child bit size")
	}
	n := &Node{Kind: kind, BitSize: bitSize, Children: []*Node{child}}
	n.hash = computeHash(n)
	return n, nil
}

// Hash returns the node's structural hash, computed once at construction.
func (n *Node) Hash() uint64 { return n.hash }

// Equal reports whether n and other are structurally equivalent
// (same kind, bit size, value/var/extract fields and children,
// comparing children recursively by the same fields rather than by
// pointer identity; the cached hash is not consulted).
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	if n.Kind != other.Kind || n.BitSize != other.BitSize {
		return false
	}
	switch n.Kind {
	case KindConst:
		if n.Value.Cmp(other.Value) != 0 {
			return false
		}
	case KindVariable:
		if n.VarID != other.VarID {
			return false
		}
	case KindExtract:
		if n.ExtractLow != other.ExtractLow || n.ExtractHigh != other.ExtractHigh {
			return false
		}
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}
