package ast

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/symbex/pkg/callbacks"
)

// TestSimplificationChainComposes: two registered
// SYMBOLIC_SIMPLIFICATION handlers compose left-to-right so that
// (x+0)*1 simplifies to x.
func TestSimplificationChainComposes(t *testing.T) {
	p := NewPool()
	disp := callbacks.New()

	x, err := NewVariable(32, 1, "x")
	require.NoError(t, err)
	p.RecordVariableAstNode("x", x)

	zero, _ := NewConst(32, big.NewInt(0))
	one, _ := NewConst(32, big.NewInt(1))

	xPlus0, err := NewBinary(KindBvAdd, x, zero)
	require.NoError(t, err)
	expr, err := NewBinary(KindBvMul, xPlus0, one)
	require.NoError(t, err)

	// x+0 -> x, applied bottom-up across the whole subtree.
	disp.AddCallback(callbacks.SymbolicSimplification, callbacks.SimplificationHandler(func(v interface{}) (interface{}, error) {
		return rewriteBottomUp(v.(*Node), func(n *Node) *Node {
			if n.Kind == KindBvAdd && isZeroConst(n.Children[1]) {
				return n.Children[0]
			}
			return n
		}), nil
	}))

	// x*1 -> x, applied bottom-up across the whole subtree.
	disp.AddCallback(callbacks.SymbolicSimplification, callbacks.SimplificationHandler(func(v interface{}) (interface{}, error) {
		return rewriteBottomUp(v.(*Node), func(n *Node) *Node {
			if n.Kind == KindBvMul && isOneConst(n.Children[1]) {
				return n.Children[0]
			}
			return n
		}), nil
	}))

	result, err := p.ProcessSimplification(expr, false, disp, nil)
	require.NoError(t, err)
	require.Equal(t, KindVariable, result.Kind)
	require.Equal(t, "x", result.VarName)
}

// rewriteBottomUp rebuilds n's children first, then applies rule to
// the rebuilt node; a realistic simplification handler does this
// internally rather than relying on the pipeline to recurse for it.
func rewriteBottomUp(n *Node, rule func(*Node) *Node) *Node {
	if n == nil || len(n.Children) == 0 {
		return rule(n)
	}
	newChildren := make([]*Node, len(n.Children))
	changed := false
	for i, c := range n.Children {
		newChildren[i] = rewriteBottomUp(c, rule)
		if newChildren[i] != c {
			changed = true
		}
	}
	node := n
	if changed {
		rebuilt := *n
		rebuilt.Children = newChildren
		node = &rebuilt
	}
	return rule(node)
}

func isZeroConst(n *Node) bool { return n.Kind == KindConst && n.Value.Sign() == 0 }
func isOneConst(n *Node) bool  { return n.Kind == KindConst && n.Value.Cmp(big.NewInt(1)) == 0 }

func TestProcessSimplificationIsPureOnHandlerError(t *testing.T) {
	p := NewPool()
	disp := callbacks.New()
	disp.AddCallback(callbacks.SymbolicSimplification, callbacks.SimplificationHandler(func(v interface{}) (interface{}, error) {
		return nil, assertErr
	}))

	a, _ := NewConst(8, big.NewInt(3))
	result, err := p.ProcessSimplification(a, false, disp, nil)
	require.Error(t, err)
	require.Same(t, a, result, "pipeline must return the original node unchanged on error")
}

var assertErr = simpleErr("boom")

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
